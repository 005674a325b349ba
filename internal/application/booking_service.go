package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/rentalflow/service-rental/internal/domain/booking"
	itemDomain "github.com/rentalflow/service-rental/internal/domain/item"
	reviewDomain "github.com/rentalflow/service-rental/internal/domain/review"
	"github.com/rentalflow/service-rental/internal/events"
	"github.com/rentalflow/service-rental/pkg/domain"
	"github.com/rentalflow/service-rental/pkg/kafka"
)

// CreateBookingRequest holds the data needed to request a new booking.
type CreateBookingRequest struct {
	ItemID    uuid.UUID `json:"item_id" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                 uuid.UUID  `json:"id"`
	BookingNumber      string     `json:"booking_number"`
	RenterID           uuid.UUID  `json:"renter_id"`
	OwnerID            uuid.UUID  `json:"owner_id"`
	ItemID             uuid.UUID  `json:"item_id"`
	Status             string     `json:"status"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            time.Time  `json:"end_date"`
	TotalDays          int        `json:"total_days"`
	DailyRate          float64    `json:"daily_rate"`
	Subtotal           float64    `json:"subtotal"`
	SecurityDeposit    float64    `json:"security_deposit"`
	ServiceFee         float64    `json:"service_fee"`
	TotalAmount        float64    `json:"total_amount"`
	PaymentStatus      string     `json:"payment_status"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// BookingDetailDTO is a booking enriched with its item and viewer-derived
// flags for a detail screen.
type BookingDetailDTO struct {
	BookingDTO
	Item            *ItemDTO `json:"item,omitempty"`
	IsOwner         bool     `json:"is_owner"`
	IsRenter        bool     `json:"is_renter"`
	IsPaid          bool     `json:"is_paid"`
	StatusNarrative string   `json:"status_narrative"`
	Actions         []string `json:"actions"`
}

// BookingService is the application service orchestrating booking use cases.
// Every transition is validated by the aggregate against freshly loaded
// state before the persistence call goes out; when persistence fails the
// mutated in-memory copy is discarded, so callers never observe a
// half-applied transition.
type BookingService struct {
	repo       bookingDomain.BookingRepository
	itemRepo   itemDomain.ItemRepository
	reviewRepo reviewDomain.ReviewRepository
	pricing    bookingDomain.PricingCalculator
	producer   EventPublisher
	logger     *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	itemRepo itemDomain.ItemRepository,
	reviewRepo reviewDomain.ReviewRepository,
	pricing bookingDomain.PricingCalculator,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:       repo,
		itemRepo:   itemRepo,
		reviewRepo: reviewRepo,
		pricing:    pricing,
		producer:   producer,
		logger:     logger,
	}
}

// QuoteBooking computes a price preview for an item over a date range
// without creating anything. Safe to call on every date edit.
func (s *BookingService) QuoteBooking(ctx context.Context, itemID uuid.UUID, startDate, endDate time.Time) (*bookingDomain.Quote, error) {
	it, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricing.Quote(bookingDomain.QuoteParams{
		DailyRate:       it.DailyRate(),
		StartDate:       startDate,
		EndDate:         endDate,
		SecurityDeposit: it.SecurityDeposit(),
	})
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// CreateBooking creates a new pending booking for the renter.
func (s *BookingService) CreateBooking(ctx context.Context, renterID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	it, err := s.itemRepo.FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !it.IsActive() {
		return nil, domain.NewUnavailableError("item is no longer listed")
	}
	if it.IsOwnedBy(renterID) {
		return nil, domain.NewValidationError("cannot book your own item")
	}

	quote, err := s.pricing.Quote(bookingDomain.QuoteParams{
		DailyRate:       it.DailyRate(),
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		SecurityDeposit: it.SecurityDeposit(),
	})
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(
		renterID,
		it.OwnerID(),
		it.ID(),
		req.StartDate,
		req.EndDate,
		it.DailyRate(),
		quote,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	evt := events.BookingCreatedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		RenterID:      bk.RenterID(),
		OwnerID:       bk.OwnerID(),
		ItemID:        bk.ItemID(),
		StartDate:     bk.StartDate(),
		EndDate:       bk.EndDate(),
		TotalAmount:   bk.TotalAmount(),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCreated, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// ConfirmBooking confirms a pending booking. Only the item owner may
// confirm; retrying on an already-confirmed booking is a no-op success.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	statusBefore := bk.Status()
	if err := bk.Confirm(actorID); err != nil {
		return nil, err
	}
	if bk.Status() == statusBefore {
		// Idempotent retry: nothing changed, nothing to persist or publish.
		result := toBookingDTO(bk)
		return &result, nil
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.BookingConfirmedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		RenterID:      bk.RenterID(),
		OwnerID:       bk.OwnerID(),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingConfirmed, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a booking on behalf of either party. Paid confirmed
// bookings are rejected here; they go through the refund path.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	statusBefore := bk.Status()
	if err := bk.Cancel(actorID, reason); err != nil {
		return nil, err
	}
	if bk.Status() == statusBefore {
		result := toBookingDTO(bk)
		return &result, nil
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.BookingCancelledEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CancelledBy:   actorID,
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// ActivateBooking moves a confirmed booking into its rental window.
func (s *BookingService) ActivateBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	statusBefore := bk.Status()
	if err := bk.Activate(actorID); err != nil {
		return nil, err
	}
	if bk.Status() == statusBefore {
		result := toBookingDTO(bk)
		return &result, nil
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.BookingActivatedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingActivated, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteBooking finishes an active booking whose rental window has ended.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	statusBefore := bk.Status()
	if err := bk.Complete(actorID); err != nil {
		return nil, err
	}
	if bk.Status() == statusBefore {
		result := toBookingDTO(bk)
		return &result, nil
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.BookingCompletedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		RenterID:      bk.RenterID(),
		OwnerID:       bk.OwnerID(),
		TotalAmount:   bk.TotalAmount(),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCompleted, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// MarkBookingPaid records a successful payment against the booking. Invoked
// by the payment flow and the payment event consumer.
func (s *BookingService) MarkBookingPaid(ctx context.Context, bookingID uuid.UUID) error {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if bk.IsPaid() {
		return nil
	}

	bk.MarkPaid()
	bk.IncrementVersion()
	return s.repo.Update(ctx, bk)
}

// MarkBookingRefunded records a refund against the booking, after which a
// confirmed booking becomes cancellable again.
func (s *BookingService) MarkBookingRefunded(ctx context.Context, bookingID uuid.UUID) error {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	bk.MarkRefunded()
	bk.IncrementVersion()
	return s.repo.Update(ctx, bk)
}

// GetBooking retrieves the enriched booking view for one of its parties.
// When the referenced item cannot be resolved, the view degrades to
// booking-only data instead of failing.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, viewerID uuid.UUID) (*BookingDetailDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsParty(viewerID) {
		return nil, domain.NewForbiddenError("user is not a party to this booking")
	}

	hasReview := s.hasReview(ctx, bk.ID(), viewerID)

	it, err := s.itemRepo.FindByID(ctx, bk.ItemID())
	if err != nil {
		s.logger.Warn("booking item unavailable, degrading to booking-only view",
			zap.String("booking_id", bk.ID().String()),
			zap.String("item_id", bk.ItemID().String()),
			zap.Error(err),
		)
		agg := bookingDomain.NewBookingOnlyAggregate(bk, viewerID)
		result := toBookingDetailDTO(agg, hasReview)
		return &result, nil
	}

	agg, err := bookingDomain.NewAggregate(bk, it, viewerID)
	if err != nil {
		return nil, err
	}
	result := toBookingDetailDTO(agg, hasReview)
	return &result, nil
}

// GetRenterBookings retrieves paginated bookings made by the renter.
func (s *BookingService) GetRenterBookings(ctx context.Context, renterID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByRenterID(ctx, renterID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetOwnerBookings retrieves paginated bookings on the owner's items.
func (s *BookingService) GetOwnerBookings(ctx context.Context, ownerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByOwnerID(ctx, ownerID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func (s *BookingService) hasReview(ctx context.Context, bookingID, viewerID uuid.UUID) bool {
	if s.reviewRepo == nil {
		return false
	}
	_, err := s.reviewRepo.FindByBookingAndReviewer(ctx, bookingID, viewerID)
	return err == nil
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                 bk.ID(),
		BookingNumber:      bk.BookingNumber(),
		RenterID:           bk.RenterID(),
		OwnerID:            bk.OwnerID(),
		ItemID:             bk.ItemID(),
		Status:             bk.Status().String(),
		StartDate:          bk.StartDate(),
		EndDate:            bk.EndDate(),
		TotalDays:          bk.TotalDays(),
		DailyRate:          bk.DailyRate(),
		Subtotal:           bk.Subtotal(),
		SecurityDeposit:    bk.SecurityDeposit(),
		ServiceFee:         bk.ServiceFee(),
		TotalAmount:        bk.TotalAmount(),
		PaymentStatus:      bk.PaymentStatus().String(),
		CancellationReason: bk.CancellationReason(),
		CancelledAt:        bk.CancelledAt(),
		Version:            bk.Version(),
		CreatedAt:          bk.CreatedAt(),
		UpdatedAt:          bk.UpdatedAt(),
	}
}

func toBookingDetailDTO(agg *bookingDomain.Aggregate, hasReview bool) BookingDetailDTO {
	actions := agg.Actions(hasReview)
	actionStrings := make([]string, len(actions))
	for i, a := range actions {
		actionStrings[i] = string(a)
	}

	dto := BookingDetailDTO{
		BookingDTO:      toBookingDTO(agg.Booking()),
		IsOwner:         agg.IsOwner(),
		IsRenter:        agg.IsRenter(),
		IsPaid:          agg.IsPaid(),
		StatusNarrative: agg.StatusNarrative(),
		Actions:         actionStrings,
	}
	if agg.HasItem() {
		itemDTO := toItemDTO(agg.Item())
		dto.Item = &itemDTO
	}
	return dto
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent("service-rental", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
