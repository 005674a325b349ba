package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/rentalflow/service-rental/internal/domain/booking"
	paymentDomain "github.com/rentalflow/service-rental/internal/domain/payment"
	"github.com/rentalflow/service-rental/internal/events"
	"github.com/rentalflow/service-rental/internal/gateway/chapa"
	"github.com/rentalflow/service-rental/pkg/domain"
	"github.com/rentalflow/service-rental/pkg/kafka"
)

// InitializePaymentRequest holds the data needed to start a checkout.
type InitializePaymentRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	Email     string    `json:"email" binding:"required"`
	ReturnURL string    `json:"return_url"`
}

// PaymentDTO is the response representation of a payment.
type PaymentDTO struct {
	ID          uuid.UUID `json:"id"`
	BookingID   uuid.UUID `json:"booking_id"`
	UserID      uuid.UUID `json:"user_id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	Method      string    `json:"method"`
	TxRef       string    `json:"tx_ref,omitempty"`
	CheckoutURL string    `json:"checkout_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PaymentService is the application service for the checkout and refund
// flows. Provider callbacks are reconciled through VerifyPayment so the
// booking's payment status only ever reflects a provider-confirmed state.
type PaymentService struct {
	repo           paymentDomain.PaymentRepository
	bookingRepo    bookingDomain.BookingRepository
	bookingService *BookingService
	gateway        *chapa.Client
	callbackURL    string
	producer       EventPublisher
	logger         *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	repo paymentDomain.PaymentRepository,
	bookingRepo bookingDomain.BookingRepository,
	bookingService *BookingService,
	gateway *chapa.Client,
	callbackURL string,
	producer EventPublisher,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		repo:           repo,
		bookingRepo:    bookingRepo,
		bookingService: bookingService,
		gateway:        gateway,
		callbackURL:    callbackURL,
		producer:       producer,
		logger:         logger,
	}
}

// InitializePayment creates a pending payment for a confirmed booking and
// opens a checkout session with the provider. Only the renter of a
// confirmed, unpaid booking may pay.
func (s *PaymentService) InitializePayment(ctx context.Context, userID uuid.UUID, req InitializePaymentRequest) (*PaymentDTO, error) {
	bk, err := s.bookingRepo.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	if !bookingDomain.CanPerform(bk, userID, false, bookingDomain.ActionPay) {
		if !bk.IsParty(userID) {
			return nil, domain.NewForbiddenError("user is not a party to this booking")
		}
		return nil, domain.NewIllegalTransitionError("booking is not payable in its current state")
	}

	pay, err := paymentDomain.NewPayment(bk.ID(), userID, bk.TotalAmount(), paymentDomain.MethodChapa)
	if err != nil {
		return nil, err
	}

	txRef := fmt.Sprintf("RF-%s", pay.ID().String())
	initResp, err := s.gateway.Initialize(ctx, chapa.InitializeRequest{
		Amount:      pay.Amount(),
		Currency:    pay.Currency(),
		Email:       req.Email,
		TxRef:       txRef,
		CallbackURL: s.callbackURL,
		ReturnURL:   req.ReturnURL,
		Metadata: map[string]string{
			"booking_id":     bk.ID().String(),
			"booking_number": bk.BookingNumber(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize checkout: %w", err)
	}

	pay.AttachCheckout(txRef, initResp.Data.CheckoutURL)
	if err := s.repo.Save(ctx, pay); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	if err := bk.BeginPayment(pay.ID()); err != nil {
		return nil, err
	}
	bk.IncrementVersion()
	if err := s.bookingRepo.Update(ctx, bk); err != nil {
		return nil, err
	}

	result := toPaymentDTO(pay)
	return &result, nil
}

// VerifyPayment reconciles a payment against the provider by transaction
// reference. It is safe to call repeatedly; already-settled payments are
// returned unchanged.
func (s *PaymentService) VerifyPayment(ctx context.Context, txRef string) (*PaymentDTO, error) {
	pay, err := s.repo.FindByTxRef(ctx, txRef)
	if err != nil {
		return nil, err
	}

	if pay.Status() == paymentDomain.StatusSuccess || pay.Status() == paymentDomain.StatusRefunded {
		result := toPaymentDTO(pay)
		return &result, nil
	}

	verifyResp, err := s.gateway.Verify(ctx, txRef)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	switch bookingDomain.NormalizePaymentStatus(verifyResp.Data.Status) {
	case bookingDomain.PaymentSuccess:
		pay.MarkSuccess()
		pay.IncrementVersion()
		if err := s.repo.Update(ctx, pay); err != nil {
			return nil, err
		}
		if err := s.bookingService.MarkBookingPaid(ctx, pay.BookingID()); err != nil {
			return nil, err
		}

		evt := events.PaymentSucceededEvent{
			PaymentID:  pay.ID(),
			BookingID:  pay.BookingID(),
			UserID:     pay.UserID(),
			Amount:     pay.Amount(),
			Currency:   pay.Currency(),
			TxRef:      pay.TxRef(),
			OccurredAt: time.Now().UTC(),
		}
		s.publishEvent(ctx, events.PaymentSucceeded, evt)

	case bookingDomain.PaymentFailed:
		pay.MarkFailed()
		pay.IncrementVersion()
		if err := s.repo.Update(ctx, pay); err != nil {
			return nil, err
		}

		evt := events.PaymentFailedEvent{
			PaymentID:  pay.ID(),
			BookingID:  pay.BookingID(),
			TxRef:      pay.TxRef(),
			OccurredAt: time.Now().UTC(),
		}
		s.publishEvent(ctx, events.PaymentFailed, evt)

	default:
		// Still pending at the provider. Leave state alone.
	}

	result := toPaymentDTO(pay)
	return &result, nil
}

// RefundPayment refunds a successful payment and returns the booking to a
// cancellable state.
func (s *PaymentService) RefundPayment(ctx context.Context, paymentID uuid.UUID, amount float64) (*PaymentDTO, error) {
	pay, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if err := pay.Refund(amount); err != nil {
		return nil, err
	}

	pay.IncrementVersion()
	if err := s.repo.Update(ctx, pay); err != nil {
		return nil, err
	}

	if err := s.bookingService.MarkBookingRefunded(ctx, pay.BookingID()); err != nil {
		return nil, err
	}

	evt := events.PaymentRefundedEvent{
		PaymentID:  pay.ID(),
		BookingID:  pay.BookingID(),
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.PaymentRefunded, evt)

	result := toPaymentDTO(pay)
	return &result, nil
}

// GetBookingPayments retrieves all payments attached to a booking for one
// of its parties.
func (s *PaymentService) GetBookingPayments(ctx context.Context, bookingID, viewerID uuid.UUID) ([]PaymentDTO, error) {
	bk, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsParty(viewerID) {
		return nil, domain.NewForbiddenError("user is not a party to this booking")
	}

	payments, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, pay := range payments {
		dtos[i] = toPaymentDTO(pay)
	}
	return dtos, nil
}

func (s *PaymentService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent("service-rental", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, events.TopicPaymentEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicPaymentEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toPaymentDTO(pay *paymentDomain.Payment) PaymentDTO {
	return PaymentDTO{
		ID:          pay.ID(),
		BookingID:   pay.BookingID(),
		UserID:      pay.UserID(),
		Amount:      pay.Amount(),
		Currency:    pay.Currency(),
		Status:      string(pay.Status()),
		Method:      string(pay.Method()),
		TxRef:       pay.TxRef(),
		CheckoutURL: pay.CheckoutURL(),
		CreatedAt:   pay.CreatedAt(),
		UpdatedAt:   pay.UpdatedAt(),
	}
}
