package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/rentalflow/service-rental/internal/domain/booking"
	"github.com/rentalflow/service-rental/pkg/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber      string     `gorm:"uniqueIndex;not null;size:20"`
	RenterID           uuid.UUID  `gorm:"type:uuid;index;not null"`
	OwnerID            uuid.UUID  `gorm:"type:uuid;index;not null"`
	ItemID             uuid.UUID  `gorm:"type:uuid;index;not null"`
	Status             string     `gorm:"not null;size:20;index"`
	StartDate          time.Time  `gorm:"not null;index"`
	EndDate            time.Time  `gorm:"not null;index"`
	TotalDays          int        `gorm:"not null"`
	DailyRate          float64    `gorm:"not null"`
	Subtotal           float64    `gorm:"not null"`
	SecurityDeposit    float64    `gorm:"not null;default:0"`
	ServiceFee         float64    `gorm:"not null"`
	TotalAmount        float64    `gorm:"not null"`
	PaymentStatus      string     `gorm:"not null;size:20;default:'none'"`
	PaymentID          *uuid.UUID `gorm:"type:uuid"`
	CancellationPolicy string     `gorm:"not null;size:20;default:'moderate'"`
	AgreementSigned    bool       `gorm:"not null;default:false"`
	CancelledBy        *uuid.UUID `gorm:"type:uuid"`
	CancellationReason string     `gorm:"size:500"`
	CancelledAt        *time.Time `gorm:""`
	Version            int64      `gorm:"not null;default:1"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByRenterID retrieves bookings made by a specific renter with pagination.
func (r *GormBookingRepository) FindByRenterID(ctx context.Context, renterID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "renter_id = ?", []interface{}{renterID}, page, limit)
}

// FindByOwnerID retrieves bookings on a specific owner's items with pagination.
func (r *GormBookingRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "owner_id = ?", []interface{}{ownerID}, page, limit)
}

// FindDueForActivation retrieves confirmed bookings whose start date has been
// reached, oldest first.
func (r *GormBookingRepository) FindDueForActivation(ctx context.Context, now time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND start_date <= ?", bookingDomain.StatusConfirmed.String(), now).
		Order("start_date ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings due for activation: %w", err)
	}
	return toDomainBookings(models)
}

// FindDueForCompletion retrieves active bookings whose end date has passed,
// oldest first.
func (r *GormBookingRepository) FindDueForCompletion(ctx context.Context, now time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", bookingDomain.StatusActive.String(), now).
		Order("end_date ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings due for completion: %w", err)
	}
	return toDomainBookings(models)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "", nil, page, limit)
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// The aggregate bumps its version before Update is called, so the row must
	// still hold the previous version for this write to win.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":              model.Status,
			"payment_status":      model.PaymentStatus,
			"payment_id":          model.PaymentID,
			"cancellation_policy": model.CancellationPolicy,
			"agreement_signed":    model.AgreementSigned,
			"cancelled_by":        model.CancelledBy,
			"cancellation_reason": model.CancellationReason,
			"cancelled_at":        model.CancelledAt,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

func (r *GormBookingRepository) findPage(ctx context.Context, cond string, args []interface{}, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&BookingModel{})
	if cond != "" {
		query = query.Where(cond, args...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	listQuery := r.db.WithContext(ctx)
	if cond != "" {
		listQuery = listQuery.Where(cond, args...)
	}
	if err := listQuery.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
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
		PaymentID:          bk.PaymentID(),
		CancellationPolicy: string(bk.CancellationPolicy()),
		AgreementSigned:    bk.AgreementSigned(),
		CancelledBy:        bk.CancelledBy(),
		CancellationReason: bk.CancellationReason(),
		CancelledAt:        bk.CancelledAt(),
		Version:            bk.Version(),
		CreatedAt:          bk.CreatedAt(),
		UpdatedAt:          bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	paymentStatus := bookingDomain.NormalizePaymentStatus(m.PaymentStatus)

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.RenterID,
		m.OwnerID,
		m.ItemID,
		status,
		m.StartDate,
		m.EndDate,
		m.TotalDays,
		m.DailyRate,
		m.Subtotal,
		m.SecurityDeposit,
		m.ServiceFee,
		m.TotalAmount,
		paymentStatus,
		m.PaymentID,
		bookingDomain.CancellationPolicy(m.CancellationPolicy),
		m.AgreementSigned,
		m.CancelledBy,
		m.CancellationReason,
		m.CancelledAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
