package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	paymentDomain "github.com/rentalflow/service-rental/internal/domain/payment"
	"github.com/rentalflow/service-rental/pkg/domain"
)

// PaymentModel is the GORM model for the payments table.
type PaymentModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID   uuid.UUID `gorm:"type:uuid;index;not null"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Amount      float64   `gorm:"not null"`
	Currency    string    `gorm:"not null;size:3;default:'ETB'"`
	Status      string    `gorm:"not null;size:20;index"`
	Method      string    `gorm:"not null;size:20"`
	TxRef       string    `gorm:"uniqueIndex;size:64"`
	CheckoutURL string    `gorm:"size:500"`
	Version     int64     `gorm:"not null;default:1"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PaymentModel) TableName() string {
	return "payments"
}

// GormPaymentRepository is the GORM-based implementation of PaymentRepository.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID retrieves a payment by its unique identifier.
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", id.String())
		}
		return nil, fmt.Errorf("failed to find payment by ID: %w", err)
	}
	return toDomainPayment(&model), nil
}

// FindByTxRef retrieves a payment by its provider transaction reference.
func (r *GormPaymentRepository) FindByTxRef(ctx context.Context, txRef string) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("tx_ref = ?", txRef).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", txRef)
		}
		return nil, fmt.Errorf("failed to find payment by tx ref: %w", err)
	}
	return toDomainPayment(&model), nil
}

// FindByBookingID retrieves all payments recorded for a booking, newest first.
func (r *GormPaymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*paymentDomain.Payment, error) {
	var models []PaymentModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find booking payments: %w", err)
	}

	payments := make([]*paymentDomain.Payment, len(models))
	for i := range models {
		payments[i] = toDomainPayment(&models[i])
	}
	return payments, nil
}

// Save persists a new payment.
func (r *GormPaymentRepository) Save(ctx context.Context, pay *paymentDomain.Payment) error {
	if err := r.db.WithContext(ctx).Create(toPaymentModel(pay)).Error; err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// Update persists changes to an existing payment with optimistic locking.
func (r *GormPaymentRepository) Update(ctx context.Context, pay *paymentDomain.Payment) error {
	model := toPaymentModel(pay)

	expectedVersion := pay.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"tx_ref":       model.TxRef,
			"checkout_url": model.CheckoutURL,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("payment was modified by another transaction")
	}

	return nil
}

// --- Conversion Helpers ---

func toPaymentModel(pay *paymentDomain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:          pay.ID(),
		BookingID:   pay.BookingID(),
		UserID:      pay.UserID(),
		Amount:      pay.Amount(),
		Currency:    pay.Currency(),
		Status:      string(pay.Status()),
		Method:      string(pay.Method()),
		TxRef:       pay.TxRef(),
		CheckoutURL: pay.CheckoutURL(),
		Version:     pay.Version(),
		CreatedAt:   pay.CreatedAt(),
		UpdatedAt:   pay.UpdatedAt(),
	}
}

func toDomainPayment(m *PaymentModel) *paymentDomain.Payment {
	return paymentDomain.Reconstruct(
		m.ID,
		m.BookingID,
		m.UserID,
		m.Amount,
		m.Currency,
		paymentDomain.Status(m.Status),
		paymentDomain.Method(m.Method),
		m.TxRef,
		m.CheckoutURL,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
