package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository defines the persistence contract for payments.
type PaymentRepository interface {
	// FindByID retrieves a payment by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByTxRef retrieves a payment by its provider transaction reference.
	FindByTxRef(ctx context.Context, txRef string) (*Payment, error)

	// FindByBookingID retrieves all payments recorded for a booking.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Payment, error)

	// Save persists a new payment.
	Save(ctx context.Context, payment *Payment) error

	// Update persists changes to an existing payment with optimistic locking.
	Update(ctx context.Context, payment *Payment) error
}
