package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentalflow/service-rental/pkg/domain"
)

// Status is the provider-facing state of a payment record. It feeds the
// booking's payment sub-state but is tracked separately per attempt.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

// Method identifies the payment channel.
type Method string

const (
	MethodChapa        Method = "chapa"
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
)

// Payment records one payment attempt for a booking.
type Payment struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	userID      uuid.UUID
	amount      float64
	currency    string
	status      Status
	method      Method
	txRef       string
	checkoutURL string
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewPayment creates a pending payment for a booking.
func NewPayment(bookingID, userID uuid.UUID, amount float64, method Method) (*Payment, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if amount <= 0 {
		return nil, domain.NewValidationError("payment amount must be positive")
	}

	now := time.Now().UTC()
	return &Payment{
		id:        uuid.New(),
		bookingID: bookingID,
		userID:    userID,
		amount:    amount,
		currency:  "ETB",
		status:    StatusPending,
		method:    method,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a Payment from persistence data (no validation).
func Reconstruct(
	id, bookingID, userID uuid.UUID,
	amount float64,
	currency string,
	status Status,
	method Method,
	txRef, checkoutURL string,
	version int64,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:          id,
		bookingID:   bookingID,
		userID:      userID,
		amount:      amount,
		currency:    currency,
		status:      status,
		method:      method,
		txRef:       txRef,
		checkoutURL: checkoutURL,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (p *Payment) ID() uuid.UUID        { return p.id }
func (p *Payment) BookingID() uuid.UUID { return p.bookingID }
func (p *Payment) UserID() uuid.UUID    { return p.userID }
func (p *Payment) Amount() float64      { return p.amount }
func (p *Payment) Currency() string     { return p.currency }
func (p *Payment) Status() Status       { return p.status }
func (p *Payment) Method() Method       { return p.method }
func (p *Payment) TxRef() string        { return p.txRef }
func (p *Payment) CheckoutURL() string  { return p.checkoutURL }
func (p *Payment) Version() int64       { return p.version }
func (p *Payment) CreatedAt() time.Time { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time { return p.updatedAt }

// --- Behavior ---

// AttachCheckout records the provider checkout reference after initialization.
func (p *Payment) AttachCheckout(txRef, checkoutURL string) {
	p.txRef = txRef
	p.checkoutURL = checkoutURL
	p.updatedAt = time.Now().UTC()
}

// MarkSuccess records a verified successful charge.
func (p *Payment) MarkSuccess() {
	p.status = StatusSuccess
	p.updatedAt = time.Now().UTC()
}

// MarkFailed records a failed or abandoned charge.
func (p *Payment) MarkFailed() {
	p.status = StatusFailed
	p.updatedAt = time.Now().UTC()
}

// Refund transitions a successful payment to refunded. Only completed
// charges can be refunded, and never for more than was paid.
func (p *Payment) Refund(amount float64) error {
	if p.status != StatusSuccess {
		return domain.NewConflictError("only successful payments can be refunded")
	}
	if amount <= 0 || amount > p.amount {
		return domain.NewValidationError("refund amount must be positive and not exceed the paid amount")
	}
	p.status = StatusRefunded
	p.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (p *Payment) IncrementVersion() {
	p.version++
	p.updatedAt = time.Now().UTC()
}
