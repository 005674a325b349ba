package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/rentalflow/service-rental/pkg/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CancellationPolicy controls how strictly pre-rental cancellations are
// treated by the refund process.
type CancellationPolicy string

const (
	PolicyFlexible CancellationPolicy = "flexible"
	PolicyModerate CancellationPolicy = "moderate"
	PolicyStrict   CancellationPolicy = "strict"
)

// SystemActor is the actor ID used for transitions triggered by the service
// itself (rental window reached) rather than by a user.
var SystemActor = uuid.Nil

// Booking is the aggregate root for the booking domain. Renter and owner are
// fixed at creation; pricing fields are snapshots of the item's rate card at
// creation time and never track later item changes.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	renterID      uuid.UUID
	ownerID       uuid.UUID
	itemID        uuid.UUID
	status        BookingStatus

	startDate time.Time
	endDate   time.Time
	totalDays int

	dailyRate       float64
	subtotal        float64
	securityDeposit float64
	serviceFee      float64
	totalAmount     float64

	paymentStatus PaymentStatus
	paymentID     *uuid.UUID

	cancellationPolicy CancellationPolicy
	agreementSigned    bool
	cancelledBy        *uuid.UUID
	cancellationReason string
	cancelledAt        *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 8)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a new pending Booking from a computed quote.
func NewBooking(
	renterID, ownerID, itemID uuid.UUID,
	startDate, endDate time.Time,
	dailyRate float64,
	quote Quote,
) (*Booking, error) {
	if renterID == uuid.Nil {
		return nil, domain.NewValidationError("renter ID is required")
	}
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if itemID == uuid.Nil {
		return nil, domain.NewValidationError("item ID is required")
	}
	if renterID == ownerID {
		return nil, domain.NewValidationError("renter cannot book their own item")
	}
	if quote.Days < 1 {
		return nil, domain.NewInvalidRangeError("booking must span at least one day")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:                 uuid.New(),
		bookingNumber:      bookingNumber,
		renterID:           renterID,
		ownerID:            ownerID,
		itemID:             itemID,
		status:             StatusPending,
		startDate:          startDate,
		endDate:            endDate,
		totalDays:          quote.Days,
		dailyRate:          dailyRate,
		subtotal:           quote.Subtotal,
		securityDeposit:    quote.SecurityDeposit,
		serviceFee:         quote.ServiceFee,
		totalAmount:        quote.Total,
		paymentStatus:      PaymentNone,
		cancellationPolicy: PolicyModerate,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	renterID, ownerID, itemID uuid.UUID,
	status BookingStatus,
	startDate, endDate time.Time,
	totalDays int,
	dailyRate, subtotal, securityDeposit, serviceFee, totalAmount float64,
	paymentStatus PaymentStatus,
	paymentID *uuid.UUID,
	cancellationPolicy CancellationPolicy,
	agreementSigned bool,
	cancelledBy *uuid.UUID,
	cancellationReason string,
	cancelledAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                 id,
		bookingNumber:      bookingNumber,
		renterID:           renterID,
		ownerID:            ownerID,
		itemID:             itemID,
		status:             status,
		startDate:          startDate,
		endDate:            endDate,
		totalDays:          totalDays,
		dailyRate:          dailyRate,
		subtotal:           subtotal,
		securityDeposit:    securityDeposit,
		serviceFee:         serviceFee,
		totalAmount:        totalAmount,
		paymentStatus:      paymentStatus,
		paymentID:          paymentID,
		cancellationPolicy: cancellationPolicy,
		agreementSigned:    agreementSigned,
		cancelledBy:        cancelledBy,
		cancellationReason: cancellationReason,
		cancelledAt:        cancelledAt,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// RenterID returns the renter's user ID.
func (b *Booking) RenterID() uuid.UUID { return b.renterID }

// OwnerID returns the item owner's user ID.
func (b *Booking) OwnerID() uuid.UUID { return b.ownerID }

// ItemID returns the referenced rental item's ID.
func (b *Booking) ItemID() uuid.UUID { return b.itemID }

// Status returns the current lifecycle status.
func (b *Booking) Status() BookingStatus { return b.status }

// StartDate returns the first day of the rental.
func (b *Booking) StartDate() time.Time { return b.startDate }

// EndDate returns the last day boundary of the rental.
func (b *Booking) EndDate() time.Time { return b.endDate }

// TotalDays returns the rental length in whole days.
func (b *Booking) TotalDays() int { return b.totalDays }

// DailyRate returns the daily rate snapshotted at creation.
func (b *Booking) DailyRate() float64 { return b.dailyRate }

// Subtotal returns dailyRate x totalDays.
func (b *Booking) Subtotal() float64 { return b.subtotal }

// SecurityDeposit returns the deposit snapshotted at creation.
func (b *Booking) SecurityDeposit() float64 { return b.securityDeposit }

// ServiceFee returns the platform fee computed at creation.
func (b *Booking) ServiceFee() float64 { return b.serviceFee }

// TotalAmount returns subtotal + service fee + deposit.
func (b *Booking) TotalAmount() float64 { return b.totalAmount }

// PaymentStatus returns the payment sub-state.
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }

// PaymentID returns the associated payment's ID, or nil if none.
func (b *Booking) PaymentID() *uuid.UUID { return b.paymentID }

// CancellationPolicy returns the policy applied on cancellation.
func (b *Booking) CancellationPolicy() CancellationPolicy { return b.cancellationPolicy }

// AgreementSigned reports whether the rental agreement has been signed.
func (b *Booking) AgreementSigned() bool { return b.agreementSigned }

// CancelledBy returns the user who cancelled the booking, or nil.
func (b *Booking) CancelledBy() *uuid.UUID { return b.cancelledBy }

// CancellationReason returns the reason recorded on cancellation.
func (b *Booking) CancellationReason() string { return b.cancellationReason }

// CancelledAt returns the cancellation timestamp, or nil.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsParty reports whether the user is the booking's renter or owner.
func (b *Booking) IsParty(userID uuid.UUID) bool {
	return userID == b.renterID || userID == b.ownerID
}

// IsPaid reports whether the booking has been successfully paid for.
func (b *Booking) IsPaid() bool {
	return b.paymentStatus.IsPaid()
}

// --- Lifecycle transitions ---
//
// Every transition validates the (from, trigger, actor) triple before
// touching state, so an illegal external call is prevented rather than
// interpreted after the fact. Transitions that would be no-ops succeed
// idempotently: network-level retries must not surface errors.

// Confirm transitions the booking from pending to confirmed. Only the owner
// may confirm.
func (b *Booking) Confirm(actorID uuid.UUID) error {
	if !b.IsParty(actorID) {
		return domain.NewForbiddenError("user is not a party to this booking")
	}
	if b.status == StatusConfirmed {
		return nil
	}
	if b.status.IsTerminal() {
		return domain.NewTerminalStateError(b.status.String())
	}
	if actorID != b.ownerID {
		return domain.NewIllegalTransitionError("only the owner can confirm a booking")
	}
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(b.status.String(), StatusConfirmed.String())
	}
	b.status = StatusConfirmed
	b.touch()
	return nil
}

// Cancel transitions the booking to cancelled. Either party may cancel a
// pending booking; a confirmed booking can only be cancelled while unpaid.
// Once paid, cancellation must go through the refund path instead of a bare
// status flip.
func (b *Booking) Cancel(actorID uuid.UUID, reason string) error {
	if !b.IsParty(actorID) {
		return domain.NewForbiddenError("user is not a party to this booking")
	}
	if b.status == StatusCancelled {
		return nil
	}
	if b.status.IsTerminal() {
		return domain.NewTerminalStateError(b.status.String())
	}
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(b.status.String(), StatusCancelled.String())
	}
	if b.status == StatusConfirmed && b.paymentStatus == PaymentSuccess {
		return domain.NewIllegalTransitionError("paid bookings must be cancelled through the refund path")
	}

	now := time.Now().UTC()
	actor := actorID
	b.status = StatusCancelled
	b.cancelledBy = &actor
	b.cancellationReason = reason
	b.cancelledAt = &now
	b.touch()
	return nil
}

// Activate transitions the booking from confirmed to active when the rental
// window starts. Triggered by the system scheduler or by the owner.
func (b *Booking) Activate(actorID uuid.UUID) error {
	if actorID != SystemActor && !b.IsParty(actorID) {
		return domain.NewForbiddenError("user is not a party to this booking")
	}
	if b.status == StatusActive {
		return nil
	}
	if b.status.IsTerminal() {
		return domain.NewTerminalStateError(b.status.String())
	}
	if actorID != SystemActor && actorID != b.ownerID {
		return domain.NewIllegalTransitionError("only the owner or the system can activate a booking")
	}
	if !b.status.CanTransitionTo(StatusActive) {
		return domain.NewInvalidStateError(b.status.String(), StatusActive.String())
	}
	b.status = StatusActive
	b.touch()
	return nil
}

// Complete transitions the booking from active to completed when the rental
// window ends. Triggered by the system scheduler or by the owner.
func (b *Booking) Complete(actorID uuid.UUID) error {
	if actorID != SystemActor && !b.IsParty(actorID) {
		return domain.NewForbiddenError("user is not a party to this booking")
	}
	if b.status == StatusCompleted {
		return nil
	}
	if b.status.IsTerminal() {
		return domain.NewTerminalStateError(b.status.String())
	}
	if actorID != SystemActor && actorID != b.ownerID {
		return domain.NewIllegalTransitionError("only the owner or the system can complete a booking")
	}
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(b.status.String(), StatusCompleted.String())
	}
	b.status = StatusCompleted
	b.touch()
	return nil
}

// --- Payment sub-state ---

// BeginPayment records an initiated payment attempt. Payments are only
// meaningful on confirmed bookings.
func (b *Booking) BeginPayment(paymentID uuid.UUID) error {
	if b.status != StatusConfirmed {
		return domain.NewInvalidStateError(b.status.String(), "payment")
	}
	if b.paymentStatus == PaymentSuccess {
		return domain.NewConflictError("booking is already paid")
	}
	id := paymentID
	b.paymentStatus = PaymentPending
	b.paymentID = &id
	b.touch()
	return nil
}

// MarkPaid records a successful payment.
func (b *Booking) MarkPaid() {
	if b.paymentStatus == PaymentSuccess {
		return
	}
	b.paymentStatus = PaymentSuccess
	b.touch()
}

// MarkPaymentFailed records a failed payment attempt.
func (b *Booking) MarkPaymentFailed() {
	b.paymentStatus = PaymentFailed
	b.touch()
}

// MarkRefunded records a refund. A refunded confirmed booking becomes
// cancellable again, which is how the refund path re-enters the lifecycle.
func (b *Booking) MarkRefunded() {
	b.paymentStatus = PaymentRefunded
	b.touch()
}

// SignAgreement marks the rental agreement as signed.
func (b *Booking) SignAgreement() {
	b.agreementSigned = true
	b.touch()
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

func (b *Booking) touch() {
	b.updatedAt = time.Now().UTC()
}
