package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentalflow/service-rental/pkg/domain"
)

func newID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func testQuote(t *testing.T, dailyRate, deposit float64, start, end time.Time) Quote {
	t.Helper()
	calc := NewStandardPricingCalculator()
	quote, err := calc.Quote(QuoteParams{
		DailyRate:       dailyRate,
		StartDate:       start,
		EndDate:         end,
		SecurityDeposit: deposit,
		Today:           truncateToDay(start),
	})
	require.NoError(t, err)
	return quote
}

func newTestBooking(t *testing.T) (*Booking, uuid.UUID, uuid.UUID) {
	t.Helper()
	renterID := newID(t)
	ownerID := newID(t)
	start := date(2026, 6, 1)
	end := date(2026, 6, 4)
	quote := testQuote(t, 25, 50, start, end)

	bk, err := NewBooking(renterID, ownerID, newID(t), start, end, 25, quote)
	require.NoError(t, err)
	return bk, renterID, ownerID
}

func TestNewBooking(t *testing.T) {
	bk, renterID, ownerID := newTestBooking(t)

	assert.Equal(t, StatusPending, bk.Status())
	assert.Equal(t, PaymentNone, bk.PaymentStatus())
	assert.Equal(t, renterID, bk.RenterID())
	assert.Equal(t, ownerID, bk.OwnerID())
	assert.Equal(t, 3, bk.TotalDays())
	assert.InDelta(t, 132.5, bk.TotalAmount(), 0.001)
	assert.True(t, strings.HasPrefix(bk.BookingNumber(), "BK-"))
	assert.Len(t, bk.BookingNumber(), 11)
	assert.Equal(t, int64(1), bk.Version())
}

func TestNewBooking_SelfRentalRejected(t *testing.T) {
	userID := newID(t)
	start := date(2026, 6, 1)
	end := date(2026, 6, 4)
	quote := testQuote(t, 25, 0, start, end)

	_, err := NewBooking(userID, userID, newID(t), start, end, 25, quote)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}

func TestConfirm_ByOwner(t *testing.T) {
	bk, _, ownerID := newTestBooking(t)

	require.NoError(t, bk.Confirm(ownerID))
	assert.Equal(t, StatusConfirmed, bk.Status())
}

func TestConfirm_Idempotent(t *testing.T) {
	bk, _, ownerID := newTestBooking(t)

	require.NoError(t, bk.Confirm(ownerID))
	updatedAt := bk.UpdatedAt()

	// A retried confirm succeeds without changing anything.
	require.NoError(t, bk.Confirm(ownerID))
	assert.Equal(t, StatusConfirmed, bk.Status())
	assert.Equal(t, updatedAt, bk.UpdatedAt())
}

func TestConfirm_ByRenterRejected(t *testing.T) {
	bk, renterID, _ := newTestBooking(t)

	err := bk.Confirm(renterID)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))
	assert.Equal(t, StatusPending, bk.Status())
}

func TestConfirm_ByNonPartyRejected(t *testing.T) {
	bk, _, _ := newTestBooking(t)

	err := bk.Confirm(newID(t))
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))
}

func TestConfirm_FromCancelledRejected(t *testing.T) {
	bk, renterID, ownerID := newTestBooking(t)
	require.NoError(t, bk.Cancel(renterID, "changed plans"))

	err := bk.Confirm(ownerID)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeTerminalState))
}

func TestCancel_PendingByEitherParty(t *testing.T) {
	bk, renterID, _ := newTestBooking(t)
	require.NoError(t, bk.Cancel(renterID, "changed plans"))
	assert.Equal(t, StatusCancelled, bk.Status())
	require.NotNil(t, bk.CancelledBy())
	assert.Equal(t, renterID, *bk.CancelledBy())
	assert.Equal(t, "changed plans", bk.CancellationReason())
	assert.NotNil(t, bk.CancelledAt())

	bk2, _, ownerID := newTestBooking(t)
	require.NoError(t, bk2.Cancel(ownerID, "item unavailable"))
	assert.Equal(t, StatusCancelled, bk2.Status())
}

func TestCancel_Idempotent(t *testing.T) {
	bk, renterID, _ := newTestBooking(t)
	require.NoError(t, bk.Cancel(renterID, "first"))

	require.NoError(t, bk.Cancel(renterID, "second"))
	assert.Equal(t, "first", bk.CancellationReason())
}

func TestCancel_ConfirmedUnpaidAllowed(t *testing.T) {
	bk, renterID, ownerID := newTestBooking(t)
	require.NoError(t, bk.Confirm(ownerID))

	require.NoError(t, bk.Cancel(renterID, "no longer needed"))
	assert.Equal(t, StatusCancelled, bk.Status())
}

func TestCancel_ConfirmedPaidRejected(t *testing.T) {
	bk, renterID, ownerID := newTestBooking(t)
	require.NoError(t, bk.Confirm(ownerID))
	bk.MarkPaid()

	err := bk.Cancel(renterID, "change of heart")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))
	assert.Equal(t, StatusConfirmed, bk.Status())
}

func TestCancel_AfterRefundAllowed(t *testing.T) {
	bk, renterID, ownerID := newTestBooking(t)
	require.NoError(t, bk.Confirm(ownerID))
	bk.MarkPaid()
	bk.MarkRefunded()

	require.NoError(t, bk.Cancel(renterID, "refunded"))
	assert.Equal(t, StatusCancelled, bk.Status())
}

func TestCancel_ActiveRejected(t *testing.T) {
	bk, renterID, ownerID := newTestBooking(t)
	require.NoError(t, bk.Confirm(ownerID))
	require.NoError(t, bk.Activate(SystemActor))

	err := bk.Cancel(renterID, "too late")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))
}

func TestCancel_CompletedRejected(t *testing.T) {
	bk, renterID, ownerID := newTestBooking(t)
	require.NoError(t, bk.Confirm(ownerID))
	require.NoError(t, bk.Activate(SystemActor))
	require.NoError(t, bk.Complete(SystemActor))

	err := bk.Cancel(renterID, "too late")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeTerminalState))
}

func TestActivate_BySystem(t *testing.T) {
	bk, _, ownerID := newTestBooking(t)
	require.NoError(t, bk.Confirm(ownerID))

	require.NoError(t, bk.Activate(SystemActor))
	assert.Equal(t, StatusActive, bk.Status())
}

func TestActivate_ByOwner(t *testing.T) {
	bk, _, ownerID := newTestBooking(t)
	require.NoError(t, bk.Confirm(ownerID))

	require.NoError(t, bk.Activate(ownerID))
	assert.Equal(t, StatusActive, bk.Status())
}

func TestActivate_ByRenterRejected(t *testing.T) {
	bk, renterID, ownerID := newTestBooking(t)
	require.NoError(t, bk.Confirm(ownerID))

	err := bk.Activate(renterID)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))
}

func TestActivate_FromPendingRejected(t *testing.T) {
	bk, _, _ := newTestBooking(t)

	err := bk.Activate(SystemActor)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))
}

func TestComplete_FullLifecycle(t *testing.T) {
	bk, _, ownerID := newTestBooking(t)
	require.NoError(t, bk.Confirm(ownerID))
	require.NoError(t, bk.Activate(SystemActor))
	require.NoError(t, bk.Complete(SystemActor))
	assert.Equal(t, StatusCompleted, bk.Status())

	// Completed is terminal.
	err := bk.Confirm(ownerID)
	assert.True(t, domain.IsCode(err, domain.CodeTerminalState))

	// A retried complete is still a no-op success.
	assert.NoError(t, bk.Complete(SystemActor))
}

func TestComplete_FromConfirmedRejected(t *testing.T) {
	bk, _, ownerID := newTestBooking(t)
	require.NoError(t, bk.Confirm(ownerID))

	err := bk.Complete(SystemActor)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))
	assert.Equal(t, StatusConfirmed, bk.Status())
}

func TestBeginPayment(t *testing.T) {
	bk, _, ownerID := newTestBooking(t)

	// Payment on a pending booking is rejected.
	err := bk.BeginPayment(newID(t))
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))

	require.NoError(t, bk.Confirm(ownerID))

	paymentID := newID(t)
	require.NoError(t, bk.BeginPayment(paymentID))
	assert.Equal(t, PaymentPending, bk.PaymentStatus())
	require.NotNil(t, bk.PaymentID())
	assert.Equal(t, paymentID, *bk.PaymentID())

	bk.MarkPaid()
	assert.True(t, bk.IsPaid())

	// A second attempt against a paid booking conflicts.
	err = bk.BeginPayment(newID(t))
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeConflict))
}

func TestMarkPaymentFailed_AllowsRetry(t *testing.T) {
	bk, _, ownerID := newTestBooking(t)
	require.NoError(t, bk.Confirm(ownerID))
	require.NoError(t, bk.BeginPayment(newID(t)))

	bk.MarkPaymentFailed()
	assert.Equal(t, PaymentFailed, bk.PaymentStatus())
	assert.False(t, bk.IsPaid())

	require.NoError(t, bk.BeginPayment(newID(t)))
	assert.Equal(t, PaymentPending, bk.PaymentStatus())
}

func TestIsParty(t *testing.T) {
	bk, renterID, ownerID := newTestBooking(t)

	assert.True(t, bk.IsParty(renterID))
	assert.True(t, bk.IsParty(ownerID))
	assert.False(t, bk.IsParty(newID(t)))
}
