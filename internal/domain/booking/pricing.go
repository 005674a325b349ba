package booking

import (
	"math"
	"time"

	"github.com/rentalflow/service-rental/pkg/domain"
)

// ServiceFeeRate is the platform surcharge applied to the rental subtotal.
const ServiceFeeRate = 0.10

// Quote is the money breakdown for a booking over a date range.
type Quote struct {
	Days            int     `json:"days"`
	Subtotal        float64 `json:"subtotal"`
	ServiceFee      float64 `json:"service_fee"`
	SecurityDeposit float64 `json:"security_deposit"`
	Total           float64 `json:"total"`
}

// QuoteParams holds the inputs for price calculation. Today anchors the
// backdating check; a zero Today falls back to the current day, so callers
// that need determinism (previews, tests) pass it explicitly.
type QuoteParams struct {
	DailyRate       float64
	StartDate       time.Time
	EndDate         time.Time
	SecurityDeposit float64
	Today           time.Time
}

// PricingCalculator computes quotes for bookings.
type PricingCalculator interface {
	Quote(params QuoteParams) (Quote, error)
}

// StandardPricingCalculator implements the default pricing formula:
// subtotal = dailyRate x days, service fee = 10% of subtotal rounded to
// cents, total = subtotal + fee + deposit.
type StandardPricingCalculator struct{}

// NewStandardPricingCalculator creates a new StandardPricingCalculator.
func NewStandardPricingCalculator() *StandardPricingCalculator {
	return &StandardPricingCalculator{}
}

// Quote computes the money breakdown for the given parameters. Dates are
// compared at day resolution: a one-day rental has end = start + 1 day, and
// same-calendar-day ranges are rejected. It is pure and safe to call
// repeatedly for live previews.
func (c *StandardPricingCalculator) Quote(params QuoteParams) (Quote, error) {
	if params.DailyRate <= 0 {
		return Quote{}, domain.NewValidationError("daily rate must be positive")
	}
	if params.SecurityDeposit < 0 {
		return Quote{}, domain.NewValidationError("security deposit cannot be negative")
	}

	days, err := RentalDays(params.StartDate, params.EndDate)
	if err != nil {
		return Quote{}, err
	}

	today := params.Today
	if today.IsZero() {
		today = time.Now().UTC()
	}
	if truncateToDay(params.StartDate).Before(truncateToDay(today)) {
		return Quote{}, domain.NewInvalidRangeError("start date is in the past")
	}

	subtotal := params.DailyRate * float64(days)
	serviceFee := round2(subtotal * ServiceFeeRate)

	return Quote{
		Days:            days,
		Subtotal:        subtotal,
		ServiceFee:      serviceFee,
		SecurityDeposit: params.SecurityDeposit,
		Total:           subtotal + serviceFee + params.SecurityDeposit,
	}, nil
}

// RentalDays returns the whole-day length of the range, minimum 1. Both
// endpoints are truncated to their calendar day, so time-of-day never
// influences the count. Ranges that do not span at least one day boundary
// fail with an invalid-range error.
func RentalDays(start, end time.Time) (int, error) {
	startDay := truncateToDay(start)
	endDay := truncateToDay(end)

	if !endDay.After(startDay) {
		return 0, domain.NewInvalidRangeError("end date must be after start date")
	}

	days := int(endDay.Sub(startDay).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days, nil
}

// VerifyBreakdown checks that a booking's stored totals reproduce the pricing
// formula from its stored inputs. Snapshotted rates make this a pure
// round-trip check, independent of the item's current pricing.
func VerifyBreakdown(b *Booking) error {
	subtotal := b.DailyRate() * float64(b.TotalDays())
	serviceFee := round2(subtotal * ServiceFeeRate)
	total := subtotal + serviceFee + b.SecurityDeposit()

	if !moneyEqual(b.Subtotal(), subtotal) ||
		!moneyEqual(b.ServiceFee(), serviceFee) ||
		!moneyEqual(b.TotalAmount(), total) {
		return domain.NewValidationError("stored booking totals do not match the pricing formula")
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func moneyEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}
