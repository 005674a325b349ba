package booking

import "strings"

// PaymentStatus is the payment sub-state of a booking. It evolves
// independently of the lifecycle status: payment actions only become
// meaningful once the booking is confirmed.
type PaymentStatus string

const (
	PaymentNone     PaymentStatus = "none"
	PaymentPending  PaymentStatus = "pending"
	PaymentSuccess  PaymentStatus = "success"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// IsValid returns true if the payment status is recognized.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentNone, PaymentPending, PaymentSuccess, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// IsPaid reports whether the booking has been successfully paid for.
func (s PaymentStatus) IsPaid() bool {
	return s == PaymentSuccess
}

// String returns the string representation of the payment status.
func (s PaymentStatus) String() string {
	return string(s)
}

// NormalizePaymentStatus maps a wire value to its canonical PaymentStatus.
// Older backend revisions emitted "completed" and mixed-case variants for a
// successful payment; normalization happens once here, at ingestion, so the
// domain never carries both spellings.
func NormalizePaymentStatus(raw string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none":
		return PaymentNone
	case "pending", "processing":
		return PaymentPending
	case "success", "completed":
		return PaymentSuccess
	case "failed":
		return PaymentFailed
	case "refunded":
		return PaymentRefunded
	default:
		return PaymentNone
	}
}
