package booking

import (
	"github.com/google/uuid"

	"github.com/rentalflow/service-rental/internal/domain/item"
	"github.com/rentalflow/service-rental/pkg/domain"
)

// Aggregate is the enriched view of a booking for a specific viewer: the
// booking merged with its referenced item plus the flags every screen needs.
type Aggregate struct {
	booking *Booking
	item    *item.Item
	viewer  uuid.UUID
}

// NewAggregate builds an Aggregate from a booking, its resolved item, and the
// viewing user. A nil item fails with an unavailable error; callers that can
// tolerate a missing item should fall back to NewBookingOnlyAggregate so the
// rest of the view still renders.
func NewAggregate(b *Booking, it *item.Item, viewerID uuid.UUID) (*Aggregate, error) {
	if b == nil {
		return nil, domain.NewValidationError("booking is required")
	}
	if it == nil {
		return nil, domain.NewUnavailableError("referenced item cannot be resolved")
	}
	return &Aggregate{booking: b, item: it, viewer: viewerID}, nil
}

// NewBookingOnlyAggregate builds a degraded Aggregate without item data.
func NewBookingOnlyAggregate(b *Booking, viewerID uuid.UUID) *Aggregate {
	return &Aggregate{booking: b, viewer: viewerID}
}

// Booking returns the underlying booking.
func (a *Aggregate) Booking() *Booking { return a.booking }

// Item returns the referenced item, or nil in a degraded aggregate.
func (a *Aggregate) Item() *item.Item { return a.item }

// HasItem reports whether item data could be resolved.
func (a *Aggregate) HasItem() bool { return a.item != nil }

// IsOwner reports whether the viewer owns the booked item.
func (a *Aggregate) IsOwner() bool { return a.viewer == a.booking.OwnerID() }

// IsRenter reports whether the viewer is the booking's renter.
func (a *Aggregate) IsRenter() bool { return a.viewer == a.booking.RenterID() }

// IsPaid reports whether the booking has been successfully paid for.
func (a *Aggregate) IsPaid() bool { return a.booking.IsPaid() }

// Actions returns the actions the viewer may currently take.
func (a *Aggregate) Actions(hasExistingReview bool) []Action {
	return AvailableActions(a.booking, a.viewer, hasExistingReview)
}

// StatusNarrative returns the human-readable description of the booking's
// current state from the viewer's perspective.
func (a *Aggregate) StatusNarrative() string {
	switch a.booking.Status() {
	case StatusPending:
		if a.IsOwner() {
			return "Waiting for your confirmation"
		}
		return "Waiting for owner confirmation"
	case StatusConfirmed:
		if a.IsRenter() && !a.IsPaid() {
			return "Booking confirmed. Complete payment to proceed."
		}
		return "Booking confirmed"
	case StatusActive:
		return "Rental is currently active"
	case StatusCompleted:
		return "This rental has been completed"
	case StatusCancelled:
		return "This booking was cancelled"
	default:
		return string(a.booking.Status())
	}
}
