package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/rentalflow/service-rental/internal/domain/booking"
	itemDomain "github.com/rentalflow/service-rental/internal/domain/item"
	paymentDomain "github.com/rentalflow/service-rental/internal/domain/payment"
	reviewDomain "github.com/rentalflow/service-rental/internal/domain/review"
	"github.com/rentalflow/service-rental/pkg/domain"
	"github.com/rentalflow/service-rental/pkg/kafka"
)

// fakePublisher records published events in order.
type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	topics []string
	fail   bool
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	p.topics = append(p.topics, topic)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// fakeBookingRepo is an in-memory BookingRepository.
type fakeBookingRepo struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*bookingDomain.Booking
	updateErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return cloneBooking(bk), nil
}

func (r *fakeBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bk := range r.bookings {
		if bk.BookingNumber() == number {
			return cloneBooking(bk), nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", number)
}

func (r *fakeBookingRepo) FindByRenterID(_ context.Context, renterID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.RenterID() == renterID {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) FindByOwnerID(_ context.Context, ownerID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.OwnerID() == ownerID {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) FindDueForActivation(_ context.Context, now time.Time, _ int) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.Status() == bookingDomain.StatusConfirmed && !bk.StartDate().After(now) {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindDueForCompletion(_ context.Context, now time.Time, _ int) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.Status() == bookingDomain.StatusActive && bk.EndDate().Before(now) {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		out = append(out, cloneBooking(bk))
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[bk.Status().String()]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	if stored.Version() != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

// cloneBooking round-trips a booking through its reconstruction constructor,
// mimicking a real repository that never hands out shared aggregates.
func cloneBooking(bk *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		bk.ID(),
		bk.BookingNumber(),
		bk.RenterID(),
		bk.OwnerID(),
		bk.ItemID(),
		bk.Status(),
		bk.StartDate(),
		bk.EndDate(),
		bk.TotalDays(),
		bk.DailyRate(),
		bk.Subtotal(),
		bk.SecurityDeposit(),
		bk.ServiceFee(),
		bk.TotalAmount(),
		bk.PaymentStatus(),
		bk.PaymentID(),
		bk.CancellationPolicy(),
		bk.AgreementSigned(),
		bk.CancelledBy(),
		bk.CancellationReason(),
		bk.CancelledAt(),
		bk.Version(),
		bk.CreatedAt(),
		bk.UpdatedAt(),
	)
}

// fakeItemRepo is an in-memory ItemRepository.
type fakeItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*itemDomain.Item
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[uuid.UUID]*itemDomain.Item)}
}

func (r *fakeItemRepo) FindByID(_ context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("Item", id.String())
	}
	return it, nil
}

func (r *fakeItemRepo) FindByOwnerID(_ context.Context, ownerID uuid.UUID, _, _ int) ([]*itemDomain.Item, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*itemDomain.Item
	for _, it := range r.items {
		if it.OwnerID() == ownerID {
			out = append(out, it)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeItemRepo) Search(_ context.Context, filter itemDomain.SearchFilter, _, _ int) ([]*itemDomain.Item, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*itemDomain.Item
	for _, it := range r.items {
		if !it.IsActive() {
			continue
		}
		if filter.Category != "" && it.Category() != filter.Category {
			continue
		}
		if filter.City != "" && it.City() != filter.City {
			continue
		}
		out = append(out, it)
	}
	return out, int64(len(out)), nil
}

func (r *fakeItemRepo) Save(_ context.Context, it *itemDomain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[it.ID()] = it
	return nil
}

func (r *fakeItemRepo) Update(_ context.Context, it *itemDomain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[it.ID()]; !ok {
		return domain.NewNotFoundError("Item", it.ID().String())
	}
	r.items[it.ID()] = it
	return nil
}

// fakeReviewRepo is an in-memory ReviewRepository.
type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[uuid.UUID]*reviewDomain.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[uuid.UUID]*reviewDomain.Review)}
}

func (r *fakeReviewRepo) FindByID(_ context.Context, id uuid.UUID) (*reviewDomain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev, ok := r.reviews[id]
	if !ok {
		return nil, domain.NewNotFoundError("Review", id.String())
	}
	return rev, nil
}

func (r *fakeReviewRepo) FindByBookingAndReviewer(_ context.Context, bookingID, reviewerID uuid.UUID) (*reviewDomain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rev := range r.reviews {
		if rev.BookingID() == bookingID && rev.ReviewerID() == reviewerID {
			return rev, nil
		}
	}
	return nil, domain.NewNotFoundError("Review", bookingID.String())
}

func (r *fakeReviewRepo) FindByItemID(_ context.Context, itemID uuid.UUID, _, _ int) ([]*reviewDomain.Review, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reviewDomain.Review
	for _, rev := range r.reviews {
		if rev.ItemID() == itemID {
			out = append(out, rev)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeReviewRepo) AverageRating(_ context.Context, itemID uuid.UUID) (float64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum, count int64
	for _, rev := range r.reviews {
		if rev.ItemID() == itemID {
			sum += int64(rev.Rating())
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func (r *fakeReviewRepo) Save(_ context.Context, rev *reviewDomain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.BookingID() == rev.BookingID() && existing.ReviewerID() == rev.ReviewerID() {
			return domain.NewConflictError("booking has already been reviewed")
		}
	}
	r.reviews[rev.ID()] = rev
	return nil
}

func (r *fakeReviewRepo) Update(_ context.Context, rev *reviewDomain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[rev.ID()]; !ok {
		return domain.NewNotFoundError("Review", rev.ID().String())
	}
	r.reviews[rev.ID()] = rev
	return nil
}

func (r *fakeReviewRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[id]; !ok {
		return domain.NewNotFoundError("Review", id.String())
	}
	delete(r.reviews, id)
	return nil
}

// fakePaymentRepo is an in-memory PaymentRepository.
type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*paymentDomain.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*paymentDomain.Payment)}
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*paymentDomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pay, ok := r.payments[id]
	if !ok {
		return nil, domain.NewNotFoundError("Payment", id.String())
	}
	return pay, nil
}

func (r *fakePaymentRepo) FindByTxRef(_ context.Context, txRef string) (*paymentDomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pay := range r.payments {
		if pay.TxRef() == txRef {
			return pay, nil
		}
	}
	return nil, domain.NewNotFoundError("Payment", txRef)
}

func (r *fakePaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*paymentDomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*paymentDomain.Payment
	for _, pay := range r.payments {
		if pay.BookingID() == bookingID {
			out = append(out, pay)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) Save(_ context.Context, pay *paymentDomain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[pay.ID()] = pay
	return nil
}

func (r *fakePaymentRepo) Update(_ context.Context, pay *paymentDomain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[pay.ID()]; !ok {
		return domain.NewNotFoundError("Payment", pay.ID().String())
	}
	r.payments[pay.ID()] = pay
	return nil
}
