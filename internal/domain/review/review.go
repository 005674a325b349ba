package review

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentalflow/service-rental/pkg/domain"
)

// Review is a renter's rating of an item after a completed booking. At most
// one review exists per (booking, reviewer).
type Review struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	itemID     uuid.UUID
	reviewerID uuid.UUID
	rating     int
	comment    string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewReview creates a new Review with validated fields.
func NewReview(bookingID, itemID, reviewerID uuid.UUID, rating int, comment string) (*Review, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if itemID == uuid.Nil {
		return nil, domain.NewValidationError("item ID is required")
	}
	if reviewerID == uuid.Nil {
		return nil, domain.NewValidationError("reviewer ID is required")
	}
	if rating < 1 || rating > 5 {
		return nil, domain.NewValidationError("rating must be between 1 and 5")
	}
	if comment == "" {
		return nil, domain.NewValidationError("review comment is required")
	}

	now := time.Now().UTC()
	return &Review{
		id:         uuid.New(),
		bookingID:  bookingID,
		itemID:     itemID,
		reviewerID: reviewerID,
		rating:     rating,
		comment:    comment,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds a Review from persistence data (no validation).
func Reconstruct(
	id, bookingID, itemID, reviewerID uuid.UUID,
	rating int,
	comment string,
	createdAt, updatedAt time.Time,
) *Review {
	return &Review{
		id:         id,
		bookingID:  bookingID,
		itemID:     itemID,
		reviewerID: reviewerID,
		rating:     rating,
		comment:    comment,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// --- Getters ---

func (r *Review) ID() uuid.UUID         { return r.id }
func (r *Review) BookingID() uuid.UUID  { return r.bookingID }
func (r *Review) ItemID() uuid.UUID     { return r.itemID }
func (r *Review) ReviewerID() uuid.UUID { return r.reviewerID }
func (r *Review) Rating() int           { return r.rating }
func (r *Review) Comment() string       { return r.comment }
func (r *Review) CreatedAt() time.Time  { return r.createdAt }
func (r *Review) UpdatedAt() time.Time  { return r.updatedAt }

// Edit updates the rating and comment.
func (r *Review) Edit(rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return domain.NewValidationError("rating must be between 1 and 5")
	}
	if comment == "" {
		return domain.NewValidationError("review comment is required")
	}
	r.rating = rating
	r.comment = comment
	r.updatedAt = time.Now().UTC()
	return nil
}
