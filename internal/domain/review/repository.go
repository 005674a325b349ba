package review

import (
	"context"

	"github.com/google/uuid"
)

// ReviewRepository defines the persistence contract for reviews.
type ReviewRepository interface {
	// FindByID retrieves a review by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// FindByBookingAndReviewer retrieves the review a user left for a
	// booking, or a not-found error if none exists.
	FindByBookingAndReviewer(ctx context.Context, bookingID, reviewerID uuid.UUID) (*Review, error)

	// FindByItemID retrieves reviews for an item with pagination.
	FindByItemID(ctx context.Context, itemID uuid.UUID, page, limit int) ([]*Review, int64, error)

	// AverageRating returns the average rating for an item and the review count.
	AverageRating(ctx context.Context, itemID uuid.UUID) (float64, int64, error)

	// Save persists a new review.
	Save(ctx context.Context, review *Review) error

	// Update persists changes to an existing review.
	Update(ctx context.Context, review *Review) error

	// Delete removes a review.
	Delete(ctx context.Context, id uuid.UUID) error
}
