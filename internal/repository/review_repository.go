package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	reviewDomain "github.com/rentalflow/service-rental/internal/domain/review"
	"github.com/rentalflow/service-rental/pkg/domain"
)

// ReviewModel is the GORM model for the reviews table. The composite unique
// index enforces one review per (booking, reviewer) at the storage level.
type ReviewModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_booking_reviewer"`
	ItemID     uuid.UUID `gorm:"type:uuid;index;not null"`
	ReviewerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_booking_reviewer"`
	Rating     int       `gorm:"not null"`
	Comment    string    `gorm:"not null;size:2000"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReviewModel) TableName() string {
	return "reviews"
}

// GormReviewRepository is the GORM-based implementation of ReviewRepository.
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository.
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// FindByID retrieves a review by its unique identifier.
func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*reviewDomain.Review, error) {
	var model ReviewModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Review", id.String())
		}
		return nil, fmt.Errorf("failed to find review by ID: %w", err)
	}
	return toDomainReview(&model), nil
}

// FindByBookingAndReviewer retrieves the review a user left for a booking.
func (r *GormReviewRepository) FindByBookingAndReviewer(ctx context.Context, bookingID, reviewerID uuid.UUID) (*reviewDomain.Review, error) {
	var model ReviewModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ? AND reviewer_id = ?", bookingID, reviewerID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Review", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find review by booking and reviewer: %w", err)
	}
	return toDomainReview(&model), nil
}

// FindByItemID retrieves reviews for an item with pagination, newest first.
func (r *GormReviewRepository) FindByItemID(ctx context.Context, itemID uuid.UUID, page, limit int) ([]*reviewDomain.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).Where("item_id = ?", itemID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count item reviews: %w", err)
	}

	var models []ReviewModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find item reviews: %w", err)
	}

	reviews := make([]*reviewDomain.Review, len(models))
	for i := range models {
		reviews[i] = toDomainReview(&models[i])
	}
	return reviews, total, nil
}

// AverageRating returns the average rating for an item and the review count.
func (r *GormReviewRepository) AverageRating(ctx context.Context, itemID uuid.UUID) (float64, int64, error) {
	type ratingAgg struct {
		Avg   float64
		Count int64
	}
	var agg ratingAgg
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).
		Select("coalesce(avg(rating), 0) as avg, count(*) as count").
		Where("item_id = ?", itemID).
		Scan(&agg).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to compute average rating: %w", err)
	}
	return agg.Avg, agg.Count, nil
}

// Save persists a new review. A duplicate (booking, reviewer) pair surfaces
// as a conflict.
func (r *GormReviewRepository) Save(ctx context.Context, rev *reviewDomain.Review) error {
	if err := r.db.WithContext(ctx).Create(toReviewModel(rev)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("booking has already been reviewed")
		}
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

// Update persists changes to an existing review.
func (r *GormReviewRepository) Update(ctx context.Context, rev *reviewDomain.Review) error {
	result := r.db.WithContext(ctx).
		Model(&ReviewModel{}).
		Where("id = ?", rev.ID()).
		Updates(map[string]interface{}{
			"rating":     rev.Rating(),
			"comment":    rev.Comment(),
			"updated_at": rev.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Review", rev.ID().String())
	}
	return nil
}

// Delete removes a review.
func (r *GormReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ReviewModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Review", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toReviewModel(rev *reviewDomain.Review) *ReviewModel {
	return &ReviewModel{
		ID:         rev.ID(),
		BookingID:  rev.BookingID(),
		ItemID:     rev.ItemID(),
		ReviewerID: rev.ReviewerID(),
		Rating:     rev.Rating(),
		Comment:    rev.Comment(),
		CreatedAt:  rev.CreatedAt(),
		UpdatedAt:  rev.UpdatedAt(),
	}
}

func toDomainReview(m *ReviewModel) *reviewDomain.Review {
	return reviewDomain.Reconstruct(
		m.ID,
		m.BookingID,
		m.ItemID,
		m.ReviewerID,
		m.Rating,
		m.Comment,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
