package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/rentalflow/service-rental/internal/domain/booking"
	reviewDomain "github.com/rentalflow/service-rental/internal/domain/review"
	"github.com/rentalflow/service-rental/pkg/domain"
)

// CreateReviewRequest holds the data needed to review a completed booking.
type CreateReviewRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	Rating    int       `json:"rating" binding:"required"`
	Comment   string    `json:"comment" binding:"required"`
}

// ReviewDTO is the response representation of a review.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ItemID     uuid.UUID `json:"item_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ReviewService is the application service for post-rental reviews.
type ReviewService struct {
	repo        reviewDomain.ReviewRepository
	bookingRepo bookingDomain.BookingRepository
	logger      *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(repo reviewDomain.ReviewRepository, bookingRepo bookingDomain.BookingRepository, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		repo:        repo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// CreateReview records a review for a completed booking. Only the renter
// may review, only once per booking, and only after completion.
func (s *ReviewService) CreateReview(ctx context.Context, reviewerID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error) {
	bk, err := s.bookingRepo.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByBookingAndReviewer(ctx, bk.ID(), reviewerID); err == nil {
		return nil, domain.NewConflictError("booking has already been reviewed")
	}

	if !bookingDomain.CanPerform(bk, reviewerID, false, bookingDomain.ActionLeaveReview) {
		if !bk.IsParty(reviewerID) {
			return nil, domain.NewForbiddenError("user is not a party to this booking")
		}
		return nil, domain.NewValidationError("booking is not eligible for review")
	}

	rev, err := reviewDomain.NewReview(bk.ID(), bk.ItemID(), reviewerID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, rev); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	result := toReviewDTO(rev)
	return &result, nil
}

// UpdateReview edits the reviewer's own review.
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID, reviewerID uuid.UUID, rating int, comment string) (*ReviewDTO, error) {
	rev, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if rev.ReviewerID() != reviewerID {
		return nil, domain.NewForbiddenError("only the reviewer can edit this review")
	}

	if err := rev.Edit(rating, comment); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rev); err != nil {
		return nil, err
	}

	result := toReviewDTO(rev)
	return &result, nil
}

// DeleteReview removes the reviewer's own review.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, reviewerID uuid.UUID) error {
	rev, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if rev.ReviewerID() != reviewerID {
		return domain.NewForbiddenError("only the reviewer can delete this review")
	}
	return s.repo.Delete(ctx, reviewID)
}

// GetItemReviews retrieves paginated reviews for an item.
func (s *ReviewService) GetItemReviews(ctx context.Context, itemID uuid.UUID, page, limit int) (*domain.PaginatedResult[ReviewDTO], error) {
	reviews, total, err := s.repo.FindByItemID(ctx, itemID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]ReviewDTO, len(reviews))
	for i, rev := range reviews {
		dtos[i] = toReviewDTO(rev)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func toReviewDTO(rev *reviewDomain.Review) ReviewDTO {
	return ReviewDTO{
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
