package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingDomain "github.com/rentalflow/service-rental/internal/domain/booking"
	"github.com/rentalflow/service-rental/pkg/domain"
)

type reviewFixture struct {
	svc         *ReviewService
	repo        *fakeReviewRepo
	bookingRepo *fakeBookingRepo
	bookings    *BookingService
}

func newReviewFixture(t *testing.T) (*reviewFixture, *bookingFixture) {
	t.Helper()
	bf := newBookingFixture(t)
	svc := NewReviewService(bf.reviewRepo, bf.repo, zap.NewNop())
	return &reviewFixture{
		svc:         svc,
		repo:        bf.reviewRepo,
		bookingRepo: bf.repo,
		bookings:    bf.svc,
	}, bf
}

// seedCompletedBooking walks a fresh booking through its full lifecycle so
// the renter becomes eligible to review it.
func (f *reviewFixture) seedCompletedBooking(t *testing.T, bf *bookingFixture, renterID, ownerID uuid.UUID) *BookingDTO {
	t.Helper()
	ctx := context.Background()
	created := bf.seedBooking(t, renterID, ownerID)
	_, err := f.bookings.ConfirmBooking(ctx, created.ID, ownerID)
	require.NoError(t, err)
	_, err = f.bookings.ActivateBooking(ctx, created.ID, bookingDomain.SystemActor)
	require.NoError(t, err)
	completed, err := f.bookings.CompleteBooking(ctx, created.ID, bookingDomain.SystemActor)
	require.NoError(t, err)
	return completed
}

func TestCreateReview(t *testing.T) {
	f, bf := newReviewFixture(t)
	renterID := uuid.New()
	bk := f.seedCompletedBooking(t, bf, renterID, uuid.New())

	dto, err := f.svc.CreateReview(context.Background(), renterID, CreateReviewRequest{
		BookingID: bk.ID,
		Rating:    5,
		Comment:   "Camera was in great shape, smooth handover",
	})
	require.NoError(t, err)
	assert.Equal(t, bk.ID, dto.BookingID)
	assert.Equal(t, bk.ItemID, dto.ItemID)
	assert.Equal(t, renterID, dto.ReviewerID)
	assert.Equal(t, 5, dto.Rating)
}

func TestCreateReview_DuplicateRejected(t *testing.T) {
	f, bf := newReviewFixture(t)
	renterID := uuid.New()
	bk := f.seedCompletedBooking(t, bf, renterID, uuid.New())

	req := CreateReviewRequest{BookingID: bk.ID, Rating: 4, Comment: "Good experience"}
	_, err := f.svc.CreateReview(context.Background(), renterID, req)
	require.NoError(t, err)

	_, err = f.svc.CreateReview(context.Background(), renterID, req)
	assert.True(t, domain.IsCode(err, domain.CodeConflict))
}

func TestCreateReview_BookingNotCompleted(t *testing.T) {
	f, bf := newReviewFixture(t)
	renterID := uuid.New()
	created := bf.seedBooking(t, renterID, uuid.New())

	_, err := f.svc.CreateReview(context.Background(), renterID, CreateReviewRequest{
		BookingID: created.ID,
		Rating:    4,
		Comment:   "Too early to tell",
	})
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}

func TestCreateReview_OwnerCannotReview(t *testing.T) {
	f, bf := newReviewFixture(t)
	ownerID := uuid.New()
	bk := f.seedCompletedBooking(t, bf, uuid.New(), ownerID)

	_, err := f.svc.CreateReview(context.Background(), ownerID, CreateReviewRequest{
		BookingID: bk.ID,
		Rating:    5,
		Comment:   "Great renter",
	})
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}

func TestCreateReview_NonPartyForbidden(t *testing.T) {
	f, bf := newReviewFixture(t)
	bk := f.seedCompletedBooking(t, bf, uuid.New(), uuid.New())

	_, err := f.svc.CreateReview(context.Background(), uuid.New(), CreateReviewRequest{
		BookingID: bk.ID,
		Rating:    1,
		Comment:   "Never rented this",
	})
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))
}

func TestCreateReview_InvalidRating(t *testing.T) {
	f, bf := newReviewFixture(t)
	renterID := uuid.New()
	bk := f.seedCompletedBooking(t, bf, renterID, uuid.New())

	_, err := f.svc.CreateReview(context.Background(), renterID, CreateReviewRequest{
		BookingID: bk.ID,
		Rating:    6,
		Comment:   "Off the scale",
	})
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}

func TestUpdateReview(t *testing.T) {
	f, bf := newReviewFixture(t)
	renterID := uuid.New()
	bk := f.seedCompletedBooking(t, bf, renterID, uuid.New())

	created, err := f.svc.CreateReview(context.Background(), renterID, CreateReviewRequest{
		BookingID: bk.ID,
		Rating:    3,
		Comment:   "Decent",
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateReview(context.Background(), created.ID, renterID, 4, "Better on second thought")
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, "Better on second thought", updated.Comment)

	_, err = f.svc.UpdateReview(context.Background(), created.ID, uuid.New(), 1, "Not mine")
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))
}

func TestDeleteReview(t *testing.T) {
	f, bf := newReviewFixture(t)
	renterID := uuid.New()
	bk := f.seedCompletedBooking(t, bf, renterID, uuid.New())

	created, err := f.svc.CreateReview(context.Background(), renterID, CreateReviewRequest{
		BookingID: bk.ID,
		Rating:    2,
		Comment:   "Scratched lens",
	})
	require.NoError(t, err)

	err = f.svc.DeleteReview(context.Background(), created.ID, uuid.New())
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))

	require.NoError(t, f.svc.DeleteReview(context.Background(), created.ID, renterID))
	_, err = f.repo.FindByID(context.Background(), created.ID)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestGetItemReviews(t *testing.T) {
	f, bf := newReviewFixture(t)
	renterID := uuid.New()
	bk := f.seedCompletedBooking(t, bf, renterID, uuid.New())

	_, err := f.svc.CreateReview(context.Background(), renterID, CreateReviewRequest{
		BookingID: bk.ID,
		Rating:    5,
		Comment:   "Would rent again",
	})
	require.NoError(t, err)

	page, err := f.svc.GetItemReviews(context.Background(), bk.ItemID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 5, page.Items[0].Rating)
}
