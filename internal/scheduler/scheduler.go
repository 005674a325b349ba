package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rentalflow/service-rental/internal/application"
	bookingDomain "github.com/rentalflow/service-rental/internal/domain/booking"
)

const batchLimit = 100

// RentalScheduler drives time-based booking transitions. Confirmed bookings
// whose start date has arrived become active, and active bookings whose end
// date has passed become completed. All transitions run as the system actor.
type RentalScheduler struct {
	repo     bookingDomain.BookingRepository
	service  *application.BookingService
	interval time.Duration
	logger   *zap.Logger
}

// NewRentalScheduler creates a new RentalScheduler.
func NewRentalScheduler(
	repo bookingDomain.BookingRepository,
	service *application.BookingService,
	interval time.Duration,
	logger *zap.Logger,
) *RentalScheduler {
	return &RentalScheduler{
		repo:     repo,
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the scheduler loop until the context is cancelled. One sweep
// runs immediately so restarts don't delay overdue transitions by a full
// interval.
func (s *RentalScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("rental scheduler stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RentalScheduler) sweep(ctx context.Context) {
	now := time.Now().UTC()
	s.activateDue(ctx, now)
	s.completeDue(ctx, now)
}

func (s *RentalScheduler) activateDue(ctx context.Context, now time.Time) {
	due, err := s.repo.FindDueForActivation(ctx, now, batchLimit)
	if err != nil {
		s.logger.Error("failed to load bookings due for activation", zap.Error(err))
		return
	}

	for _, bk := range due {
		if _, err := s.service.ActivateBooking(ctx, bk.ID(), bookingDomain.SystemActor); err != nil {
			// A conflict just means another replica won the sweep.
			s.logger.Warn("failed to activate booking",
				zap.String("booking_id", bk.ID().String()),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("booking activated",
			zap.String("booking_id", bk.ID().String()),
			zap.String("booking_number", bk.BookingNumber()),
		)
	}
}

func (s *RentalScheduler) completeDue(ctx context.Context, now time.Time) {
	due, err := s.repo.FindDueForCompletion(ctx, now, batchLimit)
	if err != nil {
		s.logger.Error("failed to load bookings due for completion", zap.Error(err))
		return
	}

	for _, bk := range due {
		if _, err := s.service.CompleteBooking(ctx, bk.ID(), bookingDomain.SystemActor); err != nil {
			s.logger.Warn("failed to complete booking",
				zap.String("booking_id", bk.ID().String()),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("booking completed",
			zap.String("booking_id", bk.ID().String()),
			zap.String("booking_number", bk.BookingNumber()),
		)
	}
}
