package expiry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kislikjeka/handygo/internal/booking"
	apperr "github.com/kislikjeka/handygo/internal/shared/errors"
	"github.com/kislikjeka/handygo/pkg/logger"
)

// Scheduler expires Pending bookings that were never answered or whose start passed
type Scheduler struct {
	config   *Config
	bookings BookingSource
	expirer  Expirer
	logger   *logger.Logger
	now      func() time.Time

	// sweepMu serialises ticks and manual triggers
	sweepMu sync.Mutex

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	lastRun *RunReport
	nextRun time.Time
}

// NewScheduler creates a new expiry scheduler
func NewScheduler(config *Config, bookings BookingSource, expirer Expirer, log *logger.Logger) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	config.applyDefaults()

	return &Scheduler{
		config:   config,
		bookings: bookings,
		expirer:  expirer,
		logger:   log.WithField("service", "expiry"),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// SetClock overrides the time source
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Run sweeps after the startup delay and then on every interval until ctx ends or Stop is called
func (s *Scheduler) Run(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info("expiry scheduler is disabled")
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.nextRun = s.now().Add(s.config.StartupDelay)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.nextRun = time.Time{}
		s.mu.Unlock()
	}()

	s.logger.Info("starting expiry scheduler",
		"interval", s.config.Interval,
		"expiry_window", s.config.ExpiryWindow,
		"start_grace", s.config.StartGrace,
		"timezone", s.config.Location.String())

	delay := time.NewTimer(s.config.StartupDelay)
	select {
	case <-ctx.Done():
		delay.Stop()
		return
	case <-stopCh:
		delay.Stop()
		return
	case <-delay.C:
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry scheduler stopping (context done)")
			return
		case <-stopCh:
			s.logger.Info("expiry scheduler stopping (stop signal)")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop ends a running loop
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.RunChecks(ctx); err != nil {
		s.logger.Error("expiry sweep failed", "error", err)
	}

	s.mu.Lock()
	s.nextRun = s.now().Add(s.config.Interval)
	s.mu.Unlock()
}

// RunChecks performs one sweep over all Pending bookings.
// It only fails when the bookings cannot be listed; per-booking errors land in the report.
func (s *Scheduler) RunChecks(ctx context.Context) (*RunReport, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	started := s.now().UTC()
	report := &RunReport{
		StartedAt:      started,
		StartedAtLocal: logger.LocalTime(started, s.config.Location),
		ByRule: map[string]int{
			string(booking.ExpiryNoResponse):  0,
			string(booking.ExpiryMissedStart): 0,
		},
	}

	pending, err := s.bookings.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending bookings: %w", err)
	}
	report.Checked = len(pending)

	for _, b := range pending {
		if ctx.Err() != nil {
			break
		}

		reason, due := s.Evaluate(b, s.now())
		if !due {
			continue
		}

		bctx := logger.WithBookingID(ctx, b.ID)
		if _, err := s.expirer.Expire(bctx, b.ID, reason); err != nil {
			if apperr.HasCode(err, apperr.ErrCodeInvalidTransition) {
				report.Skipped++
				s.logger.Debug("booking left Pending before expiry", "booking_id", b.ID)
				continue
			}
			report.Failed++
			report.Errors = append(report.Errors, BookingError{BookingID: b.ID, Error: err.Error()})
			s.logger.Error("failed to expire booking", "booking_id", b.ID, "reason", reason, "error", err)
			continue
		}

		report.Expired++
		report.ByRule[string(reason)]++
		s.logger.Info("booking expired",
			"booking_id", b.ID,
			"reason", reason,
			"created_at", logger.LocalTime(b.CreatedAt, s.config.Location),
			"scheduled_start", logger.LocalTime(b.ScheduledStart, s.config.Location))
	}

	report.FinishedAt = s.now().UTC()

	s.mu.Lock()
	s.lastRun = report
	s.mu.Unlock()

	s.logger.Info("expiry sweep finished",
		"started_at", report.StartedAtLocal,
		"checked", report.Checked,
		"expired", report.Expired,
		"skipped", report.Skipped,
		"failed", report.Failed)

	return report, nil
}

// Evaluate decides whether a booking is due to expire at now and under which rule.
// The response window is checked first.
func (s *Scheduler) Evaluate(b *booking.Booking, now time.Time) (booking.ExpiryReason, bool) {
	if b.Status != booking.StatusPending {
		return "", false
	}
	if now.Sub(b.CreatedAt) > s.config.ExpiryWindow {
		return booking.ExpiryNoResponse, true
	}
	if !b.ScheduledStart.IsZero() && now.Sub(b.ScheduledStart) > s.config.StartGrace {
		return booking.ExpiryMissedStart, true
	}
	return "", false
}

// Status reports the scheduler configuration and the last sweep
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Enabled:      s.config.Enabled,
		Running:      s.running,
		Interval:     s.config.Interval.String(),
		ExpiryWindow: s.config.ExpiryWindow.String(),
		Timezone:     s.config.Location.String(),
		LastRun:      s.lastRun,
	}
	if !s.nextRun.IsZero() {
		next := s.nextRun
		st.NextRun = &next
	}
	return st
}
