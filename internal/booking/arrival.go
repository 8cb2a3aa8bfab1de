package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/pkg/geo"
	"github.com/kislikjeka/handygo/pkg/logger"
)

// DefaultArrivalRadiusKm is the distance at which a handyman counts as arrived
const DefaultArrivalRadiusKm = 0.1

// ArrivalReport describes one location update
type ArrivalReport struct {
	// Checked is false when the throttle skipped the proximity check
	Checked bool        `json:"checked"`
	Arrived []uuid.UUID `json:"arrived"`
}

// ArrivalDetector turns handyman location updates into arrived events
type ArrivalDetector struct {
	repo      Repository
	locations LocationStore
	throttle  Throttle
	events    EventPublisher
	radiusKm  float64
	logger    *logger.Logger
	now       func() time.Time
}

// NewArrivalDetector creates a new arrival detector
func NewArrivalDetector(repo Repository, locations LocationStore, throttle Throttle, events EventPublisher, radiusKm float64, log *logger.Logger) *ArrivalDetector {
	if radiusKm <= 0 {
		radiusKm = DefaultArrivalRadiusKm
	}
	return &ArrivalDetector{
		repo:      repo,
		locations: locations,
		throttle:  throttle,
		events:    events,
		radiusKm:  radiusKm,
		logger:    log.WithField("service", "arrival"),
		now:       time.Now,
	}
}

// ReportLocation stores the handyman position and, at most once per
// throttle interval, notifies users whose In-Progress booking is within range.
// Each booking is marked arrived at most once.
func (d *ArrivalDetector) ReportLocation(ctx context.Context, handymanID uuid.UUID, p geo.Point) (*ArrivalReport, error) {
	if err := p.Validate(); err != nil {
		return nil, ErrInvalidCoordinate
	}

	if err := d.locations.UpdateLocation(ctx, handymanID, p); err != nil {
		return nil, fmt.Errorf("failed to store location: %w", err)
	}

	report := &ArrivalReport{Arrived: []uuid.UUID{}}

	allowed, err := d.throttle.Allow(ctx, "arrival:"+handymanID.String())
	if err != nil {
		// The arrived flag still guards against duplicates
		d.logger.WithContext(ctx).Warn("arrival throttle unavailable", "handyman_id", handymanID, "error", err)
		allowed = true
	}
	if !allowed {
		return report, nil
	}
	report.Checked = true

	candidates, err := d.repo.ListArrivalCandidates(ctx, handymanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list arrival candidates: %w", err)
	}

	for _, b := range candidates {
		if b.Location == nil {
			continue
		}
		distance := geo.DistanceKm(p, *b.Location)
		if distance > d.radiusKm {
			continue
		}

		marked, err := d.repo.MarkArrived(ctx, b.ID)
		if err != nil {
			d.logger.WithContext(ctx).Error("failed to mark arrival", "booking_id", b.ID, "error", err)
			continue
		}
		if !marked {
			continue
		}

		b.ArrivalNotified = true
		report.Arrived = append(report.Arrived, b.ID)
		d.logger.WithContext(logger.WithBookingID(ctx, b.ID)).Info("handyman arrived",
			"handyman_id", handymanID, "distance_km", distance)

		if d.events == nil {
			continue
		}
		if err := d.events.Publish(ctx, NewEvent(EventArrived, b, b.Status, d.now().UTC())); err != nil {
			d.logger.WithContext(ctx).Warn("failed to publish arrival event", "booking_id", b.ID, "error", err)
		}
	}

	return report, nil
}
