package invoice

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MigrateLegacy converts every booking that still carries a flat materials
// list into invoice items. Each booking migrates in its own transaction and
// a failure is recorded without stopping the run.
func (s *Service) MigrateLegacy(ctx context.Context) (*MigrationReport, error) {
	legacy, err := s.bookings.ListLegacyMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy materials: %w", err)
	}

	report := &MigrationReport{Total: len(legacy), Failures: []MigrationFailure{}}
	for _, lb := range legacy {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := s.migrateBooking(ctx, lb); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, MigrationFailure{BookingID: lb.BookingID, Error: err.Error()})
			s.logger.WithContext(ctx).Warn("legacy invoice migration failed", "booking_id", lb.BookingID, "error", err)
			continue
		}
		report.Migrated++
	}

	s.logger.WithContext(ctx).Info("legacy invoice migration finished",
		"total", report.Total, "migrated", report.Migrated, "failed", report.Failed)
	return report, nil
}

func (s *Service) migrateBooking(ctx context.Context, lb LegacyBooking) error {
	if lb.Err != nil {
		return lb.Err
	}

	inputs := make([]ItemInput, 0, len(lb.Materials))
	for i, m := range lb.Materials {
		in := ItemInput{Name: m.Name, Quantity: m.Quantity, UnitPrice: m.Price}
		if in.Quantity == 0 {
			in.Quantity = 1
		}
		if err := in.Validate(); err != nil {
			return fmt.Errorf("material %d: %w", i, err)
		}
		inputs = append(inputs, in)
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.mutate(ctx, lb.BookingID, uuid.Nil, func(ctx context.Context, inv *Invoice) (bool, error) {
			now := s.now().UTC()
			position := nextPosition(inv.Items)
			for _, in := range inputs {
				item := Item{
					ID:        uuid.New(),
					BookingID: lb.BookingID,
					Name:      strings.TrimSpace(in.Name),
					Quantity:  in.Quantity,
					UnitPrice: in.UnitPrice,
					Position:  position,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if err := item.recompute(); err != nil {
					return false, err
				}
				if err := s.repo.AddItem(ctx, &item); err != nil {
					return false, err
				}
				inv.Items = append(inv.Items, item)
				position++
			}
			return true, nil
		})
		if err != nil {
			return err
		}
		return s.bookings.ClearLegacyMaterials(ctx, lb.BookingID)
	})
}
