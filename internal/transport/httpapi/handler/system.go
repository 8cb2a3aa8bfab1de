package handler

import (
	"context"
	"net/http"

	"github.com/kislikjeka/handygo/internal/invoice"
	"github.com/kislikjeka/handygo/internal/platform/expiry"
	"github.com/kislikjeka/handygo/pkg/logger"
)

// SchedulerInterface defines the expiry sweep controls
type SchedulerInterface interface {
	RunChecks(ctx context.Context) (*expiry.RunReport, error)
	Status() expiry.Status
}

// MigratorInterface defines the legacy invoice migration
type MigratorInterface interface {
	MigrateLegacy(ctx context.Context) (*invoice.MigrationReport, error)
}

// SystemHandler handles operational requests
type SystemHandler struct {
	scheduler SchedulerInterface
	migrator  MigratorInterface
	logger    *logger.Logger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(scheduler SchedulerInterface, migrator MigratorInterface, log *logger.Logger) *SystemHandler {
	return &SystemHandler{
		scheduler: scheduler,
		migrator:  migrator,
		logger:    log.WithComponent("system_handler"),
	}
}

// RunChecks handles POST /system/run-checks
func (h *SystemHandler) RunChecks(w http.ResponseWriter, r *http.Request) {
	report, err := h.scheduler.RunChecks(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// GetStatus handles GET /system/status
func (h *SystemHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scheduler.Status())
}

// MigrateInvoices handles POST /admin/invoices/migrate
func (h *SystemHandler) MigrateInvoices(w http.ResponseWriter, r *http.Request) {
	report, err := h.migrator.MigrateLegacy(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.WithContext(r.Context()).Info("legacy invoice migration finished",
		"total", report.Total, "migrated", report.Migrated, "failed", report.Failed)
	respondJSON(w, http.StatusOK, report)
}
