package expiry

import (
	"time"

	"github.com/google/uuid"
)

// BookingError is a booking the sweep failed to expire
type BookingError struct {
	BookingID uuid.UUID `json:"bookingId"`
	Error     string    `json:"error"`
}

// RunReport summarises one sweep
type RunReport struct {
	StartedAt      time.Time      `json:"startedAt"`
	StartedAtLocal string         `json:"startedAtLocal"`
	FinishedAt     time.Time      `json:"finishedAt"`
	Checked        int            `json:"checked"`
	Expired        int            `json:"expired"`
	Skipped        int            `json:"skipped"`
	Failed         int            `json:"failed"`
	ByRule         map[string]int `json:"byRule"`
	Errors         []BookingError `json:"errors,omitempty"`
}

// Status describes the scheduler for operators
type Status struct {
	Enabled      bool       `json:"enabled"`
	Running      bool       `json:"running"`
	Interval     string     `json:"interval"`
	ExpiryWindow string     `json:"expiryWindow"`
	Timezone     string     `json:"timezone"`
	LastRun      *RunReport `json:"lastRun,omitempty"`
	NextRun      *time.Time `json:"nextRun,omitempty"`
}
