package expiry

import "time"

// Config holds configuration for the expiry scheduler
type Config struct {
	// Interval is how often pending bookings are swept
	Interval time.Duration

	// StartupDelay is the wait before the first sweep
	StartupDelay time.Duration

	// ExpiryWindow is how long a booking may stay Pending without a response
	ExpiryWindow time.Duration

	// StartGrace is how far past the scheduled start a Pending booking survives
	StartGrace time.Duration

	// Location is the business timezone, used for log and report output only
	Location *time.Location

	// Enabled determines if the background loop runs
	Enabled bool
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		Interval:     10 * time.Minute,
		StartupDelay: 5 * time.Second,
		ExpiryWindow: 2 * time.Hour,
		StartGrace:   time.Hour,
		Location:     time.UTC,
		Enabled:      true,
	}
}

// applyDefaults fills unset or out-of-range values with defaults
func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Minute
	}
	if c.StartupDelay < 0 {
		c.StartupDelay = 0
	}
	if c.ExpiryWindow <= 0 {
		c.ExpiryWindow = 2 * time.Hour
	}
	if c.StartGrace <= 0 {
		c.StartGrace = time.Hour
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
}
