package sim

import (
	"fmt"
	"math"
)

// LineConfig groups the per-replication run parameters shared by every entity.
type LineConfig struct {
	Horizon float64 // simulated time at which the run stops (must be > 0)
	WarmUp  float64 // start-of-recording cutoff, in [0, Horizon]
	Routing string  // routing policy for single-component inspectors ("" = priority)
}

// Window returns the length of the recorded interval, Horizon - WarmUp.
func (c LineConfig) Window() float64 {
	return c.Horizon - c.WarmUp
}

// Validate checks the horizon, cutoff and routing policy name.
func (c LineConfig) Validate() error {
	if err := validateFinitePositive("horizon", c.Horizon); err != nil {
		return err
	}
	if math.IsNaN(c.WarmUp) || c.WarmUp < 0 {
		return fmt.Errorf("warm-up must be non-negative, got %f", c.WarmUp)
	}
	if c.WarmUp > c.Horizon {
		return fmt.Errorf("warm-up %f exceeds horizon %f", c.WarmUp, c.Horizon)
	}
	if !IsValidRoutingPolicy(c.Routing) {
		return fmt.Errorf("unknown routing policy %q; valid: priority, random, first-match", c.Routing)
	}
	return nil
}
