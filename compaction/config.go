package compaction

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	// DefaultTrigger triggers compaction at 75% context usage.
	DefaultTrigger = 0.75
)

// StopPolicy decides whether a compaction cycle has freed enough budget to
// stop. It is consulted after each archived group with the cumulative freed
// cost, the token cost of the just-flushed queue, the context size that
// triggered the cycle, and the trigger threshold.
type StopPolicy func(summarizedCost, queueCost, contextSize, threshold int) bool

// StopWhenFreedExceedsQueueCost stops once the cumulative freed cost
// exceeds the cost of the just-flushed queue. This ties compaction effort
// to the size of the newest contribution and needs exactly one token count
// call per cycle.
func StopWhenFreedExceedsQueueCost(summarizedCost, queueCost, _, _ int) bool {
	return summarizedCost > queueCost
}

// StopWhenFreedExceedsOverage stops once the cumulative freed cost exceeds
// the amount by which the context size overshot the threshold.
func StopWhenFreedExceedsOverage(summarizedCost, _, contextSize, threshold int) bool {
	return summarizedCost > contextSize-threshold
}

// Config holds compaction configuration.
type Config struct {
	// Trigger is the context usage fraction (0.0-1.0) of the engine's
	// context window that triggers compaction.
	// Default: 0.75
	Trigger float64

	// Location is the time zone used to bucket sequence timestamps into
	// calendar days when selecting groups.
	// Default: time.Local
	Location *time.Location

	// StopPolicy decides when a cycle has freed enough budget.
	// Default: StopWhenFreedExceedsQueueCost
	StopPolicy StopPolicy
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Trigger:    DefaultTrigger,
		Location:   time.Local,
		StopPolicy: StopWhenFreedExceedsQueueCost,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Trigger == 0 {
		c.Trigger = DefaultTrigger
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.StopPolicy == nil {
		c.StopPolicy = StopWhenFreedExceedsQueueCost
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Trigger <= 0 || c.Trigger > 1.0 {
		return fmt.Errorf("%w: trigger must be between 0 and 1, got %f", ErrInvalidConfig, c.Trigger)
	}
	if c.Location == nil {
		return fmt.Errorf("%w: location is required", ErrInvalidConfig)
	}
	if c.StopPolicy == nil {
		return fmt.Errorf("%w: stop policy is required", ErrInvalidConfig)
	}
	return nil
}

// TriggerThreshold returns the absolute token count that triggers
// compaction for the given context window size.
func (c *Config) TriggerThreshold(maxContextTokens int) int {
	return int(float64(maxContextTokens) * c.Trigger)
}
