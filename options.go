package convopg

import (
	"time"

	"github.com/convopg/convopg/compaction"
)

// Option is a functional option for configuring a HistoryManager
type Option func(*HistoryManager) error

// WithConfig sets the compaction configuration. A nil config keeps the
// defaults.
func WithConfig(config *compaction.Config) Option {
	return func(m *HistoryManager) error {
		if config == nil {
			return nil
		}
		config.ApplyDefaults()
		if err := config.Validate(); err != nil {
			return err
		}
		m.config = config
		return nil
	}
}

// WithLogger sets the logger. *slog.Logger satisfies the interface.
func WithLogger(logger compaction.Logger) Option {
	return func(m *HistoryManager) error {
		if logger != nil {
			m.logger = logger
		}
		return nil
	}
}

// WithMetrics attaches Prometheus instruments to the compaction scheduler.
func WithMetrics(metrics *compaction.Metrics) Option {
	return func(m *HistoryManager) error {
		m.metrics = metrics
		return nil
	}
}

// WithClock overrides the time source used to assign queue timestamps.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(m *HistoryManager) error {
		if now != nil {
			m.now = now
		}
		return nil
	}
}
