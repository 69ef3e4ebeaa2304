package compaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/convopg/convopg/engine"
	"github.com/convopg/convopg/storage"
	"github.com/convopg/convopg/types"
)

// Scheduler enforces the context-size budget after each flush.
//
// A Scheduler issues every store and engine call strictly sequentially and
// assumes it is the only compaction run for its user at a time; serializing
// per-user access is the caller's responsibility.
type Scheduler struct {
	store    storage.Store
	engine   engine.Engine
	config   *Config
	logger   Logger
	metrics  *Metrics
	archiver *ArchiveWriter
}

// NewScheduler creates a Scheduler. If config is nil, default configuration
// is used. Metrics may be nil to disable instrumentation.
func NewScheduler(store storage.Store, eng engine.Engine, config *Config, logger Logger, metrics *Metrics) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	} else {
		config.ApplyDefaults()
	}
	if logger == nil {
		logger = noopLogger{}
	}

	return &Scheduler{
		store:    store,
		engine:   eng,
		config:   config,
		logger:   logger,
		metrics:  metrics,
		archiver: NewArchiveWriter(store, eng, logger),
	}
}

// Config returns the scheduler's configuration.
func (s *Scheduler) Config() *Config {
	return s.config
}

// Manage runs one compaction cycle for the user.
//
// rows is the user's active transcript in ascending sequence order (the
// working set loaded before the flush plus nothing else; freshly flushed
// turns need not be present since the cursor never reaches past the queue's
// day anyway). queued is the just-flushed pending queue, whose token cost
// bounds the cycle's effort under the default stop policy.
//
// If currentContextSize is below the trigger threshold the call is a no-op:
// no store writes, no engine calls. Otherwise groups are summarized and
// archived oldest-day-first until the stop policy is satisfied or no
// un-summarized group remains. Exhaustion is normal termination, not an
// error.
func (s *Scheduler) Manage(ctx context.Context, userID string, rows []*types.Turn, queued []types.QueuedTurn, currentContextSize int) error {
	threshold := s.config.TriggerThreshold(s.engine.MaxContextTokens())
	if currentContextSize < threshold {
		s.logger.Debug("context threshold not met, skipping compaction",
			"user_id", userID,
			"context_size", currentContextSize,
			"threshold", threshold,
		)
		return nil
	}

	start := time.Now()
	cycleID := uuid.New()
	s.logger.Info("starting compaction cycle",
		"cycle_id", cycleID,
		"user_id", userID,
		"context_size", currentContextSize,
		"threshold", threshold,
	)

	queueCost, err := s.engine.CountTokens(ctx, queuedMessages(queued))
	if err != nil {
		return wrapError("Manage", userID, fmt.Errorf("%w: %v", ErrEngineError, err))
	}

	summarizedCost := 0
	groups := 0
	startIndex := 0
	for {
		group := NextGroup(rows, startIndex, s.config.Location)
		if group == nil {
			s.logger.Info("no un-summarized turns remain",
				"cycle_id", cycleID,
				"user_id", userID,
			)
			break
		}

		freed, err := s.archiver.SummarizeAndArchive(ctx, userID, group)
		if err != nil {
			// Groups archived earlier in this cycle stay archived.
			return err
		}

		groups++
		summarizedCost += freed
		if s.metrics != nil {
			s.metrics.GroupsArchived.Inc()
			s.metrics.TurnsArchived.Add(float64(len(group.Turns)))
		}

		if s.config.StopPolicy(summarizedCost, queueCost, currentContextSize, threshold) {
			break
		}

		startIndex = group.NextIndex
	}

	if s.metrics != nil {
		s.metrics.Cycles.Inc()
		s.metrics.TokensFreed.Add(float64(summarizedCost))
		s.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}

	s.logger.Info("compaction cycle complete",
		"cycle_id", cycleID,
		"user_id", userID,
		"groups", groups,
		"queue_tokens", queueCost,
		"freed_tokens", summarizedCost,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// queuedMessages projects queued turns for token counting, dropping
// empty-content entries the same way loaded history does.
func queuedMessages(queued []types.QueuedTurn) []engine.Message {
	messages := make([]engine.Message, 0, len(queued))
	for _, item := range queued {
		turn := types.Turn{Role: item.Role, Content: item.Content}
		if !turn.HasContent() {
			continue
		}
		messages = append(messages, engine.Message{Role: item.Role, Content: item.Content})
	}
	return messages
}
