package convopg

import (
	"context"
	"fmt"
	"time"

	"github.com/convopg/convopg/compaction"
	"github.com/convopg/convopg/engine"
	"github.com/convopg/convopg/storage"
	"github.com/convopg/convopg/types"
)

// HistoryManager owns one user session's transcript state: the pending
// queue of turns not yet persisted and the working set of active rows
// loaded from storage. It is not safe for concurrent use and must not be
// shared across sessions; create one per conversation.
type HistoryManager struct {
	store  storage.Store
	engine engine.Engine
	userID string

	config    *compaction.Config
	logger    compaction.Logger
	metrics   *compaction.Metrics
	scheduler *compaction.Scheduler
	now       func() time.Time

	existing []*types.Turn
	queue    []types.QueuedTurn
	flushed  []types.QueuedTurn // persisted this cycle, pending compaction
	lastSeq  int64
}

// New creates a HistoryManager for the given user.
func New(store storage.Store, eng engine.Engine, userID string, opts ...Option) (*HistoryManager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if eng == nil {
		return nil, fmt.Errorf("%w: engine is required", ErrInvalidConfig)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidConfig)
	}

	m := &HistoryManager{
		store:  store,
		engine: eng,
		userID: userID,
		config: compaction.DefaultConfig(),
		now:    time.Now,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	m.scheduler = compaction.NewScheduler(store, eng, m.config, m.logger, m.metrics)
	return m, nil
}

// History reconstructs the active transcript from storage and returns it as
// an engine-ready message list. Rows with no content are filtered out, and
// when the earliest retained row is not user-authored a synthetic
// single-space user turn is prepended in memory only, to satisfy the
// engine's alternating-role expectation.
//
// The loaded raw rows become the manager's working set for the next
// compaction cycle.
func (m *HistoryManager) History(ctx context.Context) ([]engine.Message, error) {
	rows, err := m.store.ActiveTurns(ctx, m.userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageError, err)
	}
	m.existing = rows

	var history []engine.Message
	if len(rows) > 0 && rows[0].Role != types.RoleUser {
		history = append(history, engine.Message{
			Role:    types.RoleUser,
			Content: []types.ContentBlock{types.TextBlock(" ")},
		})
	}
	history = append(history, engine.Project(rows)...)

	return history, nil
}

// Enqueue appends a turn to the pending queue with a server-assigned
// creation timestamp. The timestamp becomes the turn's sequence at flush;
// when the clock does not advance between appends it is bumped by one
// millisecond so sequences stay strictly increasing.
func (m *HistoryManager) Enqueue(role types.Role, content ...types.ContentBlock) {
	seq := m.now().UnixMilli()
	if seq <= m.lastSeq {
		seq = m.lastSeq + 1
	}
	m.lastSeq = seq

	m.queue = append(m.queue, types.QueuedTurn{
		Role:      role,
		Content:   content,
		CreatedAt: seq,
	})
}

// Pending returns the number of queued turns awaiting flush.
func (m *HistoryManager) Pending() int {
	return len(m.queue)
}

// FlushAndCompact persists every queued turn in queue order, clears the
// queue, and then runs one compaction cycle with the given current context
// size (the engine-reported usage after the last generation).
//
// If an insert fails, the flushed prefix stays persisted, the failed turn
// and everything after it remain queued, and the error is returned without
// running compaction. A compaction failure does not roll back the flush.
func (m *HistoryManager) FlushAndCompact(ctx context.Context, currentContextSize int) error {
	for len(m.queue) > 0 {
		item := m.queue[0]
		ts := time.UnixMilli(item.CreatedAt).UTC()
		turn := &types.Turn{
			UserID:    m.userID,
			Sequence:  item.CreatedAt,
			Role:      item.Role,
			Content:   item.Content,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		if err := m.store.InsertTurn(ctx, turn); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageError, err)
		}
		m.flushed = append(m.flushed, item)
		m.queue = m.queue[1:]
	}

	flushed := m.flushed
	m.flushed = nil

	return m.scheduler.Manage(ctx, m.userID, m.existing, flushed, currentContextSize)
}
