package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/convopg/convopg/types"
)

// MemoryStore is a simple in-process Store for local/dev use and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]*types.Turn
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]*types.Turn)}
}

func (s *MemoryStore) InsertTurn(_ context.Context, turn *types.Turn) error {
	if turn.UserID == "" {
		return fmt.Errorf("user_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.turns[turn.UserID] {
		if existing.Sequence == turn.Sequence && existing.IsSummary == turn.IsSummary {
			return fmt.Errorf("duplicate sequence %d for user %s", turn.Sequence, turn.UserID)
		}
	}

	clone := *turn
	s.turns[turn.UserID] = append(s.turns[turn.UserID], &clone)
	return nil
}

func (s *MemoryStore) ActiveTurns(_ context.Context, userID string) ([]*types.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*types.Turn
	for _, turn := range s.turns[userID] {
		if turn.IsArchived {
			continue
		}
		clone := *turn
		active = append(active, &clone)
	}

	// Summary rows share their sequence with the newest row they replaced;
	// order them after it, matching the Postgres query.
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Sequence != active[j].Sequence {
			return active[i].Sequence < active[j].Sequence
		}
		return !active[i].IsSummary && active[j].IsSummary
	})

	return active, nil
}

// ArchiveGroup applies archival and the summary insert all-or-nothing under
// the store lock, mirroring the transactional Postgres implementation.
func (s *MemoryStore) ArchiveGroup(_ context.Context, userID string, sequences []int64, summary *types.Turn) error {
	if len(sequences) == 0 {
		return fmt.Errorf("no sequences to archive")
	}
	if summary == nil {
		return fmt.Errorf("summary turn is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make([]*types.Turn, 0, len(sequences))
	for _, seq := range sequences {
		found := false
		for _, turn := range s.turns[userID] {
			if turn.Sequence == seq && !turn.IsSummary {
				targets = append(targets, turn)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("turn %d not found for user %s", seq, userID)
		}
	}

	for _, existing := range s.turns[summary.UserID] {
		if existing.Sequence == summary.Sequence && existing.IsSummary {
			return fmt.Errorf("duplicate summary sequence %d for user %s", summary.Sequence, summary.UserID)
		}
	}

	now := time.Now().UTC()
	for _, turn := range targets {
		turn.IsArchived = true
		turn.UpdatedAt = now
	}

	clone := *summary
	clone.IsSummary = true
	s.turns[summary.UserID] = append(s.turns[summary.UserID], &clone)
	return nil
}
