package storage

import (
	"context"

	"github.com/convopg/convopg/types"
)

// Store defines the transcript persistence interface.
//
// The core only requires insertion, an ordered active-row query, and
// row-level archival; any store that orders rows by sequence and supports
// a boolean archival predicate satisfies it.
type Store interface {
	// InsertTurn persists a single turn.
	InsertTurn(ctx context.Context, turn *types.Turn) error

	// ActiveTurns returns every non-archived turn for the user, ordered by
	// sequence ascending. A summary turn sharing its sequence with an
	// archived raw turn sorts after it.
	ActiveTurns(ctx context.Context, userID string) ([]*types.Turn, error)

	// ArchiveGroup marks the turns at the given sequences archived and
	// inserts the summary turn that replaces them, as a single atomic
	// operation. Either every row is archived and the summary exists, or
	// nothing changed.
	ArchiveGroup(ctx context.Context, userID string, sequences []int64, summary *types.Turn) error
}
