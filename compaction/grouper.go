package compaction

import (
	"time"

	"github.com/convopg/convopg/types"
)

// Group is a contiguous run of un-summarized turns sharing one calendar day.
type Group struct {
	// Day is the calendar day (midnight in the grouper's location) shared
	// by every turn in the group.
	Day time.Time

	// Turns are the group members in ascending sequence order.
	Turns []*types.Turn

	// NextIndex is the row index at which the next NextGroup scan should
	// start. It only ever moves forward: groups are selected oldest-first
	// and days are never revisited within a cycle.
	NextIndex int
}

// Sequences returns the sequence keys of the group's turns.
func (g *Group) Sequences() []int64 {
	seqs := make([]int64, len(g.Turns))
	for i, turn := range g.Turns {
		seqs[i] = turn.Sequence
	}
	return seqs
}

// LastSequence returns the maximum sequence in the group. The summary turn
// replacing the group is inserted at this sequence so it sorts immediately
// after the rows it condenses.
func (g *Group) LastSequence() int64 {
	return g.Turns[len(g.Turns)-1].Sequence
}

// NextGroup scans rows from startIndex onward and selects the oldest
// eligible day group. Summary turns are skipped without terminating the
// group; the scan stops at the first non-summary turn whose calendar day
// differs from the group's day, and that turn's index becomes NextIndex.
//
// Returns nil when no un-summarized turn exists from startIndex onward,
// signalling exhaustion.
func NextGroup(rows []*types.Turn, startIndex int, loc *time.Location) *Group {
	if startIndex < 0 {
		startIndex = 0
	}

	group := &Group{NextIndex: len(rows)}
	for i := startIndex; i < len(rows); i++ {
		row := rows[i]
		if row.IsSummary {
			continue
		}

		day := row.Day(loc)
		if group.Turns == nil {
			group.Day = day
			group.Turns = append(group.Turns, row)
			continue
		}

		if day.Equal(group.Day) {
			group.Turns = append(group.Turns, row)
			continue
		}

		group.NextIndex = i
		break
	}

	if group.Turns == nil {
		return nil
	}
	return group
}
