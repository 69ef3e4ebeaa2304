package compaction

import (
	"testing"
	"time"

	"github.com/convopg/convopg/types"
)

func turnAt(t *testing.T, stamp string, isSummary bool) *types.Turn {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		t.Fatalf("parse %q: %v", stamp, err)
	}
	return &types.Turn{
		UserID:    "u1",
		Sequence:  ts.UnixMilli(),
		Role:      types.RoleUser,
		Content:   []types.ContentBlock{types.TextBlock("x")},
		IsSummary: isSummary,
	}
}

func TestNextGroup_DayBoundary(t *testing.T) {
	// day1@09:00, day1@10:00 (summary), day1@11:00, day2@08:00:
	// the first group holds exactly the two non-summary day1 rows and the
	// cursor lands on the day2 row.
	rows := []*types.Turn{
		turnAt(t, "2024-01-01T09:00:00Z", false),
		turnAt(t, "2024-01-01T10:00:00Z", true),
		turnAt(t, "2024-01-01T11:00:00Z", false),
		turnAt(t, "2024-01-02T08:00:00Z", false),
	}

	group := NextGroup(rows, 0, time.UTC)
	if group == nil {
		t.Fatal("expected a group, got nil")
	}
	if len(group.Turns) != 2 {
		t.Fatalf("expected 2 turns in group, got %d", len(group.Turns))
	}
	if group.Turns[0] != rows[0] || group.Turns[1] != rows[2] {
		t.Error("group should contain the two non-summary day1 rows")
	}
	if group.NextIndex != 3 {
		t.Errorf("NextIndex = %d, want 3", group.NextIndex)
	}
	if !group.Day.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Day = %v, want 2024-01-01 UTC", group.Day)
	}
}

func TestNextGroup_Exhaustion(t *testing.T) {
	tests := []struct {
		name       string
		rows       []*types.Turn
		startIndex int
	}{
		{
			name: "empty rows",
			rows: nil,
		},
		{
			name: "only summaries",
			rows: []*types.Turn{
				turnAt(t, "2024-01-01T09:00:00Z", true),
				turnAt(t, "2024-01-02T09:00:00Z", true),
			},
		},
		{
			name: "start index past all non-summary rows",
			rows: []*types.Turn{
				turnAt(t, "2024-01-01T09:00:00Z", false),
				turnAt(t, "2024-01-02T09:00:00Z", true),
			},
			startIndex: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if group := NextGroup(tt.rows, tt.startIndex, time.UTC); group != nil {
				t.Errorf("expected nil group, got %d turns", len(group.Turns))
			}
		})
	}
}

func TestNextGroup_GroupReachesEndOfRows(t *testing.T) {
	rows := []*types.Turn{
		turnAt(t, "2024-01-01T09:00:00Z", false),
		turnAt(t, "2024-01-01T10:00:00Z", false),
	}

	group := NextGroup(rows, 0, time.UTC)
	if group == nil {
		t.Fatal("expected a group, got nil")
	}
	if len(group.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(group.Turns))
	}
	// NextIndex must land past the end so the next scan reports exhaustion
	// instead of re-selecting the same day.
	if group.NextIndex != len(rows) {
		t.Errorf("NextIndex = %d, want %d", group.NextIndex, len(rows))
	}
	if next := NextGroup(rows, group.NextIndex, time.UTC); next != nil {
		t.Error("expected exhaustion after consuming all rows")
	}
}

func TestNextGroup_CursorOnlyMovesForward(t *testing.T) {
	rows := []*types.Turn{
		turnAt(t, "2024-01-01T09:00:00Z", false),
		turnAt(t, "2024-01-02T09:00:00Z", false),
		turnAt(t, "2024-01-03T09:00:00Z", false),
	}

	start := 0
	var days []time.Time
	for {
		group := NextGroup(rows, start, time.UTC)
		if group == nil {
			break
		}
		if group.NextIndex <= start && group.NextIndex != len(rows) {
			t.Fatalf("cursor moved backwards: start=%d next=%d", start, group.NextIndex)
		}
		days = append(days, group.Day)
		start = group.NextIndex
	}

	if len(days) != 3 {
		t.Fatalf("expected 3 single-day groups, got %d", len(days))
	}
	for i := 1; i < len(days); i++ {
		if !days[i].After(days[i-1]) {
			t.Errorf("groups not selected oldest-first: %v before %v", days[i-1], days[i])
		}
	}
}

func TestNextGroup_SummaryOnDifferentDayIsSkipped(t *testing.T) {
	// A summary row from an earlier compaction sits between day1 and day2.
	// It must neither join the group nor terminate it.
	rows := []*types.Turn{
		turnAt(t, "2024-01-01T09:00:00Z", false),
		turnAt(t, "2024-01-01T23:00:00Z", true),
		turnAt(t, "2024-01-01T23:30:00Z", false),
		turnAt(t, "2024-01-02T01:00:00Z", true),
		turnAt(t, "2024-01-02T08:00:00Z", false),
	}

	group := NextGroup(rows, 0, time.UTC)
	if group == nil {
		t.Fatal("expected a group, got nil")
	}
	if len(group.Turns) != 2 {
		t.Fatalf("expected 2 day1 turns, got %d", len(group.Turns))
	}
	if group.NextIndex != 4 {
		t.Errorf("NextIndex = %d, want 4 (the day2 non-summary row)", group.NextIndex)
	}
}

func TestGroupLastSequence(t *testing.T) {
	rows := []*types.Turn{
		turnAt(t, "2024-01-01T09:00:00Z", false),
		turnAt(t, "2024-01-01T11:00:00Z", false),
	}

	group := NextGroup(rows, 0, time.UTC)
	if group == nil {
		t.Fatal("expected a group, got nil")
	}
	if group.LastSequence() != rows[1].Sequence {
		t.Errorf("LastSequence() = %d, want %d", group.LastSequence(), rows[1].Sequence)
	}
	seqs := group.Sequences()
	if len(seqs) != 2 || seqs[0] != rows[0].Sequence || seqs[1] != rows[1].Sequence {
		t.Errorf("Sequences() = %v, want [%d %d]", seqs, rows[0].Sequence, rows[1].Sequence)
	}
}
