package types

import (
	"encoding/json"
	"time"
)

// Role represents the speaker of a turn.
type Role string

const (
	// RoleUser represents a user-authored turn
	RoleUser Role = "user"

	// RoleModel represents a model-authored turn, including synthetic
	// summary turns produced by compaction
	RoleModel Role = "model"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// ContentType represents the type of a content block
type ContentType string

const (
	// ContentTypeText represents plain text content
	ContentTypeText ContentType = "text"

	// ContentTypeData represents an opaque structured part, stored as raw JSON
	ContentTypeData ContentType = "data"
)

// ContentBlock represents one segment of a turn's content.
type ContentBlock struct {
	Type ContentType `json:"type"`

	// Text content
	Text string `json:"text,omitempty"`

	// Structured content, passed through to the store untouched
	Data json.RawMessage `json:"data,omitempty"`
}

// TextBlock returns a ContentBlock holding plain text.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentTypeText, Text: text}
}

// Turn represents one persisted message of a user's transcript.
//
// Sequence is the epoch-millisecond creation timestamp and serves as the
// primary key, the insertion-order marker, and the day-bucket source. It is
// strictly increasing per user across all rows, archived and summary rows
// included. A summary turn carries the maximum sequence of the group it
// replaces, so it sorts immediately after that group.
type Turn struct {
	UserID     string         `json:"user_id"`
	Sequence   int64          `json:"sequence"`
	Role       Role           `json:"role"`
	Content    []ContentBlock `json:"content"`
	IsSummary  bool           `json:"is_summary"`
	IsArchived bool           `json:"is_archived"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// HasContent reports whether the turn carries at least one non-empty
// content block. Empty turns are persisted but excluded from the context
// handed to the generation engine.
func (t *Turn) HasContent() bool {
	for _, block := range t.Content {
		if block.Type == ContentTypeText && block.Text != "" {
			return true
		}
		if block.Type == ContentTypeData && len(block.Data) > 0 {
			return true
		}
	}
	return false
}

// Day returns the calendar day of the turn's sequence timestamp in the
// given location, truncated to midnight.
func (t *Turn) Day(loc *time.Location) time.Time {
	return DayBucket(t.Sequence, loc)
}

// DayBucket truncates an epoch-millisecond sequence value to calendar-day
// granularity in the given location. Day grouping during compaction uses
// this instead of locale-dependent date formatting so the bucketing is
// deterministic for a fixed location.
func DayBucket(sequence int64, loc *time.Location) time.Time {
	ts := time.UnixMilli(sequence).In(loc)
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)
}

// QueuedTurn is a turn that has been appended to a session's pending queue
// but not yet persisted. CreatedAt is assigned at append time and becomes
// the turn's Sequence at flush.
type QueuedTurn struct {
	Role      Role           `json:"role"`
	Content   []ContentBlock `json:"content"`
	CreatedAt int64          `json:"created_at"`
}
