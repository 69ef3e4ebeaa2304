package compaction

import (
	"context"
	"fmt"
	"time"

	"github.com/convopg/convopg/engine"
	"github.com/convopg/convopg/storage"
	"github.com/convopg/convopg/types"
)

// ArchiveWriter replaces a day group with a single generated summary turn.
type ArchiveWriter struct {
	store  storage.Store
	engine engine.Engine
	logger Logger
	now    func() time.Time
}

// NewArchiveWriter creates an ArchiveWriter.
func NewArchiveWriter(store storage.Store, eng engine.Engine, logger Logger) *ArchiveWriter {
	if logger == nil {
		logger = noopLogger{}
	}
	return &ArchiveWriter{
		store:  store,
		engine: eng,
		logger: logger,
		now:    time.Now,
	}
}

// SummarizeAndArchive condenses the group into one summary turn: it counts
// the group's input cost, generates the summary, then archives the group
// rows and inserts the summary in one store transaction. The summary turn
// takes the group's maximum sequence.
//
// The returned value is the net freed cost: the group's input cost minus
// the generated output's cost, since the summary itself still occupies
// context.
func (w *ArchiveWriter) SummarizeAndArchive(ctx context.Context, userID string, group *Group) (int, error) {
	messages := engine.Project(group.Turns)

	inputCost, err := w.engine.CountTokens(ctx, messages)
	if err != nil {
		return 0, wrapError("CountTokens", userID, fmt.Errorf("%w: %v", ErrEngineError, err))
	}

	prompt := append(messages, engine.Message{
		Role:    types.RoleUser,
		Content: []types.ContentBlock{types.TextBlock(engine.SummarizationInstruction)},
	})

	result, err := w.engine.Generate(ctx, prompt)
	if err != nil {
		return 0, wrapError("Generate", userID, fmt.Errorf("%w: %v", ErrEngineError, err))
	}

	now := w.now().UTC()
	summary := &types.Turn{
		UserID:    userID,
		Sequence:  group.LastSequence(),
		Role:      types.RoleModel,
		Content:   []types.ContentBlock{types.TextBlock(result.Text)},
		IsSummary: true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := w.store.ArchiveGroup(ctx, userID, group.Sequences(), summary); err != nil {
		return 0, wrapError("ArchiveGroup", userID, fmt.Errorf("%w: %v", ErrStorageError, err))
	}

	w.logger.Info("archived day group",
		"user_id", userID,
		"day", group.Day.Format("2006-01-02"),
		"turns", len(group.Turns),
		"input_tokens", inputCost,
		"summary_tokens", result.OutputTokens,
	)

	return inputCost - result.OutputTokens, nil
}
