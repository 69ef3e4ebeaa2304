// Package convopg maintains per-user conversational transcripts in
// PostgreSQL, bounded by a token context budget through automatic,
// day-grouped context compaction.
//
// convopg is opinionated (Anthropic + PostgreSQL + pgx) and small: one
// HistoryManager per user session owns a pending queue of new turns and
// the loaded working set of active history. New turns accumulate in the
// queue, are flushed to storage in order, and when the active context
// crosses a threshold fraction of the engine's context window, the oldest
// un-summarized turns are folded — one calendar day at a time — into
// generated summary turns until enough budget is freed.
//
// # Quick Start
//
//	pool, _ := pgxpool.New(ctx, connString)
//	_ = storage.InitSchema(ctx, pool)
//
//	client := anthropic.NewClient()
//	mgr, _ := convopg.New(
//	    storage.NewPostgresStore(pool),
//	    engine.NewDefaultAnthropicEngine(&client),
//	    "user-123",
//	)
//
//	history, _ := mgr.History(ctx)       // feed to the generation engine
//	mgr.Enqueue(types.RoleUser, types.TextBlock("hello"))
//	mgr.Enqueue(types.RoleModel, types.TextBlock("hi there"))
//	_ = mgr.FlushAndCompact(ctx, usedContextTokens)
//
// # Concurrency
//
// A HistoryManager is a session-scoped object: it must not be shared
// across concurrent sessions of the same user. All external calls it makes
// are strictly sequential; parallelism, retries, and timeouts belong to
// the caller and the collaborators.
//
// Archived turns are never deleted. They are excluded from the active
// context but remain in storage for audit.
package convopg
