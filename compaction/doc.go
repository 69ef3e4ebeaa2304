// Package compaction keeps a user's transcript within the generation
// engine's context budget.
//
// After each flush the Scheduler compares the current context size against
// a threshold (a fraction of the engine's context window). When the
// threshold is crossed it walks the active transcript oldest-first,
// selecting contiguous same-calendar-day groups of un-summarized turns,
// replacing each group with a single generated summary turn, and stopping
// once the freed token budget satisfies the configured stop policy or no
// groups remain.
//
// Compaction is best effort: a cycle may terminate with the context still
// over budget when no un-summarized group is left, and a failure mid-cycle
// leaves already-archived groups archived. Raw turns are never deleted;
// archived rows stay in storage for audit and are merely excluded from the
// active context.
package compaction
