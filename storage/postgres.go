package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/convopg/convopg/types"
)

// txContextKey is the context key for storing pgx.Tx
type txContextKey struct{}

// WithTx returns a new context with the given transaction. Store calls made
// with the returned context run inside that transaction instead of the pool.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext retrieves the transaction from context, or nil if not present
func TxFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// querier is a common interface for pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using PostgreSQL with pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// InitSchema creates the transcript table and indexes if they do not exist.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS convopg_turns (
			user_id TEXT NOT NULL,
			sequence BIGINT NOT NULL,
			role TEXT NOT NULL,
			content JSONB NOT NULL DEFAULT '[]',
			is_summary BOOLEAN NOT NULL DEFAULT FALSE,
			is_archived BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, sequence, is_summary)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_convopg_turns_active
			ON convopg_turns (user_id, sequence) WHERE NOT is_archived;`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// getQuerier returns the transaction from context if present, otherwise the pool
func (s *PostgresStore) getQuerier(ctx context.Context) querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

// InsertTurn persists a single turn.
func (s *PostgresStore) InsertTurn(ctx context.Context, turn *types.Turn) error {
	if turn.UserID == "" {
		return fmt.Errorf("user_id is required")
	}

	contentJSON, err := json.Marshal(turn.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}

	query := `
		INSERT INTO convopg_turns (user_id, sequence, role, content, is_summary, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.getQuerier(ctx).Exec(ctx, query,
		turn.UserID,
		turn.Sequence,
		string(turn.Role),
		contentJSON,
		turn.IsSummary,
		turn.IsArchived,
		turn.CreatedAt,
		turn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}

	return nil
}

// ActiveTurns returns every non-archived turn for the user in sequence order.
func (s *PostgresStore) ActiveTurns(ctx context.Context, userID string) ([]*types.Turn, error) {
	query := `
		SELECT user_id, sequence, role, content, is_summary, is_archived, created_at, updated_at
		FROM convopg_turns
		WHERE user_id = $1
		AND is_archived IS NOT TRUE
		ORDER BY sequence, is_summary
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active turns: %w", err)
	}
	defer rows.Close()

	var turns []*types.Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}

	return turns, nil
}

// ArchiveGroup archives the given sequences and inserts the summary turn in
// a single transaction, so a crash can never leave rows archived without
// their summary.
func (s *PostgresStore) ArchiveGroup(ctx context.Context, userID string, sequences []int64, summary *types.Turn) error {
	if len(sequences) == 0 {
		return fmt.Errorf("no sequences to archive")
	}
	if summary == nil {
		return fmt.Errorf("summary turn is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx, `
		UPDATE convopg_turns
		SET is_archived = TRUE, updated_at = $1
		WHERE user_id = $2
		AND sequence = ANY($3)
		AND is_summary IS NOT TRUE
	`, now, userID, sequences)
	if err != nil {
		return fmt.Errorf("failed to archive turns: %w", err)
	}
	if int(tag.RowsAffected()) != len(sequences) {
		return fmt.Errorf("archived %d of %d turns for user %s", tag.RowsAffected(), len(sequences), userID)
	}

	contentJSON, err := json.Marshal(summary.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal summary content: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO convopg_turns (user_id, sequence, role, content, is_summary, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, FALSE, $5, $6)
	`, summary.UserID, summary.Sequence, string(summary.Role), contentJSON, summary.CreatedAt, summary.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert summary turn: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	return nil
}

// scanTurn scans a single turn row.
func scanTurn(rows pgx.Rows) (*types.Turn, error) {
	var turn types.Turn
	var role string
	var contentJSON []byte

	err := rows.Scan(
		&turn.UserID,
		&turn.Sequence,
		&role,
		&contentJSON,
		&turn.IsSummary,
		&turn.IsArchived,
		&turn.CreatedAt,
		&turn.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan turn: %w", err)
	}

	turn.Role = types.Role(role)
	if err := json.Unmarshal(contentJSON, &turn.Content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content: %w", err)
	}

	return &turn, nil
}
