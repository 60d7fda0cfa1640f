package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

const schemaSQL = `
CREATE TABLE IF NOT EXISTS question_progress (
	question_id  TEXT PRIMARY KEY,
	answer_state TEXT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS answer_attempts (
	id          BIGSERIAL PRIMARY KEY,
	question_id TEXT NOT NULL,
	answer      TEXT NOT NULL,
	correct     BOOLEAN NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS answer_attempts_question_idx ON answer_attempts (question_id, created_at);
`

// EnsureSchema creates the progress tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("pool is nil")
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create progress schema: %w", err)
	}
	return nil
}

// PostgresProgressStore is a PostgreSQL-backed ProgressStore.
type PostgresProgressStore struct {
	pool *pgxpool.Pool
}

// NewPostgresProgressStore creates a progress store over pool.
func NewPostgresProgressStore(pool *pgxpool.Pool) (*PostgresProgressStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresProgressStore{pool: pool}, nil
}

// FetchTracking reads the state for questionID. Lookup failures are logged
// and read as StateNone.
func (s *PostgresProgressStore) FetchTracking(questionID string) Tracking {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var state string
	err := s.pool.QueryRow(ctx,
		`SELECT answer_state FROM question_progress WHERE question_id = $1`,
		questionID,
	).Scan(&state)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			slog.Warn("fetch tracking failed", "question_id", questionID, "error", err)
		}
		return Tracking{AnswerState: StateNone}
	}

	as := AnswerState(state)
	if !as.Valid() {
		slog.Warn("unknown answer state in store", "question_id", questionID, "state", state)
		return Tracking{AnswerState: StateNone}
	}
	return Tracking{AnswerState: as}
}

func (s *PostgresProgressStore) UpdateTracking(questionID string, t Tracking) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if questionID == "" {
		return fmt.Errorf("question_id is required")
	}
	if t.AnswerState == StateNone || t.AnswerState == "" {
		return s.ResetTracking(questionID)
	}
	if !t.AnswerState.Valid() {
		return fmt.Errorf("invalid answer state %q", t.AnswerState)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO question_progress (question_id, answer_state, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (question_id) DO UPDATE SET
		   answer_state = EXCLUDED.answer_state,
		   updated_at = EXCLUDED.updated_at`,
		questionID,
		string(t.AnswerState),
	)
	if err != nil {
		return fmt.Errorf("upsert tracking: %w", err)
	}
	return nil
}

func (s *PostgresProgressStore) ResetTracking(questionIDs ...string) error {
	if len(questionIDs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx,
		`DELETE FROM question_progress WHERE question_id = ANY($1)`,
		questionIDs,
	); err != nil {
		return fmt.Errorf("reset tracking: %w", err)
	}
	return nil
}
