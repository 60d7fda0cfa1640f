package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Attempt is one submitted answer.
type Attempt struct {
	QuestionID string    `json:"question_id"`
	Answer     string    `json:"answer"`
	Correct    bool      `json:"correct"`
	CreatedAt  time.Time `json:"created_at"`
}

// History records every submitted answer, unlike ProgressStore which keeps
// only the latest state.
type History interface {
	Record(a Attempt) error
	Attempts(questionID string) ([]Attempt, error)
}

// NopHistory discards attempts.
type NopHistory struct{}

func (NopHistory) Record(Attempt) error { return nil }

func (NopHistory) Attempts(string) ([]Attempt, error) { return []Attempt{}, nil }

// MemoryHistory keeps attempts in memory.
type MemoryHistory struct {
	mu       sync.Mutex
	attempts []Attempt
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		attempts: []Attempt{},
	}
}

func (h *MemoryHistory) Record(a Attempt) error {
	if a.QuestionID == "" {
		return fmt.Errorf("question_id is required")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	h.mu.Lock()
	h.attempts = append(h.attempts, a)
	h.mu.Unlock()

	return nil
}

func (h *MemoryHistory) Attempts(questionID string) ([]Attempt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := []Attempt{}
	for _, a := range h.attempts {
		if a.QuestionID == questionID {
			out = append(out, a)
		}
	}
	return out, nil
}

// PostgresHistory inserts attempts into the answer_attempts table.
type PostgresHistory struct {
	pool *pgxpool.Pool
}

func NewPostgresHistory(pool *pgxpool.Pool) *PostgresHistory {
	return &PostgresHistory{pool: pool}
}

func (h *PostgresHistory) Record(a Attempt) error {
	if h == nil || h.pool == nil {
		return fmt.Errorf("history pool is nil")
	}
	if a.QuestionID == "" {
		return fmt.Errorf("question_id is required")
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if _, err := h.pool.Exec(ctx,
		`INSERT INTO answer_attempts (question_id, answer, correct, created_at)
		 VALUES ($1, $2, $3, $4)`,
		a.QuestionID,
		a.Answer,
		a.Correct,
		createdAt,
	); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	slog.Debug("attempt recorded",
		"question_id", a.QuestionID,
		"correct", a.Correct,
	)
	return nil
}

func (h *PostgresHistory) Attempts(questionID string) ([]Attempt, error) {
	if h == nil || h.pool == nil {
		return nil, fmt.Errorf("history pool is nil")
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := h.pool.Query(ctx,
		`SELECT question_id, answer, correct, created_at
		 FROM answer_attempts
		 WHERE question_id = $1
		 ORDER BY created_at ASC, id ASC`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	out := []Attempt{}
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.QuestionID, &a.Answer, &a.Correct, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return out, nil
}
