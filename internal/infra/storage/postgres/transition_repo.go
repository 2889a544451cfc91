package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/signbridge/internal/core/domain"
)

// TransitionRepo implements storage.TransitionRepository on PostgreSQL.
type TransitionRepo struct {
	db *DB
}

// NewTransitionRepo creates a transition repository.
func NewTransitionRepo(db *DB) *TransitionRepo {
	return &TransitionRepo{db: db}
}

type transitionRow struct {
	ID            string    `db:"id"`
	FromState     string    `db:"from_state"`
	ToState       string    `db:"to_state"`
	Reason        string    `db:"reason"`
	RetryOp       *string   `db:"retry_operation"`
	RetryAttempt  *int      `db:"retry_attempt"`
	RetryMax      *int      `db:"retry_max_attempts"`
	RetryLastErr  *string   `db:"retry_last_error"`
	OccurredAt    time.Time `db:"occurred_at"`
}

// Record persists one transition.
func (r *TransitionRepo) Record(ctx context.Context, t domain.Transition) error {
	row := transitionRow{
		ID:         uuid.NewString(),
		FromState:  t.From.String(),
		ToState:    t.To.String(),
		Reason:     t.Reason,
		OccurredAt: t.Timestamp,
	}
	if t.Retry != nil {
		row.RetryOp = &t.Retry.Operation
		row.RetryAttempt = &t.Retry.Attempt
		row.RetryMax = &t.Retry.MaxAttempts
		row.RetryLastErr = &t.Retry.LastError
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO connection_transitions
			(id, from_state, to_state, reason,
			 retry_operation, retry_attempt, retry_max_attempts, retry_last_error,
			 occurred_at)
		VALUES
			(:id, :from_state, :to_state, :reason,
			 :retry_operation, :retry_attempt, :retry_max_attempts, :retry_last_error,
			 :occurred_at)`, row)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// Recent returns up to limit transitions, newest first.
func (r *TransitionRepo) Recent(ctx context.Context, limit int) ([]domain.Transition, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []transitionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, from_state, to_state, reason,
		       retry_operation, retry_attempt, retry_max_attempts, retry_last_error,
		       occurred_at
		FROM connection_transitions
		ORDER BY occurred_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select transitions: %w", err)
	}

	out := make([]domain.Transition, 0, len(rows))
	for _, row := range rows {
		t := domain.Transition{
			From:      parseState(row.FromState),
			To:        parseState(row.ToState),
			Reason:    row.Reason,
			Timestamp: row.OccurredAt,
		}
		if row.RetryOp != nil {
			t.Retry = &domain.RetryInfo{Operation: *row.RetryOp}
			if row.RetryAttempt != nil {
				t.Retry.Attempt = *row.RetryAttempt
			}
			if row.RetryMax != nil {
				t.Retry.MaxAttempts = *row.RetryMax
			}
			if row.RetryLastErr != nil {
				t.Retry.LastError = *row.RetryLastErr
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// DeleteOlderThan removes transitions recorded before the cutoff.
func (r *TransitionRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM connection_transitions
		WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete transitions: %w", err)
	}
	return res.RowsAffected()
}

func parseState(s string) domain.ConnectionState {
	switch s {
	case "connecting":
		return domain.StateConnecting
	case "connected":
		return domain.StateConnected
	case "retrying":
		return domain.StateRetrying
	case "error":
		return domain.StateError
	default:
		return domain.StateDisconnected
	}
}
