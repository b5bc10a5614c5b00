package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/crucible/internal/challenge/domain"
)

// appendStepTx inserts one timeline step, assigning the next sequence
// number inside the surrounding transaction so concurrent appends cannot
// interleave within a session.
func (s *Store) appendStepTx(ctx context.Context, tx *sql.Tx, eventSessionID string, step domain.EventStep) error {
	if strings.TrimSpace(step.ID) == "" {
		return fmt.Errorf("event step id is required")
	}
	if !step.Kind.IsValid() {
		return fmt.Errorf("event step kind %q is not supported", step.Kind)
	}

	var seq uint64
	row := tx.QueryRowContext(
		ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM event_steps WHERE event_session_id = ?`,
		eventSessionID,
	)
	if err := row.Scan(&seq); err != nil {
		return fmt.Errorf("next step seq: %w", err)
	}

	data := string(step.Data)
	if strings.TrimSpace(data) == "" {
		data = "{}"
	}
	var roll sql.NullString
	if step.Roll != nil {
		encoded, err := encodeJSON(step.Roll)
		if err != nil {
			return err
		}
		roll = sql.NullString{String: encoded, Valid: true}
	}
	penalties, err := encodeJSON(step.Penalties)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO event_steps (
		   id, event_session_id, seq, kind, timestamp,
		   data, ai_response, player_input, roll, penalties, duration_ms
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		step.ID,
		eventSessionID,
		seq,
		string(step.Kind),
		toMillis(step.Timestamp),
		data,
		step.AIResponse,
		step.PlayerInput,
		roll,
		penalties,
		step.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert event step: %w", err)
	}
	return nil
}

// ListSteps returns the session's timeline ordered by sequence number.
func (s *Store) ListSteps(ctx context.Context, eventSessionID string) ([]domain.EventStep, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	eventSessionID = strings.TrimSpace(eventSessionID)
	if eventSessionID == "" {
		return nil, fmt.Errorf("event session id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, event_session_id, seq, kind, timestamp,
		        data, ai_response, player_input, roll, penalties, duration_ms
		 FROM event_steps
		 WHERE event_session_id = ?
		 ORDER BY seq ASC`,
		eventSessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list event steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.EventStep
	for rows.Next() {
		var (
			step         domain.EventStep
			kind         string
			timestamp    int64
			data         string
			roll         sql.NullString
			penaltiesRaw string
			durationMS   int64
		)
		if err := rows.Scan(
			&step.ID,
			&step.EventSessionID,
			&step.Seq,
			&kind,
			&timestamp,
			&data,
			&step.AIResponse,
			&step.PlayerInput,
			&roll,
			&penaltiesRaw,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("list event steps: %w", err)
		}
		step.Kind = domain.StepKind(kind)
		step.Timestamp = fromMillis(timestamp)
		step.Data = []byte(data)
		step.Duration = time.Duration(durationMS) * time.Millisecond
		if roll.Valid {
			var result domain.DiceRollResult
			if err := decodeJSON(roll.String, &result); err != nil {
				return nil, err
			}
			step.Roll = &result
		}
		if err := decodeJSON(penaltiesRaw, &step.Penalties); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list event steps: %w", err)
	}
	return steps, nil
}
