package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/crucible/internal/challenge/domain"
	"github.com/louisbranch/crucible/internal/storage"
)

// CreateSession writes a new session and its initial timeline step in one
// transaction. A live session for the same tuple maps the unique-index
// violation to storage.ErrActiveSessionExists.
func (s *Store) CreateSession(ctx context.Context, session domain.EventSession, initial domain.EventStep) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("event session id is required")
	}

	choices, err := encodeJSON(session.Choices)
	if err != nil {
		return err
	}
	penalties, err := encodeJSON(session.Metadata.AccumulatedPenalties)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO event_sessions (
			   id, session_id, event_id, player_id, character_id,
			   state, current_step, choices,
			   start_time, current_attempt, max_attempts, accumulated_penalties, experience_earned,
			   created_at, updated_at
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			session.ID,
			session.SessionID,
			session.EventID,
			session.PlayerID,
			session.CharacterID,
			string(session.State),
			string(session.CurrentStep),
			choices,
			toMillis(session.Metadata.StartTime),
			session.Metadata.CurrentAttempt,
			session.Metadata.MaxAttempts,
			penalties,
			session.Metadata.ExperienceEarned,
			toMillis(session.CreatedAt),
			toMillis(session.UpdatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrActiveSessionExists
			}
			return fmt.Errorf("insert event session: %w", err)
		}
		return s.appendStepTx(ctx, tx, session.ID, initial)
	})
}

// GetSession returns one event session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (domain.EventSession, error) {
	if err := ctx.Err(); err != nil {
		return domain.EventSession{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.EventSession{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.EventSession{}, fmt.Errorf("event session id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, session_id, event_id, player_id, character_id,
		        state, current_step, choices,
		        start_time, current_attempt, max_attempts, accumulated_penalties, experience_earned,
		        created_at, updated_at
		 FROM event_sessions
		 WHERE id = ?`,
		id,
	)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.EventSession{}, storage.ErrNotFound
		}
		return domain.EventSession{}, fmt.Errorf("get event session: %w", err)
	}
	return session, nil
}

// UpdateState advances the session's state and current step without
// appending a timeline step. Missing rows report storage.ErrNotFound.
func (s *Store) UpdateState(ctx context.Context, id string, state domain.SessionState, step domain.StepKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("event session id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE event_sessions
		 SET state = ?, current_step = ?, updated_at = ?
		 WHERE id = ?`,
		string(state),
		string(step),
		toMillis(timeNow()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update event session state: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event session state: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CommitTransition applies a full transition record atomically: the
// session row, the appended step, and any task or penalty writes either
// all land or none do.
func (s *Store) CommitTransition(ctx context.Context, record storage.TransitionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	session := record.Session
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("event session id is required")
	}

	choices, err := encodeJSON(session.Choices)
	if err != nil {
		return err
	}
	penalties, err := encodeJSON(session.Metadata.AccumulatedPenalties)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(
			ctx,
			`UPDATE event_sessions
			 SET state = ?, current_step = ?, choices = ?,
			     current_attempt = ?, max_attempts = ?, accumulated_penalties = ?, experience_earned = ?,
			     updated_at = ?
			 WHERE id = ?`,
			string(session.State),
			string(session.CurrentStep),
			choices,
			session.Metadata.CurrentAttempt,
			session.Metadata.MaxAttempts,
			penalties,
			session.Metadata.ExperienceEarned,
			toMillis(session.UpdatedAt),
			session.ID,
		)
		if err != nil {
			return fmt.Errorf("update event session: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update event session: %w", err)
		}
		if affected == 0 {
			return storage.ErrNotFound
		}

		if record.Step != nil {
			if err := s.appendStepTx(ctx, tx, session.ID, *record.Step); err != nil {
				return err
			}
		}
		if record.Task != nil {
			if err := s.upsertTaskTx(ctx, tx, *record.Task); err != nil {
				return err
			}
		}
		if len(record.Penalties) > 0 {
			if err := s.insertPenaltiesTx(ctx, tx, session.ID, session.CharacterID, record.Penalties); err != nil {
				return err
			}
		}
		return nil
	})
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan code.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.EventSession, error) {
	var (
		session      domain.EventSession
		state        string
		currentStep  string
		choicesRaw   string
		startTime    int64
		penaltiesRaw string
		createdAt    int64
		updatedAt    int64
	)
	err := row.Scan(
		&session.ID,
		&session.SessionID,
		&session.EventID,
		&session.PlayerID,
		&session.CharacterID,
		&state,
		&currentStep,
		&choicesRaw,
		&startTime,
		&session.Metadata.CurrentAttempt,
		&session.Metadata.MaxAttempts,
		&penaltiesRaw,
		&session.Metadata.ExperienceEarned,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.EventSession{}, err
	}
	session.State = domain.SessionState(state)
	session.CurrentStep = domain.StepKind(currentStep)
	session.Metadata.StartTime = fromMillis(startTime)
	session.CreatedAt = fromMillis(createdAt)
	session.UpdatedAt = fromMillis(updatedAt)
	if err := decodeJSON(choicesRaw, &session.Choices); err != nil {
		return domain.EventSession{}, err
	}
	if err := decodeJSON(penaltiesRaw, &session.Metadata.AccumulatedPenalties); err != nil {
		return domain.EventSession{}, err
	}
	return session, nil
}
