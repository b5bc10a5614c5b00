package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/crucible/internal/challenge/domain"
)

// AppendPenalties records applied penalties for a session. The table is
// append-only; rows are never updated or deleted.
func (s *Store) AppendPenalties(ctx context.Context, eventSessionID, characterID string, penalties []domain.PenaltyEffect) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(penalties) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.insertPenaltiesTx(ctx, tx, eventSessionID, characterID, penalties)
	})
}

func (s *Store) insertPenaltiesTx(ctx context.Context, tx *sql.Tx, eventSessionID, characterID string, penalties []domain.PenaltyEffect) error {
	eventSessionID = strings.TrimSpace(eventSessionID)
	if eventSessionID == "" {
		return fmt.Errorf("event session id is required")
	}
	for _, penalty := range penalties {
		if strings.TrimSpace(penalty.ID) == "" {
			return fmt.Errorf("penalty id is required")
		}
		reversible := 0
		if penalty.Reversible {
			reversible = 1
		}
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO penalties (
			   id, event_session_id, character_id, type, amount,
			   description, duration_ms, reversible, severity, applied_at, source
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			penalty.ID,
			eventSessionID,
			characterID,
			string(penalty.Type),
			penalty.Amount,
			penalty.Description,
			penalty.Duration.Milliseconds(),
			reversible,
			string(penalty.Severity),
			toMillis(penalty.AppliedAt),
			penalty.Source,
		)
		if err != nil {
			return fmt.Errorf("insert penalty: %w", err)
		}
	}
	return nil
}

// ListPenalties returns all penalties applied to a session in insertion
// order.
func (s *Store) ListPenalties(ctx context.Context, eventSessionID string) ([]domain.PenaltyEffect, error) {
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
		`SELECT id, type, amount, description, duration_ms, reversible, severity, applied_at, source
		 FROM penalties
		 WHERE event_session_id = ?
		 ORDER BY rowid ASC`,
		eventSessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list penalties: %w", err)
	}
	defer rows.Close()

	var penalties []domain.PenaltyEffect
	for rows.Next() {
		var (
			penalty    domain.PenaltyEffect
			kind       string
			durationMS int64
			reversible int
			severity   string
			appliedAt  int64
		)
		if err := rows.Scan(
			&penalty.ID,
			&kind,
			&penalty.Amount,
			&penalty.Description,
			&durationMS,
			&reversible,
			&severity,
			&appliedAt,
			&penalty.Source,
		); err != nil {
			return nil, fmt.Errorf("list penalties: %w", err)
		}
		penalty.Type = domain.PenaltyType(kind)
		penalty.Duration = time.Duration(durationMS) * time.Millisecond
		penalty.Reversible = reversible != 0
		penalty.Severity = domain.PenaltySeverity(severity)
		penalty.AppliedAt = fromMillis(appliedAt)
		penalties = append(penalties, penalty)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list penalties: %w", err)
	}
	return penalties, nil
}
