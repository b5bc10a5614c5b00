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

// CreateTask inserts one task definition.
func (s *Store) CreateTask(ctx context.Context, task domain.TaskDefinition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.upsertTaskTx(ctx, tx, task)
	})
}

// UpdateTask rewrites one task definition.
func (s *Store) UpdateTask(ctx context.Context, task domain.TaskDefinition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(task.ID) == "" {
		return fmt.Errorf("task id is required")
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.upsertTaskTx(ctx, tx, task)
	})
}

// upsertTaskTx writes one task row inside a transaction. Tasks are
// rewritten whole on update; only the engine mutates them and a session
// has a single active task.
func (s *Store) upsertTaskTx(ctx context.Context, tx *sql.Tx, task domain.TaskDefinition) error {
	if strings.TrimSpace(task.ID) == "" {
		return fmt.Errorf("task id is required")
	}
	if strings.TrimSpace(task.EventSessionID) == "" {
		return fmt.Errorf("task event session id is required")
	}

	approach, err := encodeJSON(task.Approach)
	if err != nil {
		return err
	}
	constraints, err := encodeJSON(task.Constraints)
	if err != nil {
		return err
	}
	criteria, err := encodeJSON(task.SuccessCriteria)
	if err != nil {
		return err
	}
	var solution sql.NullString
	if task.PlayerSolution != nil {
		solution = sql.NullString{String: *task.PlayerSolution, Valid: true}
	}
	var evaluation sql.NullString
	if task.Evaluation != nil {
		encoded, err := encodeJSON(task.Evaluation)
		if err != nil {
			return err
		}
		evaluation = sql.NullString{String: encoded, Valid: true}
	}
	var difficulty sql.NullString
	if task.Difficulty != nil {
		encoded, err := encodeJSON(task.Difficulty)
		if err != nil {
			return err
		}
		difficulty = sql.NullString{String: encoded, Valid: true}
	}
	sealed := 0
	if task.Sealed {
		sealed = 1
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO tasks (
		   id, event_session_id, choice_id, interpretation, objective,
		   approach, constraints, success_criteria, estimated_difficulty,
		   player_solution, evaluation, difficulty, sealed,
		   created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   interpretation = excluded.interpretation,
		   objective = excluded.objective,
		   approach = excluded.approach,
		   constraints = excluded.constraints,
		   success_criteria = excluded.success_criteria,
		   estimated_difficulty = excluded.estimated_difficulty,
		   player_solution = excluded.player_solution,
		   evaluation = excluded.evaluation,
		   difficulty = excluded.difficulty,
		   sealed = excluded.sealed,
		   updated_at = excluded.updated_at`,
		task.ID,
		task.EventSessionID,
		task.ChoiceID,
		task.Interpretation,
		task.Objective,
		approach,
		constraints,
		criteria,
		string(task.EstimatedDifficulty),
		solution,
		evaluation,
		difficulty,
		sealed,
		toMillis(task.CreatedAt),
		toMillis(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

// GetTask returns one task definition by ID.
func (s *Store) GetTask(ctx context.Context, id string) (domain.TaskDefinition, error) {
	if err := ctx.Err(); err != nil {
		return domain.TaskDefinition{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.TaskDefinition{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.TaskDefinition{}, fmt.Errorf("task id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, event_session_id, choice_id, interpretation, objective,
		        approach, constraints, success_criteria, estimated_difficulty,
		        player_solution, evaluation, difficulty, sealed,
		        created_at, updated_at
		 FROM tasks
		 WHERE id = ?`,
		id,
	)
	var (
		task        domain.TaskDefinition
		approach    string
		constraints string
		criteria    string
		estimated   string
		solution    sql.NullString
		evaluation  sql.NullString
		difficulty  sql.NullString
		sealed      int
		createdAt   int64
		updatedAt   int64
	)
	err := row.Scan(
		&task.ID,
		&task.EventSessionID,
		&task.ChoiceID,
		&task.Interpretation,
		&task.Objective,
		&approach,
		&constraints,
		&criteria,
		&estimated,
		&solution,
		&evaluation,
		&difficulty,
		&sealed,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TaskDefinition{}, storage.ErrNotFound
		}
		return domain.TaskDefinition{}, fmt.Errorf("get task: %w", err)
	}

	task.EstimatedDifficulty = domain.DifficultyLabel(estimated)
	task.Sealed = sealed != 0
	task.CreatedAt = fromMillis(createdAt)
	task.UpdatedAt = fromMillis(updatedAt)
	if err := decodeJSON(approach, &task.Approach); err != nil {
		return domain.TaskDefinition{}, err
	}
	if err := decodeJSON(constraints, &task.Constraints); err != nil {
		return domain.TaskDefinition{}, err
	}
	if err := decodeJSON(criteria, &task.SuccessCriteria); err != nil {
		return domain.TaskDefinition{}, err
	}
	if solution.Valid {
		value := solution.String
		task.PlayerSolution = &value
	}
	if evaluation.Valid {
		var parsed domain.TaskEvaluation
		if err := decodeJSON(evaluation.String, &parsed); err != nil {
			return domain.TaskDefinition{}, err
		}
		task.Evaluation = &parsed
	}
	if difficulty.Valid {
		var parsed domain.DifficultySettings
		if err := decodeJSON(difficulty.String, &parsed); err != nil {
			return domain.TaskDefinition{}, err
		}
		task.Difficulty = &parsed
	}
	return task, nil
}
