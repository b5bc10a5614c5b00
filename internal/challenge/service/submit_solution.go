package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/crucible/internal/challenge/difficulty"
	"github.com/louisbranch/crucible/internal/challenge/domain"
	apperrors "github.com/louisbranch/crucible/internal/errors"
	"github.com/louisbranch/crucible/internal/reasoning"
	"github.com/louisbranch/crucible/internal/storage"
)

// SubmitSolutionInput carries a player's free-text solution for grading.
type SubmitSolutionInput struct {
	EventSessionID string
	TaskID         string
	Solution       string
	Character      domain.Character
	Context        domain.SessionContext
}

// SubmitSolution grades the player's solution and derives the numeric
// difficulty for the roll.
//
// Requires waiting_for_solution, or waiting_for_retry when the player
// resubmits after a failed attempt; a retry resubmission re-enters
// waiting_for_solution and consumes the next attempt. The session moves
// through calculating_difficulty while the collaborator call is in flight
// and lands in dice_rolling on success. A collaborator failure or an
// unknown difficulty label drives the session to failed.
func (e *Engine) SubmitSolution(ctx context.Context, input SubmitSolutionInput) (domain.DifficultySettings, error) {
	input.EventSessionID = strings.TrimSpace(input.EventSessionID)
	input.Solution = strings.TrimSpace(input.Solution)
	if input.Solution == "" {
		return domain.DifficultySettings{}, ErrEmptySolution
	}

	unlock := e.locks.acquire(input.EventSessionID)
	defer unlock()

	session, err := e.loadSession(ctx, input.EventSessionID)
	if err != nil {
		return domain.DifficultySettings{}, err
	}
	retrying := session.State == domain.StateWaitingForRetry
	if !retrying && !session.State.CanTransitionTo(domain.StateCalculatingDifficulty) {
		return domain.DifficultySettings{}, invalidState(session.State, "submit_solution")
	}

	task, err := e.loadSessionTask(ctx, session, input.TaskID)
	if err != nil {
		return domain.DifficultySettings{}, err
	}
	if task.Sealed {
		return domain.DifficultySettings{}, ErrTaskSealed.WithMetadata("task_id", task.ID)
	}

	if retrying {
		if err := e.enterState(ctx, &session, domain.StateWaitingForSolution, "submit_solution"); err != nil {
			return domain.DifficultySettings{}, err
		}
	}
	if err := e.enterState(ctx, &session, domain.StateCalculatingDifficulty, "submit_solution"); err != nil {
		return domain.DifficultySettings{}, err
	}

	started := e.clock()
	evaluation, err := e.reasoner.EvaluateSolution(ctx, reasoning.EvaluateSolutionInput{
		Solution:  input.Solution,
		Character: input.Character,
		Context:   input.Context,
		Task:      task,
	})
	if err != nil {
		cause := reasoning.CallError(reasoning.OpEvaluateSolution, err)
		return domain.DifficultySettings{}, e.failSession(ctx, session, cause)
	}
	elapsed := e.clock().Sub(started)

	settings, err := difficulty.Calculate(evaluation)
	if err != nil {
		// An unrecognized label means the evaluation step itself failed;
		// guessing a difficulty would break game balance.
		if apperrors.IsCode(err, apperrors.CodeDifficultyUnknownLabel) {
			return domain.DifficultySettings{}, e.failSession(ctx, session, err)
		}
		return domain.DifficultySettings{}, err
	}

	now := e.clock().UTC()
	task.PlayerSolution = &input.Solution
	task.Evaluation = &evaluation
	task.Difficulty = &settings
	task.UpdatedAt = now

	step, err := e.newStep(session.ID, domain.StepDifficultyCalculation, stepData{
		Evaluation: &evaluation,
		Difficulty: &settings,
	})
	if err != nil {
		return domain.DifficultySettings{}, err
	}
	step.AIResponse = evaluation.Reasoning
	step.PlayerInput = input.Solution
	step.Duration = elapsed

	if err := advance(&session, domain.StateDiceRolling, "submit_solution"); err != nil {
		return domain.DifficultySettings{}, err
	}
	session.CurrentStep = domain.StepDifficultyCalculation
	session.UpdatedAt = now
	if retrying && session.Metadata.CurrentAttempt < session.Metadata.MaxAttempts {
		session.Metadata.CurrentAttempt++
	}

	record := storage.TransitionRecord{Session: session, Step: &step, Task: &task}
	if err := e.stores.Sessions.CommitTransition(ctx, record); err != nil {
		return domain.DifficultySettings{}, fmt.Errorf("commit solution transition: %w", err)
	}
	return settings, nil
}
