package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/crucible/internal/challenge/domain"
	"github.com/louisbranch/crucible/internal/reasoning"
	"github.com/louisbranch/crucible/internal/storage"
)

// SubmitChoiceInput identifies the chosen option and carries the context
// the reasoner needs to interpret it.
type SubmitChoiceInput struct {
	EventSessionID string
	ChoiceID       string
	Character      domain.Character
	Context        domain.SessionContext
}

// SubmitChoice interprets the player's chosen option into a concrete task.
//
// Requires waiting_for_choice. The session moves through processing_choice
// while the collaborator call is in flight; on success the task is
// persisted with a task_interpretation step and the session waits for a
// solution. A collaborator failure drives the session to failed.
func (e *Engine) SubmitChoice(ctx context.Context, input SubmitChoiceInput) (domain.TaskDefinition, error) {
	input.EventSessionID = strings.TrimSpace(input.EventSessionID)
	input.ChoiceID = strings.TrimSpace(input.ChoiceID)
	if input.ChoiceID == "" {
		return domain.TaskDefinition{}, ErrEmptyChoiceID
	}

	unlock := e.locks.acquire(input.EventSessionID)
	defer unlock()

	session, err := e.loadSession(ctx, input.EventSessionID)
	if err != nil {
		return domain.TaskDefinition{}, err
	}
	if !session.State.CanTransitionTo(domain.StateProcessingChoice) {
		return domain.TaskDefinition{}, invalidState(session.State, "submit_choice")
	}

	var choice *domain.Choice
	for i := range session.Choices {
		if session.Choices[i].ID == input.ChoiceID {
			choice = &session.Choices[i]
			break
		}
	}
	if choice == nil {
		return domain.TaskDefinition{}, ErrChoiceNotFound.WithMetadata("choice_id", input.ChoiceID)
	}

	if err := e.enterState(ctx, &session, domain.StateProcessingChoice, "submit_choice"); err != nil {
		return domain.TaskDefinition{}, err
	}

	started := e.clock()
	interpretation, err := e.reasoner.InterpretChoice(ctx, reasoning.InterpretChoiceInput{
		Choice:    *choice,
		Character: input.Character,
		Context:   input.Context,
	})
	if err != nil {
		cause := reasoning.CallError(reasoning.OpInterpretChoice, err)
		return domain.TaskDefinition{}, e.failSession(ctx, session, cause)
	}
	elapsed := e.clock().Sub(started)

	taskID, err := e.idGenerator()
	if err != nil {
		return domain.TaskDefinition{}, fmt.Errorf("generate task id: %w", err)
	}
	now := e.clock().UTC()
	task := domain.TaskDefinition{
		ID:                  taskID,
		EventSessionID:      session.ID,
		ChoiceID:            choice.ID,
		Interpretation:      interpretation.Interpretation,
		Objective:           interpretation.Objective,
		Approach:            interpretation.Approach,
		Constraints:         interpretation.Constraints,
		SuccessCriteria:     interpretation.SuccessCriteria,
		EstimatedDifficulty: interpretation.EstimatedDifficulty,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	step, err := e.newStep(session.ID, domain.StepTaskInterpretation, stepData{
		ChoiceID:       choice.ID,
		Interpretation: &interpretation,
	})
	if err != nil {
		return domain.TaskDefinition{}, err
	}
	step.AIResponse = interpretation.Interpretation
	step.PlayerInput = choice.ID
	step.Duration = elapsed

	if err := advance(&session, domain.StateWaitingForSolution, "submit_choice"); err != nil {
		return domain.TaskDefinition{}, err
	}
	session.CurrentStep = domain.StepTaskInterpretation
	session.UpdatedAt = now

	record := storage.TransitionRecord{Session: session, Step: &step, Task: &task}
	if err := e.stores.Sessions.CommitTransition(ctx, record); err != nil {
		return domain.TaskDefinition{}, fmt.Errorf("commit choice transition: %w", err)
	}
	return task, nil
}
