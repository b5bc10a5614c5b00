package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/crucible/internal/challenge/dice"
	"github.com/louisbranch/crucible/internal/challenge/domain"
	"github.com/louisbranch/crucible/internal/reasoning"
	"github.com/louisbranch/crucible/internal/storage"
)

// SubmitRollInput carries a caller-supplied dice roll for resolution.
type SubmitRollInput struct {
	EventSessionID string
	TaskID         string
	Roll           domain.DiceRollResult
	Character      domain.Character
	Context        domain.SessionContext
}

// SubmitRoll resolves the player's roll against the task's difficulty and
// produces the attempt's event result.
//
// Requires dice_rolling. The roll is validated against the persisted
// difficulty settings before any state change, so a malformed roll is
// rejected with no side effect. On a failed attempt penalties are applied
// and the session either waits for a retry or completes when attempts are
// exhausted; a successful attempt completes the session and seals the
// task. A collaborator failure during narration drives the session to
// failed.
func (e *Engine) SubmitRoll(ctx context.Context, input SubmitRollInput) (domain.EventResult, error) {
	input.EventSessionID = strings.TrimSpace(input.EventSessionID)

	unlock := e.locks.acquire(input.EventSessionID)
	defer unlock()

	session, err := e.loadSession(ctx, input.EventSessionID)
	if err != nil {
		return domain.EventResult{}, err
	}
	if !session.State.CanTransitionTo(domain.StateProcessingResult) {
		return domain.EventResult{}, invalidState(session.State, "submit_roll")
	}

	task, err := e.loadSessionTask(ctx, session, input.TaskID)
	if err != nil {
		return domain.EventResult{}, err
	}
	if task.Difficulty == nil {
		return domain.EventResult{}, invalidState(session.State, "submit_roll")
	}
	settings := *task.Difficulty

	if err := dice.ValidateRoll(input.Roll, settings); err != nil {
		return domain.EventResult{}, err
	}

	if err := e.enterState(ctx, &session, domain.StateProcessingResult, "submit_roll"); err != nil {
		return domain.EventResult{}, err
	}

	resolution := dice.Resolve(input.Roll, settings)
	roll := input.Roll
	roll.TargetNumber = resolution.TargetNumber
	roll.Success = resolution.Success
	roll.CriticalSuccess = resolution.CriticalType == domain.CriticalTypeSuccess
	roll.CriticalFailure = resolution.CriticalType == domain.CriticalTypeFailure

	started := e.clock()
	narrative, err := e.reasoner.NarrateResult(ctx, reasoning.NarrateResultInput{
		Session:   session,
		Task:      task,
		Character: input.Character,
		Context:   input.Context,
		Roll:      &roll,
		Success:   &resolution.Success,
	})
	if err != nil {
		cause := reasoning.CallError(reasoning.OpNarrateResult, err)
		return domain.EventResult{}, e.failSession(ctx, session, cause)
	}
	elapsed := e.clock().Sub(started)

	result := domain.EventResult{
		Success:      resolution.Success,
		FinalScore:   roll.TotalResult,
		TargetNumber: resolution.TargetNumber,
		Roll:         roll,
		CriticalType: resolution.CriticalType,
		Narrative:    narrative,
	}

	now := e.clock().UTC()
	var applied []domain.PenaltyEffect
	if resolution.Success {
		experience := experienceFor(resolution)
		result.ExperienceGained = experience
		result.Rewards = &domain.Rewards{
			Experience:  experience,
			Description: fmt.Sprintf("Overcame a target of %d.", resolution.TargetNumber),
		}
		session.Metadata.ExperienceEarned += experience
	} else {
		applied, err = e.retries.GeneratePenalties(resolution.CriticalType, settings)
		if err != nil {
			return domain.EventResult{}, fmt.Errorf("generate penalties: %w", err)
		}
		result.Penalties = applied
		session.Metadata.AccumulatedPenalties = append(session.Metadata.AccumulatedPenalties, applied...)
	}

	exhausted := session.Metadata.CurrentAttempt >= session.Metadata.MaxAttempts
	next := domain.StateWaitingForRetry
	if resolution.Success || exhausted {
		next = domain.StateCompleted
		task.Sealed = true
		task.UpdatedAt = now
	}

	step, err := e.newStep(session.ID, domain.StepResultProcessing, stepData{Result: &result})
	if err != nil {
		return domain.EventResult{}, err
	}
	step.AIResponse = narrative
	step.Roll = &roll
	step.Penalties = applied
	step.Duration = elapsed

	if err := advance(&session, next, "submit_roll"); err != nil {
		return domain.EventResult{}, err
	}
	session.CurrentStep = domain.StepResultProcessing
	session.UpdatedAt = now

	record := storage.TransitionRecord{
		Session:   session,
		Step:      &step,
		Penalties: applied,
	}
	if task.Sealed {
		record.Task = &task
	}
	if err := e.stores.Sessions.CommitTransition(ctx, record); err != nil {
		return domain.EventResult{}, fmt.Errorf("commit roll transition: %w", err)
	}
	return result, nil
}

// experienceFor converts a successful resolution into experience points.
// Harder targets pay more; a critical success doubles the award.
func experienceFor(resolution dice.Resolution) int {
	experience := resolution.TargetNumber
	if resolution.CriticalType == domain.CriticalTypeSuccess {
		experience *= 2
	}
	return experience
}
