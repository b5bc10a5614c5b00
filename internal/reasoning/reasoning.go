// Package reasoning defines the request/response boundary to the external
// reasoning service that interprets choices, evaluates solutions, and
// narrates outcomes. The adapter is stateless and never owns game state.
package reasoning

import (
	"context"

	"github.com/louisbranch/crucible/internal/challenge/domain"
	apperrors "github.com/louisbranch/crucible/internal/errors"
)

// Operation names attached to collaborator errors.
const (
	OpInterpretChoice  = "interpret_choice"
	OpEvaluateSolution = "evaluate_solution"
	OpNarrateResult    = "narrate_result"
)

// ErrCallFailed indicates a reasoning service call failed or returned an
// unparseable shape.
var ErrCallFailed = apperrors.New(apperrors.CodeReasoningCallFailed, "reasoning service call failed")

// CallError wraps a collaborator failure with the originating operation.
func CallError(operation string, cause error) error {
	return apperrors.Wrap(apperrors.CodeReasoningCallFailed, "reasoning service call failed", cause).
		WithMetadata("operation", operation)
}

// Interpretation is the reasoner's reading of a choice: a task definition
// minus the identifiers, which the engine assigns.
type Interpretation struct {
	Interpretation      string                 `json:"interpretation"`
	Objective           string                 `json:"objective"`
	Approach            domain.TaskApproach    `json:"approach"`
	Constraints         []string               `json:"constraints,omitempty"`
	SuccessCriteria     []string               `json:"success_criteria,omitempty"`
	EstimatedDifficulty domain.DifficultyLabel `json:"estimated_difficulty"`
}

// InterpretChoiceInput carries everything the reasoner needs to turn a
// narrative choice into a concrete task.
type InterpretChoiceInput struct {
	Choice    domain.Choice
	Character domain.Character
	Context   domain.SessionContext
}

// EvaluateSolutionInput carries a player's free-text solution for grading.
type EvaluateSolutionInput struct {
	Solution  string
	Character domain.Character
	Context   domain.SessionContext
	Task      domain.TaskDefinition
}

// NarrateResultInput asks for narrative text describing an attempt outcome.
type NarrateResultInput struct {
	Session   domain.EventSession
	Task      domain.TaskDefinition
	Character domain.Character
	Context   domain.SessionContext
	Roll      *domain.DiceRollResult
	Success   *bool
}

// Service is the reasoning collaborator contract. All fields crossing the
// boundary are data, never behavior. Any call may fail; failures surface
// as collaborator errors with the operation name attached.
type Service interface {
	InterpretChoice(ctx context.Context, input InterpretChoiceInput) (Interpretation, error)
	EvaluateSolution(ctx context.Context, input EvaluateSolutionInput) (domain.TaskEvaluation, error)
	NarrateResult(ctx context.Context, input NarrateResultInput) (string, error)
}
