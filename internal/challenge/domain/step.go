package domain

import (
	"encoding/json"
	"time"
)

// StepKind identifies the kind of a timeline step.
type StepKind string

const (
	// StepChoiceSelection records the choices offered when a session opens.
	StepChoiceSelection StepKind = "choice_selection"
	// StepTaskInterpretation records the AI interpretation of a choice.
	StepTaskInterpretation StepKind = "task_interpretation"
	// StepDifficultyCalculation records the evaluated solution and the
	// derived difficulty settings.
	StepDifficultyCalculation StepKind = "difficulty_calculation"
	// StepResultProcessing records a resolved roll and its outcome.
	StepResultProcessing StepKind = "result_processing"
)

// IsValid reports whether the step kind is supported.
func (k StepKind) IsValid() bool {
	switch k {
	case StepChoiceSelection,
		StepTaskInterpretation,
		StepDifficultyCalculation,
		StepResultProcessing:
		return true
	default:
		return false
	}
}

// EventStep captures one immutable entry in a session's timeline. Steps are
// append-only and ordered by Seq; the timeline is the canonical audit log
// and replays the session deterministically.
type EventStep struct {
	ID             string
	EventSessionID string
	// Seq is assigned by the store on append and fixes insertion order.
	Seq         uint64
	Kind        StepKind
	Timestamp   time.Time
	Data        json.RawMessage
	AIResponse  string
	PlayerInput string
	Roll        *DiceRollResult
	Penalties   []PenaltyEffect
	Duration    time.Duration
}
