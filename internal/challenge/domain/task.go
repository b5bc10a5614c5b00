package domain

import "time"

// DifficultyLabel is the qualitative difficulty assigned by the reasoner.
type DifficultyLabel string

const (
	DifficultyTrivial DifficultyLabel = "trivial"
	DifficultyEasy    DifficultyLabel = "easy"
	DifficultyMedium  DifficultyLabel = "medium"
	DifficultyHard    DifficultyLabel = "hard"
	DifficultyExtreme DifficultyLabel = "extreme"
)

// IsValid reports whether the label is part of the fixed difficulty scale.
func (l DifficultyLabel) IsValid() bool {
	switch l {
	case DifficultyTrivial, DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExtreme:
		return true
	default:
		return false
	}
}

// Modifier is a labelled signed adjustment to a difficulty target.
type Modifier struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// TaskApproach is the structured approach suggested by the interpretation.
type TaskApproach struct {
	Summary string   `json:"summary"`
	Steps   []string `json:"steps,omitempty"`
}

// TaskEvaluation is the reasoner's verdict on a player solution.
type TaskEvaluation struct {
	FinalDifficulty DifficultyLabel `json:"final_difficulty"`
	Modifiers       []Modifier      `json:"modifiers,omitempty"`
	Reasoning       string          `json:"reasoning,omitempty"`
}

// TaskDefinition is the concrete objective derived from a player's choice.
// One task is active per session at a time; it is sealed once an event
// result has been produced for it.
type TaskDefinition struct {
	ID                  string
	EventSessionID      string
	ChoiceID            string
	Interpretation      string
	Objective           string
	Approach            TaskApproach
	Constraints         []string
	SuccessCriteria     []string
	EstimatedDifficulty DifficultyLabel
	PlayerSolution      *string
	Evaluation          *TaskEvaluation
	Difficulty          *DifficultySettings
	Sealed              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
