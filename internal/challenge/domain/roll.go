package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DiceType names a die by its conventional tabletop notation.
type DiceType string

// DiceTypeD20 is the only roll type produced by the difficulty calculator.
const DiceTypeD20 DiceType = "d20"

// Sides returns the number of sides for the dice type, or an error when the
// notation is not of the form dN.
func (d DiceType) Sides() (int, error) {
	value := strings.TrimPrefix(string(d), "d")
	if value == string(d) {
		return 0, fmt.Errorf("dice type %q is not dN notation", d)
	}
	sides, err := strconv.Atoi(value)
	if err != nil || sides <= 0 {
		return 0, fmt.Errorf("dice type %q is not dN notation", d)
	}
	return sides, nil
}

// DifficultySettings is the numeric difficulty derived from a task
// evaluation. It is persisted only alongside the task that produced it.
type DifficultySettings struct {
	BaseTargetNumber int        `json:"base_target_number"`
	Modifiers        []Modifier `json:"modifiers,omitempty"`
	RollType         DiceType   `json:"roll_type"`
	CriticalSuccess  int        `json:"critical_success"`
	CriticalFailure  int        `json:"critical_failure"`
	RetryPenalty     int        `json:"retry_penalty"`
	MaxRetries       int        `json:"max_retries"`
}

// ModifierTotal sums all modifier values.
func (s DifficultySettings) ModifierTotal() int {
	total := 0
	for _, m := range s.Modifiers {
		total += m.Value
	}
	return total
}

// TargetNumber is the realized difficulty: the base target plus the sum of
// all modifiers. The sum is monotonic in every modifier value, so a more
// positive modifier can never lower the realized difficulty.
func (s DifficultySettings) TargetNumber() int {
	return s.BaseTargetNumber + s.ModifierTotal()
}

// CriticalType flags roll extremes for narration. It is independent of the
// pass/fail outcome.
type CriticalType string

const (
	// CriticalNone means the raw roll hit neither extreme.
	CriticalNone CriticalType = ""
	// CriticalTypeSuccess means the raw roll hit the critical-success face.
	CriticalTypeSuccess CriticalType = "success"
	// CriticalTypeFailure means the raw roll hit the critical-failure face.
	CriticalTypeFailure CriticalType = "failure"
)

// DiceRollResult is a roll supplied by the caller. The engine validates it
// against the active difficulty settings and fills in the outcome fields;
// it never generates the roll itself.
type DiceRollResult struct {
	DiceType        DiceType `json:"dice_type"`
	RawRoll         int      `json:"raw_roll"`
	Modifier        int      `json:"modifier"`
	TotalResult     int      `json:"total_result"`
	TargetNumber    int      `json:"target_number"`
	Success         bool     `json:"success"`
	CriticalSuccess bool     `json:"critical_success"`
	CriticalFailure bool     `json:"critical_failure"`
}

// Rewards describes what a successful attempt grants.
type Rewards struct {
	Experience  int      `json:"experience"`
	Description string   `json:"description,omitempty"`
	Items       []string `json:"items,omitempty"`
}

// EventResult is the terminal artifact of one attempt. A session produces
// at most one result per attempt, bounded by the attempt limit.
type EventResult struct {
	Success          bool            `json:"success"`
	FinalScore       int             `json:"final_score"`
	TargetNumber     int             `json:"target_number"`
	Roll             DiceRollResult  `json:"roll"`
	CriticalType     CriticalType    `json:"critical_type,omitempty"`
	Narrative        string          `json:"narrative,omitempty"`
	Rewards          *Rewards        `json:"rewards,omitempty"`
	Penalties        []PenaltyEffect `json:"penalties,omitempty"`
	ExperienceGained int             `json:"experience_gained"`
}
