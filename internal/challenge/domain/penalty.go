package domain

import "time"

// PenaltyType identifies what a penalty takes away from the character.
type PenaltyType string

const (
	// PenaltyHPLoss deducts hit points.
	PenaltyHPLoss PenaltyType = "hp_loss"
	// PenaltyTimeLoss burns in-game time.
	PenaltyTimeLoss PenaltyType = "time_loss"
	// PenaltyResourceLoss consumes supplies or currency.
	PenaltyResourceLoss PenaltyType = "resource_loss"
)

// PenaltySeverity grades how heavy a penalty is.
type PenaltySeverity string

const (
	SeverityMinor PenaltySeverity = "minor"
	SeverityMajor PenaltySeverity = "major"
)

// PenaltyEffect is an applied penalty. Records are append-only: they are
// never mutated or deleted, only referenced by later retry-eligibility
// checks. Reversible penalties may be cleared by an explicit external
// action, never automatically.
type PenaltyEffect struct {
	ID          string          `json:"id"`
	Type        PenaltyType     `json:"type"`
	Amount      int             `json:"amount"`
	Description string          `json:"description"`
	Duration    time.Duration   `json:"duration,omitempty"`
	Reversible  bool            `json:"reversible"`
	Severity    PenaltySeverity `json:"severity"`
	AppliedAt   time.Time       `json:"applied_at"`
	Source      string          `json:"source"`
}

// RetryOption is a bounded, skill-gated alternative approach offered after
// a failed attempt. Options are computed fresh on each request and are
// advisory only; they are never persisted as authoritative state.
type RetryOption struct {
	ID                string   `json:"id"`
	Description       string   `json:"description"`
	PenaltyReduction  float64  `json:"penalty_reduction"`
	CostModifier      float64  `json:"cost_modifier"`
	AvailableAttempts int      `json:"available_attempts"`
	Requirements      []string `json:"requirements,omitempty"`
}
