// Package retry computes failure penalties and skill-gated retry options
// for interactive challenges.
package retry

import (
	"fmt"
	"time"

	"github.com/louisbranch/crucible/internal/challenge/domain"
	"github.com/louisbranch/crucible/internal/platform/id"
)

// BonusRule grants an improved retry option when a character's skill
// exceeds the threshold.
type BonusRule struct {
	ID               string
	Skill            string
	Threshold        int
	PenaltyReduction float64
	CostModifier     float64
	Description      string
}

// Config tunes penalty amounts and retry bonus rules.
type Config struct {
	// CriticalHPLoss is the hit-point cost of a critical failure.
	CriticalHPLoss int
	// TimeLossMinutes is the in-game time burned by an ordinary failure.
	TimeLossMinutes int
	BonusRules      []BonusRule
}

// DefaultConfig returns the standard penalty amounts and bonus rules.
func DefaultConfig() Config {
	return Config{
		CriticalHPLoss:  2,
		TimeLossMinutes: 10,
		BonusRules: []BonusRule{
			{
				ID:               "persuasive_angle",
				Skill:            "persuasion",
				Threshold:        15,
				PenaltyReduction: 0.25,
				CostModifier:     0.8,
				Description:      "Talk your way into a gentler consequence before trying again.",
			},
			{
				ID:               "methodical_study",
				Skill:            "investigation",
				Threshold:        12,
				PenaltyReduction: 0.15,
				CostModifier:     1.2,
				Description:      "Study the problem carefully; slower, but more reliable.",
			},
		},
	}
}

// Manager generates penalties on failure and advisory retry options.
type Manager struct {
	cfg         Config
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewManager creates a Manager with default clock and ID dependencies.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:         cfg,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// GeneratePenalties produces the penalties for one failed attempt: an
// hp_loss on a critical failure, a time_loss otherwise. Both are minor;
// penalties accumulate across attempts and are never rolled back by this
// component.
func (m *Manager) GeneratePenalties(critical domain.CriticalType, settings domain.DifficultySettings) ([]domain.PenaltyEffect, error) {
	penaltyID, err := m.idGenerator()
	if err != nil {
		return nil, fmt.Errorf("generate penalty id: %w", err)
	}
	appliedAt := m.clock().UTC()

	if critical == domain.CriticalTypeFailure {
		amount := m.cfg.CriticalHPLoss
		if amount <= 0 {
			amount = settings.RetryPenalty
		}
		return []domain.PenaltyEffect{{
			ID:          penaltyID,
			Type:        domain.PenaltyHPLoss,
			Amount:      amount,
			Description: fmt.Sprintf("The botched attempt costs %d hit points.", amount),
			Reversible:  true,
			Severity:    domain.SeverityMinor,
			AppliedAt:   appliedAt,
			Source:      "critical_failure",
		}}, nil
	}

	return []domain.PenaltyEffect{{
		ID:          penaltyID,
		Type:        domain.PenaltyTimeLoss,
		Amount:      m.cfg.TimeLossMinutes,
		Description: fmt.Sprintf("The failed attempt burns %d minutes.", m.cfg.TimeLossMinutes),
		Duration:    time.Duration(m.cfg.TimeLossMinutes) * time.Minute,
		Reversible:  false,
		Severity:    domain.SeverityMinor,
		AppliedAt:   appliedAt,
		Source:      "failed_attempt",
	}}, nil
}

// GenerateOptions computes the retry options available to a session. The
// no-bonus "same approach" option is always present; bonus options appear
// when the character's skill clears a rule threshold. Options are advisory
// and computed fresh on every call.
func (m *Manager) GenerateOptions(session domain.EventSession, character domain.Character) []domain.RetryOption {
	remaining := session.Metadata.MaxAttempts - session.Metadata.CurrentAttempt
	if remaining < 0 {
		remaining = 0
	}

	options := []domain.RetryOption{{
		ID:                "same_approach",
		Description:       "Try the same approach again.",
		PenaltyReduction:  0,
		CostModifier:      1.0,
		AvailableAttempts: remaining,
	}}

	for _, rule := range m.cfg.BonusRules {
		if character.Skill(rule.Skill) <= rule.Threshold {
			continue
		}
		options = append(options, domain.RetryOption{
			ID:                rule.ID,
			Description:       rule.Description,
			PenaltyReduction:  rule.PenaltyReduction,
			CostModifier:      rule.CostModifier,
			AvailableAttempts: remaining,
			Requirements:      []string{fmt.Sprintf("%s > %d", rule.Skill, rule.Threshold)},
		})
	}

	return options
}
