package retry

import (
	"testing"
	"time"

	"github.com/louisbranch/crucible/internal/challenge/domain"
)

func newTestManager() *Manager {
	m := NewManager(DefaultConfig())
	m.clock = func() time.Time { return time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC) }
	m.idGenerator = func() (string, error) { return "penalty-1", nil }
	return m
}

func testSettings() domain.DifficultySettings {
	return domain.DifficultySettings{
		BaseTargetNumber: 15,
		RollType:         domain.DiceTypeD20,
		CriticalSuccess:  20,
		CriticalFailure:  1,
		RetryPenalty:     2,
		MaxRetries:       3,
	}
}

func TestGeneratePenaltiesCriticalFailure(t *testing.T) {
	m := newTestManager()

	penalties, err := m.GeneratePenalties(domain.CriticalTypeFailure, testSettings())
	if err != nil {
		t.Fatalf("generate penalties: %v", err)
	}
	if len(penalties) != 1 {
		t.Fatalf("expected 1 penalty, got %d", len(penalties))
	}
	penalty := penalties[0]
	if penalty.Type != domain.PenaltyHPLoss {
		t.Fatalf("expected hp_loss, got %s", penalty.Type)
	}
	if penalty.Severity != domain.SeverityMinor {
		t.Fatalf("expected minor severity, got %s", penalty.Severity)
	}
	if penalty.Amount != 2 {
		t.Fatalf("expected amount 2, got %d", penalty.Amount)
	}
	if !penalty.Reversible {
		t.Fatal("expected hp loss to be reversible")
	}
	if penalty.Source != "critical_failure" {
		t.Fatalf("expected source critical_failure, got %q", penalty.Source)
	}
}

func TestGeneratePenaltiesOrdinaryFailure(t *testing.T) {
	m := newTestManager()

	penalties, err := m.GeneratePenalties(domain.CriticalNone, testSettings())
	if err != nil {
		t.Fatalf("generate penalties: %v", err)
	}
	if len(penalties) != 1 {
		t.Fatalf("expected 1 penalty, got %d", len(penalties))
	}
	penalty := penalties[0]
	if penalty.Type != domain.PenaltyTimeLoss {
		t.Fatalf("expected time_loss, got %s", penalty.Type)
	}
	if penalty.Severity != domain.SeverityMinor {
		t.Fatalf("expected minor severity, got %s", penalty.Severity)
	}
	if penalty.Duration != 10*time.Minute {
		t.Fatalf("expected 10m duration, got %s", penalty.Duration)
	}
	if penalty.Reversible {
		t.Fatal("expected time loss to be irreversible")
	}
}

func TestGenerateOptionsAlwaysIncludesSameApproach(t *testing.T) {
	m := newTestManager()
	session := domain.EventSession{
		Metadata: domain.SessionMetadata{CurrentAttempt: 1, MaxAttempts: 3},
	}

	options := m.GenerateOptions(session, domain.Character{})
	if len(options) != 1 {
		t.Fatalf("expected only the no-bonus option, got %d", len(options))
	}
	option := options[0]
	if option.ID != "same_approach" {
		t.Fatalf("expected same_approach, got %q", option.ID)
	}
	if option.AvailableAttempts != 2 {
		t.Fatalf("expected 2 remaining attempts, got %d", option.AvailableAttempts)
	}
	if option.PenaltyReduction != 0 || option.CostModifier != 1.0 {
		t.Fatalf("expected neutral option, got %+v", option)
	}
}

func TestGenerateOptionsSkillGates(t *testing.T) {
	m := newTestManager()
	session := domain.EventSession{
		Metadata: domain.SessionMetadata{CurrentAttempt: 2, MaxAttempts: 3},
	}

	character := domain.Character{Skills: map[string]int{
		"persuasion":    16,
		"investigation": 13,
	}}
	options := m.GenerateOptions(session, character)
	if len(options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(options))
	}

	byID := make(map[string]domain.RetryOption, len(options))
	for _, option := range options {
		byID[option.ID] = option
	}

	persuasive, ok := byID["persuasive_angle"]
	if !ok {
		t.Fatal("expected persuasive_angle option")
	}
	if persuasive.PenaltyReduction != 0.25 || persuasive.CostModifier != 0.8 {
		t.Fatalf("unexpected persuasive option: %+v", persuasive)
	}

	methodical, ok := byID["methodical_study"]
	if !ok {
		t.Fatal("expected methodical_study option")
	}
	if methodical.PenaltyReduction != 0.15 || methodical.CostModifier != 1.2 {
		t.Fatalf("unexpected methodical option: %+v", methodical)
	}
}

func TestGenerateOptionsThresholdIsExclusive(t *testing.T) {
	m := newTestManager()
	session := domain.EventSession{
		Metadata: domain.SessionMetadata{CurrentAttempt: 1, MaxAttempts: 3},
	}

	// Exactly at the threshold does not qualify.
	character := domain.Character{Skills: map[string]int{
		"persuasion":    15,
		"investigation": 12,
	}}
	options := m.GenerateOptions(session, character)
	if len(options) != 1 {
		t.Fatalf("expected only same_approach at exact thresholds, got %d", len(options))
	}
}

func TestGenerateOptionsClampsRemainingAttempts(t *testing.T) {
	m := newTestManager()
	session := domain.EventSession{
		Metadata: domain.SessionMetadata{CurrentAttempt: 3, MaxAttempts: 3},
	}

	options := m.GenerateOptions(session, domain.Character{})
	if options[0].AvailableAttempts != 0 {
		t.Fatalf("expected 0 remaining attempts, got %d", options[0].AvailableAttempts)
	}
}
