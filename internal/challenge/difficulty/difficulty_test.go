package difficulty

import (
	"errors"
	"testing"

	"github.com/louisbranch/crucible/internal/challenge/domain"
	apperrors "github.com/louisbranch/crucible/internal/errors"
)

func TestCalculateLabelTable(t *testing.T) {
	tcs := []struct {
		label domain.DifficultyLabel
		want  int
	}{
		{domain.DifficultyTrivial, 5},
		{domain.DifficultyEasy, 10},
		{domain.DifficultyMedium, 15},
		{domain.DifficultyHard, 20},
		{domain.DifficultyExtreme, 25},
	}
	for _, tc := range tcs {
		settings, err := Calculate(domain.TaskEvaluation{FinalDifficulty: tc.label})
		if err != nil {
			t.Fatalf("calculate %s: %v", tc.label, err)
		}
		if settings.BaseTargetNumber != tc.want {
			t.Fatalf("label %s: expected base %d, got %d", tc.label, tc.want, settings.BaseTargetNumber)
		}
	}
}

func TestCalculateFixedParameters(t *testing.T) {
	settings, err := Calculate(domain.TaskEvaluation{FinalDifficulty: domain.DifficultyMedium})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if settings.RollType != domain.DiceTypeD20 {
		t.Fatalf("expected d20 roll type, got %s", settings.RollType)
	}
	if settings.CriticalSuccess != 20 || settings.CriticalFailure != 1 {
		t.Fatalf("expected crit thresholds 20/1, got %d/%d", settings.CriticalSuccess, settings.CriticalFailure)
	}
	if settings.RetryPenalty != 2 {
		t.Fatalf("expected retry penalty 2, got %d", settings.RetryPenalty)
	}
	if settings.MaxRetries != 3 {
		t.Fatalf("expected max retries 3, got %d", settings.MaxRetries)
	}
}

func TestCalculatePassesModifiersThrough(t *testing.T) {
	evaluation := domain.TaskEvaluation{
		FinalDifficulty: domain.DifficultyHard,
		Modifiers: []domain.Modifier{
			{Label: "clever plan", Value: -2},
			{Label: "time pressure", Value: 3},
		},
	}
	settings, err := Calculate(evaluation)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if len(settings.Modifiers) != 2 {
		t.Fatalf("expected 2 modifiers, got %d", len(settings.Modifiers))
	}
	if settings.Modifiers[0] != evaluation.Modifiers[0] || settings.Modifiers[1] != evaluation.Modifiers[1] {
		t.Fatalf("expected modifiers unchanged, got %+v", settings.Modifiers)
	}
	if settings.TargetNumber() != 21 {
		t.Fatalf("expected realized target 21, got %d", settings.TargetNumber())
	}
}

func TestCalculateRejectsUnknownLabel(t *testing.T) {
	_, err := Calculate(domain.TaskEvaluation{FinalDifficulty: "legendary"})
	if !errors.Is(err, ErrUnknownLabel) {
		t.Fatalf("expected ErrUnknownLabel, got %v", err)
	}
	if apperrors.GetMetadata(err)["label"] != "legendary" {
		t.Fatalf("expected offending label in metadata, got %v", apperrors.GetMetadata(err))
	}
}
