// Package difficulty converts qualitative task evaluations into numeric
// difficulty settings.
package difficulty

import (
	"github.com/louisbranch/crucible/internal/challenge/domain"
	apperrors "github.com/louisbranch/crucible/internal/errors"
)

// ErrUnknownLabel indicates the evaluation carried a difficulty label
// outside the fixed scale. There is no fallback target number.
var ErrUnknownLabel = apperrors.New(apperrors.CodeDifficultyUnknownLabel, "unknown difficulty label")

// baseTargets maps difficulty labels to base target numbers.
var baseTargets = map[domain.DifficultyLabel]int{
	domain.DifficultyTrivial: 5,
	domain.DifficultyEasy:    10,
	domain.DifficultyMedium:  15,
	domain.DifficultyHard:    20,
	domain.DifficultyExtreme: 25,
}

// Fixed d20 resolution parameters.
const (
	criticalSuccessFace = 20
	criticalFailureFace = 1
	retryPenalty        = 2
	maxRetries          = 3
)

// Calculate derives difficulty settings from a task evaluation. The base
// target comes from the label table; modifiers pass through unchanged and
// are aggregated by DifficultySettings.TargetNumber.
func Calculate(evaluation domain.TaskEvaluation) (domain.DifficultySettings, error) {
	base, ok := baseTargets[evaluation.FinalDifficulty]
	if !ok {
		return domain.DifficultySettings{}, ErrUnknownLabel.WithMetadata("label", string(evaluation.FinalDifficulty))
	}

	modifiers := make([]domain.Modifier, len(evaluation.Modifiers))
	copy(modifiers, evaluation.Modifiers)

	return domain.DifficultySettings{
		BaseTargetNumber: base,
		Modifiers:        modifiers,
		RollType:         domain.DiceTypeD20,
		CriticalSuccess:  criticalSuccessFace,
		CriticalFailure:  criticalFailureFace,
		RetryPenalty:     retryPenalty,
		MaxRetries:       maxRetries,
	}, nil
}
