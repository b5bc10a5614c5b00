// Package dice implements roll validation and resolution for interactive
// challenges, plus a deterministic roll helper for UI widgets and tests.
package dice

import (
	"fmt"
	"math/rand"

	"github.com/louisbranch/crucible/internal/challenge/domain"
	apperrors "github.com/louisbranch/crucible/internal/errors"
)

var (
	// ErrDiceTypeMismatch indicates the roll used a different die than the
	// difficulty settings require.
	ErrDiceTypeMismatch = apperrors.New(apperrors.CodeRollInvalidDiceType, "roll dice type does not match difficulty settings")
	// ErrRollOutOfRange indicates the raw roll is outside the die's faces.
	ErrRollOutOfRange = apperrors.New(apperrors.CodeRollOutOfRange, "raw roll is outside the die range")
	// ErrTotalMismatch indicates the reported total does not equal the raw
	// roll plus the modifier.
	ErrTotalMismatch = apperrors.New(apperrors.CodeRollTotalMismatch, "total result does not match raw roll plus modifier")
)

// Resolution is the outcome of checking a roll against difficulty settings.
type Resolution struct {
	Success      bool
	CriticalType domain.CriticalType
	TargetNumber int
}

// ValidateRoll checks a caller-supplied roll against the active settings.
// The engine validates rolls, it never generates them.
func ValidateRoll(roll domain.DiceRollResult, settings domain.DifficultySettings) error {
	if roll.DiceType != settings.RollType {
		return ErrDiceTypeMismatch.WithMetadata(
			"expected", string(settings.RollType),
			"got", string(roll.DiceType),
		)
	}
	sides, err := settings.RollType.Sides()
	if err != nil {
		return apperrors.Wrap(apperrors.CodeRollInvalidDiceType, "parse roll type", err)
	}
	if roll.RawRoll < 1 || roll.RawRoll > sides {
		return ErrRollOutOfRange.WithMetadata("raw_roll", fmt.Sprintf("%d", roll.RawRoll))
	}
	if roll.TotalResult != roll.RawRoll+roll.Modifier {
		return ErrTotalMismatch
	}
	return nil
}

// Resolve decides success and critical type for a validated roll.
//
// Success compares the modified total against the realized target number.
// Critical type looks only at the raw roll, so a critical-failure face can
// still meet the target when modifiers are large.
func Resolve(roll domain.DiceRollResult, settings domain.DifficultySettings) Resolution {
	target := settings.TargetNumber()

	resolution := Resolution{
		Success:      roll.TotalResult >= target,
		TargetNumber: target,
	}
	switch roll.RawRoll {
	case settings.CriticalSuccess:
		resolution.CriticalType = domain.CriticalTypeSuccess
	case settings.CriticalFailure:
		resolution.CriticalType = domain.CriticalTypeFailure
	}
	return resolution
}

// ErrInvalidDiceSpec indicates a die specification has invalid fields.
var ErrInvalidDiceSpec = apperrors.New(apperrors.CodeRollOutOfRange, "dice must have positive sides and count")

// ErrMissingDice indicates a roll request had no dice specified.
var ErrMissingDice = apperrors.New(apperrors.CodeRollOutOfRange, "at least one die must be provided")

// DiceSpec describes a die to roll and how many times to roll it.
type DiceSpec struct {
	Sides int
	Count int
}

// DieRoll captures the results for a single dice spec.
type DieRoll struct {
	Sides   int
	Results []int
	Total   int
}

// RollRequest describes a request to roll one or more dice.
type RollRequest struct {
	Dice []DiceSpec
	Seed int64
}

// RollResult captures the results from rolling multiple dice.
type RollResult struct {
	Rolls []DieRoll
	Total int
}

// RollDice rolls dice based on the provided request.
//
// RollDice is deterministic with respect to the Seed field: given the same
// Seed and the same Dice slice, it always produces the same RollResult.
// Dice specs are processed in slice order and each DieRoll's Total is the
// sum of its Results; RollResult.Total sums every die rolled.
//
// The challenge engine itself never rolls; this helper exists for dice
// widgets and deterministic tests.
func RollDice(request RollRequest) (RollResult, error) {
	if len(request.Dice) == 0 {
		return RollResult{}, ErrMissingDice
	}

	rng := rand.New(rand.NewSource(request.Seed))
	rolls := make([]DieRoll, 0, len(request.Dice))
	total := 0

	for _, spec := range request.Dice {
		if spec.Sides <= 0 || spec.Count <= 0 {
			return RollResult{}, ErrInvalidDiceSpec
		}

		results := make([]int, spec.Count)
		rollTotal := 0
		for i := 0; i < spec.Count; i++ {
			value := rng.Intn(spec.Sides) + 1
			results[i] = value
			rollTotal += value
		}

		rolls = append(rolls, DieRoll{
			Sides:   spec.Sides,
			Results: results,
			Total:   rollTotal,
		})
		total += rollTotal
	}

	return RollResult{
		Rolls: rolls,
		Total: total,
	}, nil
}
