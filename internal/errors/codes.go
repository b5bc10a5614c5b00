// Package errors provides structured error handling for the challenge engine.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Challenge input errors
	CodeChallengeChoicesEmpty   Code = "CHALLENGE_CHOICES_EMPTY"
	CodeChallengeEmptySessionID Code = "CHALLENGE_EMPTY_SESSION_ID"
	CodeChallengeEmptyEventID   Code = "CHALLENGE_EMPTY_EVENT_ID"
	CodeChallengeEmptyPlayerID  Code = "CHALLENGE_EMPTY_PLAYER_ID"
	CodeChallengeEmptyCharacter Code = "CHALLENGE_EMPTY_CHARACTER_ID"
	CodeChallengeEmptyChoiceID  Code = "CHALLENGE_EMPTY_CHOICE_ID"
	CodeChallengeEmptySolution  Code = "CHALLENGE_EMPTY_SOLUTION"

	// Challenge lifecycle errors
	CodeChallengeInvalidStateTransition Code = "CHALLENGE_INVALID_STATE_TRANSITION"
	CodeChallengeActiveSessionExists    Code = "CHALLENGE_ACTIVE_SESSION_EXISTS"
	CodeChallengeTaskSealed             Code = "CHALLENGE_TASK_SEALED"

	// Roll errors
	CodeRollInvalidDiceType Code = "ROLL_INVALID_DICE_TYPE"
	CodeRollOutOfRange      Code = "ROLL_OUT_OF_RANGE"
	CodeRollTotalMismatch   Code = "ROLL_TOTAL_MISMATCH"

	// Difficulty errors
	CodeDifficultyUnknownLabel Code = "DIFFICULTY_UNKNOWN_LABEL"

	// Reasoning collaborator errors
	CodeReasoningCallFailed Code = "REASONING_CALL_FAILED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func GRPCCode(code Code) codes.Code {
	switch code {
	case CodeChallengeChoicesEmpty,
		CodeChallengeEmptySessionID,
		CodeChallengeEmptyEventID,
		CodeChallengeEmptyPlayerID,
		CodeChallengeEmptyCharacter,
		CodeChallengeEmptyChoiceID,
		CodeChallengeEmptySolution,
		CodeRollInvalidDiceType,
		CodeRollOutOfRange,
		CodeRollTotalMismatch:
		return codes.InvalidArgument
	case CodeChallengeInvalidStateTransition,
		CodeChallengeActiveSessionExists,
		CodeChallengeTaskSealed:
		return codes.FailedPrecondition
	case CodeNotFound:
		return codes.NotFound
	case CodeReasoningCallFailed:
		return codes.Unavailable
	case CodeDifficultyUnknownLabel:
		return codes.Internal
	default:
		return codes.Internal
	}
}
