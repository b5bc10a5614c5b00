package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/crucible/internal/errors"
	"github.com/louisbranch/crucible/internal/platform/id"
)

// SessionState describes the lifecycle state of an event session.
//
// The string literals are persisted and must stay stable; downstream
// tooling replays session history byte-for-byte.
type SessionState string

const (
	// StateWaitingForChoice is the initial state: the player has been
	// presented choices and none has been submitted yet.
	StateWaitingForChoice SessionState = "waiting_for_choice"
	// StateProcessingChoice marks an in-flight choice interpretation call.
	StateProcessingChoice SessionState = "processing_choice"
	// StateWaitingForSolution waits for the player's free-text solution.
	StateWaitingForSolution SessionState = "waiting_for_solution"
	// StateCalculatingDifficulty marks an in-flight solution evaluation.
	StateCalculatingDifficulty SessionState = "calculating_difficulty"
	// StateDiceRolling waits for the caller to supply a dice roll.
	StateDiceRolling SessionState = "dice_rolling"
	// StateProcessingResult marks an in-flight roll resolution.
	StateProcessingResult SessionState = "processing_result"
	// StateWaitingForRetry waits for the player to pick a retry approach.
	StateWaitingForRetry SessionState = "waiting_for_retry"
	// StateCompleted is terminal: the challenge resolved (win or exhausted).
	StateCompleted SessionState = "completed"
	// StateFailed is terminal: a collaborator error aborted the session.
	StateFailed SessionState = "failed"
)

// transitions is the single source of truth for the state graph. Every
// guard in the engine consults this table instead of re-implementing the
// edge list per operation.
var transitions = map[SessionState][]SessionState{
	StateWaitingForChoice:      {StateProcessingChoice, StateFailed},
	StateProcessingChoice:      {StateWaitingForSolution, StateFailed},
	StateWaitingForSolution:    {StateCalculatingDifficulty, StateFailed},
	StateCalculatingDifficulty: {StateDiceRolling, StateFailed},
	StateDiceRolling:           {StateProcessingResult, StateFailed},
	StateProcessingResult:      {StateCompleted, StateWaitingForRetry, StateFailed},
	StateWaitingForRetry:       {StateWaitingForSolution, StateFailed},
	StateCompleted:             nil,
	StateFailed:                nil,
}

// IsValid reports whether the state is a known session state.
func (s SessionState) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether the state accepts no further operations.
func (s SessionState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransitionTo reports whether the state graph has an edge to next.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DefaultMaxAttempts bounds how many rolls a session allows before it
// completes in failure.
const DefaultMaxAttempts = 3

var (
	// ErrEmptySessionID indicates a missing campaign-session ID.
	ErrEmptySessionID = apperrors.New(apperrors.CodeChallengeEmptySessionID, "session id is required")
	// ErrEmptyEventID indicates a missing event ID.
	ErrEmptyEventID = apperrors.New(apperrors.CodeChallengeEmptyEventID, "event id is required")
	// ErrEmptyPlayerID indicates a missing player ID.
	ErrEmptyPlayerID = apperrors.New(apperrors.CodeChallengeEmptyPlayerID, "player id is required")
	// ErrEmptyCharacterID indicates a missing character ID.
	ErrEmptyCharacterID = apperrors.New(apperrors.CodeChallengeEmptyCharacter, "character id is required")
	// ErrChoicesEmpty indicates no choices were supplied for the event.
	ErrChoicesEmpty = apperrors.New(apperrors.CodeChallengeChoicesEmpty, "at least one choice is required")
	// ErrInvalidStateTransition indicates an operation was called in a state
	// that does not accept it.
	ErrInvalidStateTransition = apperrors.New(apperrors.CodeChallengeInvalidStateTransition, "operation not allowed in current session state")
)

// SessionMetadata tracks attempt bookkeeping for an event session.
//
// AccumulatedPenalties is a derived cache of the separately stored penalty
// records; the penalty table is authoritative.
type SessionMetadata struct {
	StartTime            time.Time       `json:"start_time"`
	CurrentAttempt       int             `json:"current_attempt"`
	MaxAttempts          int             `json:"max_attempts"`
	AccumulatedPenalties []PenaltyEffect `json:"accumulated_penalties,omitempty"`
	ExperienceEarned     int             `json:"experience_earned"`
}

// Choice is one narrative option presented to the player.
type Choice struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// EventSession is one player's run through one interactive challenge. It is
// owned by the state machine and mutated only through its operations.
type EventSession struct {
	ID          string
	SessionID   string
	EventID     string
	PlayerID    string
	CharacterID string
	State       SessionState
	CurrentStep StepKind
	Choices     []Choice
	Metadata    SessionMetadata
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateEventSessionInput describes the data needed to open a session.
type CreateEventSessionInput struct {
	SessionID   string
	EventID     string
	PlayerID    string
	CharacterID string
	Choices     []Choice
}

// NormalizeCreateEventSessionInput trims and validates session input.
func NormalizeCreateEventSessionInput(input CreateEventSessionInput) (CreateEventSessionInput, error) {
	input.SessionID = strings.TrimSpace(input.SessionID)
	if input.SessionID == "" {
		return CreateEventSessionInput{}, ErrEmptySessionID
	}
	input.EventID = strings.TrimSpace(input.EventID)
	if input.EventID == "" {
		return CreateEventSessionInput{}, ErrEmptyEventID
	}
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	if input.PlayerID == "" {
		return CreateEventSessionInput{}, ErrEmptyPlayerID
	}
	input.CharacterID = strings.TrimSpace(input.CharacterID)
	if input.CharacterID == "" {
		return CreateEventSessionInput{}, ErrEmptyCharacterID
	}
	if len(input.Choices) == 0 {
		return CreateEventSessionInput{}, ErrChoicesEmpty
	}
	return input, nil
}

// CreateEventSession creates a session in the initial state with a generated
// ID, attempt 1 of DefaultMaxAttempts, and UTC timestamps.
func CreateEventSession(input CreateEventSessionInput, now func() time.Time, idGenerator func() (string, error)) (EventSession, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateEventSessionInput(input)
	if err != nil {
		return EventSession{}, err
	}

	sessionID, err := idGenerator()
	if err != nil {
		return EventSession{}, fmt.Errorf("generate event session id: %w", err)
	}

	createdAt := now().UTC()
	return EventSession{
		ID:          sessionID,
		SessionID:   normalized.SessionID,
		EventID:     normalized.EventID,
		PlayerID:    normalized.PlayerID,
		CharacterID: normalized.CharacterID,
		State:       StateWaitingForChoice,
		CurrentStep: StepChoiceSelection,
		Choices:     normalized.Choices,
		Metadata: SessionMetadata{
			StartTime:      createdAt,
			CurrentAttempt: 1,
			MaxAttempts:    DefaultMaxAttempts,
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}
