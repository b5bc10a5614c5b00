package domain

import (
	"errors"
	"testing"
	"time"
)

func TestSessionStateTransitions(t *testing.T) {
	tcs := []struct {
		from    SessionState
		to      SessionState
		allowed bool
	}{
		{StateWaitingForChoice, StateProcessingChoice, true},
		{StateWaitingForChoice, StateFailed, true},
		{StateWaitingForChoice, StateCompleted, false},
		{StateProcessingChoice, StateWaitingForSolution, true},
		{StateWaitingForSolution, StateCalculatingDifficulty, true},
		{StateCalculatingDifficulty, StateDiceRolling, true},
		{StateDiceRolling, StateProcessingResult, true},
		{StateProcessingResult, StateCompleted, true},
		{StateProcessingResult, StateWaitingForRetry, true},
		{StateWaitingForRetry, StateWaitingForSolution, true},
		{StateWaitingForRetry, StateDiceRolling, false},
		{StateCompleted, StateWaitingForChoice, false},
		{StateFailed, StateWaitingForChoice, false},
		// completed is only reachable through processing_result
		{StateDiceRolling, StateCompleted, false},
		{StateWaitingForSolution, StateCompleted, false},
	}
	for _, tc := range tcs {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestSessionStateTerminal(t *testing.T) {
	for _, state := range []SessionState{StateCompleted, StateFailed} {
		if !state.IsTerminal() {
			t.Fatalf("expected %s to be terminal", state)
		}
		for _, next := range []SessionState{
			StateWaitingForChoice, StateProcessingChoice, StateWaitingForSolution,
			StateCalculatingDifficulty, StateDiceRolling, StateProcessingResult,
			StateWaitingForRetry, StateCompleted, StateFailed,
		} {
			if state.CanTransitionTo(next) {
				t.Fatalf("expected no edge %s -> %s", state, next)
			}
		}
	}
	if StateDiceRolling.IsTerminal() {
		t.Fatal("expected dice_rolling to be non-terminal")
	}
}

func TestSessionStateIsValid(t *testing.T) {
	if !StateWaitingForChoice.IsValid() {
		t.Fatal("expected waiting_for_choice to be valid")
	}
	if SessionState("paused").IsValid() {
		t.Fatal("expected unknown state to be invalid")
	}
}

func TestCreateEventSessionDefaults(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	session, err := CreateEventSession(CreateEventSessionInput{
		SessionID:   "sess-1",
		EventID:     "event-1",
		PlayerID:    "player-1",
		CharacterID: "char-1",
		Choices:     []Choice{{ID: "explore", Label: "Explore the ruins"}},
	}, func() time.Time { return now }, func() (string, error) { return "es-1", nil })
	if err != nil {
		t.Fatalf("create event session: %v", err)
	}

	if session.ID != "es-1" {
		t.Fatalf("expected id es-1, got %q", session.ID)
	}
	if session.State != StateWaitingForChoice {
		t.Fatalf("expected initial state waiting_for_choice, got %s", session.State)
	}
	if session.CurrentStep != StepChoiceSelection {
		t.Fatalf("expected current step choice_selection, got %s", session.CurrentStep)
	}
	if session.Metadata.CurrentAttempt != 1 {
		t.Fatalf("expected attempt 1, got %d", session.Metadata.CurrentAttempt)
	}
	if session.Metadata.MaxAttempts != DefaultMaxAttempts {
		t.Fatalf("expected max attempts %d, got %d", DefaultMaxAttempts, session.Metadata.MaxAttempts)
	}
	if !session.Metadata.StartTime.Equal(now) {
		t.Fatalf("expected start time %v, got %v", now, session.Metadata.StartTime)
	}
	if !session.CreatedAt.Equal(now) || !session.UpdatedAt.Equal(now) {
		t.Fatalf("expected timestamps %v, got %v / %v", now, session.CreatedAt, session.UpdatedAt)
	}
}

func TestCreateEventSessionValidation(t *testing.T) {
	base := CreateEventSessionInput{
		SessionID:   "sess-1",
		EventID:     "event-1",
		PlayerID:    "player-1",
		CharacterID: "char-1",
		Choices:     []Choice{{ID: "a", Label: "A"}},
	}

	tcs := []struct {
		name   string
		mutate func(*CreateEventSessionInput)
		want   error
	}{
		{"empty session id", func(in *CreateEventSessionInput) { in.SessionID = "  " }, ErrEmptySessionID},
		{"empty event id", func(in *CreateEventSessionInput) { in.EventID = "" }, ErrEmptyEventID},
		{"empty player id", func(in *CreateEventSessionInput) { in.PlayerID = "" }, ErrEmptyPlayerID},
		{"empty character id", func(in *CreateEventSessionInput) { in.CharacterID = "" }, ErrEmptyCharacterID},
		{"no choices", func(in *CreateEventSessionInput) { in.Choices = nil }, ErrChoicesEmpty},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			tc.mutate(&input)
			_, err := CreateEventSession(input, nil, nil)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
