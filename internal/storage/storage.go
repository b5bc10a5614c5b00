// Package storage defines the persistence contracts for challenge
// sessions, step timelines, tasks, and penalty records. Implementations
// hold no business rules; any keyed store with per-session
// read-modify-write atomicity suffices.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/crucible/internal/challenge/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrActiveSessionExists indicates a non-terminal session already exists
// for the same (session, event, player, character) tuple.
var ErrActiveSessionExists = errors.New("active event session exists")

// TransitionRecord captures one atomic state-machine transition: the
// updated session, the appended timeline step, and any task or penalty
// side effects. Either everything in the record is written or nothing is,
// which keeps the timeline replayable.
type TransitionRecord struct {
	Session   domain.EventSession
	Step      *domain.EventStep
	Task      *domain.TaskDefinition
	Penalties []domain.PenaltyEffect
}

// SessionStore persists event sessions and their step timelines.
type SessionStore interface {
	// CreateSession writes a new session and its initial timeline step in
	// one transaction.
	CreateSession(ctx context.Context, session domain.EventSession, initial domain.EventStep) error
	GetSession(ctx context.Context, id string) (domain.EventSession, error)
	// UpdateState advances the session's state and current step without
	// touching the timeline. Used for in-flight guard transitions.
	UpdateState(ctx context.Context, id string, state domain.SessionState, step domain.StepKind) error
	// CommitTransition applies a full transition record atomically.
	CommitTransition(ctx context.Context, record TransitionRecord) error
	// ListSteps returns the session's timeline in insertion order.
	ListSteps(ctx context.Context, eventSessionID string) ([]domain.EventStep, error)
}

// TaskStore persists task definitions.
type TaskStore interface {
	CreateTask(ctx context.Context, task domain.TaskDefinition) error
	GetTask(ctx context.Context, id string) (domain.TaskDefinition, error)
	UpdateTask(ctx context.Context, task domain.TaskDefinition) error
}

// PenaltyStore persists applied penalty records. The penalty table is the
// authoritative ledger; session metadata carries a derived cache.
type PenaltyStore interface {
	AppendPenalties(ctx context.Context, eventSessionID, characterID string, penalties []domain.PenaltyEffect) error
	ListPenalties(ctx context.Context, eventSessionID string) ([]domain.PenaltyEffect, error)
}
