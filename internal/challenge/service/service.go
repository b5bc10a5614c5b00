// Package service orchestrates interactive challenge sessions: it owns the
// session state machine and coordinates storage, the reasoning
// collaborator, dice resolution, and the penalty manager.
//
// Every public operation is synchronous. Operations that call the
// collaborator persist an in-flight state first, so a crash mid-call
// leaves an inspectable session rather than a silently stale one.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/crucible/internal/challenge/domain"
	"github.com/louisbranch/crucible/internal/challenge/retry"
	apperrors "github.com/louisbranch/crucible/internal/errors"
	"github.com/louisbranch/crucible/internal/platform/id"
	"github.com/louisbranch/crucible/internal/reasoning"
	"github.com/louisbranch/crucible/internal/storage"
)

// ErrActiveSessionExists indicates a live session already exists for the
// same (session, event, player, character) tuple.
var ErrActiveSessionExists = apperrors.New(apperrors.CodeChallengeActiveSessionExists, "an active event session already exists for this tuple")

// ErrSessionNotFound indicates the event session does not exist.
var ErrSessionNotFound = apperrors.New(apperrors.CodeNotFound, "event session not found")

// ErrTaskNotFound indicates the task does not exist or belongs to another
// session.
var ErrTaskNotFound = apperrors.New(apperrors.CodeNotFound, "task not found")

// ErrChoiceNotFound indicates the choice ID is not among the session's
// presented choices.
var ErrChoiceNotFound = apperrors.New(apperrors.CodeNotFound, "choice not found")

// ErrTaskSealed indicates the task already produced an event result and
// accepts no further solutions.
var ErrTaskSealed = apperrors.New(apperrors.CodeChallengeTaskSealed, "task is sealed")

// ErrEmptyChoiceID indicates a missing choice ID.
var ErrEmptyChoiceID = apperrors.New(apperrors.CodeChallengeEmptyChoiceID, "choice id is required")

// ErrEmptySolution indicates a missing player solution.
var ErrEmptySolution = apperrors.New(apperrors.CodeChallengeEmptySolution, "player solution is required")

// Stores bundles the persistence interfaces the engine depends on.
type Stores struct {
	Sessions  storage.SessionStore
	Tasks     storage.TaskStore
	Penalties storage.PenaltyStore
}

// Engine is the challenge session state machine. It is the only writer of
// session, task, and penalty state; callers interact with it exclusively
// through its operations.
type Engine struct {
	stores      Stores
	reasoner    reasoning.Service
	retries     *retry.Manager
	clock       func() time.Time
	idGenerator func() (string, error)
	locks       *sessionLocks
}

// NewEngine creates an Engine with default clock and ID dependencies.
func NewEngine(stores Stores, reasoner reasoning.Service, retries *retry.Manager) *Engine {
	if retries == nil {
		retries = retry.NewManager(retry.DefaultConfig())
	}
	return &Engine{
		stores:      stores,
		reasoner:    reasoner,
		retries:     retries,
		clock:       time.Now,
		idGenerator: id.NewID,
		locks:       newSessionLocks(),
	}
}

// StartSessionInput carries the data needed to open a challenge session.
type StartSessionInput = domain.CreateEventSessionInput

// StartSession opens a new event session in waiting_for_choice and records
// the choice_selection step presenting the options.
func (e *Engine) StartSession(ctx context.Context, input StartSessionInput) (domain.EventSession, error) {
	session, err := domain.CreateEventSession(input, e.clock, e.idGenerator)
	if err != nil {
		return domain.EventSession{}, err
	}

	step, err := e.newStep(session.ID, domain.StepChoiceSelection, stepData{Choices: session.Choices})
	if err != nil {
		return domain.EventSession{}, err
	}

	if err := e.stores.Sessions.CreateSession(ctx, session, step); err != nil {
		if errors.Is(err, storage.ErrActiveSessionExists) {
			return domain.EventSession{}, ErrActiveSessionExists.WithMetadata(
				"session_id", session.SessionID,
				"event_id", session.EventID,
			)
		}
		return domain.EventSession{}, fmt.Errorf("create event session: %w", err)
	}
	return session, nil
}

// GetSession returns one event session by ID.
func (e *Engine) GetSession(ctx context.Context, eventSessionID string) (domain.EventSession, error) {
	return e.loadSession(ctx, eventSessionID)
}

// GetTask returns one task definition by ID.
func (e *Engine) GetTask(ctx context.Context, taskID string) (domain.TaskDefinition, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return domain.TaskDefinition{}, ErrTaskNotFound
	}
	task, err := e.stores.Tasks.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.TaskDefinition{}, ErrTaskNotFound.WithMetadata("task_id", taskID)
		}
		return domain.TaskDefinition{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// History returns the session's append-only step timeline in order.
func (e *Engine) History(ctx context.Context, eventSessionID string) ([]domain.EventStep, error) {
	if _, err := e.loadSession(ctx, eventSessionID); err != nil {
		return nil, err
	}
	steps, err := e.stores.Sessions.ListSteps(ctx, eventSessionID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	return steps, nil
}

// RetryOptions computes the advisory retry options for a session after a
// failed attempt. It requires waiting_for_retry and mutates nothing; the
// caller continues by resubmitting a solution.
func (e *Engine) RetryOptions(ctx context.Context, eventSessionID string, character domain.Character) ([]domain.RetryOption, error) {
	session, err := e.loadSession(ctx, eventSessionID)
	if err != nil {
		return nil, err
	}
	if session.State != domain.StateWaitingForRetry {
		return nil, invalidState(session.State, "generate_retry_options")
	}
	return e.retries.GenerateOptions(session, character), nil
}

// loadSession fetches a session, mapping missing rows to ErrSessionNotFound.
func (e *Engine) loadSession(ctx context.Context, eventSessionID string) (domain.EventSession, error) {
	eventSessionID = strings.TrimSpace(eventSessionID)
	if eventSessionID == "" {
		return domain.EventSession{}, ErrSessionNotFound
	}
	session, err := e.stores.Sessions.GetSession(ctx, eventSessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.EventSession{}, ErrSessionNotFound.WithMetadata("event_session_id", eventSessionID)
		}
		return domain.EventSession{}, fmt.Errorf("get event session: %w", err)
	}
	return session, nil
}

// loadSessionTask fetches the task and checks it belongs to the session.
func (e *Engine) loadSessionTask(ctx context.Context, session domain.EventSession, taskID string) (domain.TaskDefinition, error) {
	task, err := e.GetTask(ctx, taskID)
	if err != nil {
		return domain.TaskDefinition{}, err
	}
	if task.EventSessionID != session.ID {
		return domain.TaskDefinition{}, ErrTaskNotFound.WithMetadata("task_id", taskID)
	}
	return task, nil
}

// invalidState builds the rejection for an operation called in a state
// that does not accept it. No side effect precedes it.
func invalidState(state domain.SessionState, operation string) error {
	return domain.ErrInvalidStateTransition.WithMetadata(
		"state", string(state),
		"operation", operation,
	)
}

// enterState persists the move into an in-flight state. The edge must
// exist in the transition table; the rejection happens before any write.
func (e *Engine) enterState(ctx context.Context, session *domain.EventSession, next domain.SessionState, operation string) error {
	if !session.State.CanTransitionTo(next) {
		return invalidState(session.State, operation)
	}
	if err := e.stores.Sessions.UpdateState(ctx, session.ID, next, session.CurrentStep); err != nil {
		return fmt.Errorf("enter %s: %w", next, err)
	}
	session.State = next
	return nil
}

// advance moves the in-memory session along a transition-table edge; the
// caller persists the result through CommitTransition.
func advance(session *domain.EventSession, next domain.SessionState, operation string) error {
	if !session.State.CanTransitionTo(next) {
		return invalidState(session.State, operation)
	}
	session.State = next
	return nil
}

// failSession drives the session to failed after an unrecoverable
// collaborator error. Best effort: the collaborator error is the one the
// caller needs to see, so a storage error here is joined rather than
// replacing it.
func (e *Engine) failSession(ctx context.Context, session domain.EventSession, cause error) error {
	if !session.State.CanTransitionTo(domain.StateFailed) {
		return cause
	}
	if err := e.stores.Sessions.UpdateState(ctx, session.ID, domain.StateFailed, session.CurrentStep); err != nil {
		return errors.Join(cause, fmt.Errorf("mark session failed: %w", err))
	}
	return cause
}

// stepData is the JSON payload persisted on timeline steps. Only the
// fields relevant to the step kind are set.
type stepData struct {
	Choices        []domain.Choice            `json:"choices,omitempty"`
	ChoiceID       string                     `json:"choice_id,omitempty"`
	Interpretation *reasoning.Interpretation  `json:"interpretation,omitempty"`
	Evaluation     *domain.TaskEvaluation     `json:"evaluation,omitempty"`
	Difficulty     *domain.DifficultySettings `json:"difficulty,omitempty"`
	Result         *domain.EventResult        `json:"result,omitempty"`
}

// newStep builds a timeline step with a fresh ID and encoded payload. Seq
// is assigned by the store on append.
func (e *Engine) newStep(eventSessionID string, kind domain.StepKind, data stepData) (domain.EventStep, error) {
	stepID, err := e.idGenerator()
	if err != nil {
		return domain.EventStep{}, fmt.Errorf("generate step id: %w", err)
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return domain.EventStep{}, fmt.Errorf("encode step data: %w", err)
	}
	return domain.EventStep{
		ID:             stepID,
		EventSessionID: eventSessionID,
		Kind:           kind,
		Timestamp:      e.clock().UTC(),
		Data:           payload,
	}, nil
}
