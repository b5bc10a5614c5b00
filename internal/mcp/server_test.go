package mcp

import (
	"context"
	"testing"

	"github.com/louisbranch/crucible/internal/challenge/domain"
	"github.com/louisbranch/crucible/internal/challenge/retry"
	"github.com/louisbranch/crucible/internal/challenge/service"
	"github.com/louisbranch/crucible/internal/reasoning"
	"github.com/louisbranch/crucible/internal/storage/sqlite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubReasoner struct{}

func (stubReasoner) InterpretChoice(_ context.Context, input reasoning.InterpretChoiceInput) (reasoning.Interpretation, error) {
	return reasoning.Interpretation{
		Interpretation:      "Cross the rope bridge before the wind picks up.",
		Objective:           "Reach the far tower",
		Approach:            domain.TaskApproach{Summary: "Go hand over hand along the guide rope"},
		EstimatedDifficulty: domain.DifficultyMedium,
	}, nil
}

func (stubReasoner) EvaluateSolution(_ context.Context, input reasoning.EvaluateSolutionInput) (domain.TaskEvaluation, error) {
	return domain.TaskEvaluation{FinalDifficulty: domain.DifficultyMedium}, nil
}

func (stubReasoner) NarrateResult(_ context.Context, input reasoning.NarrateResultInput) (string, error) {
	return "The crossing holds.", nil
}

func testMCPEngine(t *testing.T) *service.Engine {
	t.Helper()
	store, err := sqlite.Open(t.TempDir() + "/challenge.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	stores := service.Stores{Sessions: store, Tasks: store, Penalties: store}
	return service.NewEngine(stores, stubReasoner{}, retry.NewManager(retry.DefaultConfig()))
}

func TestNewServerRegistersTools(t *testing.T) {
	server := NewServer(testMCPEngine(t))
	if server == nil || server.mcpServer == nil {
		t.Fatal("expected a configured server")
	}
}

func TestChallengeToolsFullRun(t *testing.T) {
	engine := testMCPEngine(t)
	ctx := context.Background()

	_, started, err := ChallengeStartHandler(engine)(ctx, nil, ChallengeStartInput{
		SessionID:   "session-1",
		EventID:     "event-1",
		PlayerID:    "player-1",
		CharacterID: "character-1",
		Choices: []ChoiceInput{
			{ID: "bridge", Label: "Cross the rope bridge"},
			{ID: "climb", Label: "Climb down the ravine"},
		},
	})
	if err != nil {
		t.Fatalf("challenge_start: %v", err)
	}
	if started.State != "waiting_for_choice" {
		t.Fatalf("state = %q, want waiting_for_choice", started.State)
	}
	if len(started.Choices) != 2 {
		t.Fatalf("choices len = %d, want 2", len(started.Choices))
	}

	_, task, err := ChoiceSubmitHandler(engine)(ctx, nil, ChoiceSubmitInput{
		EventSessionID: started.ID,
		ChoiceID:       "bridge",
	})
	if err != nil {
		t.Fatalf("choice_submit: %v", err)
	}
	if task.Objective != "Reach the far tower" {
		t.Fatalf("task = %+v", task)
	}

	_, difficulty, err := SolutionSubmitHandler(engine)(ctx, nil, SolutionSubmitInput{
		EventSessionID: started.ID,
		TaskID:         task.ID,
		Solution:       "Clip onto the guide rope and move one hand at a time.",
	})
	if err != nil {
		t.Fatalf("solution_submit: %v", err)
	}
	if difficulty.TargetNumber != 15 || difficulty.RollType != "d20" {
		t.Fatalf("difficulty = %+v", difficulty)
	}

	_, outcome, err := RollSubmitHandler(engine)(ctx, nil, RollSubmitInput{
		EventSessionID: started.ID,
		TaskID:         task.ID,
		Roll:           RollInput{DiceType: "d20", RawRoll: 16, Modifier: 2, TotalResult: 18},
	})
	if err != nil {
		t.Fatalf("roll_submit: %v", err)
	}
	if !outcome.Success || outcome.SessionState != "completed" {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Narrative != "The crossing holds." {
		t.Fatalf("narrative = %q", outcome.Narrative)
	}

	_, history, err := ChallengeHistoryHandler(engine)(ctx, nil, ChallengeHistoryInput{EventSessionID: started.ID})
	if err != nil {
		t.Fatalf("challenge_history: %v", err)
	}
	if len(history.Steps) != 4 {
		t.Fatalf("timeline len = %d, want 4", len(history.Steps))
	}
	if history.Steps[3].Kind != "result_processing" {
		t.Fatalf("last step kind = %q", history.Steps[3].Kind)
	}
}

func TestRetryOptionsTool(t *testing.T) {
	engine := testMCPEngine(t)
	ctx := context.Background()

	_, started, err := ChallengeStartHandler(engine)(ctx, nil, ChallengeStartInput{
		SessionID:   "session-1",
		EventID:     "event-1",
		PlayerID:    "player-1",
		CharacterID: "character-1",
		Choices:     []ChoiceInput{{ID: "bridge", Label: "Cross the rope bridge"}},
	})
	if err != nil {
		t.Fatalf("challenge_start: %v", err)
	}
	_, task, err := ChoiceSubmitHandler(engine)(ctx, nil, ChoiceSubmitInput{EventSessionID: started.ID, ChoiceID: "bridge"})
	if err != nil {
		t.Fatalf("choice_submit: %v", err)
	}
	if _, _, err := SolutionSubmitHandler(engine)(ctx, nil, SolutionSubmitInput{
		EventSessionID: started.ID,
		TaskID:         task.ID,
		Solution:       "Sprint across.",
	}); err != nil {
		t.Fatalf("solution_submit: %v", err)
	}
	_, outcome, err := RollSubmitHandler(engine)(ctx, nil, RollSubmitInput{
		EventSessionID: started.ID,
		TaskID:         task.ID,
		Roll:           RollInput{DiceType: "d20", RawRoll: 3, Modifier: 1, TotalResult: 4},
	})
	if err != nil {
		t.Fatalf("roll_submit: %v", err)
	}
	if outcome.SessionState != "waiting_for_retry" {
		t.Fatalf("state = %q, want waiting_for_retry", outcome.SessionState)
	}
	if len(outcome.Penalties) != 1 {
		t.Fatalf("penalties = %+v, want one", outcome.Penalties)
	}

	_, options, err := RetryOptionsHandler(engine)(ctx, nil, RetryOptionsInput{
		EventSessionID: started.ID,
		Character:      CharacterInput{ID: "character-1", Skills: map[string]int{"persuasion": 16}},
	})
	if err != nil {
		t.Fatalf("retry_options: %v", err)
	}
	if len(options.Options) != 2 {
		t.Fatalf("options len = %d, want 2", len(options.Options))
	}
	if options.Options[0].ID != "same_approach" || options.Options[0].AvailableAttempts != 2 {
		t.Fatalf("first option = %+v", options.Options[0])
	}
}

func TestWithStatusMapsDomainErrors(t *testing.T) {
	engine := testMCPEngine(t)
	ctx := context.Background()

	_, _, err := withStatus(ChallengeGetHandler(engine))(ctx, nil, ChallengeGetInput{EventSessionID: "missing"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("missing session code = %v, want NotFound", status.Code(err))
	}

	_, started, err := withStatus(ChallengeStartHandler(engine))(ctx, nil, ChallengeStartInput{
		SessionID:   "session-1",
		EventID:     "event-1",
		PlayerID:    "player-1",
		CharacterID: "character-1",
		Choices:     []ChoiceInput{{ID: "bridge", Label: "Cross the rope bridge"}},
	})
	if err != nil {
		t.Fatalf("challenge_start: %v", err)
	}

	_, _, err = withStatus(RollSubmitHandler(engine))(ctx, nil, RollSubmitInput{
		EventSessionID: started.ID,
		TaskID:         "task-1",
		Roll:           RollInput{DiceType: "d20", RawRoll: 10, Modifier: 0, TotalResult: 10},
	})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("wrong-state code = %v, want FailedPrecondition", status.Code(err))
	}
}
