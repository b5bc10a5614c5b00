package mcp

import (
	"context"
	"time"

	"github.com/louisbranch/crucible/internal/challenge/domain"
	"github.com/louisbranch/crucible/internal/challenge/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ChoiceInput is one narrative option presented when starting a challenge.
type ChoiceInput struct {
	ID          string `json:"id" jsonschema:"choice identifier"`
	Label       string `json:"label" jsonschema:"short label shown to the player"`
	Description string `json:"description,omitempty" jsonschema:"optional longer description"`
}

// CharacterInput is the character context passed along with an operation.
type CharacterInput struct {
	ID     string         `json:"id,omitempty" jsonschema:"character identifier"`
	Name   string         `json:"name,omitempty" jsonschema:"character name"`
	Level  int            `json:"level,omitempty" jsonschema:"character level"`
	Skills map[string]int `json:"skills,omitempty" jsonschema:"skill name to level map"`
}

// SceneInput is the narrative surroundings passed to the reasoner.
type SceneInput struct {
	CampaignID string `json:"campaign_id,omitempty" jsonschema:"campaign identifier"`
	Scene      string `json:"scene,omitempty" jsonschema:"current scene description"`
	Tone       string `json:"tone,omitempty" jsonschema:"narrative tone"`
}

// SessionResult is the MCP view of an event session.
type SessionResult struct {
	ID               string        `json:"id" jsonschema:"event session identifier"`
	SessionID        string        `json:"session_id" jsonschema:"campaign session identifier"`
	EventID          string        `json:"event_id" jsonschema:"event identifier"`
	PlayerID         string        `json:"player_id" jsonschema:"player identifier"`
	CharacterID      string        `json:"character_id" jsonschema:"character identifier"`
	State            string        `json:"state" jsonschema:"session state"`
	CurrentStep      string        `json:"current_step" jsonschema:"kind of the most recent step"`
	Choices          []ChoiceInput `json:"choices,omitempty" jsonschema:"choices presented to the player"`
	CurrentAttempt   int           `json:"current_attempt" jsonschema:"attempt currently in progress"`
	MaxAttempts      int           `json:"max_attempts" jsonschema:"attempt limit"`
	ExperienceEarned int           `json:"experience_earned" jsonschema:"experience earned so far"`
	PenaltyCount     int           `json:"penalty_count" jsonschema:"number of accumulated penalties"`
	CreatedAt        string        `json:"created_at" jsonschema:"RFC3339 creation timestamp"`
	UpdatedAt        string        `json:"updated_at" jsonschema:"RFC3339 last-update timestamp"`
}

func sessionResult(session domain.EventSession) SessionResult {
	result := SessionResult{
		ID:               session.ID,
		SessionID:        session.SessionID,
		EventID:          session.EventID,
		PlayerID:         session.PlayerID,
		CharacterID:      session.CharacterID,
		State:            string(session.State),
		CurrentStep:      string(session.CurrentStep),
		CurrentAttempt:   session.Metadata.CurrentAttempt,
		MaxAttempts:      session.Metadata.MaxAttempts,
		ExperienceEarned: session.Metadata.ExperienceEarned,
		PenaltyCount:     len(session.Metadata.AccumulatedPenalties),
		CreatedAt:        session.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        session.UpdatedAt.Format(time.RFC3339),
	}
	for _, choice := range session.Choices {
		result.Choices = append(result.Choices, ChoiceInput{
			ID:          choice.ID,
			Label:       choice.Label,
			Description: choice.Description,
		})
	}
	return result
}

func toCharacter(input CharacterInput) domain.Character {
	return domain.Character{
		ID:     input.ID,
		Name:   input.Name,
		Level:  input.Level,
		Skills: input.Skills,
	}
}

func toContext(input SceneInput) domain.SessionContext {
	return domain.SessionContext{
		CampaignID: input.CampaignID,
		Scene:      input.Scene,
		Tone:       input.Tone,
	}
}

// ChallengeStartInput represents the MCP tool input for starting a challenge.
type ChallengeStartInput struct {
	SessionID   string        `json:"session_id" jsonschema:"campaign session identifier"`
	EventID     string        `json:"event_id" jsonschema:"event identifier"`
	PlayerID    string        `json:"player_id" jsonschema:"player identifier"`
	CharacterID string        `json:"character_id" jsonschema:"character identifier"`
	Choices     []ChoiceInput `json:"choices" jsonschema:"narrative options to present"`
}

// ChallengeStartTool describes the challenge_start tool.
func ChallengeStartTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "challenge_start",
		Description: "Starts an interactive challenge session. Enforces one active session per (session, event, player, character) tuple.",
	}
}

// ChallengeStartHandler executes a challenge start request.
func ChallengeStartHandler(engine *service.Engine) mcp.ToolHandlerFor[ChallengeStartInput, SessionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ChallengeStartInput) (*mcp.CallToolResult, SessionResult, error) {
		start := service.StartSessionInput{
			SessionID:   input.SessionID,
			EventID:     input.EventID,
			PlayerID:    input.PlayerID,
			CharacterID: input.CharacterID,
		}
		for _, choice := range input.Choices {
			start.Choices = append(start.Choices, domain.Choice{
				ID:          choice.ID,
				Label:       choice.Label,
				Description: choice.Description,
			})
		}
		session, err := engine.StartSession(ctx, start)
		if err != nil {
			return nil, SessionResult{}, err
		}
		return nil, sessionResult(session), nil
	}
}

// ChoiceSubmitInput represents the MCP tool input for submitting a choice.
type ChoiceSubmitInput struct {
	EventSessionID string         `json:"event_session_id" jsonschema:"event session identifier"`
	ChoiceID       string         `json:"choice_id" jsonschema:"identifier of the chosen option"`
	Character      CharacterInput `json:"character,omitempty" jsonschema:"character context for interpretation"`
	Context        SceneInput     `json:"context,omitempty" jsonschema:"narrative context for interpretation"`
}

// TaskResult is the MCP view of a task definition.
type TaskResult struct {
	ID                  string   `json:"id" jsonschema:"task identifier"`
	EventSessionID      string   `json:"event_session_id" jsonschema:"event session identifier"`
	ChoiceID            string   `json:"choice_id" jsonschema:"choice the task was derived from"`
	Interpretation      string   `json:"interpretation" jsonschema:"how the choice was read"`
	Objective           string   `json:"objective" jsonschema:"what the player must achieve"`
	ApproachSummary     string   `json:"approach_summary,omitempty" jsonschema:"suggested approach"`
	Constraints         []string `json:"constraints,omitempty" jsonschema:"constraints on the attempt"`
	SuccessCriteria     []string `json:"success_criteria,omitempty" jsonschema:"what counts as success"`
	EstimatedDifficulty string   `json:"estimated_difficulty" jsonschema:"qualitative difficulty estimate"`
	Sealed              bool     `json:"sealed" jsonschema:"whether the task accepts further solutions"`
}

func taskResult(task domain.TaskDefinition) TaskResult {
	return TaskResult{
		ID:                  task.ID,
		EventSessionID:      task.EventSessionID,
		ChoiceID:            task.ChoiceID,
		Interpretation:      task.Interpretation,
		Objective:           task.Objective,
		ApproachSummary:     task.Approach.Summary,
		Constraints:         task.Constraints,
		SuccessCriteria:     task.SuccessCriteria,
		EstimatedDifficulty: string(task.EstimatedDifficulty),
		Sealed:              task.Sealed,
	}
}

// ChoiceSubmitTool describes the choice_submit tool.
func ChoiceSubmitTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "choice_submit",
		Description: "Submits the player's chosen option. The engine interprets it into a concrete task and waits for a solution.",
	}
}

// ChoiceSubmitHandler executes a choice submission.
func ChoiceSubmitHandler(engine *service.Engine) mcp.ToolHandlerFor[ChoiceSubmitInput, TaskResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ChoiceSubmitInput) (*mcp.CallToolResult, TaskResult, error) {
		task, err := engine.SubmitChoice(ctx, service.SubmitChoiceInput{
			EventSessionID: input.EventSessionID,
			ChoiceID:       input.ChoiceID,
			Character:      toCharacter(input.Character),
			Context:        toContext(input.Context),
		})
		if err != nil {
			return nil, TaskResult{}, err
		}
		return nil, taskResult(task), nil
	}
}

// SolutionSubmitInput represents the MCP tool input for a player solution.
type SolutionSubmitInput struct {
	EventSessionID string         `json:"event_session_id" jsonschema:"event session identifier"`
	TaskID         string         `json:"task_id" jsonschema:"task identifier"`
	Solution       string         `json:"solution" jsonschema:"the player's free-text solution"`
	Character      CharacterInput `json:"character,omitempty" jsonschema:"character context for evaluation"`
	Context        SceneInput     `json:"context,omitempty" jsonschema:"narrative context for evaluation"`
}

// DifficultyResult is the MCP view of derived difficulty settings.
type DifficultyResult struct {
	BaseTargetNumber int    `json:"base_target_number" jsonschema:"base target from the difficulty label"`
	TargetNumber     int    `json:"target_number" jsonschema:"realized target including modifiers"`
	RollType         string `json:"roll_type" jsonschema:"die to roll"`
	CriticalSuccess  int    `json:"critical_success" jsonschema:"raw roll that counts as a critical success"`
	CriticalFailure  int    `json:"critical_failure" jsonschema:"raw roll that counts as a critical failure"`
	MaxRetries       int    `json:"max_retries" jsonschema:"retry limit"`
}

// SolutionSubmitTool describes the solution_submit tool.
func SolutionSubmitTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "solution_submit",
		Description: "Submits the player's solution for grading. Returns the numeric difficulty the roll must beat. Also used to resume after a failed attempt.",
	}
}

// SolutionSubmitHandler executes a solution submission.
func SolutionSubmitHandler(engine *service.Engine) mcp.ToolHandlerFor[SolutionSubmitInput, DifficultyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SolutionSubmitInput) (*mcp.CallToolResult, DifficultyResult, error) {
		settings, err := engine.SubmitSolution(ctx, service.SubmitSolutionInput{
			EventSessionID: input.EventSessionID,
			TaskID:         input.TaskID,
			Solution:       input.Solution,
			Character:      toCharacter(input.Character),
			Context:        toContext(input.Context),
		})
		if err != nil {
			return nil, DifficultyResult{}, err
		}
		return nil, DifficultyResult{
			BaseTargetNumber: settings.BaseTargetNumber,
			TargetNumber:     settings.TargetNumber(),
			RollType:         string(settings.RollType),
			CriticalSuccess:  settings.CriticalSuccess,
			CriticalFailure:  settings.CriticalFailure,
			MaxRetries:       settings.MaxRetries,
		}, nil
	}
}

// RollInput is a caller-supplied dice roll.
type RollInput struct {
	DiceType    string `json:"dice_type" jsonschema:"die notation, e.g. d20"`
	RawRoll     int    `json:"raw_roll" jsonschema:"unmodified face rolled"`
	Modifier    int    `json:"modifier" jsonschema:"modifier applied to the roll"`
	TotalResult int    `json:"total_result" jsonschema:"raw roll plus modifier"`
}

// RollSubmitInput represents the MCP tool input for resolving a roll.
type RollSubmitInput struct {
	EventSessionID string         `json:"event_session_id" jsonschema:"event session identifier"`
	TaskID         string         `json:"task_id" jsonschema:"task identifier"`
	Roll           RollInput      `json:"roll" jsonschema:"the dice roll to resolve"`
	Character      CharacterInput `json:"character,omitempty" jsonschema:"character context for narration"`
	Context        SceneInput     `json:"context,omitempty" jsonschema:"narrative context for narration"`
}

// PenaltyResult is the MCP view of an applied penalty.
type PenaltyResult struct {
	ID          string `json:"id" jsonschema:"penalty identifier"`
	Type        string `json:"type" jsonschema:"penalty type"`
	Amount      int    `json:"amount" jsonschema:"penalty amount"`
	Description string `json:"description" jsonschema:"penalty description"`
	Severity    string `json:"severity" jsonschema:"penalty severity"`
	Reversible  bool   `json:"reversible" jsonschema:"whether the penalty may later be cleared externally"`
}

// RollSubmitResult is the MCP view of an attempt outcome.
type RollSubmitResult struct {
	Success          bool            `json:"success" jsonschema:"whether the attempt met the target"`
	FinalScore       int             `json:"final_score" jsonschema:"modified roll total"`
	TargetNumber     int             `json:"target_number" jsonschema:"realized target number"`
	CriticalType     string          `json:"critical_type,omitempty" jsonschema:"success, failure, or empty"`
	Narrative        string          `json:"narrative,omitempty" jsonschema:"narration of the outcome"`
	ExperienceGained int             `json:"experience_gained" jsonschema:"experience awarded for this attempt"`
	Penalties        []PenaltyResult `json:"penalties,omitempty" jsonschema:"penalties applied by this attempt"`
	SessionState     string          `json:"session_state" jsonschema:"session state after the attempt"`
}

// RollSubmitTool describes the roll_submit tool.
func RollSubmitTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "roll_submit",
		Description: "Resolves the player's dice roll against the task difficulty, narrates the outcome, and applies penalties on failure.",
	}
}

// RollSubmitHandler executes a roll submission.
func RollSubmitHandler(engine *service.Engine) mcp.ToolHandlerFor[RollSubmitInput, RollSubmitResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollSubmitInput) (*mcp.CallToolResult, RollSubmitResult, error) {
		result, err := engine.SubmitRoll(ctx, service.SubmitRollInput{
			EventSessionID: input.EventSessionID,
			TaskID:         input.TaskID,
			Roll: domain.DiceRollResult{
				DiceType:    domain.DiceType(input.Roll.DiceType),
				RawRoll:     input.Roll.RawRoll,
				Modifier:    input.Roll.Modifier,
				TotalResult: input.Roll.TotalResult,
			},
			Character: toCharacter(input.Character),
			Context:   toContext(input.Context),
		})
		if err != nil {
			return nil, RollSubmitResult{}, err
		}

		session, err := engine.GetSession(ctx, input.EventSessionID)
		if err != nil {
			return nil, RollSubmitResult{}, err
		}

		out := RollSubmitResult{
			Success:          result.Success,
			FinalScore:       result.FinalScore,
			TargetNumber:     result.TargetNumber,
			CriticalType:     string(result.CriticalType),
			Narrative:        result.Narrative,
			ExperienceGained: result.ExperienceGained,
			SessionState:     string(session.State),
		}
		for _, penalty := range result.Penalties {
			out.Penalties = append(out.Penalties, PenaltyResult{
				ID:          penalty.ID,
				Type:        string(penalty.Type),
				Amount:      penalty.Amount,
				Description: penalty.Description,
				Severity:    string(penalty.Severity),
				Reversible:  penalty.Reversible,
			})
		}
		return nil, out, nil
	}
}

// RetryOptionsInput represents the MCP tool input for listing retry options.
type RetryOptionsInput struct {
	EventSessionID string         `json:"event_session_id" jsonschema:"event session identifier"`
	Character      CharacterInput `json:"character,omitempty" jsonschema:"character whose skills gate bonus options"`
}

// RetryOptionResult is one advisory retry option.
type RetryOptionResult struct {
	ID                string   `json:"id" jsonschema:"option identifier"`
	Description       string   `json:"description" jsonschema:"what the option offers"`
	PenaltyReduction  float64  `json:"penalty_reduction" jsonschema:"fraction of penalties avoided"`
	CostModifier      float64  `json:"cost_modifier" jsonschema:"relative cost of the option"`
	AvailableAttempts int      `json:"available_attempts" jsonschema:"attempts remaining"`
	Requirements      []string `json:"requirements,omitempty" jsonschema:"skill requirements the character met"`
}

// RetryOptionsResult is the MCP tool output for retry options.
type RetryOptionsResult struct {
	Options []RetryOptionResult `json:"options" jsonschema:"advisory retry options"`
}

// RetryOptionsTool describes the retry_options tool.
func RetryOptionsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "retry_options",
		Description: "Lists retry options after a failed attempt. Advisory only; resume by calling solution_submit again.",
	}
}

// RetryOptionsHandler lists retry options for a waiting session.
func RetryOptionsHandler(engine *service.Engine) mcp.ToolHandlerFor[RetryOptionsInput, RetryOptionsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RetryOptionsInput) (*mcp.CallToolResult, RetryOptionsResult, error) {
		options, err := engine.RetryOptions(ctx, input.EventSessionID, toCharacter(input.Character))
		if err != nil {
			return nil, RetryOptionsResult{}, err
		}
		result := RetryOptionsResult{}
		for _, option := range options {
			result.Options = append(result.Options, RetryOptionResult{
				ID:                option.ID,
				Description:       option.Description,
				PenaltyReduction:  option.PenaltyReduction,
				CostModifier:      option.CostModifier,
				AvailableAttempts: option.AvailableAttempts,
				Requirements:      option.Requirements,
			})
		}
		return nil, result, nil
	}
}

// ChallengeGetInput represents the MCP tool input for reading a session.
type ChallengeGetInput struct {
	EventSessionID string `json:"event_session_id" jsonschema:"event session identifier"`
}

// ChallengeGetTool describes the challenge_get tool.
func ChallengeGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "challenge_get",
		Description: "Returns the current state of an event session.",
	}
}

// ChallengeGetHandler reads one event session.
func ChallengeGetHandler(engine *service.Engine) mcp.ToolHandlerFor[ChallengeGetInput, SessionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ChallengeGetInput) (*mcp.CallToolResult, SessionResult, error) {
		session, err := engine.GetSession(ctx, input.EventSessionID)
		if err != nil {
			return nil, SessionResult{}, err
		}
		return nil, sessionResult(session), nil
	}
}

// ChallengeHistoryInput represents the MCP tool input for reading a timeline.
type ChallengeHistoryInput struct {
	EventSessionID string `json:"event_session_id" jsonschema:"event session identifier"`
}

// StepResult is the MCP view of one timeline step.
type StepResult struct {
	Seq         uint64 `json:"seq" jsonschema:"position in the timeline"`
	Kind        string `json:"kind" jsonschema:"step kind"`
	Timestamp   string `json:"timestamp" jsonschema:"RFC3339 timestamp"`
	AIResponse  string `json:"ai_response,omitempty" jsonschema:"collaborator response text"`
	PlayerInput string `json:"player_input,omitempty" jsonschema:"player input recorded on the step"`
	DurationMS  int64  `json:"duration_ms,omitempty" jsonschema:"collaborator call duration in milliseconds"`
}

// ChallengeHistoryResult is the MCP tool output for a session timeline.
type ChallengeHistoryResult struct {
	Steps []StepResult `json:"steps" jsonschema:"timeline steps in order"`
}

// ChallengeHistoryTool describes the challenge_history tool.
func ChallengeHistoryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "challenge_history",
		Description: "Returns the append-only step timeline of an event session.",
	}
}

// ChallengeHistoryHandler reads a session's step timeline.
func ChallengeHistoryHandler(engine *service.Engine) mcp.ToolHandlerFor[ChallengeHistoryInput, ChallengeHistoryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ChallengeHistoryInput) (*mcp.CallToolResult, ChallengeHistoryResult, error) {
		steps, err := engine.History(ctx, input.EventSessionID)
		if err != nil {
			return nil, ChallengeHistoryResult{}, err
		}
		result := ChallengeHistoryResult{}
		for _, step := range steps {
			result.Steps = append(result.Steps, StepResult{
				Seq:         step.Seq,
				Kind:        string(step.Kind),
				Timestamp:   step.Timestamp.Format(time.RFC3339),
				AIResponse:  step.AIResponse,
				PlayerInput: step.PlayerInput,
				DurationMS:  step.Duration.Milliseconds(),
			})
		}
		return nil, result, nil
	}
}
