package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/louisbranch/crucible/internal/challenge/domain"
)

// OpenAIConfig configures the OpenAI chat-completions endpoint and HTTP
// behavior.
type OpenAIConfig struct {
	APIKey         string
	CompletionsURL string
	Model          string
	HTTPClient     *http.Client
}

type openAIService struct {
	cfg OpenAIConfig
}

// NewOpenAIService builds a reasoning service backed by the OpenAI
// chat-completions API over plain HTTP.
func NewOpenAIService(cfg OpenAIConfig) Service {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.CompletionsURL) == "" {
		cfg.CompletionsURL = "https://api.openai.com/v1/chat/completions"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &openAIService{cfg: cfg}
}

const interpretSystemPrompt = `You are the game master's assistant for a tabletop RPG interactive challenge.
Turn the player's chosen option into a concrete task. Respond with a single JSON object:
{"interpretation": string, "objective": string, "approach": {"summary": string, "steps": [string]},
"constraints": [string], "success_criteria": [string],
"estimated_difficulty": one of "trivial","easy","medium","hard","extreme"}.
Respond with JSON only, no prose.`

const evaluateSystemPrompt = `You are the game master's assistant for a tabletop RPG interactive challenge.
Grade the player's proposed solution for feasibility, creativity, and risk. Respond with a single JSON object:
{"final_difficulty": one of "trivial","easy","medium","hard","extreme",
"modifiers": [{"label": string, "value": integer}], "reasoning": string}.
Respond with JSON only, no prose.`

const narrateSystemPrompt = `You are the game master's assistant for a tabletop RPG interactive challenge.
Write a short narrative paragraph describing the outcome of the player's attempt.
Match the campaign tone. Respond with the narrative text only.`

// InterpretChoice asks the reasoner to turn a choice into a concrete task.
func (s *openAIService) InterpretChoice(ctx context.Context, input InterpretChoiceInput) (Interpretation, error) {
	payload := map[string]any{
		"choice":    input.Choice,
		"character": input.Character,
		"context":   input.Context,
	}
	content, err := s.complete(ctx, interpretSystemPrompt, payload)
	if err != nil {
		return Interpretation{}, CallError(OpInterpretChoice, err)
	}

	var interpretation Interpretation
	if err := decodeStrict(content, &interpretation); err != nil {
		return Interpretation{}, CallError(OpInterpretChoice, err)
	}
	if strings.TrimSpace(interpretation.Interpretation) == "" {
		return Interpretation{}, CallError(OpInterpretChoice, fmt.Errorf("interpretation text is empty"))
	}
	if strings.TrimSpace(interpretation.Objective) == "" {
		return Interpretation{}, CallError(OpInterpretChoice, fmt.Errorf("objective is empty"))
	}
	return interpretation, nil
}

// EvaluateSolution asks the reasoner to grade a player solution.
func (s *openAIService) EvaluateSolution(ctx context.Context, input EvaluateSolutionInput) (domain.TaskEvaluation, error) {
	payload := map[string]any{
		"solution":  input.Solution,
		"character": input.Character,
		"context":   input.Context,
		"task": map[string]any{
			"interpretation":       input.Task.Interpretation,
			"objective":            input.Task.Objective,
			"constraints":          input.Task.Constraints,
			"success_criteria":     input.Task.SuccessCriteria,
			"estimated_difficulty": input.Task.EstimatedDifficulty,
		},
	}
	content, err := s.complete(ctx, evaluateSystemPrompt, payload)
	if err != nil {
		return domain.TaskEvaluation{}, CallError(OpEvaluateSolution, err)
	}

	var evaluation domain.TaskEvaluation
	if err := decodeStrict(content, &evaluation); err != nil {
		return domain.TaskEvaluation{}, CallError(OpEvaluateSolution, err)
	}
	if evaluation.FinalDifficulty == "" {
		return domain.TaskEvaluation{}, CallError(OpEvaluateSolution, fmt.Errorf("final_difficulty is missing"))
	}
	return evaluation, nil
}

// NarrateResult asks the reasoner for outcome narration.
func (s *openAIService) NarrateResult(ctx context.Context, input NarrateResultInput) (string, error) {
	payload := map[string]any{
		"objective": input.Task.Objective,
		"character": input.Character,
		"context":   input.Context,
		"attempt":   input.Session.Metadata.CurrentAttempt,
	}
	if input.Roll != nil {
		payload["roll"] = input.Roll
	}
	if input.Success != nil {
		payload["success"] = *input.Success
	}
	content, err := s.complete(ctx, narrateSystemPrompt, payload)
	if err != nil {
		return "", CallError(OpNarrateResult, err)
	}
	narrative := strings.TrimSpace(content)
	if narrative == "" {
		return "", CallError(OpNarrateResult, fmt.Errorf("narrative is empty"))
	}
	return narrative, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete performs one chat-completions round trip and returns the first
// choice's content.
func (s *openAIService) complete(ctx context.Context, systemPrompt string, payload map[string]any) (string, error) {
	userContent, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request payload: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(userContent)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.CompletionsURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call completions endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completions endpoint returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// decodeStrict parses model output as a single JSON object. There is no
// fallback value on parse failure: an unparseable shape is a collaborator
// error, never a silent default.
func decodeStrict(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	// Models occasionally wrap JSON in a markdown fence despite instructions.
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	decoder := json.NewDecoder(strings.NewReader(trimmed))
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}
