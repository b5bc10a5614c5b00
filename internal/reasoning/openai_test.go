package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/louisbranch/crucible/internal/challenge/domain"
	apperrors "github.com/louisbranch/crucible/internal/errors"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected bearer auth header, got %q", r.Header.Get("Authorization"))
		}
		response := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
}

func newTestService(url string) Service {
	return NewOpenAIService(OpenAIConfig{
		APIKey:         "test-key",
		CompletionsURL: url,
		Model:          "test-model",
	})
}

func TestInterpretChoiceParsesShape(t *testing.T) {
	server := chatServer(t, `{
		"interpretation": "Sneak past the guards through the drainage tunnel.",
		"objective": "Reach the vault unseen.",
		"approach": {"summary": "stealth", "steps": ["find tunnel", "avoid patrols"]},
		"constraints": ["no casualties"],
		"success_criteria": ["vault reached"],
		"estimated_difficulty": "hard"
	}`)
	defer server.Close()

	interpretation, err := newTestService(server.URL).InterpretChoice(context.Background(), InterpretChoiceInput{
		Choice: domain.Choice{ID: "sneak", Label: "Sneak in"},
	})
	if err != nil {
		t.Fatalf("interpret choice: %v", err)
	}
	if interpretation.Objective != "Reach the vault unseen." {
		t.Fatalf("unexpected objective %q", interpretation.Objective)
	}
	if interpretation.EstimatedDifficulty != domain.DifficultyHard {
		t.Fatalf("expected hard, got %s", interpretation.EstimatedDifficulty)
	}
	if len(interpretation.Approach.Steps) != 2 {
		t.Fatalf("expected 2 approach steps, got %d", len(interpretation.Approach.Steps))
	}
}

func TestInterpretChoiceRejectsEmptyShape(t *testing.T) {
	server := chatServer(t, `{"interpretation": "", "objective": "x", "estimated_difficulty": "easy"}`)
	defer server.Close()

	_, err := newTestService(server.URL).InterpretChoice(context.Background(), InterpretChoiceInput{})
	if !errors.Is(err, ErrCallFailed) {
		t.Fatalf("expected collaborator error, got %v", err)
	}
	if apperrors.GetMetadata(err)["operation"] != OpInterpretChoice {
		t.Fatalf("expected operation metadata, got %v", apperrors.GetMetadata(err))
	}
}

func TestEvaluateSolutionParsesShape(t *testing.T) {
	server := chatServer(t, `{
		"final_difficulty": "medium",
		"modifiers": [{"label": "clever plan", "value": -2}],
		"reasoning": "Feasible but risky."
	}`)
	defer server.Close()

	evaluation, err := newTestService(server.URL).EvaluateSolution(context.Background(), EvaluateSolutionInput{
		Solution: "I bribe the guard with the captain's ring.",
	})
	if err != nil {
		t.Fatalf("evaluate solution: %v", err)
	}
	if evaluation.FinalDifficulty != domain.DifficultyMedium {
		t.Fatalf("expected medium, got %s", evaluation.FinalDifficulty)
	}
	if len(evaluation.Modifiers) != 1 || evaluation.Modifiers[0].Value != -2 {
		t.Fatalf("unexpected modifiers %+v", evaluation.Modifiers)
	}
}

func TestEvaluateSolutionRejectsUnparseableOutput(t *testing.T) {
	server := chatServer(t, `The solution seems reasonable to me.`)
	defer server.Close()

	_, err := newTestService(server.URL).EvaluateSolution(context.Background(), EvaluateSolutionInput{})
	if !errors.Is(err, ErrCallFailed) {
		t.Fatalf("expected collaborator error, got %v", err)
	}
	if apperrors.GetMetadata(err)["operation"] != OpEvaluateSolution {
		t.Fatalf("expected operation metadata, got %v", apperrors.GetMetadata(err))
	}
}

func TestEvaluateSolutionAcceptsFencedJSON(t *testing.T) {
	server := chatServer(t, "```json\n{\"final_difficulty\": \"easy\", \"modifiers\": [], \"reasoning\": \"ok\"}\n```")
	defer server.Close()

	evaluation, err := newTestService(server.URL).EvaluateSolution(context.Background(), EvaluateSolutionInput{})
	if err != nil {
		t.Fatalf("evaluate solution: %v", err)
	}
	if evaluation.FinalDifficulty != domain.DifficultyEasy {
		t.Fatalf("expected easy, got %s", evaluation.FinalDifficulty)
	}
}

func TestNarrateResultReturnsText(t *testing.T) {
	server := chatServer(t, "The lock gives way with a soft click, and the vault yawns open.")
	defer server.Close()

	success := true
	narrative, err := newTestService(server.URL).NarrateResult(context.Background(), NarrateResultInput{
		Success: &success,
	})
	if err != nil {
		t.Fatalf("narrate result: %v", err)
	}
	if narrative == "" {
		t.Fatal("expected non-empty narrative")
	}
}

func TestCallFailuresCarryOperation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestService(server.URL).NarrateResult(context.Background(), NarrateResultInput{})
	if !errors.Is(err, ErrCallFailed) {
		t.Fatalf("expected collaborator error, got %v", err)
	}
	if apperrors.GetMetadata(err)["operation"] != OpNarrateResult {
		t.Fatalf("expected operation metadata, got %v", apperrors.GetMetadata(err))
	}
}
