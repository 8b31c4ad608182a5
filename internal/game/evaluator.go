package game

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quizclash/quizclash-backend/internal"
)

// =============================================================================
// REMOTE ANSWER EVALUATOR
// =============================================================================

// HTTPEvaluator calls the external text-grading service. It is the only
// network collaborator of the grading pipeline; callers (the Grader) treat
// every error as a signal to fall back to local grading.
type HTTPEvaluator struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPEvaluator(baseURL, token string) *HTTPEvaluator {
	return &HTTPEvaluator{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type evaluateRequest struct {
	Question   string `json:"question"`
	BestAnswer string `json:"best_answer"`
	Answer     string `json:"answer"`
}

// Evaluate posts (question context, answer text) and returns the evaluator's
// correctness/score/feedback triple.
func (e *HTTPEvaluator) Evaluate(ctx context.Context, question *internal.Question, answer string) (*EvalResult, error) {
	url := fmt.Sprintf("%s/v1/evaluate", e.BaseURL)

	reqBody := evaluateRequest{
		Question:   question.Content,
		BestAnswer: question.BestAnswer,
		Answer:     answer,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.Token != "" {
		req.Header.Set("Authorization", "Bearer "+e.Token)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("evaluator returned %d: %s", resp.StatusCode, string(body))
	}

	var out EvalResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
