package game

import (
	"context"
	"log"
	"time"

	"github.com/quizclash/quizclash-backend/internal"
	"github.com/quizclash/quizclash-backend/internal/utils"
)

// =============================================================================
// GRADING SERVICE
// =============================================================================

const (
	ScoreCorrect   = 10
	ScorePartial   = 5
	ScoreIncorrect = 0
)

// EvalResult is what an external evaluator returns for one answer.
type EvalResult struct {
	Status   internal.AnswerStatus `json:"status"`
	Score    int                   `json:"score"`
	Feedback string                `json:"feedback"`
}

// Evaluator grades one open-ended answer against a question. A transient
// failure must not take a round down; the grader falls back to local
// heuristics on any error.
type Evaluator interface {
	Evaluate(ctx context.Context, question *internal.Question, answer string) (*EvalResult, error)
}

type Grader struct {
	evaluator Evaluator // nil means open-ended answers are graded locally
	timeout   time.Duration
}

func NewGrader(evaluator Evaluator, timeout time.Duration) *Grader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Grader{evaluator: evaluator, timeout: timeout}
}

// Grade produces exactly one grade per player id, in the order given, using
// whichever submissions exist. A missing or empty answer is graded as
// incorrect with zero score; a malformed one never fails the whole batch.
func (g *Grader) Grade(ctx context.Context, question *internal.Question, playerIds []string, submissions map[string]*internal.Submission) []internal.Grade {
	grades := make([]internal.Grade, 0, len(playerIds))

	for _, playerId := range playerIds {
		sub := submissions[playerId]
		if sub == nil || utils.NormalizeAnswer(sub.Answer) == "" {
			grades = append(grades, internal.Grade{
				PlayerId: playerId,
				Answer:   "",
				Status:   internal.StatusIncorrect,
				Correct:  false,
				Score:    ScoreIncorrect,
				Feedback: "No answer was submitted in time.",
			})
			continue
		}

		grades = append(grades, g.gradeOne(ctx, question, playerId, sub.Answer))
	}
	return grades
}

func (g *Grader) gradeOne(ctx context.Context, question *internal.Question, playerId, answer string) internal.Grade {
	var result EvalResult

	switch question.Type {
	case internal.QuestionChoice, internal.QuestionOX, internal.QuestionShort:
		// Objective types are graded locally and deterministically.
		result = gradeObjective(question, answer)
	default:
		result = g.gradeOpenEnded(ctx, question, answer)
	}

	return internal.Grade{
		PlayerId: playerId,
		Answer:   answer,
		Status:   result.Status,
		Correct:  result.Status == internal.StatusCorrect,
		Score:    result.Score,
		Feedback: result.Feedback,
	}
}

func gradeObjective(question *internal.Question, answer string) EvalResult {
	got := utils.NormalizeAnswer(answer)
	want := utils.NormalizeAnswer(question.BestAnswer)

	if got == want {
		return EvalResult{
			Status:   internal.StatusCorrect,
			Score:    ScoreCorrect,
			Feedback: "Correct answer.",
		}
	}

	// Short answers earn partial credit when they cover the expected answer
	// but phrase it more loosely.
	if question.Type == internal.QuestionShort && want != "" {
		if overlap := utils.KeywordOverlap(want, got); overlap >= 0.5 {
			return EvalResult{
				Status:   internal.StatusPartial,
				Score:    ScorePartial,
				Feedback: "Partially correct: some expected keywords are missing.",
			}
		}
	}

	return EvalResult{
		Status:   internal.StatusIncorrect,
		Score:    ScoreIncorrect,
		Feedback: "Incorrect answer.",
	}
}

// gradeOpenEnded consults the external evaluator with a bounded timeout and
// degrades to the local heuristic on any failure. The round must never stall
// past its already-armed deadline waiting on grading.
func (g *Grader) gradeOpenEnded(ctx context.Context, question *internal.Question, answer string) EvalResult {
	if g.evaluator != nil {
		evalCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		result, err := g.evaluator.Evaluate(evalCtx, question, answer)
		if err == nil && result != nil && validStatus(result.Status) {
			result.Score = clampScore(result.Score)
			return *result
		}
		log.Printf("[gradeOpenEnded] question=%d: evaluator failed (%v), falling back to local grading",
			question.Id, err)
	}

	return gradeHeuristic(question, answer)
}

// gradeHeuristic scores an open-ended answer by keyword coverage of the best
// answer. Conservative on purpose: it is the degraded path.
func gradeHeuristic(question *internal.Question, answer string) EvalResult {
	overlap := utils.KeywordOverlap(
		utils.NormalizeAnswer(question.BestAnswer),
		utils.NormalizeAnswer(answer),
	)

	switch {
	case overlap >= 0.8:
		return EvalResult{
			Status:   internal.StatusCorrect,
			Score:    ScoreCorrect,
			Feedback: "Your answer covers the expected key points.",
		}
	case overlap >= 0.4:
		return EvalResult{
			Status:   internal.StatusPartial,
			Score:    ScorePartial,
			Feedback: "Your answer covers some of the expected key points.",
		}
	default:
		return EvalResult{
			Status:   internal.StatusIncorrect,
			Score:    ScoreIncorrect,
			Feedback: "Your answer does not cover the expected key points.",
		}
	}
}

func validStatus(status internal.AnswerStatus) bool {
	switch status {
	case internal.StatusCorrect, internal.StatusPartial, internal.StatusIncorrect:
		return true
	}
	return false
}

func clampScore(score int) int {
	if score < ScoreIncorrect {
		return ScoreIncorrect
	}
	if score > ScoreCorrect {
		return ScoreCorrect
	}
	return score
}
