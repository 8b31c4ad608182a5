package game

import (
	"github.com/quizclash/quizclash-backend/internal"
)

// ComputeFinalResult derives the match outcome from the accumulated scores:
// higher cumulative score wins, equal scores draw. Scores are the arithmetic
// sum of the grader's per-round scores, never recomputed here. Caller holds
// the session lock.
func ComputeFinalResult(session *internal.GameSession) *internal.FinalResult {
	scores := make(map[string]int, len(session.Scores))
	for playerId, score := range session.Scores {
		scores[playerId] = score
	}

	result := &internal.FinalResult{Scores: scores}

	p1, p2 := session.Player1Id, session.Player2Id
	switch {
	case scores[p1] > scores[p2]:
		result.WinnerId = p1
	case scores[p2] > scores[p1]:
		result.WinnerId = p2
	default:
		result.IsDraw = true
	}
	return result
}
