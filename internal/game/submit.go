package game

import (
	"log"
	"time"

	"github.com/quizclash/quizclash-backend/internal"
	"github.com/quizclash/quizclash-backend/internal/utils"
)

// =============================================================================
// SUBMISSION HANDLING
// =============================================================================

// HandleSubmitAnswer records a player's answer for the active round. Accepted
// exactly once per player per round; duplicates and late submissions are
// rejected without touching state. When the second answer lands the round
// closes immediately instead of waiting for the deadline.
func (e *Engine) HandleSubmitAnswer(roomId, playerId, answer string) error {
	// A blank answer is rejected rather than recorded: the player keeps the
	// chance to submit a real one before the deadline.
	if utils.NormalizeAnswer(answer) == "" {
		return ErrEmptyAnswer
	}

	session, err := e.sessions.Get(roomId)
	if err != nil {
		return err
	}

	session.Mu.Lock()

	if !session.HasPlayer(playerId) {
		session.Mu.Unlock()
		return ErrNotInRoom
	}
	if session.Phase == internal.PhaseFinished {
		session.Mu.Unlock()
		return ErrMatchFinished
	}
	if session.Phase != internal.PhaseQuestion {
		session.Mu.Unlock()
		return ErrRoundNotActive
	}

	round := session.ActiveRound()
	if round == nil || round.Status != internal.RoundActive {
		session.Mu.Unlock()
		return ErrRoundNotActive
	}
	if _, dup := round.Submissions[playerId]; dup {
		session.Mu.Unlock()
		return ErrAlreadySubmitted
	}

	round.Submissions[playerId] = &internal.Submission{
		PlayerId:    playerId,
		Answer:      answer,
		SubmittedAt: time.Now(),
	}
	bothIn := round.BothSubmitted()
	roundNo := round.Number

	session.Mu.Unlock()

	log.Printf("[HandleSubmitAnswer] room=%s player=%s: answer recorded for round %d (bothIn=%t)",
		roomId, playerId, roundNo, bothIn)

	if bothIn {
		// Close asynchronously so the websocket reader is not blocked on
		// grading. The deadline race is resolved inside closeRound.
		go e.closeRound(roomId, roundNo, "both-submitted")
	}
	return nil
}
