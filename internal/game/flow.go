package game

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/quizclash/quizclash-backend/internal"
)

// =============================================================================
// GAME FLOW - PHASE TRANSITIONS
// =============================================================================

type Config struct {
	ReadyDuration    time.Duration
	QuestionDuration time.Duration
	ReviewDuration   time.Duration
	GradingTimeout   time.Duration
	PersistTimeout   time.Duration
	TotalRounds      int
	CategoryIds      []int64
}

func DefaultConfig() Config {
	return Config{
		ReadyDuration:    internal.ReadyPhaseDuration,
		QuestionDuration: internal.QuestionPhaseDuration,
		ReviewDuration:   internal.ReviewPhaseDuration,
		GradingTimeout:   10 * time.Second,
		PersistTimeout:   10 * time.Second,
		TotalRounds:      internal.TotalRoundsPerMatch,
	}
}

// MatchPersister writes a finished match durably. Implemented by
// MatchPersistence; nil when no database is configured.
type MatchPersister interface {
	SaveMatch(ctx context.Context, roomId string, result *internal.FinalResult) error
}

// Engine drives every room's phase transitions. All mutations of one room
// are serialized on the session mutex; rooms progress independently. Timer
// callbacks re-enter the engine by room id only.
type Engine struct {
	cfg       Config
	sessions  *SessionRegistry
	timers    *TimerRegistry
	store     *QuestionStore
	grader    *Grader
	persister MatchPersister
}

func NewEngine(cfg Config, sessions *SessionRegistry, timers *TimerRegistry, store *QuestionStore, grader *Grader, persister MatchPersister) *Engine {
	return &Engine{
		cfg:       cfg,
		sessions:  sessions,
		timers:    timers,
		store:     store,
		grader:    grader,
		persister: persister,
	}
}

func (e *Engine) Sessions() *SessionRegistry { return e.sessions }
func (e *Engine) Timers() *TimerRegistry { return e.timers }

// startReady moves lobby -> ready once both players are present and arms the
// countdown that opens the first question.
func (e *Engine) startReady(roomId string) {
	session, err := e.sessions.Get(roomId)
	if err != nil {
		return
	}

	session.Mu.Lock()
	if session.Phase != internal.PhaseLobby {
		session.Mu.Unlock()
		return
	}
	session.Phase = internal.PhaseReady
	session.PhaseStartedAt = time.Now()
	roundIndex := session.CurrentRound
	totalRounds := session.TotalRounds
	session.Mu.Unlock()

	log.Printf("[startReady] room=%s: both players present, countdown %v", roomId, e.cfg.ReadyDuration)

	e.broadcastToRoom(roomId, internal.Message[internal.RoundReadyData]{
		Type: internal.EventRoundReady,
		Data: internal.RoundReadyData{
			DurationSeconds: int(e.cfg.ReadyDuration / time.Second),
			RoundIndex:      roundIndex,
			TotalRounds:     totalRounds,
		},
	})

	e.timers.ScheduleOnce(roomId, SlotReady, e.cfg.ReadyDuration, func() {
		e.startQuestion(roomId)
	})
}

// startQuestion assigns the next unseen question, opens the submission
// window, and arms the deadline timer plus the informational tick stream.
// Entered from ready expiry and from review expiry.
func (e *Engine) startQuestion(roomId string) {
	session, err := e.sessions.Get(roomId)
	if err != nil {
		return
	}

	session.Mu.Lock()
	if session.Phase != internal.PhaseReady && session.Phase != internal.PhaseReview {
		session.Mu.Unlock()
		return
	}
	roundNo := session.CurrentRound
	categoryIds := append([]int64(nil), session.CategoryIds...)
	session.Mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	question, err := e.store.NextQuestion(ctx, roomId, categoryIds)
	cancel()
	if err != nil {
		if errors.Is(err, ErrQuestionsExhausted) {
			log.Printf("[startQuestion] room=%s: question pool exhausted, ending match early", roomId)
		} else {
			log.Printf("[startQuestion] room=%s: question store failed: %v, ending match early", roomId, err)
		}
		e.finishMatch(roomId, "")
		return
	}

	// The store call was a suspension point: the session may have been torn
	// down while we waited, and the room id may already belong to a fresh
	// lobby. Only the exact session this flow started from may proceed.
	before := session
	session, err = e.sessions.Get(roomId)
	if err != nil || session != before {
		return
	}

	session.Mu.Lock()
	if session.Phase == internal.PhaseFinished || session.CurrentRound != roundNo {
		session.Mu.Unlock()
		return
	}
	session.Rounds[roundNo] = &internal.Round{
		Number:      roundNo,
		Question:    question,
		Status:      internal.RoundActive,
		Submissions: make(map[string]*internal.Submission),
	}
	session.Phase = internal.PhaseQuestion
	session.PhaseStartedAt = time.Now()
	session.Mu.Unlock()

	log.Printf("[startQuestion] room=%s: round %d opened (question=%d, deadline %v)",
		roomId, roundNo, question.Id, e.cfg.QuestionDuration)

	e.broadcastToRoom(roomId, internal.Message[internal.RoundStartData]{
		Type: internal.EventRoundStart,
		Data: internal.RoundStartData{
			DurationSeconds: int(e.cfg.QuestionDuration / time.Second),
			Question: internal.QuestionData{
				Topic:      question.Topic,
				Difficulty: question.Difficulty,
				Type:       string(question.Type),
				Content:    question.Content,
			},
		},
	})

	e.timers.ScheduleOnce(roomId, SlotQuestion, e.cfg.QuestionDuration, func() {
		log.Printf("[startQuestion] room=%s: round %d deadline fired", roomId, roundNo)
		e.closeRound(roomId, roundNo, "deadline")
	})

	// Tick is purely informational; the deadline timer above is authoritative.
	e.timers.ScheduleTick(roomId, e.cfg.QuestionDuration, func(remaining int) {
		e.broadcastToRoom(roomId, internal.Message[internal.RoundTickData]{
			Type: internal.EventRoundTick,
			Data: internal.RoundTickData{RemainingSeconds: remaining},
		})
	})
}

// closeRound ends the active round, grades whatever submissions exist, and
// moves the room into review. It is triggered by both-players-submitted and
// by the deadline timer; the status check makes the race idempotent, so the
// loser of the race is a no-op.
func (e *Engine) closeRound(roomId string, roundNo int, trigger string) {
	session, err := e.sessions.Get(roomId)
	if err != nil {
		return
	}

	session.Mu.Lock()
	round := session.Rounds[roundNo]
	if round == nil || round.Status != internal.RoundActive {
		session.Mu.Unlock()
		return
	}
	round.Status = internal.RoundCompleted
	question := round.Question
	playerIds := []string{session.Player1Id, session.Player2Id}
	submissions := make(map[string]*internal.Submission, len(round.Submissions))
	for id, sub := range round.Submissions {
		submissions[id] = sub
	}
	session.Mu.Unlock()

	log.Printf("[closeRound] room=%s: round %d closed (trigger=%s, submissions=%d)",
		roomId, roundNo, trigger, len(submissions))

	e.timers.Cancel(roomId, SlotQuestion)
	e.timers.CancelTick(roomId)

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.GradingTimeout)
	grades := e.grader.Grade(ctx, question, playerIds, submissions)
	cancel()

	// Grading may have gone to the network; re-fetch before mutating. Same
	// identity rule as startQuestion: a recreated room is not ours.
	before := session
	session, err = e.sessions.Get(roomId)
	if err != nil || session != before {
		return
	}

	session.Mu.Lock()
	round = session.Rounds[roundNo]
	if round == nil || round.Result != nil {
		session.Mu.Unlock()
		return
	}
	round.Result = &internal.RoundResult{RoundNumber: roundNo, Grades: grades}
	for _, grade := range grades {
		session.Scores[grade.PlayerId] += grade.Score
	}
	session.Phase = internal.PhaseReview
	session.PhaseStartedAt = time.Now()

	payloads := buildRoundEndPayloads(session, round, int(e.cfg.ReviewDuration/time.Second))
	players := make(map[string]*internal.Player, len(session.Players))
	for id, p := range session.Players {
		players[id] = p
	}
	session.Mu.Unlock()

	for playerId, payload := range payloads {
		e.sendToPlayer(players[playerId], internal.Message[internal.RoundEndData]{
			Type: internal.EventRoundEnd,
			Data: payload,
		})
	}

	e.timers.ScheduleOnce(roomId, SlotReview, e.cfg.ReviewDuration, func() {
		e.handleReviewExpiry(roomId)
	})
}

// handleReviewExpiry advances to the next round, or finishes the match when
// all rounds are played.
func (e *Engine) handleReviewExpiry(roomId string) {
	session, err := e.sessions.Get(roomId)
	if err != nil {
		return
	}

	session.Mu.Lock()
	if session.Phase != internal.PhaseReview {
		session.Mu.Unlock()
		return
	}
	if session.CurrentRound < session.TotalRounds {
		session.CurrentRound++
		next := session.CurrentRound
		session.Mu.Unlock()
		log.Printf("[handleReviewExpiry] room=%s: advancing to round %d", roomId, next)
		e.startQuestion(roomId)
		return
	}
	session.Mu.Unlock()

	e.finishMatch(roomId, "")
}

// finishMatch is the single terminal transition. It runs exactly once per
// room (guarded by the phase check), notifies both players regardless of
// storage outcome, then attempts one persistence pass. On persistence
// failure the session and the room's used-question history are retained
// together so a retry can see consistent state. A match with no completed
// rounds is torn down without a persistence attempt.
func (e *Engine) finishMatch(roomId string, forcedWinnerId string) {
	session, err := e.sessions.Get(roomId)
	if err != nil {
		return
	}

	session.Mu.Lock()
	if session.Phase == internal.PhaseFinished {
		session.Mu.Unlock()
		return
	}
	session.Phase = internal.PhaseFinished
	session.PhaseStartedAt = time.Now()

	var result *internal.FinalResult
	if forcedWinnerId != "" {
		scores := make(map[string]int, len(session.Scores))
		for id, score := range session.Scores {
			scores[id] = score
		}
		result = &internal.FinalResult{WinnerId: forcedWinnerId, Scores: scores}
	} else {
		result = ComputeFinalResult(session)
	}

	players := make(map[string]*internal.Player, len(session.Players))
	for id, p := range session.Players {
		players[id] = p
	}
	persistable := session.AllRoundsCompleted()
	session.Mu.Unlock()

	e.timers.CancelAll(roomId)

	log.Printf("[finishMatch] room=%s: match finished (winner=%q draw=%t)", roomId, result.WinnerId, result.IsDraw)

	// Gameplay outcome is independent of storage success: notify first.
	for playerId, player := range players {
		opponentId := otherPlayer(playerId, result.Scores)
		e.sendToPlayer(player, internal.Message[internal.MatchEndData]{
			Type: internal.EventMatchEnd,
			Data: internal.MatchEndData{
				IsWin: result.WinnerId == playerId,
				FinalScores: internal.FinalScoresData{
					My:       result.Scores[playerId],
					Opponent: result.Scores[opponentId],
				},
			},
		})
	}

	// A match that never completed a round has nothing durable to write and
	// must not leave the room id poisoned: discard it like an abandoned room.
	// Retained-for-retry is reserved for transient failures on complete
	// matches.
	if !persistable {
		log.Printf("[finishMatch] room=%s: no completed rounds, skipping persistence", roomId)
		e.teardown(roomId)
		return
	}

	if e.persister != nil {
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.PersistTimeout)
		err := e.persister.SaveMatch(ctx, roomId, result)
		cancel()
		if err != nil {
			log.Printf("[finishMatch] ALERT room=%s: match persistence failed, session retained for retry: %v",
				roomId, err)
			return
		}
	}

	e.teardown(roomId)
}

// teardown releases the registry entry and the room's used-question history
// together, then closes player connections. Releasing them separately could
// leave a half-torn-down room looking valid.
func (e *Engine) teardown(roomId string) {
	session, err := e.sessions.Get(roomId)
	if err != nil {
		return
	}

	session.Mu.Lock()
	conns := make([]*internal.Player, 0, len(session.Players))
	for _, p := range session.Players {
		conns = append(conns, p)
	}
	session.Mu.Unlock()

	e.timers.CancelAll(roomId)
	e.sessions.Delete(roomId)
	e.store.Release(roomId)

	for _, player := range conns {
		player.Mu.Lock()
		if player.Conn != nil {
			player.Conn.Close()
			player.Conn = nil
		}
		player.Mu.Unlock()
	}

	log.Printf("[teardown] room=%s: torn down", roomId)
}

// HandleDisconnect funnels a dropped connection into the room's transition
// path. During a question it is recorded only; the round resolves at the
// deadline so a quick reconnect costs nothing. Outside a question the
// remaining player is declared winner; when nobody is left the room is
// abandoned.
func (e *Engine) HandleDisconnect(roomId, playerId string) {
	session, err := e.sessions.Get(roomId)
	if err != nil {
		return
	}

	session.Mu.Lock()
	player := session.Players[playerId]
	if player == nil {
		session.Mu.Unlock()
		return
	}
	player.IsConnected = false
	phase := session.Phase
	remaining := session.ConnectedCount()
	opponentId := session.OpponentId(playerId)
	if phase == internal.PhaseLobby {
		// Lobby leavers free their seat so the room stays joinable.
		delete(session.Players, playerId)
		delete(session.Scores, playerId)
		if session.Player1Id == playerId {
			session.Player1Id = session.Player2Id
			session.Player2Id = ""
		} else if session.Player2Id == playerId {
			session.Player2Id = ""
		}
	}
	session.Mu.Unlock()

	log.Printf("[HandleDisconnect] room=%s player=%s phase=%s remaining=%d", roomId, playerId, phase, remaining)

	switch {
	case phase == internal.PhaseFinished:
		// Teardown already in flight.
	case remaining == 0:
		// Both players gone: nothing to grade, notify, or persist.
		e.abandon(roomId)
	case phase == internal.PhaseLobby:
		// Seat freed above; nothing else to do.
	case phase == internal.PhaseQuestion:
		// Tolerated: resolved as a non-submission at the deadline.
	default:
		// ready or review with an opponent still connected: end early,
		// remaining player wins.
		e.finishMatch(roomId, opponentId)
	}
}

// abandon tears a room down without a match result.
func (e *Engine) abandon(roomId string) {
	log.Printf("[abandon] room=%s: all players gone, discarding session", roomId)
	e.teardown(roomId)
}

func otherPlayer(playerId string, scores map[string]int) string {
	for id := range scores {
		if id != playerId {
			return id
		}
	}
	return ""
}

// buildRoundEndPayloads renders the per-player round-end views. Caller holds
// the session lock.
func buildRoundEndPayloads(session *internal.GameSession, round *internal.Round, durationSeconds int) map[string]internal.RoundEndData {
	grades := make(map[string]internal.Grade, len(round.Result.Grades))
	for _, grade := range round.Result.Grades {
		grades[grade.PlayerId] = grade
	}

	view := func(playerId string) internal.PlayerRoundResult {
		grade := grades[playerId]
		return internal.PlayerRoundResult{
			SubmittedAnswer: grade.Answer,
			ScoreDelta:      grade.Score,
			TotalScore:      session.Scores[playerId],
			Correct:         grade.Correct,
		}
	}

	solution := internal.SolutionData{}
	if round.Question != nil {
		solution.BestAnswer = round.Question.BestAnswer
		solution.Explanation = round.Question.Explanation
	}

	payloads := make(map[string]internal.RoundEndData, len(session.Players))
	for playerId := range session.Players {
		payloads[playerId] = internal.RoundEndData{
			DurationSeconds: durationSeconds,
			Result: internal.RoundResultData{
				My:       view(playerId),
				Opponent: view(session.OpponentId(playerId)),
			},
			Solution: solution,
		}
	}
	return payloads
}
