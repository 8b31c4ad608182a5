package internal

import (
	"sync"
	"time"
)

const (
	ReadyPhaseDuration    = 5 * time.Second
	QuestionPhaseDuration = 60 * time.Second
	ReviewPhaseDuration   = 15 * time.Second
	TotalRoundsPerMatch   = 3
	PlayersPerRoom        = 2
)

type GamePhase string

const (
	PhaseLobby    GamePhase = "lobby"
	PhaseReady    GamePhase = "ready"
	PhaseQuestion GamePhase = "question"
	PhaseReview   GamePhase = "review"
	PhaseFinished GamePhase = "finished"
)

type RoundStatus string

const (
	RoundPending   RoundStatus = "pending"
	RoundActive    RoundStatus = "active"
	RoundCompleted RoundStatus = "completed"
)

type QuestionType string

const (
	QuestionChoice QuestionType = "choice"
	QuestionOX     QuestionType = "ox"
	QuestionShort  QuestionType = "short"
	QuestionEssay  QuestionType = "essay"
)

type AnswerStatus string

const (
	StatusIncorrect AnswerStatus = "incorrect"
	StatusPartial   AnswerStatus = "partial"
	StatusCorrect   AnswerStatus = "correct"
)

type Question struct {
	Id          int64        `json:"id"`
	CategoryId  int64        `json:"category_id"`
	Topic       string       `json:"topic"`
	Difficulty  string       `json:"difficulty"`
	Type        QuestionType `json:"type"`
	Content     string       `json:"content"`
	BestAnswer  string       `json:"-"`
	Explanation string       `json:"-"`
}

type Submission struct {
	PlayerId    string    `json:"player_id"`
	Answer      string    `json:"answer"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Grade struct {
	PlayerId string       `json:"player_id"`
	Answer   string       `json:"answer"`
	Status   AnswerStatus `json:"status"`
	Correct  bool         `json:"correct"`
	Score    int          `json:"score"`
	Feedback string       `json:"feedback"`
}

type RoundResult struct {
	RoundNumber int     `json:"round_number"`
	Grades      []Grade `json:"grades"`
}

type Round struct {
	Number      int                    `json:"number"`
	Question    *Question              `json:"question"`
	Status      RoundStatus            `json:"status"`
	Submissions map[string]*Submission `json:"submissions"`
	Result      *RoundResult           `json:"result,omitempty"`
}

// GameSession is the authoritative in-memory state of one room. It is owned
// by the session registry and mutated only while Mu is held; any goroutine
// that released the lock across an external call must re-fetch the session
// from the registry before touching it again.
type GameSession struct {
	RoomId string

	Player1Id string
	Player2Id string
	Players   map[string]*Player
	Scores    map[string]int

	CurrentRound int
	TotalRounds  int
	Rounds       map[int]*Round

	Phase          GamePhase
	PhaseStartedAt time.Time

	CategoryIds []int64

	Mu sync.Mutex `json:"-"`
}

// FinalResult is the computed outcome of a finished match. WinnerId is empty
// on a draw.
type FinalResult struct {
	WinnerId string         `json:"winner_id"`
	IsDraw   bool           `json:"is_draw"`
	Scores   map[string]int `json:"scores"`
}
