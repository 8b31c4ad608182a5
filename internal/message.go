package internal

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Wire event names, server->client unless noted.
const (
	EventPlayerJoined = "player-joined"
	EventRoundReady   = "round-ready"
	EventRoundStart   = "round-start"
	EventRoundTick    = "round-tick"
	EventRoundEnd     = "round-end"
	EventMatchEnd     = "match-end"
	EventSubmitAnswer = "submit-answer" // client->server
	EventSubmitAck    = "submit-ack"
	EventError        = "error"
)

type PlayerJoinedData struct {
	Player      PlayerSnapshot `json:"player"`
	PlayerCount int            `json:"playerCount"`
}

type RoundReadyData struct {
	DurationSeconds int `json:"durationSeconds"`
	RoundIndex      int `json:"roundIndex"`
	TotalRounds     int `json:"totalRounds"`
}

type QuestionData struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
	Content    string `json:"content"`
}

type RoundStartData struct {
	DurationSeconds int          `json:"durationSeconds"`
	Question        QuestionData `json:"question"`
}

type RoundTickData struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

type PlayerRoundResult struct {
	SubmittedAnswer string `json:"submittedAnswer"`
	ScoreDelta      int    `json:"scoreDelta"`
	TotalScore      int    `json:"totalScore"`
	Correct         bool   `json:"correct"`
}

type RoundResultData struct {
	My       PlayerRoundResult `json:"my"`
	Opponent PlayerRoundResult `json:"opponent"`
}

type SolutionData struct {
	BestAnswer  string `json:"bestAnswer"`
	Explanation string `json:"explanation"`
}

type RoundEndData struct {
	DurationSeconds int             `json:"durationSeconds"`
	Result          RoundResultData `json:"result"`
	Solution        SolutionData    `json:"solution"`
}

type FinalScoresData struct {
	My       int `json:"my"`
	Opponent int `json:"opponent"`
}

type MatchEndData struct {
	IsWin       bool            `json:"isWin"`
	FinalScores FinalScoresData `json:"finalScores"`
}

type SubmitAnswerData struct {
	Answer string `json:"answer"`
}

type SubmitAckData struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
