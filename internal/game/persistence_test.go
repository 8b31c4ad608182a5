package game_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/quizclash/quizclash-backend/internal"
	"github.com/quizclash/quizclash-backend/internal/database"
	"github.com/quizclash/quizclash-backend/internal/game"
)

// startPostgres brings up a throwaway container, applies the schema, and
// seeds one question row.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("quizclash_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.Connect(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool))

	_, err = pool.Exec(ctx,
		`INSERT INTO questions (id, category_id, topic, difficulty, type, content, best_answer, explanation)
		 VALUES (100, 1, 'tcp', 'easy', 'short', 'What does TCP stand for?',
		         'transmission control protocol', 'It is the reliable transport protocol.')`)
	require.NoError(t, err)

	return pool
}

// finishedSession seats a completed one-round match in the registry.
func finishedSession(sessions *game.SessionRegistry, roomId string, questionId int64) {
	session := sessions.GetOrCreate(roomId, 1, nil)
	session.Mu.Lock()
	defer session.Mu.Unlock()

	session.Player1Id = "alice"
	session.Player2Id = "bob"
	session.Players["alice"] = &internal.Player{Id: "alice"}
	session.Players["bob"] = &internal.Player{Id: "bob"}
	session.Scores = map[string]int{"alice": game.ScoreCorrect, "bob": 0}
	session.Phase = internal.PhaseFinished
	session.Rounds[1] = &internal.Round{
		Number: 1,
		Question: &internal.Question{
			Id:   questionId,
			Type: internal.QuestionShort,
		},
		Status: internal.RoundCompleted,
		Result: &internal.RoundResult{
			RoundNumber: 1,
			Grades: []internal.Grade{
				{PlayerId: "alice", Answer: "transmission control protocol",
					Status: internal.StatusCorrect, Correct: true, Score: game.ScoreCorrect},
				{PlayerId: "bob", Answer: "",
					Status: internal.StatusIncorrect, Score: 0},
			},
		},
	}
}

func countRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT count(*) FROM "+table).Scan(&n))
	return n
}

func TestSaveMatchWritesAllRows(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := startPostgres(t)
	ctx := context.Background()

	sessions := game.NewSessionRegistry()
	finishedSession(sessions, "room-a", 100)
	persistence := game.NewMatchPersistence(pool, sessions)

	err := persistence.SaveMatch(ctx, "room-a", &internal.FinalResult{
		WinnerId: "alice",
		Scores:   map[string]int{"alice": game.ScoreCorrect, "bob": 0},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countRows(t, pool, "matches"))
	assert.Equal(t, 1, countRows(t, pool, "rounds"))
	assert.Equal(t, 2, countRows(t, pool, "round_answers"))
	assert.Equal(t, 2, countRows(t, pool, "user_problem_bank"))

	var winnerId string
	var matchType string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT winner_id, match_type FROM matches`).Scan(&winnerId, &matchType))
	assert.Equal(t, "alice", winnerId)
	assert.Equal(t, "multi", matchType)

	var score int
	var status string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT score, status FROM round_answers WHERE user_id = 'alice'`).Scan(&score, &status))
	assert.Equal(t, game.ScoreCorrect, score)
	assert.Equal(t, "correct", status)
}

func TestSaveMatchStoresNullWinnerOnDraw(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := startPostgres(t)
	ctx := context.Background()

	sessions := game.NewSessionRegistry()
	finishedSession(sessions, "room-b", 100)
	persistence := game.NewMatchPersistence(pool, sessions)

	err := persistence.SaveMatch(ctx, "room-b", &internal.FinalResult{
		IsDraw: true,
		Scores: map[string]int{"alice": 0, "bob": 0},
	})
	require.NoError(t, err)

	var winnerId *string
	require.NoError(t, pool.QueryRow(ctx, `SELECT winner_id FROM matches`).Scan(&winnerId))
	assert.Nil(t, winnerId)
}

func TestSaveMatchRollsBackOnFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := startPostgres(t)
	ctx := context.Background()

	sessions := game.NewSessionRegistry()
	// Question 9999 does not exist, so the rounds insert violates its FK
	// after the match row is already in.
	finishedSession(sessions, "room-c", 9999)
	persistence := game.NewMatchPersistence(pool, sessions)

	err := persistence.SaveMatch(ctx, "room-c", &internal.FinalResult{
		WinnerId: "alice",
		Scores:   map[string]int{"alice": game.ScoreCorrect, "bob": 0},
	})
	require.Error(t, err)

	assert.Equal(t, 0, countRows(t, pool, "matches"))
	assert.Equal(t, 0, countRows(t, pool, "rounds"))
	assert.Equal(t, 0, countRows(t, pool, "round_answers"))

	// The session survives for a retry.
	_, getErr := sessions.Get("room-c")
	assert.NoError(t, getErr)
}

func TestPGQuestionRepoExcludesUsedQuestions(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := startPostgres(t)
	ctx := context.Background()

	repo := database.NewPGQuestionRepo(pool)

	q, err := repo.PickQuestion(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(100), q.Id)
	assert.Equal(t, internal.QuestionShort, q.Type)
	assert.Equal(t, "transmission control protocol", q.BestAnswer)

	_, err = repo.PickQuestion(ctx, nil, []int64{100})
	assert.ErrorIs(t, err, game.ErrQuestionsExhausted)

	_, err = repo.PickQuestion(ctx, []int64{42}, nil)
	assert.ErrorIs(t, err, game.ErrQuestionsExhausted)
}
