package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizclash/quizclash-backend/internal"
)

func testQuestions() []internal.Question {
	return []internal.Question{
		{Id: 1, CategoryId: 10, Type: internal.QuestionShort, Content: "q1", BestAnswer: "a1"},
		{Id: 2, CategoryId: 10, Type: internal.QuestionShort, Content: "q2", BestAnswer: "a2"},
		{Id: 3, CategoryId: 20, Type: internal.QuestionShort, Content: "q3", BestAnswer: "a3"},
	}
}

func TestNextQuestionNeverRepeatsWithinRoom(t *testing.T) {
	qs := NewQuestionStore(NewMemoryQuestionRepo(testQuestions()))
	ctx := context.Background()

	seen := make(map[int64]bool)
	for i := 0; i < 3; i++ {
		q, err := qs.NextQuestion(ctx, "r1", nil)
		require.NoError(t, err)
		require.False(t, seen[q.Id], "question %d assigned twice", q.Id)
		seen[q.Id] = true
	}

	_, err := qs.NextQuestion(ctx, "r1", nil)
	assert.ErrorIs(t, err, ErrQuestionsExhausted)
}

func TestNextQuestionFiltersByCategory(t *testing.T) {
	qs := NewQuestionStore(NewMemoryQuestionRepo(testQuestions()))
	ctx := context.Background()

	q, err := qs.NextQuestion(ctx, "r1", []int64{20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), q.Id)

	_, err = qs.NextQuestion(ctx, "r1", []int64{20})
	assert.ErrorIs(t, err, ErrQuestionsExhausted)
}

func TestUsedHistoryIsPerRoom(t *testing.T) {
	qs := NewQuestionStore(NewMemoryQuestionRepo(testQuestions()))
	ctx := context.Background()

	q1, err := qs.NextQuestion(ctx, "r1", []int64{20})
	require.NoError(t, err)

	// A different room still sees the full pool.
	q2, err := qs.NextQuestion(ctx, "r2", []int64{20})
	require.NoError(t, err)
	assert.Equal(t, q1.Id, q2.Id)
}

func TestReleaseClearsUsedHistory(t *testing.T) {
	qs := NewQuestionStore(NewMemoryQuestionRepo(testQuestions()))
	ctx := context.Background()

	_, err := qs.NextQuestion(ctx, "r1", []int64{20})
	require.NoError(t, err)
	_, err = qs.NextQuestion(ctx, "r1", []int64{20})
	require.ErrorIs(t, err, ErrQuestionsExhausted)

	qs.Release("r1")

	q, err := qs.NextQuestion(ctx, "r1", []int64{20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), q.Id)

	// Idempotent.
	qs.Release("r1")
	qs.Release("never-existed")
}
