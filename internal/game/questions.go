package game

import (
	"context"
	"log"
	"sync"

	"github.com/quizclash/quizclash-backend/internal"
)

// =============================================================================
// ROUND QUESTION STORE
// =============================================================================

// QuestionRepo picks one question from the requested categories that is not
// in the exclude set. Implementations return ErrQuestionsExhausted when the
// filter matches nothing.
type QuestionRepo interface {
	PickQuestion(ctx context.Context, categoryIds []int64, excludeIds []int64) (*internal.Question, error)
}

// QuestionStore hands out the next unseen question for a room and tracks
// per-room used-question history so a match never repeats a question. The
// used set lives exactly as long as the room's registry entry: Release is
// called at session teardown and nowhere else.
type QuestionStore struct {
	repo QuestionRepo

	mu   sync.Mutex
	used map[string]map[int64]bool
}

func NewQuestionStore(repo QuestionRepo) *QuestionStore {
	return &QuestionStore{
		repo: repo,
		used: make(map[string]map[int64]bool),
	}
}

// NextQuestion returns a question not yet used in this room's match.
func (qs *QuestionStore) NextQuestion(ctx context.Context, roomId string, categoryIds []int64) (*internal.Question, error) {
	qs.mu.Lock()
	exclude := make([]int64, 0, len(qs.used[roomId]))
	for id := range qs.used[roomId] {
		exclude = append(exclude, id)
	}
	qs.mu.Unlock()

	question, err := qs.repo.PickQuestion(ctx, categoryIds, exclude)
	if err != nil {
		return nil, err
	}

	qs.mu.Lock()
	if qs.used[roomId] == nil {
		qs.used[roomId] = make(map[int64]bool)
	}
	qs.used[roomId][question.Id] = true
	qs.mu.Unlock()

	log.Printf("[NextQuestion] room=%s: assigned question id=%d type=%s", roomId, question.Id, question.Type)
	return question, nil
}

// Release drops the room's used-question history. Idempotent.
func (qs *QuestionStore) Release(roomId string) {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	delete(qs.used, roomId)
}

// =============================================================================
// IN-MEMORY REPOSITORY
// =============================================================================

// MemoryQuestionRepo serves questions from a fixed slice. It backs tests and
// the no-database dev mode (questions loaded from CSV, see internal/utils).
type MemoryQuestionRepo struct {
	mu        sync.Mutex
	questions []internal.Question
}

func NewMemoryQuestionRepo(questions []internal.Question) *MemoryQuestionRepo {
	return &MemoryQuestionRepo{questions: questions}
}

func (r *MemoryQuestionRepo) PickQuestion(ctx context.Context, categoryIds []int64, excludeIds []int64) (*internal.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	excluded := make(map[int64]bool, len(excludeIds))
	for _, id := range excludeIds {
		excluded[id] = true
	}

	for i := range r.questions {
		q := r.questions[i]
		if excluded[q.Id] {
			continue
		}
		if len(categoryIds) > 0 && !containsId(categoryIds, q.CategoryId) {
			continue
		}
		copied := q
		return &copied, nil
	}
	return nil, ErrQuestionsExhausted
}

func containsId(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
