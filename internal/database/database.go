package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quizclash/quizclash-backend/internal"
	"github.com/quizclash/quizclash-backend/internal/game"
)

// Connect opens a pgx pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Println("Successfully connected to PostgreSQL")
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS questions (
	id          BIGSERIAL PRIMARY KEY,
	category_id BIGINT NOT NULL,
	topic       TEXT NOT NULL,
	difficulty  TEXT NOT NULL,
	type        TEXT NOT NULL,
	content     TEXT NOT NULL,
	best_answer TEXT NOT NULL DEFAULT '',
	explanation TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS matches (
	id         BIGSERIAL PRIMARY KEY,
	player1_id TEXT NOT NULL,
	player2_id TEXT NOT NULL,
	winner_id  TEXT,
	match_type TEXT NOT NULL DEFAULT 'multi',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rounds (
	id           BIGSERIAL PRIMARY KEY,
	match_id     BIGINT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
	question_id  BIGINT NOT NULL REFERENCES questions(id),
	round_number INT NOT NULL
);

CREATE TABLE IF NOT EXISTS round_answers (
	id       BIGSERIAL PRIMARY KEY,
	round_id BIGINT NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
	user_id  TEXT NOT NULL,
	answer   TEXT NOT NULL DEFAULT '',
	status   TEXT NOT NULL,
	score    INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS user_problem_bank (
	id          BIGSERIAL PRIMARY KEY,
	user_id     TEXT NOT NULL,
	question_id BIGINT NOT NULL REFERENCES questions(id),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, question_id)
);
`

// Migrate applies the schema. Idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PGQuestionRepo serves questions from PostgreSQL.
type PGQuestionRepo struct {
	pool *pgxpool.Pool
}

func NewPGQuestionRepo(pool *pgxpool.Pool) *PGQuestionRepo {
	return &PGQuestionRepo{pool: pool}
}

// PickQuestion returns a random question from the requested categories that
// is not in the exclude set, or game.ErrQuestionsExhausted.
func (r *PGQuestionRepo) PickQuestion(ctx context.Context, categoryIds []int64, excludeIds []int64) (*internal.Question, error) {
	if excludeIds == nil {
		// A nil slice would encode as SQL NULL and filter out every row.
		excludeIds = []int64{}
	}

	query := `SELECT id, category_id, topic, difficulty, type, content, best_answer, explanation
	          FROM questions
	          WHERE NOT (id = ANY($1))`
	args := []any{excludeIds}

	if len(categoryIds) > 0 {
		query += ` AND category_id = ANY($2)`
		args = append(args, categoryIds)
	}
	query += ` ORDER BY random() LIMIT 1`

	var q internal.Question
	var qType string
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&q.Id, &q.CategoryId, &q.Topic, &q.Difficulty, &qType, &q.Content, &q.BestAnswer, &q.Explanation,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrQuestionsExhausted
	}
	if err != nil {
		return nil, fmt.Errorf("pick question: %w", err)
	}
	q.Type = internal.QuestionType(qType)
	return &q, nil
}
