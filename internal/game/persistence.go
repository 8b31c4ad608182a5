package game

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/quizclash/quizclash-backend/internal"
)

// =============================================================================
// MATCH PERSISTENCE
// =============================================================================

// DB is the transactional surface MatchPersistence needs. *pgxpool.Pool
// satisfies it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// MatchPersistence converts a finished in-memory session into durable rows:
// one match, one round per completed round, one round_answer per grade, and
// one user_problem_bank entry per (player, question) pair — all inside a
// single transaction. On any failure everything rolls back and the caller
// keeps the session around for a retry.
type MatchPersistence struct {
	db       DB
	sessions *SessionRegistry
}

func NewMatchPersistence(db DB, sessions *SessionRegistry) *MatchPersistence {
	return &MatchPersistence{db: db, sessions: sessions}
}

type roundSnapshot struct {
	number     int
	questionId int64
	grades     []internal.Grade
}

// SaveMatch reads the still-registered session for roomId and writes the
// match atomically.
func (mp *MatchPersistence) SaveMatch(ctx context.Context, roomId string, result *internal.FinalResult) error {
	session, err := mp.sessions.Get(roomId)
	if err != nil {
		return fmt.Errorf("load session for room %s: %w", roomId, err)
	}

	session.Mu.Lock()
	if !session.AllRoundsCompleted() {
		session.Mu.Unlock()
		return fmt.Errorf("room %s: refusing to persist with incomplete rounds", roomId)
	}
	player1Id := session.Player1Id
	player2Id := session.Player2Id

	rounds := make([]roundSnapshot, 0, len(session.Rounds))
	for _, round := range session.Rounds {
		snap := roundSnapshot{number: round.Number}
		if round.Question != nil {
			snap.questionId = round.Question.Id
		}
		if round.Result != nil {
			snap.grades = append(snap.grades, round.Result.Grades...)
		}
		rounds = append(rounds, snap)
	}
	session.Mu.Unlock()

	sort.Slice(rounds, func(i, j int) bool { return rounds[i].number < rounds[j].number })

	tx, err := mp.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var winnerId *string
	if !result.IsDraw && result.WinnerId != "" {
		winnerId = &result.WinnerId
	}

	var matchId int64
	err = tx.QueryRow(ctx,
		`INSERT INTO matches (player1_id, player2_id, winner_id, match_type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		player1Id, player2Id, winnerId, "multi",
	).Scan(&matchId)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}

	for _, round := range rounds {
		var roundId int64
		err = tx.QueryRow(ctx,
			`INSERT INTO rounds (match_id, question_id, round_number)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			matchId, round.questionId, round.number,
		).Scan(&roundId)
		if err != nil {
			return fmt.Errorf("insert round %d: %w", round.number, err)
		}

		for _, grade := range round.grades {
			_, err = tx.Exec(ctx,
				`INSERT INTO round_answers (round_id, user_id, answer, status, score)
				 VALUES ($1, $2, $3, $4, $5)`,
				roundId, grade.PlayerId, grade.Answer, string(grade.Status), grade.Score,
			)
			if err != nil {
				return fmt.Errorf("insert round answer (round %d, player %s): %w",
					round.number, grade.PlayerId, err)
			}

			_, err = tx.Exec(ctx,
				`INSERT INTO user_problem_bank (user_id, question_id)
				 VALUES ($1, $2)
				 ON CONFLICT (user_id, question_id) DO NOTHING`,
				grade.PlayerId, round.questionId,
			)
			if err != nil {
				return fmt.Errorf("insert problem bank entry (round %d, player %s): %w",
					round.number, grade.PlayerId, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit match %d: %w", matchId, err)
	}

	log.Printf("[SaveMatch] room=%s: persisted match id=%d (%d rounds)", roomId, matchId, len(rounds))
	return nil
}
