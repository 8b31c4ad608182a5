package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"

	"github.com/quizclash/quizclash-backend/internal/database"
	"github.com/quizclash/quizclash-backend/internal/game"
	"github.com/quizclash/quizclash-backend/internal/utils"
)

type Server struct {
	port int

	db     *pgxpool.Pool
	engine *game.Engine
}

// NewServer wires the engine from environment configuration. With
// DATABASE_URL set, questions come from PostgreSQL and finished matches are
// persisted there; without it the server runs in dev mode on a CSV question
// bank and skips persistence.
func NewServer() *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	cfg := game.DefaultConfig()
	if secs := envSeconds("READY_DURATION_SECONDS"); secs > 0 {
		cfg.ReadyDuration = secs
	}
	if secs := envSeconds("QUESTION_DURATION_SECONDS"); secs > 0 {
		cfg.QuestionDuration = secs
	}
	if secs := envSeconds("REVIEW_DURATION_SECONDS"); secs > 0 {
		cfg.ReviewDuration = secs
	}
	if rounds, _ := strconv.Atoi(os.Getenv("TOTAL_ROUNDS")); rounds > 0 {
		cfg.TotalRounds = rounds
	}

	sessions := game.NewSessionRegistry()
	timers := game.NewTimerRegistry()

	var evaluator game.Evaluator
	if evaluatorURL := os.Getenv("EVALUATOR_URL"); evaluatorURL != "" {
		evaluator = game.NewHTTPEvaluator(evaluatorURL, os.Getenv("EVALUATOR_TOKEN"))
		log.Printf("Using external answer evaluator at %s", evaluatorURL)
	} else {
		log.Println("EVALUATOR_URL not set, open-ended answers graded locally")
	}
	grader := game.NewGrader(evaluator, cfg.GradingTimeout)

	var db *pgxpool.Pool
	var repo game.QuestionRepo
	var persister game.MatchPersister

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		pool, err := database.Connect(ctx, databaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
		db = pool
		repo = database.NewPGQuestionRepo(pool)
		persister = game.NewMatchPersistence(pool, sessions)
	} else {
		csvPath := os.Getenv("QUESTIONS_CSV")
		if csvPath == "" {
			csvPath = "questions.csv"
		}
		log.Printf("DATABASE_URL not set, dev mode: questions from %s, persistence disabled", csvPath)
		repo = game.NewMemoryQuestionRepo(utils.ReadQuestionsCSV(csvPath))
	}

	store := game.NewQuestionStore(repo)
	engine := game.NewEngine(cfg, sessions, timers, store, grader, persister)

	NewServerInstance := &Server{
		port:   port,
		db:     db,
		engine: engine,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServerInstance.port),
		Handler:      NewServerInstance.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}

func envSeconds(key string) time.Duration {
	secs, _ := strconv.Atoi(os.Getenv(key))
	if secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
