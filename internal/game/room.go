package game

import (
	"log"
	"sync"
	"time"

	"github.com/quizclash/quizclash-backend/internal"
)

// =============================================================================
// SESSION REGISTRY
// =============================================================================

// SessionRegistry is the only cross-room shared state: an in-memory keyed
// store with one GameSession per active room. Sessions are addressed by room
// id, never by long-lived reference; anything that awaited an external call
// must Get the session again before mutating it.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*internal.GameSession
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*internal.GameSession),
	}
}

// GetOrCreate returns the room's session, creating a lobby-phase session on
// first use.
func (sr *SessionRegistry) GetOrCreate(roomId string, totalRounds int, categoryIds []int64) *internal.GameSession {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if session, exists := sr.sessions[roomId]; exists {
		return session
	}

	session := &internal.GameSession{
		RoomId:         roomId,
		Players:        make(map[string]*internal.Player),
		Scores:         make(map[string]int),
		CurrentRound:   1,
		TotalRounds:    totalRounds,
		Rounds:         make(map[int]*internal.Round),
		Phase:          internal.PhaseLobby,
		PhaseStartedAt: time.Now(),
		CategoryIds:    categoryIds,
	}
	sr.sessions[roomId] = session

	log.Printf("[GetOrCreate] room=%s: created session (totalRounds=%d, phase=%s)",
		roomId, totalRounds, session.Phase)
	return session
}

// Get returns the session for a room, or ErrRoomNotFound. It never fabricates
// a session.
func (sr *SessionRegistry) Get(roomId string) (*internal.GameSession, error) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	session, exists := sr.sessions[roomId]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return session, nil
}

// Delete removes the session. Idempotent.
func (sr *SessionRegistry) Delete(roomId string) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if _, exists := sr.sessions[roomId]; exists {
		delete(sr.sessions, roomId)
		log.Printf("[Delete] room=%s: session removed from registry", roomId)
	}
}

// Len reports the number of live sessions.
func (sr *SessionRegistry) Len() int {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return len(sr.sessions)
}
