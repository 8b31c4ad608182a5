package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizclash/quizclash-backend/internal"
)

func TestRegistryGetOrCreate(t *testing.T) {
	sr := NewSessionRegistry()

	session := sr.GetOrCreate("r1", 3, []int64{1, 2})
	require.NotNil(t, session)
	assert.Equal(t, "r1", session.RoomId)
	assert.Equal(t, internal.PhaseLobby, session.Phase)
	assert.Equal(t, 1, session.CurrentRound)
	assert.Equal(t, 3, session.TotalRounds)

	// Second call returns the same session, not a fresh one.
	again := sr.GetOrCreate("r1", 5, nil)
	assert.Same(t, session, again)
	assert.Equal(t, 3, again.TotalRounds)
}

func TestRegistryGetMissingRoom(t *testing.T) {
	sr := NewSessionRegistry()

	_, err := sr.Get("nope")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistryDelete(t *testing.T) {
	sr := NewSessionRegistry()

	sr.GetOrCreate("r1", 3, nil)
	require.Equal(t, 1, sr.Len())

	sr.Delete("r1")
	assert.Equal(t, 0, sr.Len())

	_, err := sr.Get("r1")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// Idempotent.
	sr.Delete("r1")
}
