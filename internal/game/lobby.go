package game

import (
	"log"
	"time"

	"github.com/quizclash/quizclash-backend/internal"
)

// =============================================================================
// GAME FLOW - LOBBY & JOIN
// =============================================================================

// JoinRoom seats a player in a room, or rebinds the connection of a player
// who dropped and came back. The second distinct player arriving in a lobby
// triggers the ready countdown.
func (e *Engine) JoinRoom(roomId string, player *internal.Player) error {
	session := e.sessions.GetOrCreate(roomId, e.cfg.TotalRounds, e.cfg.CategoryIds)

	session.Mu.Lock()

	if existing, ok := session.Players[player.Id]; ok {
		// Reconnect: same user id, fresh socket.
		existing.Rebind(player.Conn)
		phase := session.Phase
		session.Mu.Unlock()

		log.Printf("[JoinRoom] room=%s player=%s reconnected (phase=%s)", roomId, player.Id, phase)
		return nil
	}

	if len(session.Players) >= internal.PlayersPerRoom {
		session.Mu.Unlock()
		log.Printf("[JoinRoom] room=%s is full, rejecting player %s", roomId, player.Id)
		return ErrRoomFull
	}

	player.RoomId = roomId
	player.IsConnected = true
	player.JoinedAt = time.Now()
	session.Players[player.Id] = player
	session.Scores[player.Id] = 0

	if session.Player1Id == "" {
		session.Player1Id = player.Id
	} else {
		session.Player2Id = player.Id
	}

	joinedMsg := internal.Message[internal.PlayerJoinedData]{
		Type: internal.EventPlayerJoined,
		Data: internal.PlayerJoinedData{
			Player: internal.PlayerSnapshot{
				Id:          player.Id,
				Nickname:    player.Nickname,
				IsConnected: true,
			},
			PlayerCount: len(session.Players),
		},
	}
	startCountdown := session.Phase == internal.PhaseLobby && session.BothPlayersPresent()
	playerCount := len(session.Players)

	session.Mu.Unlock()

	log.Printf("[JoinRoom] room=%s: player %s (%s) joined, players=%d",
		roomId, player.Id, player.Nickname, playerCount)

	e.broadcastToRoom(roomId, joinedMsg)

	if startCountdown {
		e.startReady(roomId)
	}
	return nil
}
