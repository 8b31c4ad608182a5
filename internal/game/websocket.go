package game

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/quizclash/quizclash-backend/internal"
)

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket upgrades the HTTP connection, seats the player in the room
// from the URL, and starts the read loop.
func (e *Engine) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade failed: ", err)
		return
	}

	roomId := mux.Vars(r)["roomId"]
	if roomId == "" {
		log.Println("No room id provided")
		conn.Close()
		return
	}

	userId := r.URL.Query().Get("userId")
	if userId == "" {
		userId = uuid.NewString()
	}
	nickname := r.URL.Query().Get("nickname")
	if nickname == "" {
		nickname = "Anonymous"
	}

	player := &internal.Player{
		Id:       userId,
		Conn:     conn,
		Nickname: nickname,
	}

	if err := e.JoinRoom(roomId, player); err != nil {
		log.Printf("[HandleWebSocket] room=%s player=%s join rejected: %v", roomId, userId, err)
		conn.WriteJSON(internal.Message[internal.SubmitAckData]{
			Type: internal.EventError,
			Data: internal.SubmitAckData{OK: false, Error: err.Error()},
		})
		conn.Close()
		return
	}

	// On reconnect JoinRoom rebinds the session's existing player; always
	// read through the session's copy so submissions land on the right id.
	session, err := e.sessions.Get(roomId)
	if err != nil {
		conn.Close()
		return
	}
	session.Mu.Lock()
	seated := session.Players[userId]
	session.Mu.Unlock()
	if seated == nil {
		conn.Close()
		return
	}

	go e.readLoop(seated, conn)
}

// readLoop processes inbound events for one connection until it drops. The
// conn parameter is the loop's own socket: after a reconnect the old loop
// must not report a disconnect on behalf of the new one.
func (e *Engine) readLoop(player *internal.Player, conn *websocket.Conn) {
	roomId := player.RoomId

	defer func() {
		conn.Close()

		player.Mu.Lock()
		stale := player.Conn != conn
		player.Mu.Unlock()
		if !stale {
			e.HandleDisconnect(roomId, player.Id)
		}
	}()

	log.Printf("[readLoop] room=%s player=%s (%s): reader started", roomId, player.Id, player.Nickname)

	for {
		_, rawMessage, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[readLoop] room=%s player=%s: read error: %v", roomId, player.Id, err)
			break
		}

		var baseMsg internal.Message[json.RawMessage]
		if err := json.Unmarshal(rawMessage, &baseMsg); err != nil {
			log.Printf("[readLoop] room=%s player=%s: failed to parse message: %v", roomId, player.Id, err)
			e.sendAck(player, false, "malformed message")
			continue
		}

		switch baseMsg.Type {
		case internal.EventSubmitAnswer:
			var data internal.SubmitAnswerData
			if err := json.Unmarshal(baseMsg.Data, &data); err != nil {
				log.Printf("[readLoop] room=%s player=%s: bad submit payload: %v", roomId, player.Id, err)
				e.sendAck(player, false, "malformed submit-answer payload")
				continue
			}
			if err := e.HandleSubmitAnswer(roomId, player.Id, data.Answer); err != nil {
				e.sendAck(player, false, err.Error())
				continue
			}
			e.sendAck(player, true, "")

		default:
			log.Printf("[readLoop] room=%s player=%s: unknown message type %q", roomId, player.Id, baseMsg.Type)
		}
	}
}

func (e *Engine) sendAck(player *internal.Player, ok bool, errText string) {
	e.sendToPlayer(player, internal.Message[internal.SubmitAckData]{
		Type: internal.EventSubmitAck,
		Data: internal.SubmitAckData{OK: ok, Error: errText},
	})
}

// sendToPlayer is best-effort: notification delivery is at-least-once
// attempted, never guaranteed.
func (e *Engine) sendToPlayer(player *internal.Player, msg any) {
	if player == nil {
		return
	}
	if err := player.SafeWriteJSON(msg); err != nil {
		log.Printf("[sendToPlayer] player=%s: write failed: %v", player.Id, err)
	}
}

// broadcastToRoom snapshots the room's players under the lock, then writes
// with no lock held.
func (e *Engine) broadcastToRoom(roomId string, msg any) {
	session, err := e.sessions.Get(roomId)
	if err != nil {
		return
	}

	session.Mu.Lock()
	players := make([]*internal.Player, 0, len(session.Players))
	for _, p := range session.Players {
		players = append(players, p)
	}
	session.Mu.Unlock()

	for _, player := range players {
		e.sendToPlayer(player, msg)
	}
}
