package internal

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrNoConnection = errors.New("player has no live connection")

type Player struct {
	Id       string          `json:"id"`
	Conn     *websocket.Conn `json:"-"`
	RoomId   string          `json:"-"`
	Nickname string          `json:"nickname"`

	IsConnected bool      `json:"is_connected"`
	JoinedAt    time.Time `json:"joined_at"`

	Mu sync.Mutex `json:"-"`
}

type PlayerSnapshot struct {
	Id          string `json:"id"`
	Nickname    string `json:"nickname"`
	Score       int    `json:"score"`
	IsConnected bool   `json:"is_connected"`
}

// SafeWriteJSON serializes writes to the websocket connection. gorilla conns
// allow only one concurrent writer, and the timer goroutines and the reader
// goroutine both send messages.
func (p *Player) SafeWriteJSON(v any) error {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	if p.Conn == nil {
		return ErrNoConnection
	}
	return p.Conn.WriteJSON(v)
}

// Rebind attaches a fresh connection after a reconnect, closing the stale one.
func (p *Player) Rebind(conn *websocket.Conn) {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	if p.Conn != nil {
		p.Conn.Close()
	}
	p.Conn = conn
	p.IsConnected = true
}
