package comm

import (
	"encoding/json"
	"time"
)

// NATS topics between gamesvc and socketsvc.
const (
	TopicNotify = "game.notify"
)

// Room event names carried by RoomNotification.
const (
	EventPlayerJoined   = "player-joined"
	EventPlayerLeft     = "player-left"
	EventPlayerReady    = "player-ready"
	EventActionOccurred = "action-occurred"
	EventPhaseChanged   = "phase-changed"
	EventRoundClosed    = "round-closed"
	EventGameFinished   = "game-finished"
)

// WSMessage is the wire envelope used both on the websocket and on NATS.
type WSMessage struct {
	Type     string          `json:"type"` // e.g. "join-room", "room-notify"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// RoomNotification is an advisory fan-out trigger. It carries no game
// state: clients re-fetch the canonical room view when they receive one.
type RoomNotification struct {
	RoomCode  string    `json:"room_code"`
	Event     string    `json:"event"`
	UserID    int64     `json:"user_id,omitempty"` // acting player, excluded from fan-out
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// JoinRoomRequest is sent by a web client right after connecting.
type JoinRoomRequest struct {
	RoomCode string `json:"room_code"`
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
}
