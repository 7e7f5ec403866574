package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/skygames/skyjack-services/internal/comm"
)

// member is one connected client's room registration.
type member struct {
	RoomCode string
	UserID   int64
	Name     string
}

// Ws is the broadcast hub: a registry of socket connections and their room
// membership. It holds no game-state authority; everything it sends is an
// advisory trigger for clients to re-fetch the canonical room view.
type Ws struct {
	connMap   sync.Map // socketId -> *websocket.Conn
	memberMap sync.Map // socketId -> member
}

func NewWs() *Ws {
	return &Ws{}
}

// SocketMessage handles messages from web clients.
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "join-room":
		s.handleJoinRoom(socketId, message)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

// handleJoinRoom registers the socket under the room, confirms to the
// joining client and tells everyone else in the room.
func (s *Ws) handleJoinRoom(socketId string, msg *comm.WSMessage) {
	var payload comm.JoinRoomRequest
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: malformed join-room payload %s", err)
		return
	}
	if payload.RoomCode == "" || payload.UserID == 0 {
		log.Error("Invalid join-room payload: missing room code or user id")
		return
	}

	s.memberMap.Store(socketId, member{
		RoomCode: payload.RoomCode,
		UserID:   payload.UserID,
		Name:     payload.Name,
	})

	confirm, err := notification(comm.RoomNotification{
		RoomCode:  payload.RoomCode,
		Event:     "join-confirmed",
		UserID:    payload.UserID,
		Name:      payload.Name,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Errorf("Error building join confirmation: %v", err)
		return
	}
	s.sendMessage(socketId, confirm)

	joined, err := notification(comm.RoomNotification{
		RoomCode:  payload.RoomCode,
		Event:     comm.EventPlayerJoined,
		UserID:    payload.UserID,
		Name:      payload.Name,
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}
	s.Relay(payload.RoomCode, joined, payload.UserID)

	log.Infof("socket %s joined room %s as user %d", socketId, payload.RoomCode, payload.UserID)
}

// HandleDisconnect removes the socket and tells the remaining room members.
func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)

	m, ok := s.memberMap.LoadAndDelete(socketId)
	if !ok {
		return
	}
	mem := m.(member)

	left, err := notification(comm.RoomNotification{
		RoomCode:  mem.RoomCode,
		Event:     comm.EventPlayerLeft,
		UserID:    mem.UserID,
		Name:      mem.Name,
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}
	s.Relay(mem.RoomCode, left, mem.UserID)
}

// Relay fans a message out to every connected socket in the room except
// the excluded player. The membership is snapshotted before writing, so a
// concurrent join or leave cannot corrupt the iteration.
func (s *Ws) Relay(roomCode string, msg *comm.WSMessage, excludeUserID int64) {
	for _, socketId := range s.RoomSockets(roomCode, excludeUserID) {
		s.sendMessage(socketId, msg)
	}
}

// RoomSockets returns a snapshot of the socket ids registered to a room.
func (s *Ws) RoomSockets(roomCode string, excludeUserID int64) []string {
	var sockets []string
	s.memberMap.Range(func(key, value interface{}) bool {
		m := value.(member)
		if m.RoomCode == roomCode && m.UserID != excludeUserID {
			sockets = append(sockets, key.(string))
		}
		return true // continue iterating
	})
	return sockets
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

// sendMessage delivery is best effort; a dead connection is cleaned up by
// its own read loop.
func (s *Ws) sendMessage(socketId string, m *comm.WSMessage) {
	if conn, ok := s.GetConnection(socketId); ok {
		if err := conn.WriteJSON(m); err != nil {
			log.Errorf("write to socket %s failed: %v", socketId, err)
		}
	}
}

func notification(n comm.RoomNotification) (*comm.WSMessage, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return &comm.WSMessage{Type: "room-notify", Data: data}, nil
}
