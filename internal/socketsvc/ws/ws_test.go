package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skygames/skyjack-services/internal/comm"
)

func joinMessage(t *testing.T, roomCode string, userID int64, name string) *comm.WSMessage {
	t.Helper()
	data, err := json.Marshal(comm.JoinRoomRequest{RoomCode: roomCode, UserID: userID, Name: name})
	require.NoError(t, err)
	return &comm.WSMessage{Type: "join-room", Data: data}
}

func TestJoinRoomRegistersMembership(t *testing.T) {
	s := NewWs()

	s.SocketMessage("sock-1", joinMessage(t, "AAAAAA", 1, "ana"))
	s.SocketMessage("sock-2", joinMessage(t, "AAAAAA", 2, "ben"))
	s.SocketMessage("sock-3", joinMessage(t, "BBBBBB", 3, "cyn"))

	assert.ElementsMatch(t, []string{"sock-1", "sock-2"}, s.RoomSockets("AAAAAA", 0))
	assert.ElementsMatch(t, []string{"sock-3"}, s.RoomSockets("BBBBBB", 0))
}

func TestRoomSocketsExcludesActor(t *testing.T) {
	s := NewWs()

	s.SocketMessage("sock-1", joinMessage(t, "AAAAAA", 1, "ana"))
	s.SocketMessage("sock-2", joinMessage(t, "AAAAAA", 2, "ben"))

	assert.ElementsMatch(t, []string{"sock-2"}, s.RoomSockets("AAAAAA", 1))
}

func TestMalformedJoinIgnored(t *testing.T) {
	s := NewWs()

	s.SocketMessage("sock-1", &comm.WSMessage{Type: "join-room", Data: []byte("{broken")})
	s.SocketMessage("sock-2", joinMessage(t, "", 0, ""))

	assert.Empty(t, s.RoomSockets("", 0))
	assert.Empty(t, s.RoomSockets("AAAAAA", 0))
}

func TestDisconnectRemovesMembership(t *testing.T) {
	s := NewWs()

	s.SocketMessage("sock-1", joinMessage(t, "AAAAAA", 1, "ana"))
	s.SocketMessage("sock-2", joinMessage(t, "AAAAAA", 2, "ben"))

	s.HandleDisconnect("sock-1")
	assert.ElementsMatch(t, []string{"sock-2"}, s.RoomSockets("AAAAAA", 0))

	// a second disconnect for the same socket is a no-op
	s.HandleDisconnect("sock-1")
	assert.ElementsMatch(t, []string{"sock-2"}, s.RoomSockets("AAAAAA", 0))
}

func TestRelaySurvivesConcurrentMembershipChanges(t *testing.T) {
	s := NewWs()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("sock-%d", n)
			s.SocketMessage(id, joinMessage(t, "AAAAAA", int64(n+1), "p"))
			if n%2 == 0 {
				s.HandleDisconnect(id)
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			s.Relay("AAAAAA", &comm.WSMessage{Type: "room-notify"}, 0)
		}
	}()
	wg.Wait()

	assert.Len(t, s.RoomSockets("AAAAAA", 0), 8)
}
