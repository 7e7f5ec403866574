package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/skygames/skyjack-services/internal/comm"
)

type Broker struct {
	Conn *nats.Conn

	// Relay fans a message out to a room, skipping the acting player.
	Relay func(roomCode string, m *comm.WSMessage, excludeUserID int64)
}

func NewBroker(conn *nats.Conn, relay func(string, *comm.WSMessage, int64)) *Broker {
	return &Broker{
		Conn:  conn,
		Relay: relay,
	}
}

// consume notifications from the game service
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

// handleMessages receives a message from the game service and relays it
// to the sockets of the affected room. The acting player already knows
// the outcome from the HTTP response, so they are skipped.
func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	err := json.Unmarshal(msgNats.Data, &message)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	switch message.Type {
	case "room-notify":
		var n comm.RoomNotification
		if err := json.Unmarshal(message.Data, &n); err != nil {
			log.Errorf("Error: malformed room notification %s", err)
			return
		}
		b.Relay(n.RoomCode, message, n.UserID)
	default:
		log.Error("Unknown message")
		return
	}
}
