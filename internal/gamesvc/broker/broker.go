package broker

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/skygames/skyjack-services/internal/comm"
)

// Broker publishes advisory room notifications from gamesvc onto NATS for
// the socket service to fan out. Publishing is fire-and-forget: losing a
// notification is tolerated because clients re-fetch full state anyway.
type Broker struct {
	Conn *nats.Conn
}

func NewBroker(nc *nats.Conn) *Broker {
	return &Broker{Conn: nc}
}

// RoomEvent satisfies the phase service Notifier.
func (b *Broker) RoomEvent(code string, event string) {
	b.PublishRoomNotification(comm.RoomNotification{
		RoomCode:  code,
		Event:     event,
		Timestamp: time.Now(),
	})
}

// ActorEvent is a room event attributed to one player, who will be
// excluded from the fan-out.
func (b *Broker) ActorEvent(code string, event string, userID int64, name string) {
	b.PublishRoomNotification(comm.RoomNotification{
		RoomCode:  code,
		Event:     event,
		UserID:    userID,
		Name:      name,
		Timestamp: time.Now(),
	})
}

func (b *Broker) PublishRoomNotification(n comm.RoomNotification) {
	data, err := json.Marshal(n)
	if err != nil {
		log.Errorf("unable to marshal room notification for %s", n.RoomCode)
		return
	}

	msg := &comm.WSMessage{
		Type: "room-notify",
		Data: data,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	b.Publish(comm.TopicNotify, payload)
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}
	return nil
}
