package models

import "time"

type Round struct {
	ID        int64     `json:"id"`      // Primary key
	RoomID    int64     `json:"room_id"` // FK to rooms(id)
	Number    int       `json:"number"`  // 1-based, max 5
	CreatedAt time.Time `json:"created_at"`
}
