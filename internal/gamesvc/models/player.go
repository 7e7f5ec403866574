package models

import "time"

type Player struct {
	ID         int64     `json:"id"`      // Primary key
	RoomID     int64     `json:"room_id"` // FK to rooms(id)
	UserID     int64     `json:"user_id"` // stable external user id
	Name       string    `json:"name"`
	Seat       int       `json:"seat"` // join order, seat 0 is the host
	Ready      bool      `json:"ready"`
	TotalScore int       `json:"total_score"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
