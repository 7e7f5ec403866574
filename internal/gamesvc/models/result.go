package models

import "time"

// RoundResult is append-only scoring output, one row per (round, player).
type RoundResult struct {
	ID        int64     `json:"id"`       // Primary key
	RoundID   int64     `json:"round_id"` // FK to rounds(id)
	PlayerID  int64     `json:"player_id"`
	VehicleNo int       `json:"vehicle_no"`
	CardType  string    `json:"card_type"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
