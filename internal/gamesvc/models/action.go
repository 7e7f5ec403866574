package models

import "time"

// PlayerAction is one row per (player, round). The vehicle choice comes
// first; the card choice is only valid once a vehicle row exists.
type PlayerAction struct {
	ID        int64     `json:"id"`       // Primary key
	RoundID   int64     `json:"round_id"` // FK to rounds(id)
	PlayerID  int64     `json:"player_id"`
	VehicleNo int       `json:"vehicle_no"` // 1..4
	CardID    *int64    `json:"card_id"`    // FK to player_cards(id), nil until chosen
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
