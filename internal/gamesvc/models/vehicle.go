package models

import "time"

// VehiclesPerRound is fixed: every round offers airplanes 1-4.
const VehiclesPerRound = 4

type Vehicle struct {
	ID        int64     `json:"id"`       // Primary key
	RoundID   int64     `json:"round_id"` // FK to rounds(id)
	Number    int       `json:"number"`   // 1..4
	CreatedAt time.Time `json:"created_at"`
}
