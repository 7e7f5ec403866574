package models

import "time"

// Room lifecycle status
const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// Room phases within a round
const (
	PhaseWaiting       = "waiting"
	PhaseAirplane      = "airplane_selection"
	PhaseDiscussion    = "discussion"
	PhaseCardSelection = "card_selection"
	PhaseResults       = "results"
)

const (
	MaxPlayers = 8
	MinPlayers = 2
	MaxRounds  = 5
)

type Room struct {
	ID             int64      `json:"id"`            // Primary key
	Code           string     `json:"code"`          // Unique 6-char join code
	Status         string     `json:"status"`        // 'waiting', 'playing', 'finished'
	CurrentRound   int        `json:"current_round"` // 0 before start, 1..5 during play
	Phase          string     `json:"phase"`
	PhaseStartedAt *time.Time `json:"phase_started_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
