package models

import "time"

// Card role types
const (
	CardHijacker  = "hijacker"
	CardFollower  = "follower"
	CardBaby      = "baby"
	CardCouple    = "couple"
	CardSingle    = "single"
	CardPassenger = "passenger"
)

type PlayerCard struct {
	ID        int64     `json:"id"`        // Primary key
	PlayerID  int64     `json:"player_id"` // FK to players(id)
	Type      string    `json:"type"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CardSetTypes is the full hand dealt to each player at game start:
// one of each role plus two passengers.
func CardSetTypes() []string {
	return []string{
		CardHijacker,
		CardFollower,
		CardBaby,
		CardCouple,
		CardSingle,
		CardPassenger,
		CardPassenger,
	}
}
