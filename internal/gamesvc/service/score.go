package service

import "github.com/skygames/skyjack-services/internal/gamesvc/models"

// ScoreEntry is one player's resolved action for a round: which airplane
// they boarded and which role card they committed.
type ScoreEntry struct {
	PlayerID  int64
	VehicleNo int
	CardType  string
}

// ComputeRoundScores is the scoring engine. It is a pure function of the
// multiset of (vehicle, card type) pairs, so submission order never changes
// the outcome.
//
// Per airplane:
//   - with a hijacker aboard, everyone scores 0 except hijackers
//     (occupants-1)*3 - followers*3 and followers, who score 7
//   - without one: passengers and babies score (occupants-1)*2, couples
//     (occupants-1)*2 + (couples-1), singles (occupants-1)*3 - couples
//   - any babies aboard subtract the baby count from every non-baby score
//
// No score goes below zero.
func ComputeRoundScores(entries []ScoreEntry) map[int64]int {
	byVehicle := make(map[int][]ScoreEntry)
	for _, e := range entries {
		byVehicle[e.VehicleNo] = append(byVehicle[e.VehicleNo], e)
	}

	scores := make(map[int64]int, len(entries))
	for _, occupants := range byVehicle {
		counts := make(map[string]int)
		for _, e := range occupants {
			counts[e.CardType]++
		}
		n := len(occupants)
		hijackers := counts[models.CardHijacker]
		followers := counts[models.CardFollower]
		couples := counts[models.CardCouple]
		babies := counts[models.CardBaby]

		for _, e := range occupants {
			var score int
			if hijackers > 0 {
				switch e.CardType {
				case models.CardHijacker:
					score = (n-1)*3 - followers*3
				case models.CardFollower:
					score = 7
				}
			} else {
				switch e.CardType {
				case models.CardPassenger, models.CardBaby:
					score = (n - 1) * 2
				case models.CardCouple:
					score = (n-1)*2 + (couples - 1)
				case models.CardSingle:
					score = (n-1)*3 - couples
				case models.CardFollower:
					// a follower with nobody to follow gains nothing
					score = 0
				}
			}

			// crying babies cost everyone else, hijacked or not
			if e.CardType != models.CardBaby {
				score -= babies
			}
			if score < 0 {
				score = 0
			}
			scores[e.PlayerID] = score
		}
	}
	return scores
}
