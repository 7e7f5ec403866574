package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
)

func TestComputeRoundScoresHijackedVehicle(t *testing.T) {
	// passenger and hijacker share airplane 1, a lone follower sits on 2
	scores := ComputeRoundScores([]ScoreEntry{
		{PlayerID: 1, VehicleNo: 1, CardType: models.CardPassenger},
		{PlayerID: 2, VehicleNo: 1, CardType: models.CardHijacker},
		{PlayerID: 3, VehicleNo: 2, CardType: models.CardFollower},
	})

	assert.Equal(t, 0, scores[1], "passenger on a hijacked airplane scores nothing")
	assert.Equal(t, 3, scores[2], "hijacker scores (occupants-1)*3")
	assert.Equal(t, 0, scores[3], "follower without a hijacker aboard scores nothing")
}

func TestComputeRoundScoresFollowerWithHijacker(t *testing.T) {
	scores := ComputeRoundScores([]ScoreEntry{
		{PlayerID: 1, VehicleNo: 1, CardType: models.CardHijacker},
		{PlayerID: 2, VehicleNo: 1, CardType: models.CardFollower},
		{PlayerID: 3, VehicleNo: 1, CardType: models.CardPassenger},
	})

	assert.Equal(t, 3, scores[1], "hijacker loses 3 per follower aboard")
	assert.Equal(t, 7, scores[2])
	assert.Equal(t, 0, scores[3])
}

func TestComputeRoundScoresBabyPenalty(t *testing.T) {
	scores := ComputeRoundScores([]ScoreEntry{
		{PlayerID: 1, VehicleNo: 1, CardType: models.CardPassenger},
		{PlayerID: 2, VehicleNo: 1, CardType: models.CardPassenger},
		{PlayerID: 3, VehicleNo: 1, CardType: models.CardBaby},
	})

	assert.Equal(t, 3, scores[1], "passenger pays the baby penalty")
	assert.Equal(t, 3, scores[2])
	assert.Equal(t, 4, scores[3], "the baby itself is unaffected by its own penalty")
}

func TestComputeRoundScoresCouplesAndSingles(t *testing.T) {
	scores := ComputeRoundScores([]ScoreEntry{
		{PlayerID: 1, VehicleNo: 2, CardType: models.CardCouple},
		{PlayerID: 2, VehicleNo: 2, CardType: models.CardCouple},
		{PlayerID: 3, VehicleNo: 2, CardType: models.CardSingle},
	})

	assert.Equal(t, 5, scores[1], "couple gains one per extra couple aboard")
	assert.Equal(t, 5, scores[2])
	assert.Equal(t, 4, scores[3], "single loses one per couple aboard")
}

func TestComputeRoundScoresFlooredAtZero(t *testing.T) {
	// two followers drain the hijacker below zero before the floor
	scores := ComputeRoundScores([]ScoreEntry{
		{PlayerID: 1, VehicleNo: 3, CardType: models.CardHijacker},
		{PlayerID: 2, VehicleNo: 3, CardType: models.CardFollower},
		{PlayerID: 3, VehicleNo: 3, CardType: models.CardFollower},
	})

	assert.Equal(t, 0, scores[1])
	assert.Equal(t, 7, scores[2])
	assert.Equal(t, 7, scores[3])
}

func TestComputeRoundScoresBabyPenaltyOnHijackedVehicle(t *testing.T) {
	scores := ComputeRoundScores([]ScoreEntry{
		{PlayerID: 1, VehicleNo: 1, CardType: models.CardHijacker},
		{PlayerID: 2, VehicleNo: 1, CardType: models.CardBaby},
	})

	assert.Equal(t, 2, scores[1], "hijacker still pays the baby penalty")
	assert.Equal(t, 0, scores[2])
}

func TestComputeRoundScoresLoneOccupant(t *testing.T) {
	scores := ComputeRoundScores([]ScoreEntry{
		{PlayerID: 1, VehicleNo: 4, CardType: models.CardPassenger},
	})
	assert.Equal(t, 0, scores[1], "nobody to share the airplane with")
}

func TestComputeRoundScoresOrderIndependent(t *testing.T) {
	entries := []ScoreEntry{
		{PlayerID: 1, VehicleNo: 1, CardType: models.CardHijacker},
		{PlayerID: 2, VehicleNo: 1, CardType: models.CardFollower},
		{PlayerID: 3, VehicleNo: 2, CardType: models.CardCouple},
		{PlayerID: 4, VehicleNo: 2, CardType: models.CardCouple},
		{PlayerID: 5, VehicleNo: 2, CardType: models.CardBaby},
		{PlayerID: 6, VehicleNo: 3, CardType: models.CardSingle},
		{PlayerID: 7, VehicleNo: 1, CardType: models.CardPassenger},
	}

	want := ComputeRoundScores(entries)

	reversed := make([]ScoreEntry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}
	assert.Equal(t, want, ComputeRoundScores(reversed))

	rotated := append(entries[3:], entries[:3]...)
	assert.Equal(t, want, ComputeRoundScores(rotated))
}
