package store

import (
	"context"
	"errors"
	"time"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	ErrRoomFull  = errors.New("room is full")
)

// Store is the persistence contract shared by the Postgres backend and the
// in-memory fallback. Core services are written once against this interface
// and stay backend-agnostic.
type Store interface {
	// rooms
	CreateRoom(ctx context.Context, code string) (*models.Room, error)
	GetRoomByCode(ctx context.Context, code string) (*models.Room, error)
	GetRoom(ctx context.Context, roomID int64) (*models.Room, error)

	// AdvancePhase is a compare-and-set on the room lifecycle: the update
	// only applies while the stored status and phase still match the
	// expectations. Returns false when another caller already moved the
	// room on.
	AdvancePhase(ctx context.Context, roomID int64, expectStatus, expectPhase string, newStatus, newPhase string, newRound int, at time.Time) (bool, error)

	// SetPhase is the raw operator override, no precondition.
	SetPhase(ctx context.Context, roomID int64, phase string, at time.Time) error

	ResetRoom(ctx context.Context, roomID int64) error
	DeleteRoom(ctx context.Context, roomID int64) error

	// players
	CreatePlayer(ctx context.Context, roomID int64, userID int64, name string) (*models.Player, error)
	GetPlayer(ctx context.Context, roomID int64, userID int64) (*models.Player, error)
	GetPlayersByRoom(ctx context.Context, roomID int64) ([]*models.Player, error)
	SetReady(ctx context.Context, playerID int64, ready bool) error
	AddScore(ctx context.Context, playerID int64, delta int) error
	RemovePlayer(ctx context.Context, playerID int64) error
	GetRanking(ctx context.Context, roomID int64) ([]*models.Player, error)

	// rounds and vehicles
	CreateRound(ctx context.Context, roomID int64, number int) (*models.Round, error)
	GetRound(ctx context.Context, roomID int64, number int) (*models.Round, error)
	GetVehicles(ctx context.Context, roundID int64) ([]*models.Vehicle, error)

	// player cards
	ReplaceCardSet(ctx context.Context, playerID int64, types []string) ([]*models.PlayerCard, error)
	GetCards(ctx context.Context, playerID int64) ([]*models.PlayerCard, error)
	GetCard(ctx context.Context, cardID int64) (*models.PlayerCard, error)
	MarkCardUsed(ctx context.Context, cardID int64) error

	// player actions
	UpsertVehicleChoice(ctx context.Context, roundID int64, playerID int64, vehicleNo int) (*models.PlayerAction, error)
	SetCardChoice(ctx context.Context, roundID int64, playerID int64, cardID int64) (*models.PlayerAction, error)
	GetAction(ctx context.Context, roundID int64, playerID int64) (*models.PlayerAction, error)
	GetActionsByRound(ctx context.Context, roundID int64) ([]*models.PlayerAction, error)

	// round results
	ResultsExist(ctx context.Context, roundID int64) (bool, error)
	InsertResults(ctx context.Context, results []*models.RoundResult) error
	GetResultsByRound(ctx context.Context, roundID int64) ([]*models.RoundResult, error)
}
