package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
	"github.com/skygames/skyjack-services/internal/gamesvc/store"
)

// codeAlphabet leaves out 0/O, 1/I and L so codes read unambiguously.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 6

const maxCodeAttempts = 10

func newRoomCode() string {
	out := make([]byte, codeLength)
	for i := range out {
		out[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(out)
}

type RoomService struct {
	router *store.Router
	timers *RoomTimers
}

func NewRoomService(router *store.Router, timers *RoomTimers) *RoomService {
	return &RoomService{router: router, timers: timers}
}

// RoomView is the canonical synchronous snapshot clients re-fetch after
// every relayed notification.
type RoomView struct {
	Room         *models.Room           `json:"room"`
	Players      []*models.Player       `json:"players"`
	HostUserID   int64                  `json:"host_user_id"`
	CurrentRound *models.Round          `json:"current_round,omitempty"`
	Vehicles     []*models.Vehicle      `json:"vehicles,omitempty"`
	MyCards      []*models.PlayerCard   `json:"my_cards,omitempty"`
	MyAction     *models.PlayerAction   `json:"my_action,omitempty"`
	RoundActions []*models.PlayerAction `json:"round_actions,omitempty"`
	RoundResults []*models.RoundResult  `json:"round_results,omitempty"`
	Ranking      []*models.Player       `json:"ranking,omitempty"`
	TimerPending bool                   `json:"timer_pending"`
}

// CreateRoom generates a collision-checked code (bounded retry) and seats
// the creating player as host.
func (s *RoomService) CreateRoom(ctx context.Context, userID int64, name string) (*models.Room, *models.Player, error) {
	var room *models.Room
	var backend store.Store

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		r, b, err := s.router.Create(ctx, newRoomCode())
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				continue
			}
			return nil, nil, fmt.Errorf("create room: %w", ErrStorageUnavailable)
		}
		room, backend = r, b
		break
	}
	if room == nil {
		return nil, nil, fmt.Errorf("unique room codes exhausted after %d attempts: %w", maxCodeAttempts, ErrStorageUnavailable)
	}

	host, err := backend.CreatePlayer(ctx, room.ID, userID, name)
	if err != nil {
		return nil, nil, fmt.Errorf("seat host: %w", err)
	}
	return room, host, nil
}

// JoinRoom seats a player. Rejoining with a known user id returns the
// existing seat so reconnects are idempotent.
func (s *RoomService) JoinRoom(ctx context.Context, code string, userID int64, name string) (*models.Player, error) {
	room, backend, err := s.router.Lookup(ctx, code)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if p, err := backend.GetPlayer(ctx, room.ID, userID); err == nil {
		return p, nil
	}

	if room.Status != models.StatusWaiting {
		return nil, fmt.Errorf("room %s already %s: %w", code, room.Status, ErrPreconditionFailed)
	}

	p, err := backend.CreatePlayer(ctx, room.ID, userID, name)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRoomFull):
			return nil, ErrCapacity
		case errors.Is(err, store.ErrDuplicate):
			return backend.GetPlayer(ctx, room.ID, userID)
		default:
			return nil, mapStoreErr(err)
		}
	}
	return p, nil
}

// LeaveRoom removes a player from a room that has not started yet. Leaving
// mid-game is a disconnect, handled by the socket layer, not a seat change.
func (s *RoomService) LeaveRoom(ctx context.Context, code string, userID int64) error {
	room, backend, err := s.router.Lookup(ctx, code)
	if err != nil {
		return mapStoreErr(err)
	}
	if room.Status != models.StatusWaiting {
		return fmt.Errorf("cannot leave a %s room: %w", room.Status, ErrPreconditionFailed)
	}
	p, err := backend.GetPlayer(ctx, room.ID, userID)
	if err != nil {
		return mapStoreErr(err)
	}
	return mapStoreErr(backend.RemovePlayer(ctx, p.ID))
}

// View assembles the full room snapshot for one requesting user.
func (s *RoomService) View(ctx context.Context, code string, userID int64) (*RoomView, error) {
	room, backend, err := s.router.Lookup(ctx, code)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	players, err := backend.GetPlayersByRoom(ctx, room.ID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	view := &RoomView{
		Room:         room,
		Players:      players,
		TimerPending: s.timers.Pending(code),
	}
	if len(players) > 0 {
		view.HostUserID = players[0].UserID
	}

	var me *models.Player
	for _, p := range players {
		if p.UserID == userID {
			me = p
			break
		}
	}

	if room.CurrentRound > 0 {
		round, err := backend.GetRound(ctx, room.ID, room.CurrentRound)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, mapStoreErr(err)
		}
		if round != nil {
			view.CurrentRound = round
			if view.Vehicles, err = backend.GetVehicles(ctx, round.ID); err != nil {
				return nil, mapStoreErr(err)
			}
			if view.RoundActions, err = backend.GetActionsByRound(ctx, round.ID); err != nil {
				return nil, mapStoreErr(err)
			}
			if room.Phase == models.PhaseResults {
				if view.RoundResults, err = backend.GetResultsByRound(ctx, round.ID); err != nil {
					return nil, mapStoreErr(err)
				}
			}
			if me != nil {
				if a, err := backend.GetAction(ctx, round.ID, me.ID); err == nil {
					view.MyAction = a
				}
			}
		}
	}

	if me != nil {
		cards, err := backend.GetCards(ctx, me.ID)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		for _, c := range cards {
			if !c.Used {
				view.MyCards = append(view.MyCards, c)
			}
		}
	}

	if room.Status == models.StatusFinished {
		if view.Ranking, err = backend.GetRanking(ctx, room.ID); err != nil {
			return nil, mapStoreErr(err)
		}
	}

	return view, nil
}

// ResetRoom is the operator recovery path: wipes rounds, actions, cards and
// results, zeroes scores and puts the room back to waiting.
func (s *RoomService) ResetRoom(ctx context.Context, code string) error {
	room, backend, err := s.router.Lookup(ctx, code)
	if err != nil {
		return mapStoreErr(err)
	}
	s.timers.Cancel(code)
	return mapStoreErr(backend.ResetRoom(ctx, room.ID))
}

func (s *RoomService) DeleteRoom(ctx context.Context, code string) error {
	room, backend, err := s.router.Lookup(ctx, code)
	if err != nil {
		return mapStoreErr(err)
	}
	s.timers.Cancel(code)
	if err := backend.DeleteRoom(ctx, room.ID); err != nil {
		return mapStoreErr(err)
	}
	s.router.Forget(code)
	return nil
}

func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrRoomFull):
		return ErrCapacity
	default:
		return err
	}
}
