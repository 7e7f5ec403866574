package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
	"github.com/skygames/skyjack-services/internal/gamesvc/store"
)

// ActionService validates and records per-round player actions. Writes are
// upserts keyed on (player, round): changing your mind replaces the prior
// value, repeating it is a no-op, and no duplicate rows ever appear.
type ActionService struct {
	router *store.Router
}

func NewActionService(router *store.Router) *ActionService {
	return &ActionService{router: router}
}

// ToggleReady flips the ready flag while the room is still waiting.
func (s *ActionService) ToggleReady(ctx context.Context, code string, userID int64) (bool, error) {
	room, backend, err := s.router.Lookup(ctx, code)
	if err != nil {
		return false, mapStoreErr(err)
	}
	if room.Status != models.StatusWaiting {
		return false, fmt.Errorf("room %s is %s: %w", code, room.Status, ErrPreconditionFailed)
	}
	p, err := backend.GetPlayer(ctx, room.ID, userID)
	if err != nil {
		return false, mapStoreErr(err)
	}
	ready := !p.Ready
	if err := backend.SetReady(ctx, p.ID, ready); err != nil {
		return false, mapStoreErr(err)
	}
	return ready, nil
}

// SelectVehicle records (or replaces) a player's airplane choice for the
// given round.
func (s *ActionService) SelectVehicle(ctx context.Context, code string, userID int64, roundNo int, vehicleNo int) error {
	if vehicleNo < 1 || vehicleNo > models.VehiclesPerRound {
		return fmt.Errorf("vehicle %d out of range: %w", vehicleNo, ErrInvalidPhase)
	}

	room, backend, err := s.router.Lookup(ctx, code)
	if err != nil {
		return mapStoreErr(err)
	}
	if room.Status != models.StatusPlaying || room.Phase != models.PhaseAirplane {
		return fmt.Errorf("vehicle selection not open in phase %s: %w", room.Phase, ErrInvalidPhase)
	}
	if roundNo != room.CurrentRound {
		return fmt.Errorf("round %d is not current: %w", roundNo, ErrInvalidPhase)
	}

	p, err := backend.GetPlayer(ctx, room.ID, userID)
	if err != nil {
		return mapStoreErr(err)
	}
	round, err := backend.GetRound(ctx, room.ID, roundNo)
	if err != nil {
		return mapStoreErr(err)
	}

	if _, err := backend.UpsertVehicleChoice(ctx, round.ID, p.ID, vehicleNo); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// SelectCard commits a role card on top of an existing vehicle choice. The
// card is not burned yet; the used flag is only set when the round closes,
// so the player may switch cards until the phase advances.
func (s *ActionService) SelectCard(ctx context.Context, code string, userID int64, roundNo int, cardID int64) error {
	room, backend, err := s.router.Lookup(ctx, code)
	if err != nil {
		return mapStoreErr(err)
	}
	if room.Status != models.StatusPlaying || room.Phase != models.PhaseCardSelection {
		return fmt.Errorf("card selection not open in phase %s: %w", room.Phase, ErrInvalidPhase)
	}
	if roundNo != room.CurrentRound {
		return fmt.Errorf("round %d is not current: %w", roundNo, ErrInvalidPhase)
	}

	p, err := backend.GetPlayer(ctx, room.ID, userID)
	if err != nil {
		return mapStoreErr(err)
	}
	card, err := backend.GetCard(ctx, cardID)
	if err != nil {
		return mapStoreErr(err)
	}
	if card.PlayerID != p.ID {
		return fmt.Errorf("card %d does not belong to player: %w", cardID, ErrUnauthorized)
	}
	if card.Used {
		return fmt.Errorf("card %d already used: %w", cardID, ErrPreconditionFailed)
	}

	round, err := backend.GetRound(ctx, room.ID, roundNo)
	if err != nil {
		return mapStoreErr(err)
	}

	if _, err := backend.SetCardChoice(ctx, round.ID, p.ID, cardID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrOutOfOrder
		}
		return err
	}
	return nil
}

// allSelectedVehicle is true once every currently joined player has a
// vehicle recorded for the round. The player set is read live, so joins
// and leaves before completion change the condition.
func allSelectedVehicle(ctx context.Context, st store.Store, roomID, roundID int64) (bool, error) {
	return allActed(ctx, st, roomID, roundID, func(a *models.PlayerAction) bool { return true })
}

// allSelectedCard is true once every currently joined player has both a
// vehicle and a card recorded for the round.
func allSelectedCard(ctx context.Context, st store.Store, roomID, roundID int64) (bool, error) {
	return allActed(ctx, st, roomID, roundID, func(a *models.PlayerAction) bool { return a.CardID != nil })
}

func allActed(ctx context.Context, st store.Store, roomID, roundID int64, qualifies func(*models.PlayerAction) bool) (bool, error) {
	players, err := st.GetPlayersByRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	if len(players) == 0 {
		return false, nil
	}
	actions, err := st.GetActionsByRound(ctx, roundID)
	if err != nil {
		return false, err
	}
	acted := make(map[int64]bool, len(actions))
	for _, a := range actions {
		if qualifies(a) {
			acted[a.PlayerID] = true
		}
	}
	for _, p := range players {
		if !acted[p.ID] {
			return false, nil
		}
	}
	return true, nil
}
