package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
	"github.com/skygames/skyjack-services/internal/gamesvc/store"
)

const actionColumns = `id, round_id, player_id, vehicle_no, card_id, created_at, updated_at`

// UpsertVehicleChoice keys on (round_id, player_id): a repeat choice by the
// same player replaces the vehicle in place instead of adding a row. The
// card_id column is left untouched on conflict.
func (s *Store) UpsertVehicleChoice(ctx context.Context, roundID int64, playerID int64, vehicleNo int) (*models.PlayerAction, error) {
	query := `
		INSERT INTO player_actions (round_id, player_id, vehicle_no)
		VALUES ($1, $2, $3)
		ON CONFLICT (round_id, player_id)
		DO UPDATE SET vehicle_no = EXCLUDED.vehicle_no, updated_at = now()
		RETURNING ` + actionColumns

	a := &models.PlayerAction{}
	err := s.db.QueryRow(ctx, query, roundID, playerID, vehicleNo).Scan(
		&a.ID, &a.RoundID, &a.PlayerID, &a.VehicleNo, &a.CardID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert vehicle choice: %w", err)
	}
	return a, nil
}

// SetCardChoice updates an existing action row only; with no prior vehicle
// row there is nothing to update and ErrNotFound comes back, which the
// service surfaces as an out-of-order selection.
func (s *Store) SetCardChoice(ctx context.Context, roundID int64, playerID int64, cardID int64) (*models.PlayerAction, error) {
	query := `
		UPDATE player_actions
		SET card_id = $3, updated_at = now()
		WHERE round_id = $1 AND player_id = $2
		RETURNING ` + actionColumns

	a := &models.PlayerAction{}
	err := s.db.QueryRow(ctx, query, roundID, playerID, cardID).Scan(
		&a.ID, &a.RoundID, &a.PlayerID, &a.VehicleNo, &a.CardID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to set card choice: %w", err)
	}
	return a, nil
}

func (s *Store) GetAction(ctx context.Context, roundID int64, playerID int64) (*models.PlayerAction, error) {
	query := `SELECT ` + actionColumns + ` FROM player_actions WHERE round_id = $1 AND player_id = $2`

	a := &models.PlayerAction{}
	err := s.db.QueryRow(ctx, query, roundID, playerID).Scan(
		&a.ID, &a.RoundID, &a.PlayerID, &a.VehicleNo, &a.CardID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get action: %w", err)
	}
	return a, nil
}

func (s *Store) GetActionsByRound(ctx context.Context, roundID int64) ([]*models.PlayerAction, error) {
	query := `SELECT ` + actionColumns + ` FROM player_actions WHERE round_id = $1 ORDER BY id`

	rows, err := s.db.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	var actions []*models.PlayerAction
	for rows.Next() {
		a := &models.PlayerAction{}
		if err := rows.Scan(&a.ID, &a.RoundID, &a.PlayerID, &a.VehicleNo, &a.CardID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
