package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
	"github.com/skygames/skyjack-services/internal/gamesvc/store"
)

// CreateRound inserts the round and its four vehicles in one transaction.
// The unique (room_id, number) constraint makes a concurrent duplicate
// create fail cleanly instead of producing a second round.
func (s *Store) CreateRound(ctx context.Context, roomID int64, number int) (*models.Round, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	round := &models.Round{}
	err = tx.QueryRow(ctx, `
		INSERT INTO rounds (room_id, number)
		VALUES ($1, $2)
		RETURNING id, room_id, number, created_at
	`, roomID, number).Scan(&round.ID, &round.RoomID, &round.Number, &round.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	for n := 1; n <= models.VehiclesPerRound; n++ {
		if _, err := tx.Exec(ctx, `
			INSERT INTO vehicles (round_id, number) VALUES ($1, $2)
		`, round.ID, n); err != nil {
			return nil, fmt.Errorf("failed to create vehicle %d: %w", n, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return round, nil
}

func (s *Store) GetRound(ctx context.Context, roomID int64, number int) (*models.Round, error) {
	round := &models.Round{}
	err := s.db.QueryRow(ctx, `
		SELECT id, room_id, number, created_at
		FROM rounds
		WHERE room_id = $1 AND number = $2
	`, roomID, number).Scan(&round.ID, &round.RoomID, &round.Number, &round.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return round, nil
}

func (s *Store) GetVehicles(ctx context.Context, roundID int64) ([]*models.Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, round_id, number, created_at
		FROM vehicles
		WHERE round_id = $1
		ORDER BY number
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		v := &models.Vehicle{}
		if err := rows.Scan(&v.ID, &v.RoundID, &v.Number, &v.CreatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}
