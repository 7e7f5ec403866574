package pg

import (
	"context"
	"fmt"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
	"github.com/skygames/skyjack-services/internal/gamesvc/store"
)

func (s *Store) ResultsExist(ctx context.Context, roundID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM round_results WHERE round_id = $1)
	`, roundID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check results: %w", err)
	}
	return exists, nil
}

// InsertResults writes the whole result set in one transaction, locking the
// round row first so two concurrent closers cannot both pass the existence
// check.
func (s *Store) InsertResults(ctx context.Context, results []*models.RoundResult) error {
	if len(results) == 0 {
		return nil
	}
	roundID := results[0].RoundID

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM rounds WHERE id = $1 FOR UPDATE`, roundID); err != nil {
		return fmt.Errorf("lock round: %w", err)
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM round_results WHERE round_id = $1)
	`, roundID).Scan(&exists); err != nil {
		return fmt.Errorf("check existing results: %w", err)
	}
	if exists {
		return store.ErrDuplicate
	}

	for _, r := range results {
		if _, err := tx.Exec(ctx, `
			INSERT INTO round_results (round_id, player_id, vehicle_no, card_type, score)
			VALUES ($1, $2, $3, $4, $5)
		`, r.RoundID, r.PlayerID, r.VehicleNo, r.CardType, r.Score); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) GetResultsByRound(ctx context.Context, roundID int64) ([]*models.RoundResult, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, round_id, player_id, vehicle_no, card_type, score, created_at
		FROM round_results
		WHERE round_id = $1
		ORDER BY id
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []*models.RoundResult
	for rows.Next() {
		r := &models.RoundResult{}
		if err := rows.Scan(&r.ID, &r.RoundID, &r.PlayerID, &r.VehicleNo, &r.CardType, &r.Score, &r.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
