package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
	"github.com/skygames/skyjack-services/internal/gamesvc/store"
)

func (s *Store) CreateRoom(ctx context.Context, code string) (*models.Room, error) {
	query := `
		INSERT INTO rooms (code, status, current_round, phase)
		VALUES ($1, 'waiting', 0, 'waiting')
		RETURNING id, code, status, current_round, phase, phase_started_at, created_at, updated_at
	`

	room := &models.Room{}
	err := s.db.QueryRow(ctx, query, code).Scan(
		&room.ID,
		&room.Code,
		&room.Status,
		&room.CurrentRound,
		&room.Phase,
		&room.PhaseStartedAt,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

func (s *Store) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	query := `
		SELECT id, code, status, current_round, phase, phase_started_at, created_at, updated_at
		FROM rooms
		WHERE code = $1
	`
	return s.scanRoom(s.db.QueryRow(ctx, query, code))
}

func (s *Store) GetRoom(ctx context.Context, roomID int64) (*models.Room, error) {
	query := `
		SELECT id, code, status, current_round, phase, phase_started_at, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`
	return s.scanRoom(s.db.QueryRow(ctx, query, roomID))
}

func (s *Store) scanRoom(row pgx.Row) (*models.Room, error) {
	room := &models.Room{}
	err := row.Scan(
		&room.ID,
		&room.Code,
		&room.Status,
		&room.CurrentRound,
		&room.Phase,
		&room.PhaseStartedAt,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

// AdvancePhase only applies while the stored status and phase still match;
// a losing concurrent caller sees changed=false and must not repeat side
// effects.
func (s *Store) AdvancePhase(ctx context.Context, roomID int64, expectStatus, expectPhase, newStatus, newPhase string, newRound int, at time.Time) (bool, error) {
	query := `
		UPDATE rooms
		SET status = $4, phase = $5, current_round = $6, phase_started_at = $7, updated_at = now()
		WHERE id = $1 AND status = $2 AND phase = $3
	`

	tag, err := s.db.Exec(ctx, query, roomID, expectStatus, expectPhase, newStatus, newPhase, newRound, at)
	if err != nil {
		return false, fmt.Errorf("failed to advance phase: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SetPhase(ctx context.Context, roomID int64, phase string, at time.Time) error {
	query := `
		UPDATE rooms SET phase = $2, phase_started_at = $3, updated_at = now()
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query, roomID, phase, at)
	if err != nil {
		return fmt.Errorf("failed to set phase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ResetRoom(ctx context.Context, roomID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// rounds cascade to vehicles, player_actions and round_results
	if _, err := tx.Exec(ctx, `DELETE FROM rounds WHERE room_id = $1`, roomID); err != nil {
		return fmt.Errorf("delete rounds: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM player_cards
		WHERE player_id IN (SELECT id FROM players WHERE room_id = $1)
	`, roomID); err != nil {
		return fmt.Errorf("delete cards: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE players SET ready = false, total_score = 0, updated_at = now()
		WHERE room_id = $1
	`, roomID); err != nil {
		return fmt.Errorf("reset players: %w", err)
	}
	tag, err := tx.Exec(ctx, `
		UPDATE rooms
		SET status = 'waiting', phase = 'waiting', current_round = 0, phase_started_at = NULL, updated_at = now()
		WHERE id = $1
	`, roomID)
	if err != nil {
		return fmt.Errorf("reset room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return tx.Commit(ctx)
}

func (s *Store) DeleteRoom(ctx context.Context, roomID int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
