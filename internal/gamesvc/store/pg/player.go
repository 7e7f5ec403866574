package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
	"github.com/skygames/skyjack-services/internal/gamesvc/store"
)

const playerColumns = `id, room_id, user_id, name, seat, ready, total_score, created_at, updated_at`

// CreatePlayer seats a player atomically: the CTE locks the room row so two
// concurrent joins cannot both take the last seat or the same seat ordinal.
func (s *Store) CreatePlayer(ctx context.Context, roomID int64, userID int64, name string) (*models.Player, error) {
	const query = `
WITH locked_room AS (
  SELECT id
  FROM rooms
  WHERE id = $1
  FOR UPDATE
),
seats AS (
  SELECT COUNT(*) AS taken
  FROM players
  WHERE room_id = $1
)
INSERT INTO players (room_id, user_id, name, seat)
SELECT lr.id, $2, $3, s.taken
FROM locked_room lr, seats s
WHERE s.taken < $4
RETURNING ` + playerColumns + `;
`

	p := &models.Player{}
	err := s.db.QueryRow(ctx, query, roomID, userID, name, models.MaxPlayers).Scan(
		&p.ID, &p.RoomID, &p.UserID, &p.Name, &p.Seat, &p.Ready, &p.TotalScore, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// zero rows: either the room is gone or every seat is taken
			if _, roomErr := s.GetRoom(ctx, roomID); roomErr != nil {
				return nil, roomErr
			}
			return nil, store.ErrRoomFull
		}
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return p, nil
}

func (s *Store) GetPlayer(ctx context.Context, roomID int64, userID int64) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE room_id = $1 AND user_id = $2`

	p := &models.Player{}
	err := s.db.QueryRow(ctx, query, roomID, userID).Scan(
		&p.ID, &p.RoomID, &p.UserID, &p.Name, &p.Seat, &p.Ready, &p.TotalScore, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

func (s *Store) GetPlayersByRoom(ctx context.Context, roomID int64) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE room_id = $1 ORDER BY seat`
	return s.queryPlayers(ctx, query, roomID)
}

func (s *Store) GetRanking(ctx context.Context, roomID int64) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE room_id = $1 ORDER BY total_score DESC, seat`
	return s.queryPlayers(ctx, query, roomID)
}

func (s *Store) queryPlayers(ctx context.Context, query string, roomID int64) ([]*models.Player, error) {
	rows, err := s.db.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		p := &models.Player{}
		err := rows.Scan(
			&p.ID, &p.RoomID, &p.UserID, &p.Name, &p.Seat, &p.Ready, &p.TotalScore, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *Store) SetReady(ctx context.Context, playerID int64, ready bool) error {
	tag, err := s.db.Exec(ctx, `UPDATE players SET ready = $2, updated_at = now() WHERE id = $1`, playerID, ready)
	if err != nil {
		return fmt.Errorf("failed to set ready: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddScore(ctx context.Context, playerID int64, delta int) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE players SET total_score = total_score + $2, updated_at = now()
		WHERE id = $1
	`, playerID, delta)
	if err != nil {
		return fmt.Errorf("failed to add score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) RemovePlayer(ctx context.Context, playerID int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM players WHERE id = $1`, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
