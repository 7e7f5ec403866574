package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
	"github.com/skygames/skyjack-services/internal/gamesvc/store"
)

// ReplaceCardSet clears any prior hand and deals the given card types in
// the order supplied (the caller shuffles).
func (s *Store) ReplaceCardSet(ctx context.Context, playerID int64, types []string) ([]*models.PlayerCard, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM player_cards WHERE player_id = $1`, playerID); err != nil {
		return nil, fmt.Errorf("failed to clear cards: %w", err)
	}

	var cards []*models.PlayerCard
	for _, t := range types {
		card := &models.PlayerCard{}
		err := tx.QueryRow(ctx, `
			INSERT INTO player_cards (player_id, type, used)
			VALUES ($1, $2, false)
			RETURNING id, player_id, type, used, created_at, updated_at
		`, playerID, t).Scan(&card.ID, &card.PlayerID, &card.Type, &card.Used, &card.CreatedAt, &card.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to deal card: %w", err)
		}
		cards = append(cards, card)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return cards, nil
}

func (s *Store) GetCards(ctx context.Context, playerID int64) ([]*models.PlayerCard, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, player_id, type, used, created_at, updated_at
		FROM player_cards
		WHERE player_id = $1
		ORDER BY id
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.PlayerCard
	for rows.Next() {
		card := &models.PlayerCard{}
		if err := rows.Scan(&card.ID, &card.PlayerID, &card.Type, &card.Used, &card.CreatedAt, &card.UpdatedAt); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (s *Store) GetCard(ctx context.Context, cardID int64) (*models.PlayerCard, error) {
	card := &models.PlayerCard{}
	err := s.db.QueryRow(ctx, `
		SELECT id, player_id, type, used, created_at, updated_at
		FROM player_cards
		WHERE id = $1
	`, cardID).Scan(&card.ID, &card.PlayerID, &card.Type, &card.Used, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

func (s *Store) MarkCardUsed(ctx context.Context, cardID int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE player_cards SET used = true, updated_at = now()
		WHERE id = $1
	`, cardID)
	if err != nil {
		return fmt.Errorf("failed to mark card used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
