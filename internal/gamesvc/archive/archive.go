package archive

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
)

// Archive writes finished-game summaries to MongoDB for history queries.
// It sits outside the game's hot path: a failed write is logged by the
// caller and never blocks or corrupts the room.
type Archive struct {
	col *mongo.Collection
}

func New(db *mongo.Database) *Archive {
	return &Archive{col: db.Collection("finished_games")}
}

type rankingEntry struct {
	UserID     int64  `bson:"user_id"`
	Name       string `bson:"name"`
	Seat       int    `bson:"seat"`
	TotalScore int    `bson:"total_score"`
}

type finishedGame struct {
	RoomCode   string         `bson:"room_code"`
	Rounds     int            `bson:"rounds"`
	Ranking    []rankingEntry `bson:"ranking"`
	FinishedAt time.Time      `bson:"finished_at"`
}

func (a *Archive) ArchiveFinished(ctx context.Context, room *models.Room, ranking []*models.Player) error {
	doc := finishedGame{
		RoomCode:   room.Code,
		Rounds:     room.CurrentRound,
		FinishedAt: time.Now(),
	}
	for _, p := range ranking {
		doc.Ranking = append(doc.Ranking, rankingEntry{
			UserID:     p.UserID,
			Name:       p.Name,
			Seat:       p.Seat,
			TotalScore: p.TotalScore,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := a.col.InsertOne(ctx, doc)
	return err
}
