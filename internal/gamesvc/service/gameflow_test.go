package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
	"github.com/skygames/skyjack-services/internal/gamesvc/store"
	"github.com/skygames/skyjack-services/internal/gamesvc/store/mem"
)

type fixture struct {
	rooms   *RoomService
	actions *ActionService
	phases  *PhaseService
	backend *mem.Store
}

// newFixture wires the services over the in-memory backend only. Durations
// are zero so no phase timer ever fires during a test; every advance is
// driven explicitly.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := mem.New()
	router := store.NewRouter(nil, backend)
	timers := NewRoomTimers()
	actions := NewActionService(router)
	return &fixture{
		rooms:   NewRoomService(router, timers),
		actions: actions,
		phases:  NewPhaseService(router, actions, timers, Durations{}),
		backend: backend,
	}
}

// startedRoom creates a room with two ready players and starts the game.
func startedRoom(t *testing.T, f *fixture) string {
	t.Helper()
	ctx := context.Background()

	room, _, err := f.rooms.CreateRoom(ctx, 1, "ana")
	require.NoError(t, err)
	_, err = f.rooms.JoinRoom(ctx, room.Code, 2, "ben")
	require.NoError(t, err)

	_, err = f.actions.ToggleReady(ctx, room.Code, 1)
	require.NoError(t, err)
	_, err = f.actions.ToggleReady(ctx, room.Code, 2)
	require.NoError(t, err)

	require.NoError(t, f.phases.StartGame(ctx, room.Code, 1))
	return room.Code
}

// playRound walks both players through one full round and leaves the room
// in the results phase.
func playRound(t *testing.T, f *fixture, code string, roundNo int) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.actions.SelectVehicle(ctx, code, 1, roundNo, 1))
	require.NoError(t, f.actions.SelectVehicle(ctx, code, 2, roundNo, 2))
	require.NoError(t, f.phases.AutoAdvance(ctx, code))

	// discussion has no action to complete, force past it
	require.NoError(t, f.phases.Advance(ctx, code))

	for _, userID := range []int64{1, 2} {
		view, err := f.rooms.View(ctx, code, userID)
		require.NoError(t, err)
		require.NotEmpty(t, view.MyCards)
		require.NoError(t, f.actions.SelectCard(ctx, code, userID, roundNo, view.MyCards[0].ID))
	}
	require.NoError(t, f.phases.AutoAdvance(ctx, code))
}

func TestCreateRoomSeatsHost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, host, err := f.rooms.CreateRoom(ctx, 7, "ana")
	require.NoError(t, err)

	assert.Len(t, room.Code, codeLength)
	for _, c := range room.Code {
		assert.Contains(t, codeAlphabet, string(c))
	}
	assert.Equal(t, models.StatusWaiting, room.Status)
	assert.Equal(t, 0, host.Seat)

	view, err := f.rooms.View(ctx, room.Code, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), view.HostUserID)
}

type dupStore struct{ store.Store }

func (dupStore) CreateRoom(ctx context.Context, code string) (*models.Room, error) {
	return nil, store.ErrDuplicate
}

func TestCreateRoomExhaustsCodes(t *testing.T) {
	router := store.NewRouter(dupStore{}, mem.New())
	rooms := NewRoomService(router, NewRoomTimers())

	_, _, err := rooms.CreateRoom(context.Background(), 1, "ana")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestJoinRoomRejoinIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, _, err := f.rooms.CreateRoom(ctx, 1, "ana")
	require.NoError(t, err)

	first, err := f.rooms.JoinRoom(ctx, room.Code, 2, "ben")
	require.NoError(t, err)
	again, err := f.rooms.JoinRoom(ctx, room.Code, 2, "ben")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	view, err := f.rooms.View(ctx, room.Code, 1)
	require.NoError(t, err)
	assert.Len(t, view.Players, 2)
}

func TestJoinRoomCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, _, err := f.rooms.CreateRoom(ctx, 1, "ana")
	require.NoError(t, err)
	for userID := int64(2); userID <= models.MaxPlayers; userID++ {
		_, err := f.rooms.JoinRoom(ctx, room.Code, userID, "player")
		require.NoError(t, err)
	}

	_, err = f.rooms.JoinRoom(ctx, room.Code, 99, "late")
	assert.ErrorIs(t, err, ErrCapacity)
}

func TestJoinRoomAfterStartRejected(t *testing.T) {
	f := newFixture(t)
	code := startedRoom(t, f)

	_, err := f.rooms.JoinRoom(context.Background(), code, 99, "late")
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestStartGamePreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, _, err := f.rooms.CreateRoom(ctx, 1, "ana")
	require.NoError(t, err)

	_, err = f.actions.ToggleReady(ctx, room.Code, 1)
	require.NoError(t, err)

	err = f.phases.StartGame(ctx, room.Code, 1)
	assert.ErrorIs(t, err, ErrCapacity, "single player cannot start")

	_, err = f.rooms.JoinRoom(ctx, room.Code, 2, "ben")
	require.NoError(t, err)

	err = f.phases.StartGame(ctx, room.Code, 1)
	assert.ErrorIs(t, err, ErrPreconditionFailed, "second player not ready")

	_, err = f.actions.ToggleReady(ctx, room.Code, 2)
	require.NoError(t, err)

	err = f.phases.StartGame(ctx, room.Code, 2)
	assert.ErrorIs(t, err, ErrUnauthorized, "only the host starts")

	require.NoError(t, f.phases.StartGame(ctx, room.Code, 1))

	err = f.phases.StartGame(ctx, room.Code, 1)
	assert.ErrorIs(t, err, ErrPreconditionFailed, "starting twice")
}

func TestStartGameDealsRoundAndCards(t *testing.T) {
	f := newFixture(t)
	code := startedRoom(t, f)

	view, err := f.rooms.View(context.Background(), code, 1)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPlaying, view.Room.Status)
	assert.Equal(t, models.PhaseAirplane, view.Room.Phase)
	assert.Equal(t, 1, view.Room.CurrentRound)
	require.NotNil(t, view.CurrentRound)
	assert.Len(t, view.Vehicles, models.VehiclesPerRound)
	assert.Len(t, view.MyCards, len(models.CardSetTypes()))
	assert.NotNil(t, view.Room.PhaseStartedAt)
}

func TestToggleReadyOnlyWhileWaiting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, _, err := f.rooms.CreateRoom(ctx, 1, "ana")
	require.NoError(t, err)

	ready, err := f.actions.ToggleReady(ctx, room.Code, 1)
	require.NoError(t, err)
	assert.True(t, ready)
	ready, err = f.actions.ToggleReady(ctx, room.Code, 1)
	require.NoError(t, err)
	assert.False(t, ready)

	code := startedRoom(t, f)
	_, err = f.actions.ToggleReady(ctx, code, 1)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestSelectVehicleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := startedRoom(t, f)

	err := f.actions.SelectVehicle(ctx, code, 1, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidPhase)
	err = f.actions.SelectVehicle(ctx, code, 1, 1, models.VehiclesPerRound+1)
	assert.ErrorIs(t, err, ErrInvalidPhase)

	err = f.actions.SelectVehicle(ctx, code, 1, 2, 1)
	assert.ErrorIs(t, err, ErrInvalidPhase, "round 2 is not current")

	require.NoError(t, f.actions.SelectVehicle(ctx, code, 1, 1, 1))

	// changing your mind replaces the stored choice
	require.NoError(t, f.actions.SelectVehicle(ctx, code, 1, 1, 3))
	view, err := f.rooms.View(ctx, code, 1)
	require.NoError(t, err)
	require.NotNil(t, view.MyAction)
	assert.Equal(t, 3, view.MyAction.VehicleNo)
	assert.Len(t, view.RoundActions, 1, "upsert never duplicates rows")
}

func TestAutoAdvanceWaitsForAllVehicles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := startedRoom(t, f)

	require.NoError(t, f.actions.SelectVehicle(ctx, code, 1, 1, 1))
	require.NoError(t, f.phases.AutoAdvance(ctx, code))

	view, err := f.rooms.View(ctx, code, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseAirplane, view.Room.Phase, "one vehicle still missing")

	require.NoError(t, f.actions.SelectVehicle(ctx, code, 2, 1, 2))
	require.NoError(t, f.phases.AutoAdvance(ctx, code))

	view, err = f.rooms.View(ctx, code, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseDiscussion, view.Room.Phase)

	err = f.actions.SelectVehicle(ctx, code, 1, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidPhase, "selection closed after advance")
}

func TestCompletionSetFollowsLivePlayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, _, err := f.rooms.CreateRoom(ctx, 1, "ana")
	require.NoError(t, err)
	_, err = f.rooms.JoinRoom(ctx, room.Code, 2, "ben")
	require.NoError(t, err)
	third, err := f.rooms.JoinRoom(ctx, room.Code, 3, "cyn")
	require.NoError(t, err)
	for _, userID := range []int64{1, 2, 3} {
		_, err = f.actions.ToggleReady(ctx, room.Code, userID)
		require.NoError(t, err)
	}
	require.NoError(t, f.phases.StartGame(ctx, room.Code, 1))

	require.NoError(t, f.actions.SelectVehicle(ctx, room.Code, 1, 1, 1))
	require.NoError(t, f.actions.SelectVehicle(ctx, room.Code, 2, 1, 2))
	require.NoError(t, f.phases.AutoAdvance(ctx, room.Code))

	view, err := f.rooms.View(ctx, room.Code, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseAirplane, view.Room.Phase)

	// the third player drops out, the remaining two now complete the set
	require.NoError(t, f.backend.RemovePlayer(ctx, third.ID))
	require.NoError(t, f.phases.AutoAdvance(ctx, room.Code))

	view, err = f.rooms.View(ctx, room.Code, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseDiscussion, view.Room.Phase)
}

func TestSelectCardBeforeVehicleRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := startedRoom(t, f)

	// force the room into card selection with no vehicle actions recorded
	require.NoError(t, f.phases.Advance(ctx, code))
	require.NoError(t, f.phases.Advance(ctx, code))

	view, err := f.rooms.View(ctx, code, 1)
	require.NoError(t, err)
	require.Equal(t, models.PhaseCardSelection, view.Room.Phase)
	require.NotEmpty(t, view.MyCards)

	err = f.actions.SelectCard(ctx, code, 1, 1, view.MyCards[0].ID)
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestSelectCardOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := startedRoom(t, f)

	require.NoError(t, f.actions.SelectVehicle(ctx, code, 1, 1, 1))
	require.NoError(t, f.actions.SelectVehicle(ctx, code, 2, 1, 1))
	require.NoError(t, f.phases.AutoAdvance(ctx, code))
	require.NoError(t, f.phases.Advance(ctx, code))

	other, err := f.rooms.View(ctx, code, 2)
	require.NoError(t, err)
	require.NotEmpty(t, other.MyCards)

	err = f.actions.SelectCard(ctx, code, 1, 1, other.MyCards[0].ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRoundCloseScoresOnceAndBurnsCards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := startedRoom(t, f)

	playRound(t, f, code, 1)

	view, err := f.rooms.View(ctx, code, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseResults, view.Room.Phase)
	require.Len(t, view.RoundResults, 2)
	assert.Len(t, view.MyCards, len(models.CardSetTypes())-1, "committed card is burned at close")

	total := 0
	for _, r := range view.RoundResults {
		total += r.Score
	}
	playerTotal := 0
	for _, p := range view.Players {
		playerTotal += p.TotalScore
	}
	assert.Equal(t, total, playerTotal, "totals applied exactly once")

	// a second insert for the same round is refused by the store
	round, err := f.backend.GetRound(ctx, view.Room.ID, 1)
	require.NoError(t, err)
	err = f.backend.InsertResults(ctx, []*models.RoundResult{{RoundID: round.ID, PlayerID: 1}})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestGameFinishesAfterFiveRounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := startedRoom(t, f)

	for roundNo := 1; roundNo <= models.MaxRounds; roundNo++ {
		playRound(t, f, code, roundNo)
		require.NoError(t, f.phases.Advance(ctx, code))
	}

	view, err := f.rooms.View(ctx, code, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, view.Room.Status)
	assert.Equal(t, models.PhaseResults, view.Room.Phase)
	assert.Equal(t, models.MaxRounds, view.Room.CurrentRound)
	require.Len(t, view.Ranking, 2)
	assert.GreaterOrEqual(t, view.Ranking[0].TotalScore, view.Ranking[1].TotalScore)

	_, err = f.backend.GetRound(ctx, view.Room.ID, models.MaxRounds+1)
	assert.ErrorIs(t, err, store.ErrNotFound, "no sixth round is ever created")

	err = f.phases.Advance(ctx, code)
	assert.ErrorIs(t, err, ErrPreconditionFailed, "finished room cannot advance")
}

func TestForcePhase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := startedRoom(t, f)

	err := f.phases.ForcePhase(ctx, code, "intermission")
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	require.NoError(t, f.phases.ForcePhase(ctx, code, models.PhaseDiscussion))
	view, err := f.rooms.View(ctx, code, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseDiscussion, view.Room.Phase)
}

func TestResetRoomReturnsToWaiting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := startedRoom(t, f)
	playRound(t, f, code, 1)

	require.NoError(t, f.rooms.ResetRoom(ctx, code))

	view, err := f.rooms.View(ctx, code, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, view.Room.Status)
	assert.Equal(t, models.PhaseWaiting, view.Room.Phase)
	assert.Equal(t, 0, view.Room.CurrentRound)
	assert.Empty(t, view.MyCards)
	for _, p := range view.Players {
		assert.False(t, p.Ready)
		assert.Zero(t, p.TotalScore)
	}
}

func TestDeleteRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := startedRoom(t, f)

	require.NoError(t, f.rooms.DeleteRoom(ctx, code))

	_, err := f.rooms.View(ctx, code, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaveRoomOnlyWhileWaiting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, _, err := f.rooms.CreateRoom(ctx, 1, "ana")
	require.NoError(t, err)
	_, err = f.rooms.JoinRoom(ctx, room.Code, 2, "ben")
	require.NoError(t, err)

	require.NoError(t, f.rooms.LeaveRoom(ctx, room.Code, 2))
	view, err := f.rooms.View(ctx, room.Code, 1)
	require.NoError(t, err)
	assert.Len(t, view.Players, 1)

	code := startedRoom(t, f)
	err = f.rooms.LeaveRoom(ctx, code, 2)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}
