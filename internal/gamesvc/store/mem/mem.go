package mem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
	"github.com/skygames/skyjack-services/internal/gamesvc/store"
)

// Store is the in-memory fallback backend. One mutex guards everything;
// rooms are small (max 8 players) so contention is not a concern.
type Store struct {
	mu     sync.Mutex
	nextID int64

	rooms       map[int64]*models.Room
	roomsByCode map[string]int64

	players       map[int64]*models.Player
	playersByRoom map[int64][]int64 // join order

	rounds     map[int64]*models.Round
	roundByNum map[int64]map[int]int64 // roomID -> number -> roundID
	vehicles   map[int64][]*models.Vehicle

	cards         map[int64]*models.PlayerCard
	cardsByPlayer map[int64][]int64

	actions map[int64]map[int64]*models.PlayerAction // roundID -> playerID

	results map[int64][]*models.RoundResult // roundID
}

func New() *Store {
	return &Store{
		nextID:        1,
		rooms:         make(map[int64]*models.Room),
		roomsByCode:   make(map[string]int64),
		players:       make(map[int64]*models.Player),
		playersByRoom: make(map[int64][]int64),
		rounds:        make(map[int64]*models.Round),
		roundByNum:    make(map[int64]map[int]int64),
		vehicles:      make(map[int64][]*models.Vehicle),
		cards:         make(map[int64]*models.PlayerCard),
		cardsByPlayer: make(map[int64][]int64),
		actions:       make(map[int64]map[int64]*models.PlayerAction),
		results:       make(map[int64][]*models.RoundResult),
	}
}

func (s *Store) id() int64 {
	v := s.nextID
	s.nextID++
	return v
}

func (s *Store) CreateRoom(ctx context.Context, code string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roomsByCode[code]; ok {
		return nil, store.ErrDuplicate
	}
	now := time.Now()
	room := &models.Room{
		ID:        s.id(),
		Code:      code,
		Status:    models.StatusWaiting,
		Phase:     models.PhaseWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.rooms[room.ID] = room
	s.roomsByCode[code] = room.ID
	out := *room
	return &out, nil
}

func (s *Store) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.roomsByCode[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *s.rooms[id]
	return &out, nil
}

func (s *Store) GetRoom(ctx context.Context, roomID int64) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *room
	return &out, nil
}

func (s *Store) AdvancePhase(ctx context.Context, roomID int64, expectStatus, expectPhase, newStatus, newPhase string, newRound int, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return false, store.ErrNotFound
	}
	if room.Status != expectStatus || room.Phase != expectPhase {
		return false, nil
	}
	room.Phase = newPhase
	room.CurrentRound = newRound
	room.Status = newStatus
	ts := at
	room.PhaseStartedAt = &ts
	room.UpdatedAt = at
	return true, nil
}

func (s *Store) SetPhase(ctx context.Context, roomID int64, phase string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return store.ErrNotFound
	}
	room.Phase = phase
	ts := at
	room.PhaseStartedAt = &ts
	room.UpdatedAt = at
	return nil
}

func (s *Store) ResetRoom(ctx context.Context, roomID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return store.ErrNotFound
	}
	s.dropGameData(roomID)
	for _, pid := range s.playersByRoom[roomID] {
		p := s.players[pid]
		p.Ready = false
		p.TotalScore = 0
		p.UpdatedAt = time.Now()
	}
	room.Status = models.StatusWaiting
	room.Phase = models.PhaseWaiting
	room.CurrentRound = 0
	room.PhaseStartedAt = nil
	room.UpdatedAt = time.Now()
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, roomID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return store.ErrNotFound
	}
	s.dropGameData(roomID)
	for _, pid := range s.playersByRoom[roomID] {
		delete(s.players, pid)
	}
	delete(s.playersByRoom, roomID)
	delete(s.roomsByCode, room.Code)
	delete(s.rooms, roomID)
	return nil
}

// dropGameData removes rounds, vehicles, actions, results and cards for a
// room. Caller holds the lock.
func (s *Store) dropGameData(roomID int64) {
	for _, rid := range s.roundByNum[roomID] {
		delete(s.rounds, rid)
		delete(s.vehicles, rid)
		delete(s.actions, rid)
		delete(s.results, rid)
	}
	delete(s.roundByNum, roomID)
	for _, pid := range s.playersByRoom[roomID] {
		for _, cid := range s.cardsByPlayer[pid] {
			delete(s.cards, cid)
		}
		delete(s.cardsByPlayer, pid)
	}
}

func (s *Store) CreatePlayer(ctx context.Context, roomID int64, userID int64, name string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return nil, store.ErrNotFound
	}
	seats := s.playersByRoom[roomID]
	for _, pid := range seats {
		if s.players[pid].UserID == userID {
			return nil, store.ErrDuplicate
		}
	}
	if len(seats) >= models.MaxPlayers {
		return nil, store.ErrRoomFull
	}
	now := time.Now()
	p := &models.Player{
		ID:        s.id(),
		RoomID:    roomID,
		UserID:    userID,
		Name:      name,
		Seat:      len(seats),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.players[p.ID] = p
	s.playersByRoom[roomID] = append(seats, p.ID)
	out := *p
	return &out, nil
}

func (s *Store) GetPlayer(ctx context.Context, roomID int64, userID int64) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pid := range s.playersByRoom[roomID] {
		if s.players[pid].UserID == userID {
			out := *s.players[pid]
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetPlayersByRoom(ctx context.Context, roomID int64) ([]*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var players []*models.Player
	for _, pid := range s.playersByRoom[roomID] {
		out := *s.players[pid]
		players = append(players, &out)
	}
	return players, nil
}

func (s *Store) SetReady(ctx context.Context, playerID int64, ready bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return store.ErrNotFound
	}
	p.Ready = ready
	p.UpdatedAt = time.Now()
	return nil
}

func (s *Store) AddScore(ctx context.Context, playerID int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return store.ErrNotFound
	}
	p.TotalScore += delta
	p.UpdatedAt = time.Now()
	return nil
}

func (s *Store) RemovePlayer(ctx context.Context, playerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return store.ErrNotFound
	}
	seats := s.playersByRoom[p.RoomID]
	for i, pid := range seats {
		if pid == playerID {
			s.playersByRoom[p.RoomID] = append(seats[:i], seats[i+1:]...)
			break
		}
	}
	for _, cid := range s.cardsByPlayer[playerID] {
		delete(s.cards, cid)
	}
	delete(s.cardsByPlayer, playerID)
	delete(s.players, playerID)
	return nil
}

func (s *Store) GetRanking(ctx context.Context, roomID int64) ([]*models.Player, error) {
	players, _ := s.GetPlayersByRoom(ctx, roomID)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].TotalScore > players[j].TotalScore
	})
	return players, nil
}

func (s *Store) CreateRound(ctx context.Context, roomID int64, number int) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return nil, store.ErrNotFound
	}
	byNum := s.roundByNum[roomID]
	if byNum == nil {
		byNum = make(map[int]int64)
		s.roundByNum[roomID] = byNum
	}
	if _, ok := byNum[number]; ok {
		return nil, store.ErrDuplicate
	}
	now := time.Now()
	round := &models.Round{
		ID:        s.id(),
		RoomID:    roomID,
		Number:    number,
		CreatedAt: now,
	}
	s.rounds[round.ID] = round
	byNum[number] = round.ID
	for n := 1; n <= models.VehiclesPerRound; n++ {
		s.vehicles[round.ID] = append(s.vehicles[round.ID], &models.Vehicle{
			ID:        s.id(),
			RoundID:   round.ID,
			Number:    n,
			CreatedAt: now,
		})
	}
	out := *round
	return &out, nil
}

func (s *Store) GetRound(ctx context.Context, roomID int64, number int) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rid, ok := s.roundByNum[roomID][number]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *s.rounds[rid]
	return &out, nil
}

func (s *Store) GetVehicles(ctx context.Context, roundID int64) ([]*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Vehicle
	for _, v := range s.vehicles[roundID] {
		c := *v
		out = append(out, &c)
	}
	return out, nil
}

func (s *Store) ReplaceCardSet(ctx context.Context, playerID int64, types []string) ([]*models.PlayerCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[playerID]; !ok {
		return nil, store.ErrNotFound
	}
	for _, cid := range s.cardsByPlayer[playerID] {
		delete(s.cards, cid)
	}
	s.cardsByPlayer[playerID] = nil

	now := time.Now()
	var out []*models.PlayerCard
	for _, t := range types {
		card := &models.PlayerCard{
			ID:        s.id(),
			PlayerID:  playerID,
			Type:      t,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.cards[card.ID] = card
		s.cardsByPlayer[playerID] = append(s.cardsByPlayer[playerID], card.ID)
		c := *card
		out = append(out, &c)
	}
	return out, nil
}

func (s *Store) GetCards(ctx context.Context, playerID int64) ([]*models.PlayerCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.PlayerCard
	for _, cid := range s.cardsByPlayer[playerID] {
		c := *s.cards[cid]
		out = append(out, &c)
	}
	return out, nil
}

func (s *Store) GetCard(ctx context.Context, cardID int64) (*models.PlayerCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[cardID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *card
	return &out, nil
}

func (s *Store) MarkCardUsed(ctx context.Context, cardID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[cardID]
	if !ok {
		return store.ErrNotFound
	}
	card.Used = true
	card.UpdatedAt = time.Now()
	return nil
}

func (s *Store) UpsertVehicleChoice(ctx context.Context, roundID int64, playerID int64, vehicleNo int) (*models.PlayerAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[roundID]; !ok {
		return nil, store.ErrNotFound
	}
	byPlayer := s.actions[roundID]
	if byPlayer == nil {
		byPlayer = make(map[int64]*models.PlayerAction)
		s.actions[roundID] = byPlayer
	}
	now := time.Now()
	if a, ok := byPlayer[playerID]; ok {
		a.VehicleNo = vehicleNo
		a.UpdatedAt = now
		out := *a
		return &out, nil
	}
	a := &models.PlayerAction{
		ID:        s.id(),
		RoundID:   roundID,
		PlayerID:  playerID,
		VehicleNo: vehicleNo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	byPlayer[playerID] = a
	out := *a
	return &out, nil
}

func (s *Store) SetCardChoice(ctx context.Context, roundID int64, playerID int64, cardID int64) (*models.PlayerAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actions[roundID][playerID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cid := cardID
	a.CardID = &cid
	a.UpdatedAt = time.Now()
	out := *a
	return &out, nil
}

func (s *Store) GetAction(ctx context.Context, roundID int64, playerID int64) (*models.PlayerAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actions[roundID][playerID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (s *Store) GetActionsByRound(ctx context.Context, roundID int64) ([]*models.PlayerAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.PlayerAction
	for _, a := range s.actions[roundID] {
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ResultsExist(ctx context.Context, roundID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results[roundID]) > 0, nil
}

func (s *Store) InsertResults(ctx context.Context, results []*models.RoundResult) error {
	if len(results) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	roundID := results[0].RoundID
	if len(s.results[roundID]) > 0 {
		return store.ErrDuplicate
	}
	now := time.Now()
	for _, r := range results {
		c := *r
		c.ID = s.id()
		c.CreatedAt = now
		s.results[roundID] = append(s.results[roundID], &c)
	}
	return nil
}

func (s *Store) GetResultsByRound(ctx context.Context, roundID int64) ([]*models.RoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.RoundResult
	for _, r := range s.results[roundID] {
		c := *r
		out = append(out, &c)
	}
	return out, nil
}
