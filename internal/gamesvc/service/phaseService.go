package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/skygames/skyjack-services/internal/comm"
	"github.com/skygames/skyjack-services/internal/gamesvc/models"
	"github.com/skygames/skyjack-services/internal/gamesvc/store"
)

// Notifier relays advisory room events; delivery is best effort and carries
// no authority, clients re-fetch the canonical view.
type Notifier interface {
	RoomEvent(code string, event string)
}

// Archiver receives finished games for long-term storage.
type Archiver interface {
	ArchiveFinished(ctx context.Context, room *models.Room, ranking []*models.Player) error
}

// Durations are the fixed phase timer lengths.
type Durations struct {
	Airplane   time.Duration
	Discussion time.Duration
	CardSelect time.Duration
	Results    time.Duration
}

// PhaseService owns the room lifecycle:
//
//	waiting → airplane_selection → discussion → card_selection → results
//	          ^                                                      |
//	          +---- next round (< 5) ----------------------- finished+
//
// Every transition is a compare-and-set on (status, phase), so a timer
// firing the same instant as an all-acted completion yields exactly one
// transition; the loser lands on a no-op.
type PhaseService struct {
	router    *store.Router
	actions   *ActionService
	timers    *RoomTimers
	durations Durations
	notifier  Notifier
	archiver  Archiver
}

func NewPhaseService(router *store.Router, actions *ActionService, timers *RoomTimers, durations Durations) *PhaseService {
	return &PhaseService{
		router:    router,
		actions:   actions,
		timers:    timers,
		durations: durations,
	}
}

func (s *PhaseService) SetNotifier(n Notifier) { s.notifier = n }
func (s *PhaseService) SetArchiver(a Archiver) { s.archiver = a }

func (s *PhaseService) notify(code, event string) {
	if s.notifier != nil {
		s.notifier.RoomEvent(code, event)
	}
}

// StartGame moves a waiting room into round 1. Host only, at least two
// players, all ready. Round 1, its vehicles and every player's shuffled
// card set are created before the phase flips, so a second concurrent
// starter loses the compare-and-set and changes nothing further.
func (s *PhaseService) StartGame(ctx context.Context, code string, userID int64) error {
	room, backend, err := s.router.Lookup(ctx, code)
	if err != nil {
		return mapStoreErr(err)
	}
	if room.Status != models.StatusWaiting {
		return fmt.Errorf("room %s is %s: %w", code, room.Status, ErrPreconditionFailed)
	}

	players, err := backend.GetPlayersByRoom(ctx, room.ID)
	if err != nil {
		return mapStoreErr(err)
	}
	if len(players) == 0 || players[0].UserID != userID {
		return fmt.Errorf("only the host may start: %w", ErrUnauthorized)
	}
	if len(players) < models.MinPlayers {
		return fmt.Errorf("need at least %d players: %w", models.MinPlayers, ErrCapacity)
	}
	for _, p := range players {
		if !p.Ready {
			return fmt.Errorf("player %s not ready: %w", p.Name, ErrPreconditionFailed)
		}
	}

	for _, p := range players {
		if _, err := backend.ReplaceCardSet(ctx, p.ID, shuffledCardSet()); err != nil {
			return fmt.Errorf("deal cards: %w", err)
		}
	}
	if _, err := backend.CreateRound(ctx, room.ID, 1); err != nil && !errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("create round 1: %w", err)
	}

	changed, err := backend.AdvancePhase(ctx, room.ID,
		models.StatusWaiting, models.PhaseWaiting,
		models.StatusPlaying, models.PhaseAirplane, 1, time.Now())
	if err != nil {
		return mapStoreErr(err)
	}
	if !changed {
		return fmt.Errorf("room %s already started: %w", code, ErrPreconditionFailed)
	}

	s.schedule(code, models.PhaseAirplane)
	s.notify(code, comm.EventPhaseChanged)
	return nil
}

// AutoAdvance advances the room if its all-acted condition is met. Called
// after every recorded action; quietly does nothing otherwise.
func (s *PhaseService) AutoAdvance(ctx context.Context, code string) error {
	room, backend, err := s.router.Lookup(ctx, code)
	if err != nil {
		return mapStoreErr(err)
	}
	if room.Status != models.StatusPlaying {
		return nil
	}
	round, err := backend.GetRound(ctx, room.ID, room.CurrentRound)
	if err != nil {
		return mapStoreErr(err)
	}

	switch room.Phase {
	case models.PhaseAirplane:
		done, err := allSelectedVehicle(ctx, backend, room.ID, round.ID)
		if err != nil || !done {
			return err
		}
	case models.PhaseCardSelection:
		done, err := allSelectedCard(ctx, backend, room.ID, round.ID)
		if err != nil || !done {
			return err
		}
	default:
		return nil
	}
	return s.advanceFrom(ctx, room, backend, room.Phase)
}

// Advance is the operator force-advance: moves the room out of its current
// phase regardless of who has acted.
func (s *PhaseService) Advance(ctx context.Context, code string) error {
	room, backend, err := s.router.Lookup(ctx, code)
	if err != nil {
		return mapStoreErr(err)
	}
	if room.Status != models.StatusPlaying {
		return fmt.Errorf("room %s is %s: %w", code, room.Status, ErrPreconditionFailed)
	}
	return s.advanceFrom(ctx, room, backend, room.Phase)
}

// ForcePhase is the raw administrative override: it stamps the phase and a
// fresh timestamp, bypassing preconditions and round bookkeeping entirely.
// The caller owns consistency.
func (s *PhaseService) ForcePhase(ctx context.Context, code string, phase string) error {
	switch phase {
	case models.PhaseWaiting, models.PhaseAirplane, models.PhaseDiscussion, models.PhaseCardSelection, models.PhaseResults:
	default:
		return fmt.Errorf("unknown phase %q: %w", phase, ErrPreconditionFailed)
	}
	room, backend, err := s.router.Lookup(ctx, code)
	if err != nil {
		return mapStoreErr(err)
	}
	if err := backend.SetPhase(ctx, room.ID, phase, time.Now()); err != nil {
		return mapStoreErr(err)
	}
	s.schedule(code, phase)
	s.notify(code, comm.EventPhaseChanged)
	return nil
}

// advanceFrom performs the single transition out of fromPhase. A stale
// caller whose phase is no longer current ends up losing the CAS: no error,
// no duplicate side effects.
func (s *PhaseService) advanceFrom(ctx context.Context, room *models.Room, backend store.Store, fromPhase string) error {
	now := time.Now()

	switch fromPhase {
	case models.PhaseAirplane:
		changed, err := backend.AdvancePhase(ctx, room.ID,
			models.StatusPlaying, models.PhaseAirplane,
			models.StatusPlaying, models.PhaseDiscussion, room.CurrentRound, now)
		if err != nil {
			return mapStoreErr(err)
		}
		if changed {
			s.schedule(room.Code, models.PhaseDiscussion)
			s.notify(room.Code, comm.EventPhaseChanged)
		}
		return nil

	case models.PhaseDiscussion:
		changed, err := backend.AdvancePhase(ctx, room.ID,
			models.StatusPlaying, models.PhaseDiscussion,
			models.StatusPlaying, models.PhaseCardSelection, room.CurrentRound, now)
		if err != nil {
			return mapStoreErr(err)
		}
		if changed {
			s.schedule(room.Code, models.PhaseCardSelection)
			s.notify(room.Code, comm.EventPhaseChanged)
		}
		return nil

	case models.PhaseCardSelection:
		return s.closeRound(ctx, room, backend)

	case models.PhaseResults:
		return s.nextRoundOrFinish(ctx, room, backend)

	default:
		return fmt.Errorf("no transition out of phase %s: %w", fromPhase, ErrPreconditionFailed)
	}
}

// closeRound scores the round exactly once, burns the committed cards,
// applies total-score increments, and flips to results. Scoring is guarded
// by the result set's existence: a concurrent second closer sees the
// duplicate and applies nothing.
func (s *PhaseService) closeRound(ctx context.Context, room *models.Room, backend store.Store) error {
	round, err := backend.GetRound(ctx, room.ID, room.CurrentRound)
	if err != nil {
		return mapStoreErr(err)
	}

	exist, err := backend.ResultsExist(ctx, round.ID)
	if err != nil {
		return mapStoreErr(err)
	}
	if !exist {
		actions, err := backend.GetActionsByRound(ctx, round.ID)
		if err != nil {
			return mapStoreErr(err)
		}

		var entries []ScoreEntry
		cardByPlayer := make(map[int64]*models.PlayerCard)
		for _, a := range actions {
			if a.CardID == nil {
				continue // vehicle chosen but no card committed before the timer
			}
			card, err := backend.GetCard(ctx, *a.CardID)
			if err != nil {
				return mapStoreErr(err)
			}
			cardByPlayer[a.PlayerID] = card
			entries = append(entries, ScoreEntry{
				PlayerID:  a.PlayerID,
				VehicleNo: a.VehicleNo,
				CardType:  card.Type,
			})
		}

		scores := ComputeRoundScores(entries)
		results := make([]*models.RoundResult, 0, len(entries))
		for _, e := range entries {
			results = append(results, &models.RoundResult{
				RoundID:   round.ID,
				PlayerID:  e.PlayerID,
				VehicleNo: e.VehicleNo,
				CardType:  e.CardType,
				Score:     scores[e.PlayerID],
			})
		}

		err = backend.InsertResults(ctx, results)
		switch {
		case errors.Is(err, store.ErrDuplicate):
			// another closer won; totals and cards are theirs to apply
		case err != nil:
			return mapStoreErr(err)
		default:
			for _, r := range results {
				if err := backend.AddScore(ctx, r.PlayerID, r.Score); err != nil {
					return mapStoreErr(err)
				}
				if card := cardByPlayer[r.PlayerID]; card != nil {
					if err := backend.MarkCardUsed(ctx, card.ID); err != nil {
						return mapStoreErr(err)
					}
				}
			}
		}
	}

	changed, err := backend.AdvancePhase(ctx, room.ID,
		models.StatusPlaying, models.PhaseCardSelection,
		models.StatusPlaying, models.PhaseResults, room.CurrentRound, time.Now())
	if err != nil {
		return mapStoreErr(err)
	}
	if changed {
		s.schedule(room.Code, models.PhaseResults)
		s.notify(room.Code, comm.EventRoundClosed)
	}
	return nil
}

// nextRoundOrFinish leaves results for the next round or, after round 5,
// marks the room finished with results as the terminal display phase.
func (s *PhaseService) nextRoundOrFinish(ctx context.Context, room *models.Room, backend store.Store) error {
	now := time.Now()

	if room.CurrentRound < models.MaxRounds {
		next := room.CurrentRound + 1
		if _, err := backend.CreateRound(ctx, room.ID, next); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return mapStoreErr(err)
		}
		changed, err := backend.AdvancePhase(ctx, room.ID,
			models.StatusPlaying, models.PhaseResults,
			models.StatusPlaying, models.PhaseAirplane, next, now)
		if err != nil {
			return mapStoreErr(err)
		}
		if changed {
			s.schedule(room.Code, models.PhaseAirplane)
			s.notify(room.Code, comm.EventPhaseChanged)
		}
		return nil
	}

	changed, err := backend.AdvancePhase(ctx, room.ID,
		models.StatusPlaying, models.PhaseResults,
		models.StatusFinished, models.PhaseResults, room.CurrentRound, now)
	if err != nil {
		return mapStoreErr(err)
	}
	if changed {
		s.timers.Cancel(room.Code)
		s.notify(room.Code, comm.EventGameFinished)
		s.archiveGame(ctx, room.Code, backend, room.ID)
	}
	return nil
}

func (s *PhaseService) archiveGame(ctx context.Context, code string, backend store.Store, roomID int64) {
	if s.archiver == nil {
		return
	}
	room, err := backend.GetRoom(ctx, roomID)
	if err != nil {
		log.Errorf("archive: reload room %s: %v", code, err)
		return
	}
	ranking, err := backend.GetRanking(ctx, roomID)
	if err != nil {
		log.Errorf("archive: ranking for room %s: %v", code, err)
		return
	}
	if err := s.archiver.ArchiveFinished(ctx, room, ranking); err != nil {
		log.Errorf("archive: room %s: %v", code, err)
	}
}

// schedule arms the phase timer for the room, replacing any pending one.
func (s *PhaseService) schedule(code string, phase string) {
	d := s.phaseDuration(phase)
	if d <= 0 {
		s.timers.Cancel(code)
		return
	}
	s.timers.Schedule(code, d, func() {
		s.onTimer(code, phase)
	})
}

func (s *PhaseService) phaseDuration(phase string) time.Duration {
	switch phase {
	case models.PhaseAirplane:
		return s.durations.Airplane
	case models.PhaseDiscussion:
		return s.durations.Discussion
	case models.PhaseCardSelection:
		return s.durations.CardSelect
	case models.PhaseResults:
		return s.durations.Results
	default:
		return 0
	}
}

// onTimer fires when a phase ran its full duration. The expected phase is
// re-validated first: a timer that lost a cancel race against an organic
// advance is a harmless no-op. Failures are logged, never fatal. The room
// stays advanceable by the next action or an operator call.
func (s *PhaseService) onTimer(code string, expectPhase string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	room, backend, err := s.router.Lookup(ctx, code)
	if err != nil {
		log.Errorf("phase timer: lookup room %s: %v", code, err)
		return
	}
	if room.Status != models.StatusPlaying || room.Phase != expectPhase {
		return
	}
	if err := s.advanceFrom(ctx, room, backend, expectPhase); err != nil {
		log.Errorf("phase timer: advance room %s from %s: %v", code, expectPhase, err)
	}
}

// shuffledCardSet deals the fixed seven-card hand in random order.
func shuffledCardSet() []string {
	types := models.CardSetTypes()
	rand.Shuffle(len(types), func(i, j int) {
		types[i], types[j] = types[j], types[i]
	})
	return types
}
