package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"closeenough/internal/config"
	"closeenough/internal/events"
	"closeenough/internal/game"
	"closeenough/internal/scorer"
	"closeenough/internal/store"
)

// Publisher receives the events produced by room transitions. Publish is
// called with the room lock held and must not block.
type Publisher interface {
	Publish(event events.Event)
}

// Settings are the game rules the engine enforces
type Settings struct {
	MaxPlayers                int
	MinPlayersToStart         int
	CardsPerTurn              int
	GuessDuration             time.Duration
	ScorerTimeout             time.Duration
	IdleTimeout               time.Duration
	EndGuessingWhenAllGuessed bool
}

// SettingsFromConfig extracts engine settings from the server config
func SettingsFromConfig(cfg *config.ServerConfig) Settings {
	return Settings{
		MaxPlayers:                cfg.Rooms.MaxPlayers,
		MinPlayersToStart:         cfg.Rooms.MinPlayersToStart,
		CardsPerTurn:              cfg.Game.CardsPerTurn,
		GuessDuration:             cfg.Game.GuessDuration,
		ScorerTimeout:             cfg.Scorer.Timeout,
		IdleTimeout:               cfg.Rooms.IdleTimeout,
		EndGuessingWhenAllGuessed: cfg.Game.EndGuessingWhenAllGuessed,
	}
}

// Engine drives rooms through the round loop. Every operation locks the
// target room for its whole duration; operations on different rooms never
// contend.
type Engine struct {
	store    *store.MemoryStore
	bus      Publisher
	pool     *game.CardPool
	scorer   scorer.Scorer
	settings Settings
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an engine
func New(st *store.MemoryStore, bus Publisher, pool *game.CardPool, sc scorer.Scorer, settings Settings) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		store:    st,
		bus:      bus,
		pool:     pool,
		scorer:   sc,
		settings: settings,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// CreateRoom registers a new room hosted by host
func (e *Engine) CreateRoom(host string) (game.RoomInfo, error) {
	host, err := cleanName(host)
	if err != nil {
		return game.RoomInfo{}, err
	}

	room, err := e.store.CreateRoom(host)
	if err != nil {
		return game.RoomInfo{}, err
	}

	room.Lock()
	defer room.Unlock()

	room.LastActivity = e.now()
	e.publishRoomUpdate(room)
	log.Info().Str("room", room.Code).Str("host", host).Msg("room created")
	return room.Info(), nil
}

// JoinRoom appends a player to the tail of the turn order
func (e *Engine) JoinRoom(code, name string) (game.RoomInfo, error) {
	name, err := cleanName(name)
	if err != nil {
		return game.RoomInfo{}, err
	}

	var info game.RoomInfo
	err = e.withRoom(code, func(room *game.Room) error {
		if _, err := room.AddPlayer(name, e.settings.MaxPlayers); err != nil {
			return err
		}
		e.publishRoomUpdate(room)
		info = room.Info()
		return nil
	})
	if err != nil {
		return game.RoomInfo{}, err
	}

	log.Info().Str("room", code).Str("player", name).Int("players", len(info.Players)).Msg("player joined")
	return info, nil
}

// RoomInfo returns a snapshot of a room
func (e *Engine) RoomInfo(code string) (game.RoomInfo, error) {
	room, err := e.lookup(code)
	if err != nil {
		return game.RoomInfo{}, err
	}

	room.Lock()
	defer room.Unlock()

	if room.Closed() {
		return game.RoomInfo{}, fmt.Errorf("%w: %s", game.ErrRoomNotFound, code)
	}
	return room.Info(), nil
}

// HasPlayer reports whether name is a member of the room
func (e *Engine) HasPlayer(code, name string) bool {
	room, err := e.lookup(code)
	if err != nil {
		return false
	}

	room.Lock()
	defer room.Unlock()

	return !room.Closed() && room.PlayerIndex(name) >= 0
}

// StartGame moves a waiting room into its first turn
func (e *Engine) StartGame(code, requester string) error {
	return e.withRoom(code, func(room *game.Room) error {
		if err := room.Start(requester, e.settings.MinPlayersToStart, e.drawCards()); err != nil {
			return err
		}
		e.publishTurn(room, events.TypeGameStart)
		log.Info().Str("room", code).Int("players", len(room.Players)).Msg("game started")
		return nil
	})
}

// PickCard sets the secret card and opens the guessing window
func (e *Engine) PickCard(code, requester, card string) error {
	return e.withRoom(code, func(room *game.Room) error {
		if err := room.Pick(requester, card); err != nil {
			return err
		}

		timer := room.ArmTimer(e.settings.GuessDuration, func(id uint64) {
			e.onGuessTimeout(room, id)
		})
		e.publish(room, events.TypeStartGuessing, events.GuessingStart{
			SelectedBy:       requester,
			TimeLimitSeconds: int(math.Ceil(e.settings.GuessDuration.Seconds())),
			DeadlineUnixMs:   timer.Deadline.UnixMilli(),
			Round:            room.Round,
		})
		log.Debug().Str("room", code).Int("round", room.Round).Msg("guessing opened")
		return nil
	})
}

// SubmitGuess appends a guess to the requester's log for this round
func (e *Engine) SubmitGuess(code, requester, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: guess is empty", game.ErrInvalidInput)
	}

	return e.withRoom(code, func(room *game.Room) error {
		if err := room.AddGuess(requester, text, e.now()); err != nil {
			return err
		}
		if e.settings.EndGuessingWhenAllGuessed && room.AllGuessed() {
			e.revealEarly(room)
		}
		return nil
	})
}

// NextRound passes the turn to the next player once the reveal is done
func (e *Engine) NextRound(code, requester string) error {
	return e.withRoom(code, func(room *game.Room) error {
		if err := room.Advance(requester, e.drawCards()); err != nil {
			return err
		}
		e.publishTurn(room, events.TypeNextTurn)
		return nil
	})
}

// Attach binds a live connection to an existing player
func (e *Engine) Attach(code, name, connID string) error {
	return e.withRoom(code, func(room *game.Room) error {
		if err := room.Attach(name, connID); err != nil {
			return err
		}
		e.publishRoomUpdate(room)
		return nil
	})
}

// Detach clears a player's connection if it still belongs to connID.
// Detaching from a room that is already gone is not an error.
func (e *Engine) Detach(code, name, connID string) {
	room, err := e.lookup(code)
	if err != nil {
		return
	}

	room.Lock()
	defer room.Unlock()

	if room.Closed() {
		return
	}
	if room.Detach(name, connID) {
		e.publishRoomUpdate(room)
	}
}

// Leave removes a player from a room. The room is disposed when its last
// player leaves; if the turn holder leaves mid-turn, the turn restarts
// with whoever now holds it.
func (e *Engine) Leave(code, name string) error {
	return e.withRoom(code, func(room *game.Room) error {
		turnLost, err := room.RemovePlayer(name)
		if err != nil {
			return err
		}
		log.Info().Str("room", code).Str("player", name).Int("players", len(room.Players)).Msg("player left")

		if len(room.Players) == 0 {
			room.Close()
			e.store.Forget(code, room)
			e.publish(room, events.TypeRoomClosed, events.RoomClosed{Reason: "empty"})
			log.Info().Str("room", code).Msg("room disposed, last player left")
			return nil
		}

		e.publishRoomUpdate(room)

		switch {
		case turnLost:
			room.RestartTurn(e.drawCards())
			e.publishTurn(room, events.TypeNextTurn)
		case room.Phase == game.PhaseGuessing && e.settings.EndGuessingWhenAllGuessed && room.AllGuessed():
			e.revealEarly(room)
		}
		return nil
	})
}

// CloseRoom disposes a room, cancelling its timer before it is dropped
func (e *Engine) CloseRoom(code, reason string) error {
	room, ok := e.store.RemoveRoom(code)
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrRoomNotFound, code)
	}

	e.publish(room, events.TypeRoomClosed, events.RoomClosed{Reason: reason})
	log.Info().Str("room", code).Str("reason", reason).Msg("room closed")
	return nil
}

// RunJanitor evicts idle rooms every interval until ctx is done
func (e *Engine) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := e.EvictIdle(e.now()); n > 0 {
				log.Info().Int("evicted", n).Int("rooms", e.store.Count()).Msg("evicted idle rooms")
			}
		}
	}
}

// EvictIdle disposes every room whose last activity is older than the
// idle timeout and returns how many were removed
func (e *Engine) EvictIdle(now time.Time) int {
	if e.settings.IdleTimeout <= 0 {
		return 0
	}

	evicted := 0
	for _, room := range e.store.Rooms() {
		room.Lock()
		if !room.Closed() && now.Sub(room.LastActivity) > e.settings.IdleTimeout {
			room.Close()
			e.store.Forget(room.Code, room)
			e.publish(room, events.TypeRoomClosed, events.RoomClosed{Reason: "idle"})
			evicted++
		}
		room.Unlock()
	}
	return evicted
}

// Shutdown closes every room and waits for in-flight scoring to finish
func (e *Engine) Shutdown(ctx context.Context) error {
	e.cancel()
	for _, room := range e.store.Rooms() {
		e.CloseRoom(room.Code, "shutdown")
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// onGuessTimeout runs on the timer goroutine. A fire that lost a race
// with a cancel, a restart or disposal is dropped.
func (e *Engine) onGuessTimeout(room *game.Room, id uint64) {
	room.Lock()
	if room.Closed() || !room.TimerCurrent(id) || room.Phase != game.PhaseGuessing {
		room.Unlock()
		log.Debug().Str("room", room.Code).Uint64("timer", id).Msg("stale guess timer dropped")
		return
	}
	job, err := room.BeginReveal()
	room.Unlock()
	if err != nil {
		return
	}

	e.wg.Add(1)
	defer e.wg.Done()
	e.finishReveal(room, job)
}

// revealEarly closes guessing before the timer and scores in the
// background. The caller holds the room lock.
func (e *Engine) revealEarly(room *game.Room) {
	job, err := room.BeginReveal()
	if err != nil {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.finishReveal(room, job)
	}()
}

// finishReveal scores a closed round without holding the room lock, then
// re-locks and applies the outcome if the round is still current
func (e *Engine) finishReveal(room *game.Room, job game.RevealJob) {
	reveal := e.score(job)

	room.Lock()
	defer room.Unlock()

	if !room.ApplyReveal(reveal) {
		log.Debug().Str("room", job.Code).Int("round", job.Round).Msg("discarding result for abandoned round")
		return
	}
	room.LastActivity = e.now()

	if reveal.Failed {
		e.publish(room, events.TypeScoringFailed, events.ScoringFailed{
			CorrectAnswer: reveal.CorrectAnswer,
			AllGuesses:    reveal.AllGuesses,
			Reason:        reveal.Reason,
			Round:         reveal.Round,
		})
		return
	}
	e.publish(room, events.TypeShowResult, events.Result{
		CorrectAnswer: reveal.CorrectAnswer,
		AllGuesses:    reveal.AllGuesses,
		RankedGuesses: reveal.Ranked,
		Winner:        reveal.Winner,
		Round:         reveal.Round,
	})
}

func (e *Engine) score(job game.RevealJob) *game.Reveal {
	reveal := &game.Reveal{Round: job.Round, CorrectAnswer: job.Secret}

	req := scorer.Request{Target: job.Secret, Guesses: job.Texts()}
	if len(req.Guesses) == 0 {
		reveal.AllGuesses = map[string][]game.ScoredGuess{}
		reveal.Ranked = []game.ScoredGuess{}
		return reveal
	}

	fail := func(err error) *game.Reveal {
		log.Warn().Err(err).Str("room", job.Code).Int("round", job.Round).Msg("scoring failed")
		reveal.Failed = true
		reveal.Reason = game.ErrScoringUnavailable.Error()
		reveal.AllGuesses = game.UnscoredGuesses(job.Order, job.Guesses)
		reveal.Ranked = []game.ScoredGuess{}
		return reveal
	}

	ctx, cancel := context.WithTimeout(e.ctx, e.settings.ScorerTimeout)
	defer cancel()

	resp, err := e.scorer.Score(ctx, req)
	if err == nil {
		err = scorer.Validate(req, resp)
	}
	if err != nil {
		if !errors.Is(err, game.ErrScoringUnavailable) {
			err = fmt.Errorf("%w: %v", game.ErrScoringUnavailable, err)
		}
		return fail(err)
	}

	all, ranked, err := game.RankGuesses(job.Order, job.Guesses, resp.Similarities())
	if err != nil {
		return fail(err)
	}

	reveal.AllGuesses = all
	reveal.Ranked = ranked
	reveal.Winner = resp.Winner
	if reveal.Winner == "" && len(ranked) > 0 {
		reveal.Winner = ranked[0].Player
	}
	return reveal
}

func (e *Engine) lookup(code string) (*game.Room, error) {
	return e.store.GetRoom(code)
}

// withRoom runs fn under the room lock. fn's mutations and publishes are
// atomic with respect to every other operation on the same room.
func (e *Engine) withRoom(code string, fn func(room *game.Room) error) error {
	room, err := e.lookup(code)
	if err != nil {
		return err
	}

	room.Lock()
	defer room.Unlock()

	if room.Closed() {
		return fmt.Errorf("%w: %s", game.ErrRoomNotFound, code)
	}
	if err := fn(room); err != nil {
		return err
	}
	room.LastActivity = e.now()
	return nil
}

func (e *Engine) drawCards() []string {
	return e.pool.Draw(e.settings.CardsPerTurn)
}

func (e *Engine) publish(room *game.Room, eventType string, data any) {
	e.bus.Publish(events.Event{Type: eventType, RoomCode: room.Code, Data: data})
}

func (e *Engine) publishRoomUpdate(room *game.Room) {
	e.publish(room, events.TypeRoomUpdate, events.RoomUpdate{
		Players: room.PlayerViews(),
		Host:    room.Host,
	})
}

func (e *Engine) publishTurn(room *game.Room, eventType string) {
	e.publish(room, eventType, events.TurnStart{
		CurrentPlayer: room.TurnHolder().Name,
		Cards:         room.Cards,
		Round:         room.Round,
	})
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", game.ErrInvalidInput)
	}
	return name, nil
}
