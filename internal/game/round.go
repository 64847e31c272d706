package game

import (
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
)

// Start moves a waiting room into its first picking phase
func (r *Room) Start(requester string, minPlayers int, cards []string) error {
	if r.Phase != PhaseWaiting {
		return ErrWrongPhase
	}
	if requester != r.Host {
		return ErrNotHost
	}
	if len(r.Players) < minPlayers {
		return fmt.Errorf("%w: need %d, have %d", ErrNotEnoughPlayers, minPlayers, len(r.Players))
	}

	r.beginTurn(cards)
	return nil
}

// Pick sets the secret card for the round and opens guessing
func (r *Room) Pick(requester, card string) error {
	if r.Phase != PhasePicking {
		return ErrWrongPhase
	}
	if !r.IsTurnHolder(requester) {
		return ErrNotYourTurn
	}
	if !slices.Contains(r.Cards, card) {
		return fmt.Errorf("%w: %q is not one of the offered cards", ErrInvalidInput, card)
	}

	r.Secret = card
	r.Guesses = make(map[string][]Guess)
	r.Phase = PhaseGuessing
	return nil
}

// AddGuess appends a guess to the requester's log
func (r *Room) AddGuess(requester, text string, at time.Time) error {
	if r.Phase != PhaseGuessing {
		return ErrWrongPhase
	}
	if r.PlayerIndex(requester) < 0 {
		return ErrPlayerNotFound
	}
	if r.IsTurnHolder(requester) {
		return fmt.Errorf("%w: the card holder cannot guess", ErrNotYourTurn)
	}

	r.Guesses[requester] = append(r.Guesses[requester], Guess{Text: text, SubmittedAt: at})
	return nil
}

// AllGuessed reports whether every player other than the turn holder has
// submitted at least one guess this round
func (r *Room) AllGuessed() bool {
	guessers := 0
	for i, p := range r.Players {
		if i == r.TurnIndex {
			continue
		}
		if len(r.Guesses[p.Name]) == 0 {
			return false
		}
		guessers++
	}
	return guessers > 0
}

// RevealJob is the snapshot handed to the scorer once guessing closes
type RevealJob struct {
	Code    string
	Round   int
	Secret  string
	Order   []string
	Guesses map[string][]Guess
}

// Texts returns the guess texts of every player who guessed
func (j RevealJob) Texts() map[string][]string {
	texts := make(map[string][]string, len(j.Guesses))
	for name, guesses := range j.Guesses {
		if len(guesses) == 0 {
			continue
		}
		list := make([]string, len(guesses))
		for i, g := range guesses {
			list[i] = g.Text
		}
		texts[name] = list
	}
	return texts
}

// BeginReveal closes guessing and snapshots what must be scored. The room
// stays in revealing with Scoring set until ApplyReveal lands.
func (r *Room) BeginReveal() (RevealJob, error) {
	if r.Phase != PhaseGuessing {
		return RevealJob{}, ErrWrongPhase
	}
	r.StopTimer()
	r.Phase = PhaseRevealing
	r.Scoring = true
	r.Result = nil

	job := RevealJob{
		Code:    r.Code,
		Round:   r.Round,
		Secret:  r.Secret,
		Order:   lo.Map(r.Players, func(p *Player, _ int) string { return p.Name }),
		Guesses: make(map[string][]Guess, len(r.Guesses)),
	}
	for name, guesses := range r.Guesses {
		job.Guesses[name] = slices.Clone(guesses)
	}
	return job, nil
}

// ApplyReveal stores a scoring outcome if it still belongs to the current
// round. Late results for an abandoned or disposed round are rejected.
func (r *Room) ApplyReveal(reveal *Reveal) bool {
	if r.closed || r.Phase != PhaseRevealing || !r.Scoring || reveal.Round != r.Round {
		return false
	}
	r.Result = reveal
	r.Scoring = false
	return true
}

// Advance passes the turn to the next player once the reveal is done
func (r *Room) Advance(requester string, cards []string) error {
	if r.Phase != PhaseRevealing || r.Scoring {
		return ErrWrongPhase
	}
	if r.PlayerIndex(requester) < 0 {
		return ErrPlayerNotFound
	}
	if !r.IsTurnHolder(requester) && requester != r.Host {
		return ErrNotYourTurn
	}

	r.TurnIndex = (r.TurnIndex + 1) % len(r.Players)
	r.beginTurn(cards)
	return nil
}

// RestartTurn abandons the current round and offers new cards to whoever
// now holds the turn
func (r *Room) RestartTurn(cards []string) {
	r.beginTurn(cards)
}

func (r *Room) beginTurn(cards []string) {
	r.StopTimer()
	r.Round++
	r.Phase = PhasePicking
	r.Cards = cards
	r.Secret = ""
	r.Guesses = make(map[string][]Guess)
	r.Result = nil
	r.Scoring = false
}
