package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
)

// ScoredGuess is a guess annotated with its similarity to the secret card
type ScoredGuess struct {
	Player      string    `json:"player"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submittedAt"`
	Similarity  float64   `json:"similarity"`
}

// Reveal is the outcome of a round once guessing has closed
type Reveal struct {
	Round         int
	CorrectAnswer string
	AllGuesses    map[string][]ScoredGuess
	Ranked        []ScoredGuess
	Winner        string

	// Failed is set when scoring could not be completed; AllGuesses then
	// carries the raw guesses with zero similarity and Ranked is empty.
	Failed bool
	Reason string
}

// RankGuesses attaches similarity scores to every guess and orders them by
// descending similarity. Ties keep submission order. scores must be
// positionally aligned with guesses for each player.
func RankGuesses(order []string, guesses map[string][]Guess, scores map[string][]float64) (map[string][]ScoredGuess, []ScoredGuess, error) {
	all := make(map[string][]ScoredGuess, len(guesses))
	ranked := make([]ScoredGuess, 0)

	for _, name := range order {
		list := guesses[name]
		if len(list) == 0 {
			continue
		}
		sims, ok := scores[name]
		if !ok || len(sims) != len(list) {
			return nil, nil, fmt.Errorf("%w: expected %d scores for %s, got %d", ErrInvalidInput, len(list), name, len(sims))
		}

		scored := make([]ScoredGuess, len(list))
		for i, g := range list {
			scored[i] = ScoredGuess{
				Player:      name,
				Text:        g.Text,
				SubmittedAt: g.SubmittedAt,
				Similarity:  sims[i],
			}
		}
		all[name] = scored
		ranked = append(ranked, scored...)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		return ranked[i].SubmittedAt.Before(ranked[j].SubmittedAt)
	})

	return all, ranked, nil
}

// UnscoredGuesses converts raw guesses into the reveal shape without scores
func UnscoredGuesses(order []string, guesses map[string][]Guess) map[string][]ScoredGuess {
	all := make(map[string][]ScoredGuess, len(guesses))
	for _, name := range order {
		list := guesses[name]
		if len(list) == 0 {
			continue
		}
		all[name] = lo.Map(list, func(g Guess, _ int) ScoredGuess {
			return ScoredGuess{Player: name, Text: g.Text, SubmittedAt: g.SubmittedAt}
		})
	}
	return all
}
