package game

import (
	"math/rand/v2"
	"slices"
)

// CardPool is an immutable set of candidate secret words
type CardPool struct {
	cards []string
}

// NewCardPool creates a pool from the given words, dropping blanks and
// duplicates while keeping first-seen order
func NewCardPool(words []string) *CardPool {
	seen := make(map[string]bool, len(words))
	cards := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		cards = append(cards, w)
	}
	return &CardPool{cards: cards}
}

// Size returns the number of cards in the pool
func (p *CardPool) Size() int {
	return len(p.cards)
}

// Cards returns a copy of the canonical pool
func (p *CardPool) Cards() []string {
	return slices.Clone(p.cards)
}

// Contains reports whether card belongs to the pool
func (p *CardPool) Contains(card string) bool {
	return slices.Contains(p.cards, card)
}

// Draw returns n distinct cards in random order. The pool itself is never
// reordered, so concurrent draws from different rooms cannot interfere.
// n is clamped to the pool size.
func (p *CardPool) Draw(n int) []string {
	if n <= 0 {
		return []string{}
	}
	if n > len(p.cards) {
		n = len(p.cards)
	}

	hand := make([]string, n)
	for i, idx := range rand.Perm(len(p.cards))[:n] {
		hand[i] = p.cards[idx]
	}
	return hand
}
