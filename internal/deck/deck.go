// Package deck holds the read-only list of prompts shared by every room.
package deck

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrEmptyDeck = errors.New("deck has no cards")

// Deck is immutable after construction and safe to share between rooms.
type Deck struct {
	cards []string
}

type deckFile struct {
	Cards []string `yaml:"cards"`
}

func New(cards []string) (*Deck, error) {
	cleaned := make([]string, 0, len(cards))
	for _, c := range cards {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		cleaned = append(cleaned, c)
	}
	if len(cleaned) == 0 {
		return nil, ErrEmptyDeck
	}
	return &Deck{cards: cleaned}, nil
}

// Load reads a YAML file of the form `cards: [...]`.
func Load(path string) (*Deck, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck file: %w", err)
	}
	var f deckFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse deck file %s: %w", path, err)
	}
	return New(f.Cards)
}

func (d *Deck) Len() int { return len(d.cards) }

// Cards returns a copy of the prompts in their configured order.
func (d *Deck) Cards() []string {
	return append([]string(nil), d.cards...)
}

// Shuffle returns a Fisher–Yates permutation of the full card list. The deck
// itself is never reordered.
func (d *Deck) Shuffle(rng *rand.Rand) []string {
	out := d.Cards()
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
