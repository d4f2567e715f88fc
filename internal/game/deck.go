// internal/game/deck.go
package game

import (
	"errors"
	"math/rand"

	"github.com/unogame-io/uno-service/internal/models"
)

// ErrEmptyPile is returned when a draw is attempted from an empty pile.
var ErrEmptyPile = errors.New("pile is empty")

// NewDeck returns the canonical 108-card UNO deck in a uniformly random
// permutation. Per color: one 0, two each of 1-9, two each of
// skip/reverse/+2; plus four wilds and four wild-draw-4s.
func NewDeck(rng *rand.Rand) []models.Card {
	deck := make([]models.Card, 0, 108)
	for _, color := range models.Colors {
		deck = append(deck, models.Card{Color: color, Kind: models.KindNumber, Value: "0"})
		for v := '1'; v <= '9'; v++ {
			card := models.Card{Color: color, Kind: models.KindNumber, Value: string(v)}
			deck = append(deck, card, card)
		}
		for _, v := range []string{models.ValueSkip, models.ValueReverse, models.ValueDrawTwo} {
			card := models.Card{Color: color, Kind: models.KindAction, Value: v}
			deck = append(deck, card, card)
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck,
			models.Card{Color: models.ColorNone, Kind: models.KindWild, Value: models.ValueWild},
			models.Card{Color: models.ColorNone, Kind: models.KindWild, Value: models.ValueWildDraw4},
		)
	}
	shuffleCards(rng, deck)
	return deck
}

// shuffleCards performs an unbiased Fisher-Yates shuffle in place.
func shuffleCards(rng *rand.Rand, cards []models.Card) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// drawTop removes and returns the top (last) card of a pile.
func drawTop(pile []models.Card) (models.Card, []models.Card, error) {
	if len(pile) == 0 {
		return models.Card{}, pile, ErrEmptyPile
	}
	top := pile[len(pile)-1]
	return top, pile[:len(pile)-1], nil
}
