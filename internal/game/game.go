// internal/game/game.go
package game

import (
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/unogame-io/uno-service/internal/models"
)

// Validation errors returned by engine operations. The dispatcher maps these
// to targeted error messages for the requesting connection; none of them
// leaves the game state modified.
var (
	ErrGameOver       = errors.New("game is already over")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrCardOutOfRange = errors.New("card index out of range")
	ErrNotPlayable    = errors.New("card is not playable")
	ErrColorPending   = errors.New("a wild color selection is pending")
	ErrNoColorPending = errors.New("no wild color selection is pending")
	ErrInvalidColor   = errors.New("invalid color")
	ErrUnknownPlayer  = errors.New("player is not in this game")
)

// UnoGame is the authoritative state machine for a single match. It is not
// self-locking: the owning room serializes every call, including snapshots,
// under its own mutex, so membership changes and game mutations can never
// interleave mid-operation.
type UnoGame struct {
	Players            []*models.Player
	CurrentPlayerIndex int
	Direction          int // +1 or -1

	DrawPile    []models.Card
	DiscardPile []models.Card

	ActiveColor models.Color
	PendingDraw int

	// ColorPending is set between a wild card leaving a hand and the
	// follow-up SelectWildColor call. While set, the acting player keeps
	// the turn and every other engine mutation is rejected.
	ColorPending bool

	GameOver    bool
	WinnerIndex int // -1 until GameOver

	rng *rand.Rand
}

// New builds a game for the given seats, deals seven cards to each player
// round-robin, and flips the first non-wild card as the initial discard.
// Wilds passed over during the flip return to the bottom of the draw pile,
// so every one of the 108 cards stays in some pile or hand. If the deck
// somehow runs out of non-wild cards the last drawn wild is flipped instead.
func New(players []*models.Player) *UnoGame {
	return newWithRand(players, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newWithRand(players []*models.Player, rng *rand.Rand) *UnoGame {
	g := &UnoGame{
		Players:     players,
		Direction:   1,
		DrawPile:    NewDeck(rng),
		WinnerIndex: -1,
		rng:         rng,
	}

	for i := 0; i < 7; i++ {
		for _, p := range g.Players {
			var card models.Card
			card, g.DrawPile, _ = drawTop(g.DrawPile)
			p.Hand = append(p.Hand, card)
		}
	}

	var first models.Card
	var skippedWilds []models.Card
	for {
		card, rest, err := drawTop(g.DrawPile)
		if err != nil {
			// Deck exhausted before a non-wild surfaced; flip the last
			// skipped wild instead of leaving the discard pile empty.
			if n := len(skippedWilds); n > 0 {
				first = skippedWilds[n-1]
				skippedWilds = skippedWilds[:n-1]
			}
			break
		}
		g.DrawPile = rest
		if !card.IsWild() {
			first = card
			break
		}
		skippedWilds = append(skippedWilds, card)
	}
	if len(skippedWilds) > 0 {
		// Skipped wilds go back to the bottom so no card leaves play.
		g.DrawPile = append(skippedWilds, g.DrawPile...)
	}
	g.DiscardPile = []models.Card{first}
	g.ActiveColor = first.Color
	return g
}

// topDiscard returns the most recently played card. The discard pile is
// never empty after initialization.
func (g *UnoGame) topDiscard() models.Card {
	return g.DiscardPile[len(g.DiscardPile)-1]
}

// PlayerIndex returns the seat index for an identity, or -1.
func (g *UnoGame) PlayerIndex(id uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// guardTurn rejects operations once the game is over, while a wild color
// selection is outstanding, or when it is not the caller's turn.
func (g *UnoGame) guardTurn(playerIndex int) error {
	if g.GameOver {
		return ErrGameOver
	}
	if g.ColorPending {
		return ErrColorPending
	}
	if playerIndex != g.CurrentPlayerIndex {
		return ErrNotYourTurn
	}
	return nil
}

// isPlayable implements card legality against the current top discard.
// While a penalty is pending only another penalty card may be stacked on;
// otherwise wilds always match, and colored cards match on active color or
// on exact value (skip-on-skip across colors counts as a value match).
func (g *UnoGame) isPlayable(c models.Card) bool {
	if g.PendingDraw > 0 {
		return c.IsPenalty()
	}
	if c.IsWild() {
		return true
	}
	return c.Color == g.ActiveColor || c.Value == g.topDiscard().Value
}

// PlayCard moves the referenced card from the player's hand to the discard
// pile and applies its effect. Wild cards leave the active color unresolved
// and hold the turn until SelectWildColor.
func (g *UnoGame) PlayCard(playerIndex, cardIndex int) error {
	if err := g.guardTurn(playerIndex); err != nil {
		return err
	}
	player := g.Players[playerIndex]
	if cardIndex < 0 || cardIndex >= len(player.Hand) {
		return ErrCardOutOfRange
	}
	card := player.Hand[cardIndex]
	if !g.isPlayable(card) {
		return ErrNotPlayable
	}

	player.Hand = append(player.Hand[:cardIndex], player.Hand[cardIndex+1:]...)
	g.DiscardPile = append(g.DiscardPile, card)
	if card.Color != models.ColorNone {
		g.ActiveColor = card.Color
	}
	if card.IsPenalty() {
		g.PendingDraw += card.PenaltyAmount()
	}

	switch {
	case card.IsWild():
		// Turn advance is deferred to SelectWildColor so the follow-up
		// color choice stays gated on the acting player.
		g.ColorPending = true
	case card.Value == models.ValueSkip:
		g.advanceTurn()
		g.advanceTurn()
	case card.Value == models.ValueReverse:
		// Flip then advance once for every player count. With exactly two
		// players this is indistinguishable from a plain card: the flipped
		// direction still lands on the opponent.
		g.Direction = -g.Direction
		g.advanceTurn()
	default:
		g.advanceTurn()
	}

	if len(player.Hand) == 0 {
		g.GameOver = true
		g.WinnerIndex = playerIndex
		g.ColorPending = false
	}
	return nil
}

// DrawCard draws the pending penalty count, or a single card when no
// penalty is outstanding, then passes the turn. Drawing never ends the turn
// early on a now-playable card.
func (g *UnoGame) DrawCard(playerIndex int) error {
	if err := g.guardTurn(playerIndex); err != nil {
		return err
	}
	player := g.Players[playerIndex]

	count := 1
	if g.PendingDraw > 0 {
		count = g.PendingDraw
	}
	for i := 0; i < count; i++ {
		card, ok := g.drawOne()
		if !ok {
			// Both piles exhausted below one spare card; stop early
			// rather than fail.
			break
		}
		player.Hand = append(player.Hand, card)
	}

	g.PendingDraw = 0
	g.advanceTurn()
	return nil
}

// drawOne pops the top of the draw pile, reshuffling the discard pile
// (minus its top card) into a fresh draw pile first when needed.
func (g *UnoGame) drawOne() (models.Card, bool) {
	if len(g.DrawPile) == 0 {
		if len(g.DiscardPile) <= 1 {
			return models.Card{}, false
		}
		g.reshuffleFromDiscard()
	}
	card, rest, err := drawTop(g.DrawPile)
	if err != nil {
		return models.Card{}, false
	}
	g.DrawPile = rest
	return card, true
}

// reshuffleFromDiscard moves every discard except the top card into a
// freshly shuffled draw pile. This is the only shuffle after the deal.
func (g *UnoGame) reshuffleFromDiscard() {
	top := g.topDiscard()
	g.DrawPile = g.DiscardPile[:len(g.DiscardPile)-1]
	g.DiscardPile = []models.Card{top}
	shuffleCards(g.rng, g.DrawPile)
}

// CallUno declares uno for the player. It is not turn-gated and reports
// whether the declaration took effect: the player must hold exactly one
// card and must not have declared already.
func (g *UnoGame) CallUno(playerIndex int) bool {
	if g.GameOver {
		return false
	}
	player := g.Players[playerIndex]
	if len(player.Hand) != 1 || player.UnoDeclared {
		return false
	}
	player.UnoDeclared = true
	return true
}

// SelectWildColor resolves the color of the wild card on top of the discard
// pile and passes the turn that PlayCard deferred.
func (g *UnoGame) SelectWildColor(playerIndex int, color models.Color) error {
	if g.GameOver {
		return ErrGameOver
	}
	if playerIndex != g.CurrentPlayerIndex {
		return ErrNotYourTurn
	}
	if !g.ColorPending {
		return ErrNoColorPending
	}
	if !models.ValidWildColor(string(color)) {
		return ErrInvalidColor
	}
	g.ActiveColor = color
	g.ColorPending = false
	g.advanceTurn()
	return nil
}

// RemovePlayer forfeits a disconnected or leaving player: their hand goes
// to the bottom of the draw pile, the seat is removed from rotation, and
// the last remaining player wins by default. Idempotent; reports whether a
// seat was removed.
func (g *UnoGame) RemovePlayer(id uuid.UUID) bool {
	if g.GameOver {
		// Seat indices, including WinnerIndex, are frozen once the game
		// ends; the room discards the instance on its own.
		return false
	}
	idx := g.PlayerIndex(id)
	if idx == -1 {
		return false
	}
	player := g.Players[idx]

	// Prepend so the returned cards surface last; conservation holds.
	g.DrawPile = append(append([]models.Card{}, player.Hand...), g.DrawPile...)
	player.Hand = nil
	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)

	if len(g.Players) < 2 {
		g.GameOver = true
		g.WinnerIndex = 0
		if len(g.Players) == 0 {
			g.WinnerIndex = -1
		}
		g.ColorPending = false
		g.CurrentPlayerIndex = 0
		return true
	}

	n := len(g.Players)
	switch {
	case idx < g.CurrentPlayerIndex:
		g.CurrentPlayerIndex--
	case idx == g.CurrentPlayerIndex:
		// The leaver held the turn; hand it to whoever was next. Any
		// outstanding color selection leaves with them.
		g.ColorPending = false
		if g.Direction > 0 {
			g.CurrentPlayerIndex = idx % n
		} else {
			g.CurrentPlayerIndex = (idx - 1 + n) % n
		}
	}
	return true
}

// advanceTurn applies the turn advance rule exactly once.
func (g *UnoGame) advanceTurn() {
	n := len(g.Players)
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + g.Direction + n) % n
}
