// internal/game/view.go
package game

import (
	"github.com/google/uuid"

	"github.com/unogame-io/uno-service/internal/models"
)

// PlayerView is one seat as seen by a particular viewer. Hand is populated
// only for the viewer's own seat; everyone else is reduced to a card count.
type PlayerView struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Hand      []models.Card `json:"hand,omitempty"`
	CardCount int           `json:"cardCount"`
	Uno       bool          `json:"uno"`
}

// GameView is the per-viewer projection of the authoritative state. Shared
// fields are identical across viewers; only the hand visibility differs.
// Views are always recomputed from the canonical state, never stored.
type GameView struct {
	Players        []PlayerView  `json:"players"`
	CurrentPlayer  int           `json:"currentPlayer"`
	Direction      int           `json:"direction"`
	DiscardPile    []models.Card `json:"discardPile"`
	DrawDeckLength int           `json:"drawDeckLength"`
	CurrentColor   models.Color  `json:"currentColor"`
	PendingDraw    int           `json:"pendingDraw"`
	ColorPending   bool          `json:"colorPending"`
	GameOver       bool          `json:"gameOver"`
	Winner         *int          `json:"winner"`
}

// Snapshot builds the filtered view for the given seat. It copies every
// slice it exposes so a marshaled view can never alias live engine state.
// Like every engine call, it must run under the owning room's lock.
func (g *UnoGame) Snapshot(viewerIndex int) GameView {
	view := GameView{
		Players:        make([]PlayerView, len(g.Players)),
		CurrentPlayer:  g.CurrentPlayerIndex,
		Direction:      g.Direction,
		DiscardPile:    append([]models.Card{}, g.DiscardPile...),
		DrawDeckLength: len(g.DrawPile),
		CurrentColor:   g.ActiveColor,
		PendingDraw:    g.PendingDraw,
		ColorPending:   g.ColorPending,
		GameOver:       g.GameOver,
	}
	if g.WinnerIndex >= 0 {
		winner := g.WinnerIndex
		view.Winner = &winner
	}
	for i, p := range g.Players {
		pv := PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			CardCount: len(p.Hand),
			Uno:       p.UnoDeclared,
		}
		if i == viewerIndex {
			pv.Hand = append([]models.Card{}, p.Hand...)
		}
		view.Players[i] = pv
	}
	return view
}
