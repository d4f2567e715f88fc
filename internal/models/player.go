package models

import "github.com/google/uuid"

// Player is one seat in an active game. ID is the opaque per-connection
// identity token the transport layer assigned; the engine never inspects it
// beyond equality.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	// Hand order is insignificant to the rules but kept stable for display.
	Hand []Card `json:"hand"`

	// UnoDeclared is set once the player declares "uno" while holding
	// exactly one card. Cleared only by starting a new game.
	UnoDeclared bool `json:"uno"`
}
