// internal/handlers/status.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/unogame-io/uno-service/internal/room"
)

// RoomStatus is one row of the /api/rooms listing.
type RoomStatus struct {
	Code        string `json:"code"`
	Players     int    `json:"players"`
	MaxPlayers  int    `json:"maxPlayers"`
	GameStarted bool   `json:"gameStarted"`
}

// HealthHandler reports liveness and the active room count.
func HealthHandler(reg *room.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"rooms":  reg.Count(),
		})
	}
}

// ListRoomsHandler lists active rooms with their occupancy.
func ListRoomsHandler(reg *room.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := []RoomStatus{}
		for _, rm := range reg.All() {
			rm.Mu.Lock()
			statuses = append(statuses, RoomStatus{
				Code:        rm.Code,
				Players:     len(rm.Members),
				MaxPlayers:  rm.MaxPlayers,
				GameStarted: rm.Phase == room.PhasePlaying,
			})
			rm.Mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statuses)
	}
}
