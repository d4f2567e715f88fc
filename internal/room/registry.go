// internal/room/registry.go
package room

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// codeValid reports whether a room code is exactly six ASCII decimal
// digits. Creation and join validate identically.
func codeValid(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Registry is the process-wide table of active rooms. Its lock covers only
// insert, lookup, and delete; each room's internal state is guarded by the
// room's own mutex.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Create validates the code, registers a new lobby-phase room with the
// given member as sole occupant and host, and wires OnEmpty to delete the
// room from the registry.
func (reg *Registry) Create(code string, host *Member, maxPlayers int) (*Room, error) {
	if !codeValid(code) {
		return nil, ErrInvalidCode
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, exists := reg.rooms[code]; exists {
		return nil, ErrDuplicateCode
	}
	host.IsHost = true
	r := &Room{
		Code:       code,
		HostID:     host.ID,
		MaxPlayers: maxPlayers,
		Members:    []*Member{host},
		Phase:      PhaseLobby,
	}
	r.OnEmpty = func(code string) {
		reg.Delete(code)
	}
	reg.rooms[code] = r
	log.Infof("registry: room %s created by %s (max %d)", code, host.ID, maxPlayers)
	return r, nil
}

// Get returns the room for a code, if registered.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[code]
	return r, ok
}

// Delete removes a room from the registry. Deleting an absent code is a
// no-op, so a concurrent leave and disconnect cannot double-fire.
func (reg *Registry) Delete(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.rooms[code]; ok {
		delete(reg.rooms, code)
		log.Infof("registry: room %s deleted (empty)", code)
	}
}

// All returns a snapshot of the current rooms. Callers still need each
// room's lock before touching its members or game.
func (reg *Registry) All() []*Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// Count returns the number of active rooms.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}
