// internal/room/room.go
package room

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/unogame-io/uno-service/internal/game"
	"github.com/unogame-io/uno-service/internal/models"
)

// Validation errors for room lifecycle operations. They are reported only
// to the originating connection and never mutate state.
var (
	ErrInvalidCode      = errors.New("room code must be exactly 6 digits")
	ErrDuplicateCode    = errors.New("a room with that code already exists")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrGameStarted      = errors.New("the game has already started")
	ErrNotHost          = errors.New("only the host can start the game")
	ErrNotEnoughPlayers = errors.New("at least 2 players are required")
	ErrAlreadyInRoom    = errors.New("already in this room")
)

// DefaultMaxPlayers is the room capacity ceiling and the default when a
// create request leaves maxPlayers unset.
const DefaultMaxPlayers = 8

// Phase is the room lifecycle phase.
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePlaying Phase = "playing"
)

// Member is a single connection's presence in a room. OutChan is drained by
// the connection's write pump; the room never blocks on network IO.
type Member struct {
	ID      uuid.UUID
	Name    string
	IsHost  bool
	OutChan chan interface{}
}

// Send pushes a message onto the member's OutChan non-blockingly. A full or
// closed channel drops the message; the write pump's failure path handles
// the disconnect.
func (m *Member) Send(msg interface{}) {
	select {
	case m.OutChan <- msg:
	default:
		log.Warnf("room: OutChan for member %s closed or full, dropping message", m.ID)
	}
}

// MemberInfo is the wire shape of one member in players[] payloads.
type MemberInfo struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	IsHost bool      `json:"isHost"`
}

// Room is a bounded, host-governed group of connections identified by a
// 6-digit code. Mu serializes every mutation of membership and of the owned
// game; methods suffixed Unsafe assume the caller holds it.
type Room struct {
	Code       string
	HostID     uuid.UUID
	MaxPlayers int
	Members    []*Member
	Phase      Phase
	Game       *game.UnoGame

	Mu sync.Mutex

	// OnEmpty is invoked after the last member leaves, typically wired by
	// the registry to delete the room.
	OnEmpty func(code string)

	actionSeq int
}

// NextActionSeqUnsafe increments and returns the per-room sequence number
// stamped onto action journal records.
func (r *Room) NextActionSeqUnsafe() int {
	r.actionSeq++
	return r.actionSeq
}

// MemberByIDUnsafe returns the member with the given identity, or nil.
func (r *Room) MemberByIDUnsafe(id uuid.UUID) *Member {
	for _, m := range r.Members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// JoinUnsafe appends a member, enforcing capacity and the lobby phase.
func (r *Room) JoinUnsafe(m *Member) error {
	if r.MemberByIDUnsafe(m.ID) != nil {
		return ErrAlreadyInRoom
	}
	if len(r.Members) >= r.MaxPlayers {
		return ErrRoomFull
	}
	if r.Phase != PhaseLobby {
		return ErrGameStarted
	}
	r.Members = append(r.Members, m)
	return nil
}

// StartGameUnsafe creates a fresh game sized to the current membership,
// binding each seat to a member in join order. Only the host may start and
// at least two members must be present. Starting again replaces any
// previous game.
func (r *Room) StartGameUnsafe(requester uuid.UUID) error {
	if requester != r.HostID {
		return ErrNotHost
	}
	if len(r.Members) < 2 {
		return ErrNotEnoughPlayers
	}
	players := make([]*models.Player, len(r.Members))
	for i, m := range r.Members {
		players[i] = &models.Player{ID: m.ID, Name: m.Name}
	}
	r.Game = game.New(players)
	r.Phase = PhasePlaying
	return nil
}

// RemoveMemberUnsafe drops a member from the room, forfeiting their seat in
// any in-progress game and reassigning the host role to the earliest-joined
// remaining member when the host leaves. Idempotent: removing an absent
// identity reports false and changes nothing. The caller is responsible for
// invoking OnEmpty once the lock is released if the room emptied.
func (r *Room) RemoveMemberUnsafe(id uuid.UUID) bool {
	idx := -1
	for i, m := range r.Members {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}
	r.Members = append(r.Members[:idx], r.Members[idx+1:]...)

	if r.Game != nil {
		r.Game.RemovePlayer(id)
	}
	if id == r.HostID && len(r.Members) > 0 {
		r.HostID = r.Members[0].ID
		r.Members[0].IsHost = true
	}
	return true
}

// EmptyUnsafe reports whether the room has no members left.
func (r *Room) EmptyUnsafe() bool {
	return len(r.Members) == 0
}

// MemberInfosUnsafe builds the players[] payload in join order.
func (r *Room) MemberInfosUnsafe() []MemberInfo {
	infos := make([]MemberInfo, len(r.Members))
	for i, m := range r.Members {
		infos[i] = MemberInfo{ID: m.ID, Name: m.Name, IsHost: m.IsHost}
	}
	return infos
}

// BroadcastUnsafe sends a message to every current member.
func (r *Room) BroadcastUnsafe(msg interface{}) {
	for _, m := range r.Members {
		m.Send(msg)
	}
}
