// internal/handlers/dispatch.go
package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/unogame-io/uno-service/internal/game"
	"github.com/unogame-io/uno-service/internal/models"
	"github.com/unogame-io/uno-service/internal/room"
)

// Dispatch routes one decoded inbound message to its intent handler. A
// panic while processing an intent is confined to that intent: the
// requester gets a generic internal error and no other room or the
// registry is affected. Engine and room operations validate before they
// mutate, so a recovered fault leaves the room's prior state intact.
func (s *Server) Dispatch(c *Conn, msgType string, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Errorf("panic handling %s from %s: %v", msgType, c.ID, r)
			c.Send(errorMessage("Internal server error"))
		}
	}()

	switch msgType {
	case MsgCreateRoom:
		var req CreateRoomRequest
		if !s.decode(c, data, &req) {
			return
		}
		s.handleCreateRoom(c, req)
	case MsgJoinRoom:
		var req JoinRoomRequest
		if !s.decode(c, data, &req) {
			return
		}
		s.handleJoinRoom(c, req)
	case MsgStartGame:
		var req StartGameRequest
		if !s.decode(c, data, &req) {
			return
		}
		s.handleStartGame(c, req)
	case MsgPlayCard:
		var req PlayCardRequest
		if !s.decode(c, data, &req) {
			return
		}
		s.handlePlayCard(c, req)
	case MsgDrawCard:
		var req DrawCardRequest
		if !s.decode(c, data, &req) {
			return
		}
		s.handleDrawCard(c, req)
	case MsgCallUno:
		var req CallUnoRequest
		if !s.decode(c, data, &req) {
			return
		}
		s.handleCallUno(c, req)
	case MsgSelectWildColor:
		var req SelectWildColorRequest
		if !s.decode(c, data, &req) {
			return
		}
		s.handleSelectWildColor(c, req)
	case MsgLeaveRoom:
		var req LeaveRoomRequest
		if !s.decode(c, data, &req) {
			return
		}
		s.handleLeaveRoom(c, req)
	default:
		c.Send(errorMessage(fmt.Sprintf("Unknown message type: %s", msgType)))
	}
}

func (s *Server) decode(c *Conn, data []byte, req interface{}) bool {
	if err := json.Unmarshal(data, req); err != nil {
		c.Send(errorMessage("Malformed message payload"))
		return false
	}
	return true
}

func (s *Server) handleCreateRoom(c *Conn, req CreateRoomRequest) {
	if req.PlayerName == "" {
		c.Send(errorMessage("Player name is required"))
		return
	}
	maxPlayers := req.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = room.DefaultMaxPlayers
	}
	if maxPlayers < 2 || maxPlayers > room.DefaultMaxPlayers {
		c.Send(errorMessage("maxPlayers must be between 2 and 8"))
		return
	}

	host := &room.Member{ID: c.ID, Name: req.PlayerName, OutChan: c.OutChan}
	r, err := s.Rooms.Create(req.RoomCode, host, maxPlayers)
	if err != nil {
		c.Send(errorMessage(err.Error()))
		return
	}
	s.trackMembership(c.ID, r.Code)

	r.Mu.Lock()
	msg := RoomCreatedMessage{
		Type:     MsgRoomCreated,
		RoomCode: r.Code,
		PlayerID: c.ID,
		Players:  r.MemberInfosUnsafe(),
	}
	r.Mu.Unlock()
	c.Send(msg)
}

func (s *Server) handleJoinRoom(c *Conn, req JoinRoomRequest) {
	if req.PlayerName == "" {
		c.Send(errorMessage("Player name is required"))
		return
	}
	r, ok := s.Rooms.Get(req.RoomCode)
	if !ok {
		c.Send(errorMessage(room.ErrRoomNotFound.Error()))
		return
	}

	member := &room.Member{ID: c.ID, Name: req.PlayerName, OutChan: c.OutChan}

	r.Mu.Lock()
	if err := r.JoinUnsafe(member); err != nil {
		r.Mu.Unlock()
		c.Send(errorMessage(err.Error()))
		return
	}
	players := r.MemberInfosUnsafe()
	r.BroadcastUnsafe(PlayerJoinedMessage{Type: MsgPlayerJoined, Players: players})
	r.Mu.Unlock()

	s.trackMembership(c.ID, r.Code)
	c.Send(RoomJoinedMessage{Type: MsgRoomJoined, RoomCode: r.Code, PlayerID: c.ID, Players: players})
}

func (s *Server) handleStartGame(c *Conn, req StartGameRequest) {
	r, ok := s.Rooms.Get(req.RoomCode)
	if !ok {
		c.Send(errorMessage(room.ErrRoomNotFound.Error()))
		return
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()
	if err := r.StartGameUnsafe(c.ID); err != nil {
		c.Send(errorMessage(err.Error()))
		return
	}
	// Each member gets their own seat index and filtered view.
	for _, m := range r.Members {
		idx := r.Game.PlayerIndex(m.ID)
		m.Send(GameStartingMessage{
			Type:        MsgGameStarting,
			PlayerIndex: idx,
			GameState:   r.Game.Snapshot(idx),
		})
	}
	s.logAction(r.Code, r.NextActionSeqUnsafe(), c.ID, MsgStartGame, map[string]interface{}{
		"players": len(r.Members),
	})
}

// withGame resolves the room and the requester's seat, reporting validation
// failures to the requester only. The callback runs under the room lock.
func (s *Server) withGame(c *Conn, code string, fn func(r *room.Room, idx int)) {
	r, ok := s.Rooms.Get(code)
	if !ok {
		c.Send(errorMessage(room.ErrRoomNotFound.Error()))
		return
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.Game == nil {
		c.Send(errorMessage("The game has not started"))
		return
	}
	idx := r.Game.PlayerIndex(c.ID)
	if idx == -1 {
		c.Send(errorMessage(game.ErrUnknownPlayer.Error()))
		return
	}
	fn(r, idx)
}

func (s *Server) handlePlayCard(c *Conn, req PlayCardRequest) {
	s.withGame(c, req.RoomCode, func(r *room.Room, idx int) {
		if err := r.Game.PlayCard(idx, req.CardIndex); err != nil {
			c.Send(errorMessage(err.Error()))
			return
		}
		s.broadcastGameStateUnsafe(r)
		s.logAction(r.Code, r.NextActionSeqUnsafe(), c.ID, MsgPlayCard, map[string]interface{}{
			"cardIndex": req.CardIndex,
		})
		if r.Game.GameOver {
			s.broadcastGameOverUnsafe(r)
		}
	})
}

func (s *Server) handleDrawCard(c *Conn, req DrawCardRequest) {
	s.withGame(c, req.RoomCode, func(r *room.Room, idx int) {
		if err := r.Game.DrawCard(idx); err != nil {
			c.Send(errorMessage(err.Error()))
			return
		}
		s.broadcastGameStateUnsafe(r)
		s.logAction(r.Code, r.NextActionSeqUnsafe(), c.ID, MsgDrawCard, nil)
	})
}

func (s *Server) handleCallUno(c *Conn, req CallUnoRequest) {
	s.withGame(c, req.RoomCode, func(r *room.Room, idx int) {
		if !r.Game.CallUno(idx) {
			// Not eligible; deliberately unacknowledged.
			return
		}
		r.BroadcastUnsafe(UnoCalledMessage{
			Type:        MsgUnoCalled,
			PlayerIndex: idx,
			PlayerName:  r.Game.Players[idx].Name,
		})
		s.logAction(r.Code, r.NextActionSeqUnsafe(), c.ID, MsgCallUno, nil)
	})
}

func (s *Server) handleSelectWildColor(c *Conn, req SelectWildColorRequest) {
	s.withGame(c, req.RoomCode, func(r *room.Room, idx int) {
		if err := r.Game.SelectWildColor(idx, models.Color(req.Color)); err != nil {
			c.Send(errorMessage(err.Error()))
			return
		}
		s.broadcastGameStateUnsafe(r)
		s.logAction(r.Code, r.NextActionSeqUnsafe(), c.ID, MsgSelectWildColor, map[string]interface{}{
			"color": req.Color,
		})
	})
}

func (s *Server) handleLeaveRoom(c *Conn, req LeaveRoomRequest) {
	r, ok := s.Rooms.Get(req.RoomCode)
	if !ok {
		return
	}
	s.removeFromRoom(c, r)
}

// HandleDisconnect routes a transport-level disconnect through the same
// removal path as leave-room for every room the identity belongs to. It is
// idempotent with a concurrent leave: the second application finds the
// identity absent and does nothing.
func (s *Server) HandleDisconnect(c *Conn) {
	for _, code := range s.roomsOf(c.ID) {
		if r, ok := s.Rooms.Get(code); ok {
			s.removeFromRoom(c, r)
		}
	}
}

// removeFromRoom applies the membership removal, notifies the remaining
// members, and tears the room down when it empties.
func (s *Server) removeFromRoom(c *Conn, r *room.Room) {
	r.Mu.Lock()
	wasOver := r.Game != nil && r.Game.GameOver
	if !r.RemoveMemberUnsafe(c.ID) {
		r.Mu.Unlock()
		return
	}
	empty := r.EmptyUnsafe()
	if !empty {
		r.BroadcastUnsafe(PlayerLeftMessage{Type: MsgPlayerLeft, Players: r.MemberInfosUnsafe()})
		if r.Phase == room.PhasePlaying && r.Game != nil {
			// The forfeit changed piles and possibly the turn; resync.
			s.broadcastGameStateUnsafe(r)
			if r.Game.GameOver && !wasOver {
				s.broadcastGameOverUnsafe(r)
			}
		}
	}
	onEmpty := r.OnEmpty
	code := r.Code
	r.Mu.Unlock()

	s.untrackMembership(c.ID, code)
	if empty && onEmpty != nil {
		onEmpty(code)
	}
}

// broadcastGameStateUnsafe fans the per-viewer projection out to every
// member: each connection receives only its own filtered view.
func (s *Server) broadcastGameStateUnsafe(r *room.Room) {
	for _, m := range r.Members {
		idx := r.Game.PlayerIndex(m.ID)
		m.Send(GameStateMessage{Type: MsgGameState, GameView: r.Game.Snapshot(idx)})
	}
}

func (s *Server) broadcastGameOverUnsafe(r *room.Room) {
	winner := r.Game.WinnerIndex
	name := ""
	if winner >= 0 && winner < len(r.Game.Players) {
		name = r.Game.Players[winner].Name
	}
	r.BroadcastUnsafe(GameOverMessage{Type: MsgGameOver, Winner: winner, WinnerName: name})
}
