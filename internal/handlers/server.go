// internal/handlers/server.go
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/unogame-io/uno-service/internal/cache"
	"github.com/unogame-io/uno-service/internal/room"
)

// Server owns the room registry and the identity-to-membership index the
// disconnect path uses to find every room a connection belongs to without
// scanning the registry.
type Server struct {
	Logger *logrus.Logger
	Rooms  *room.Registry

	mu          sync.Mutex
	memberRooms map[uuid.UUID]map[string]struct{}
}

// NewServer builds a server with an empty registry.
func NewServer(logger *logrus.Logger) *Server {
	return &Server{
		Logger:      logger,
		Rooms:       room.NewRegistry(),
		memberRooms: make(map[uuid.UUID]map[string]struct{}),
	}
}

// trackMembership records that an identity belongs to a room.
func (s *Server) trackMembership(id uuid.UUID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memberRooms[id] == nil {
		s.memberRooms[id] = make(map[string]struct{})
	}
	s.memberRooms[id][code] = struct{}{}
}

// untrackMembership forgets one room for an identity.
func (s *Server) untrackMembership(id uuid.UUID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if codes, ok := s.memberRooms[id]; ok {
		delete(codes, code)
		if len(codes) == 0 {
			delete(s.memberRooms, id)
		}
	}
}

// roomsOf returns a snapshot of the room codes an identity belongs to.
func (s *Server) roomsOf(id uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := make([]string, 0, len(s.memberRooms[id]))
	for code := range s.memberRooms[id] {
		codes = append(codes, code)
	}
	return codes
}

// logAction journals a successful state-changing intent to the historian
// queue when Redis is connected. Publishing happens off the intent path so
// a slow queue never holds a room lock.
func (s *Server) logAction(roomCode string, seq int, actor uuid.UUID, actionType string, payload map[string]interface{}) {
	if !cache.Enabled() {
		return
	}
	record := cache.GameActionRecord{
		RoomCode:      roomCode,
		ActionIndex:   seq,
		ActorID:       actor,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := cache.PublishGameAction(ctx, record); err != nil {
			s.Logger.Warnf("historian publish failed for room %s: %v", roomCode, err)
		}
	}()
}
