// internal/handlers/dispatch_test.go
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unogame-io/uno-service/internal/models"
	"github.com/unogame-io/uno-service/internal/room"
)

func newTestServer() *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewServer(logger)
}

func newTestConn() *Conn {
	return &Conn{ID: uuid.New(), OutChan: make(chan interface{}, 64)}
}

// recv pops the next outbound message for a connection, or nil.
func recv(c *Conn) interface{} {
	select {
	case msg := <-c.OutChan:
		return msg
	default:
		return nil
	}
}

// drain discards everything queued for a connection.
func drain(c *Conn) {
	for recv(c) != nil {
	}
}

func send(s *Server, c *Conn, msgType string, payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["type"] = msgType
	data, _ := json.Marshal(payload)
	s.Dispatch(c, msgType, data)
}

// setupRoom creates a room with the given number of members and returns the
// connections in join order.
func setupRoom(t *testing.T, s *Server, code string, members int) []*Conn {
	t.Helper()
	conns := make([]*Conn, members)
	conns[0] = newTestConn()
	send(s, conns[0], MsgCreateRoom, map[string]interface{}{
		"playerName": "player0", "roomCode": code,
	})
	raw := recv(conns[0])
	_, ok := raw.(RoomCreatedMessage)
	require.True(t, ok, "expected room-created, got %T", raw)

	for i := 1; i < members; i++ {
		conns[i] = newTestConn()
		send(s, conns[i], MsgJoinRoom, map[string]interface{}{
			"playerName": fmt.Sprintf("player%d", i), "roomCode": code,
		})
	}
	for _, c := range conns {
		drain(c)
	}
	return conns
}

func startGame(t *testing.T, s *Server, code string, conns []*Conn) *room.Room {
	t.Helper()
	send(s, conns[0], MsgStartGame, map[string]interface{}{"roomCode": code})
	r, ok := s.Rooms.Get(code)
	require.True(t, ok)
	require.NotNil(t, r.Game)
	for _, c := range conns {
		drain(c)
	}
	return r
}

func TestCreateRoomInvalidCode(t *testing.T) {
	s := newTestServer()
	c := newTestConn()

	send(s, c, MsgCreateRoom, map[string]interface{}{"playerName": "ana", "roomCode": "12345"})
	msg, ok := recv(c).(ErrorMessage)
	require.True(t, ok)
	assert.Equal(t, MsgError, msg.Type)
	assert.Contains(t, msg.Message, "6 digits")
	assert.Equal(t, 0, s.Rooms.Count())
}

func TestCreateRoomSuccess(t *testing.T) {
	s := newTestServer()
	c := newTestConn()

	send(s, c, MsgCreateRoom, map[string]interface{}{"playerName": "ana", "roomCode": "123456"})
	msg, ok := recv(c).(RoomCreatedMessage)
	require.True(t, ok)
	assert.Equal(t, "123456", msg.RoomCode)
	assert.Equal(t, c.ID, msg.PlayerID)
	require.Len(t, msg.Players, 1)
	assert.True(t, msg.Players[0].IsHost)
	assert.Equal(t, 1, s.Rooms.Count())
}

func TestCreateRoomMissingName(t *testing.T) {
	s := newTestServer()
	c := newTestConn()

	send(s, c, MsgCreateRoom, map[string]interface{}{"roomCode": "123456"})
	_, ok := recv(c).(ErrorMessage)
	assert.True(t, ok)
	assert.Equal(t, 0, s.Rooms.Count())
}

func TestJoinRoomBroadcasts(t *testing.T) {
	s := newTestServer()
	host := newTestConn()
	send(s, host, MsgCreateRoom, map[string]interface{}{"playerName": "host", "roomCode": "123456"})
	drain(host)

	joiner := newTestConn()
	send(s, joiner, MsgJoinRoom, map[string]interface{}{"playerName": "bo", "roomCode": "123456"})

	// Host sees player-joined; the joiner gets both the broadcast and the
	// targeted room-joined confirmation.
	hostMsg, ok := recv(host).(PlayerJoinedMessage)
	require.True(t, ok)
	assert.Len(t, hostMsg.Players, 2)

	_, ok = recv(joiner).(PlayerJoinedMessage)
	require.True(t, ok)
	joined, ok := recv(joiner).(RoomJoinedMessage)
	require.True(t, ok)
	assert.Equal(t, joiner.ID, joined.PlayerID)
	assert.Len(t, joined.Players, 2)
}

func TestJoinRoomNotFound(t *testing.T) {
	s := newTestServer()
	c := newTestConn()

	send(s, c, MsgJoinRoom, map[string]interface{}{"playerName": "bo", "roomCode": "999999"})
	msg, ok := recv(c).(ErrorMessage)
	require.True(t, ok)
	assert.Equal(t, room.ErrRoomNotFound.Error(), msg.Message)
}

func TestJoinRoomFullRejected(t *testing.T) {
	s := newTestServer()
	setupRoom(t, s, "123456", 8)

	late := newTestConn()
	send(s, late, MsgJoinRoom, map[string]interface{}{"playerName": "late", "roomCode": "123456"})
	msg, ok := recv(late).(ErrorMessage)
	require.True(t, ok)
	assert.Equal(t, room.ErrRoomFull.Error(), msg.Message)
}

func TestStartGameNotHost(t *testing.T) {
	s := newTestServer()
	conns := setupRoom(t, s, "123456", 2)

	send(s, conns[1], MsgStartGame, map[string]interface{}{"roomCode": "123456"})
	msg, ok := recv(conns[1]).(ErrorMessage)
	require.True(t, ok)
	assert.Equal(t, room.ErrNotHost.Error(), msg.Message)
	assert.Nil(t, recv(conns[0]), "failures are not broadcast")
}

func TestStartGameSendsIndividualViews(t *testing.T) {
	s := newTestServer()
	conns := setupRoom(t, s, "123456", 3)

	send(s, conns[0], MsgStartGame, map[string]interface{}{"roomCode": "123456"})

	for i, c := range conns {
		msg, ok := recv(c).(GameStartingMessage)
		require.True(t, ok, "member %d expected game-starting", i)
		assert.Equal(t, i, msg.PlayerIndex, "seat index follows join order")
		for j, pv := range msg.GameState.Players {
			assert.Equal(t, 7, pv.CardCount)
			if j == i {
				assert.Len(t, pv.Hand, 7, "own hand visible")
			} else {
				assert.Nil(t, pv.Hand, "other hands hidden")
			}
		}
	}
}

func TestPlayCardOutOfTurnErrorsRequesterOnly(t *testing.T) {
	s := newTestServer()
	conns := setupRoom(t, s, "123456", 2)
	startGame(t, s, "123456", conns)

	send(s, conns[1], MsgPlayCard, map[string]interface{}{"roomCode": "123456", "cardIndex": 0})
	msg, ok := recv(conns[1]).(ErrorMessage)
	require.True(t, ok)
	assert.Contains(t, msg.Message, "turn")
	assert.Nil(t, recv(conns[0]), "no broadcast on validation failure")
}

func TestPlayCardBroadcastsFilteredState(t *testing.T) {
	s := newTestServer()
	conns := setupRoom(t, s, "123456", 2)
	r := startGame(t, s, "123456", conns)

	// Rig seat 0 with a card that matches the active color.
	r.Mu.Lock()
	r.Game.Players[0].Hand[0] = models.Card{Color: r.Game.ActiveColor, Kind: models.KindNumber, Value: "5"}
	r.Mu.Unlock()

	send(s, conns[0], MsgPlayCard, map[string]interface{}{"roomCode": "123456", "cardIndex": 0})

	for i, c := range conns {
		msg, ok := recv(c).(GameStateMessage)
		require.True(t, ok, "member %d expected game-state", i)
		assert.Equal(t, 1, msg.CurrentPlayer)
		if i == 0 {
			assert.Len(t, msg.Players[0].Hand, 6)
			assert.Nil(t, msg.Players[1].Hand)
		} else {
			assert.Nil(t, msg.Players[0].Hand)
			assert.Len(t, msg.Players[1].Hand, 7)
		}
	}
}

func TestWinningPlayBroadcastsGameOver(t *testing.T) {
	s := newTestServer()
	conns := setupRoom(t, s, "123456", 2)
	r := startGame(t, s, "123456", conns)

	r.Mu.Lock()
	winning := models.Card{Color: r.Game.ActiveColor, Kind: models.KindNumber, Value: "5"}
	restored := r.Game.Players[0].Hand[1:]
	r.Game.DrawPile = append(r.Game.DrawPile, restored...)
	r.Game.Players[0].Hand = []models.Card{winning}
	r.Mu.Unlock()

	send(s, conns[0], MsgPlayCard, map[string]interface{}{"roomCode": "123456", "cardIndex": 0})

	for _, c := range conns {
		_, ok := recv(c).(GameStateMessage)
		require.True(t, ok)
		over, ok := recv(c).(GameOverMessage)
		require.True(t, ok)
		assert.Equal(t, 0, over.Winner)
		assert.Equal(t, "player0", over.WinnerName)
	}
}

func TestCallUnoEligibilityGatesBroadcast(t *testing.T) {
	s := newTestServer()
	conns := setupRoom(t, s, "123456", 2)
	r := startGame(t, s, "123456", conns)

	// Seven cards: ineligible, deliberately unacknowledged.
	send(s, conns[0], MsgCallUno, map[string]interface{}{"roomCode": "123456"})
	assert.Nil(t, recv(conns[0]))
	assert.Nil(t, recv(conns[1]))

	r.Mu.Lock()
	r.Game.DrawPile = append(r.Game.DrawPile, r.Game.Players[1].Hand[1:]...)
	r.Game.Players[1].Hand = r.Game.Players[1].Hand[:1]
	r.Mu.Unlock()

	send(s, conns[1], MsgCallUno, map[string]interface{}{"roomCode": "123456"})
	for _, c := range conns {
		msg, ok := recv(c).(UnoCalledMessage)
		require.True(t, ok)
		assert.Equal(t, 1, msg.PlayerIndex)
		assert.Equal(t, "player1", msg.PlayerName)
	}
}

func TestSelectWildColorFlow(t *testing.T) {
	s := newTestServer()
	conns := setupRoom(t, s, "123456", 2)
	r := startGame(t, s, "123456", conns)

	r.Mu.Lock()
	r.Game.Players[0].Hand[0] = models.Card{Color: models.ColorNone, Kind: models.KindWild, Value: models.ValueWild}
	r.Mu.Unlock()

	send(s, conns[0], MsgPlayCard, map[string]interface{}{"roomCode": "123456", "cardIndex": 0})
	for _, c := range conns {
		drain(c)
	}

	send(s, conns[0], MsgSelectWildColor, map[string]interface{}{"roomCode": "123456", "color": "blue"})
	for _, c := range conns {
		msg, ok := recv(c).(GameStateMessage)
		require.True(t, ok)
		assert.Equal(t, models.ColorBlue, msg.CurrentColor)
		assert.Equal(t, 1, msg.CurrentPlayer)
		assert.False(t, msg.ColorPending)
	}
}

func TestLeaveRoomBroadcastsAndDeletesEmpty(t *testing.T) {
	s := newTestServer()
	conns := setupRoom(t, s, "123456", 2)

	send(s, conns[1], MsgLeaveRoom, map[string]interface{}{"roomCode": "123456"})
	msg, ok := recv(conns[0]).(PlayerLeftMessage)
	require.True(t, ok)
	assert.Len(t, msg.Players, 1)
	assert.Equal(t, 1, s.Rooms.Count())

	send(s, conns[0], MsgLeaveRoom, map[string]interface{}{"roomCode": "123456"})
	assert.Equal(t, 0, s.Rooms.Count(), "empty room deleted")
}

func TestDisconnectRoutesThroughRemoval(t *testing.T) {
	s := newTestServer()
	conns := setupRoom(t, s, "123456", 3)
	startGame(t, s, "123456", conns)

	s.HandleDisconnect(conns[1])

	left, ok := recv(conns[0]).(PlayerLeftMessage)
	require.True(t, ok)
	assert.Len(t, left.Players, 2)
	state, ok := recv(conns[0]).(GameStateMessage)
	require.True(t, ok)
	assert.Len(t, state.Players, 2, "forfeited seat left the rotation")

	// A concurrent explicit leave for the same identity is a no-op.
	send(s, conns[1], MsgLeaveRoom, map[string]interface{}{"roomCode": "123456"})
	drain(conns[0])
	assert.Equal(t, 1, s.Rooms.Count())
}

func TestDisconnectOfLastOpponentEndsGame(t *testing.T) {
	s := newTestServer()
	conns := setupRoom(t, s, "123456", 2)
	startGame(t, s, "123456", conns)

	s.HandleDisconnect(conns[1])

	_, ok := recv(conns[0]).(PlayerLeftMessage)
	require.True(t, ok)
	_, ok = recv(conns[0]).(GameStateMessage)
	require.True(t, ok)
	over, ok := recv(conns[0]).(GameOverMessage)
	require.True(t, ok)
	assert.Equal(t, "player0", over.WinnerName)
}

func TestUnknownMessageType(t *testing.T) {
	s := newTestServer()
	c := newTestConn()

	s.Dispatch(c, "teleport", []byte(`{"type":"teleport"}`))
	msg, ok := recv(c).(ErrorMessage)
	require.True(t, ok)
	assert.Contains(t, msg.Message, "Unknown message type")
}

func TestMalformedPayload(t *testing.T) {
	s := newTestServer()
	c := newTestConn()

	s.Dispatch(c, MsgPlayCard, []byte(`{"type":"play-card","cardIndex":"zero"}`))
	_, ok := recv(c).(ErrorMessage)
	assert.True(t, ok)
}

func TestGameIntentBeforeStart(t *testing.T) {
	s := newTestServer()
	conns := setupRoom(t, s, "123456", 2)

	send(s, conns[0], MsgPlayCard, map[string]interface{}{"roomCode": "123456", "cardIndex": 0})
	msg, ok := recv(conns[0]).(ErrorMessage)
	require.True(t, ok)
	assert.Contains(t, msg.Message, "not started")
}
