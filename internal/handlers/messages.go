// internal/handlers/messages.go
package handlers

import (
	"github.com/google/uuid"

	"github.com/unogame-io/uno-service/internal/game"
	"github.com/unogame-io/uno-service/internal/room"
)

// Inbound intent names. Every websocket message is a JSON object carrying a
// "type" field naming one of these.
const (
	MsgCreateRoom      = "create-room"
	MsgJoinRoom        = "join-room"
	MsgStartGame       = "start-game"
	MsgPlayCard        = "play-card"
	MsgDrawCard        = "draw-card"
	MsgCallUno         = "call-uno"
	MsgSelectWildColor = "select-wild-color"
	MsgLeaveRoom       = "leave-room"
)

// Outbound event names.
const (
	MsgRoomCreated  = "room-created"
	MsgRoomJoined   = "room-joined"
	MsgPlayerJoined = "player-joined"
	MsgGameStarting = "game-starting"
	MsgGameState    = "game-state"
	MsgGameOver     = "game-over"
	MsgUnoCalled    = "uno-called"
	MsgPlayerLeft   = "player-left"
	MsgError        = "error-message"
)

// Envelope is the first-pass decode of any inbound message, used to pick
// the request variant before full validation.
type Envelope struct {
	Type string `json:"type"`
}

// Inbound request variants. Each is decoded and validated at this boundary
// so the room manager and engine only ever see well-formed calls. The
// playerId some clients echo in payloads is ignored: the connection's own
// identity token is authoritative.
type (
	CreateRoomRequest struct {
		PlayerName string `json:"playerName"`
		RoomCode   string `json:"roomCode"`
		MaxPlayers int    `json:"maxPlayers"`
	}

	JoinRoomRequest struct {
		PlayerName string `json:"playerName"`
		RoomCode   string `json:"roomCode"`
	}

	StartGameRequest struct {
		RoomCode string `json:"roomCode"`
	}

	PlayCardRequest struct {
		RoomCode  string `json:"roomCode"`
		CardIndex int    `json:"cardIndex"`
	}

	DrawCardRequest struct {
		RoomCode string `json:"roomCode"`
	}

	CallUnoRequest struct {
		RoomCode string `json:"roomCode"`
	}

	SelectWildColorRequest struct {
		RoomCode string `json:"roomCode"`
		Color    string `json:"color"`
	}

	LeaveRoomRequest struct {
		RoomCode string `json:"roomCode"`
	}
)

// Outbound event payloads.
type (
	RoomCreatedMessage struct {
		Type     string            `json:"type"`
		RoomCode string            `json:"roomCode"`
		PlayerID uuid.UUID         `json:"playerId"`
		Players  []room.MemberInfo `json:"players"`
	}

	RoomJoinedMessage struct {
		Type     string            `json:"type"`
		RoomCode string            `json:"roomCode"`
		PlayerID uuid.UUID         `json:"playerId"`
		Players  []room.MemberInfo `json:"players"`
	}

	PlayerJoinedMessage struct {
		Type    string            `json:"type"`
		Players []room.MemberInfo `json:"players"`
	}

	// GameStartingMessage is sent individually: PlayerIndex and the
	// embedded view are specific to the receiving member.
	GameStartingMessage struct {
		Type        string        `json:"type"`
		PlayerIndex int           `json:"playerIndex"`
		GameState   game.GameView `json:"gameState"`
	}

	// GameStateMessage embeds the viewer-filtered projection so the wire
	// object carries the view fields alongside "type".
	GameStateMessage struct {
		Type string `json:"type"`
		game.GameView
	}

	GameOverMessage struct {
		Type       string `json:"type"`
		Winner     int    `json:"winner"`
		WinnerName string `json:"winnerName"`
	}

	UnoCalledMessage struct {
		Type        string `json:"type"`
		PlayerIndex int    `json:"playerIndex"`
		PlayerName  string `json:"playerName"`
	}

	PlayerLeftMessage struct {
		Type    string            `json:"type"`
		Players []room.MemberInfo `json:"players"`
	}

	ErrorMessage struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
)

func errorMessage(msg string) ErrorMessage {
	return ErrorMessage{Type: MsgError, Message: msg}
}
