// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/unogame-io/uno-service/internal/config"
	"github.com/unogame-io/uno-service/internal/middleware"
)

// Conn is one client connection: an opaque identity token plus the outbound
// channel its write pump drains. The token, not the socket, is the player
// key everywhere past this layer.
type Conn struct {
	ID      uuid.UUID
	OutChan chan interface{}
}

// Send pushes a message onto the connection's OutChan non-blockingly. A
// full channel drops the message with a warning; the write pump's failure
// path handles a dead connection.
func (c *Conn) Send(msg interface{}) {
	select {
	case c.OutChan <- msg:
	default:
		logrus.Warnf("handlers: OutChan for connection %s closed or full, dropping message", c.ID)
	}
}

// WSHandler upgrades the HTTP connection, assigns the connection identity,
// and runs the read loop until the client goes away. All room and game
// intents arrive through here.
func WSHandler(logger *logrus.Logger, srv *Server) http.HandlerFunc {
	msgsPerSec := config.EnvInt("WS_MSGS_PER_SEC", 20)
	burst := config.EnvInt("WS_BURST", 40)

	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"uno"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "uno" {
			c.Close(BadSubprotocolError, "client must speak the uno subprotocol")
			return
		}
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := &Conn{
			ID:      uuid.New(),
			OutChan: make(chan interface{}, 16),
		}
		middleware.LogWebSocketConnect(logger, conn.ID, r.RemoteAddr, r.URL.Path)

		go writePump(ctx, c, conn, logger)

		readErr := readPump(ctx, c, conn, srv, logger, rate.NewLimiter(rate.Limit(msgsPerSec), burst))

		// Transport-level disconnect: route through the same removal path
		// as an explicit leave for every room this identity belongs to.
		srv.HandleDisconnect(conn)
		middleware.LogWebSocketDisconnect(logger, conn.ID, r.RemoteAddr, r.URL.Path, readErr)
	}
}

// readPump consumes inbound messages in arrival order until the connection
// closes. Per-connection rate limiting rejects floods without mutating any
// room state.
func readPump(ctx context.Context, c *websocket.Conn, conn *Conn, srv *Server, logger *logrus.Logger, limiter *rate.Limiter) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			if strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			continue
		}
		if !limiter.Allow() {
			logger.Warnf("connection %s exceeded message rate limit", conn.ID)
			conn.Send(errorMessage("Too many messages, slow down"))
			continue
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			conn.Send(errorMessage("Invalid JSON format"))
			continue
		}
		srv.Dispatch(conn, env.Type, data)
	}
}

// writePump drains the connection's OutChan, marshaling each event and
// pinging periodically to detect dead peers.
func writePump(ctx context.Context, c *websocket.Conn, conn *Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-conn.OutChan:
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("failed to marshal outgoing message for %s: %v", conn.ID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("write failed for %s: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping failed for %s, assuming disconnect: %v", conn.ID, err)
				return
			}
		}
	}
}
