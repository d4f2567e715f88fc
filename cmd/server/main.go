// cmd/server/main.go
package main

import (
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/unogame-io/uno-service/internal/cache"
	"github.com/unogame-io/uno-service/internal/handlers"
	"github.com/unogame-io/uno-service/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// The action historian is optional; without Redis the service runs
	// fully in memory.
	if os.Getenv("REDIS_ADDR") != "" {
		if err := cache.ConnectRedis(); err != nil {
			logger.Warnf("historian disabled: %v", err)
		} else {
			logger.Info("historian connected")
		}
	}

	srv := handlers.NewServer(logger)

	mux := http.NewServeMux()

	// game websocket
	mux.Handle("/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.WSHandler(logger, srv),
	)))

	// status endpoints
	mux.Handle("/health", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.HealthHandler(srv.Rooms),
	)))
	mux.Handle("/api/rooms", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.ListRoomsHandler(srv.Rooms),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
