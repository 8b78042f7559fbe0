package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"photosorter/internal/logger"
	"photosorter/internal/services"
)

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ProgressWebsocketHandler registers a viewer with the hub and streams run
// progress frames until the client disconnects.
func ProgressWebsocketHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		defer connection.Close()

		manager.GetHub().Register(connection)
		defer manager.GetHub().Unregister(connection)

		logger.Info("Progress viewer connected")

		for {
			_, _, err := connection.ReadMessage()
			if err != nil {
				logger.Info("Progress viewer disconnected: %v", err)
				break
			}
		}
	}
}
