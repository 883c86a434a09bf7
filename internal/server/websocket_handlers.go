package server

import (
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"snapgram/internal/app"
	"snapgram/internal/notifications"
	"snapgram/internal/observability"
)

// WebSocketUpgrade rejects plain HTTP requests to the websocket route.
func (s *Server) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebSocketStateHandler streams every auth and posts transition to the peer.
// A new connection first receives the current state of both containers, and
// the peer can ask for them again with {"type":"sync"}.
func (s *Server) WebSocketStateHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client, err := s.hub.Register(conn)
		if err != nil {
			observability.GlobalLogger.Warn("websocket register failed", slog.String("error", err.Error()))
			payload, _ := json.Marshal(fiber.Map{"error": err.Error()})
			_ = conn.WriteMessage(websocket.TextMessage, payload)
			_ = conn.Close()
			return
		}

		observability.GlobalLogger.Info("websocket connected", slog.String("client_id", client.ID))
		client.IncomingHandler = s.handleIncoming
		s.sendSnapshot(client)

		writeDone := make(chan struct{})
		go func() {
			defer close(writeDone)
			client.WritePump()
		}()
		client.ReadPump()
		<-writeDone

		observability.GlobalLogger.Info("websocket disconnected", slog.String("client_id", client.ID))
	})
}

func (s *Server) handleIncoming(c *notifications.Client, message []byte) {
	var msg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		observability.GlobalLogger.Debug("invalid websocket message", slog.String("client_id", c.ID))
		return
	}

	switch msg.Type {
	case "sync":
		s.sendSnapshot(c)
	case "ping":
		c.TrySend([]byte(`{"type":"pong"}`))
	}
}

func (s *Server) sendSnapshot(c *notifications.Client) {
	for _, ev := range []app.Event{
		{Type: app.EventAuthState, Payload: s.state.Auth.State()},
		{Type: app.EventPostsState, Payload: s.state.Posts.State()},
	} {
		data, err := json.Marshal(ev)
		if err != nil {
			observability.GlobalLogger.Error("failed to encode state snapshot", slog.String("error", err.Error()))
			continue
		}
		c.TrySend(data)
	}
}
