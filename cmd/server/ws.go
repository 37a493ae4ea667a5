package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

// handleAgentChat handles GET /ws/agent. Each connection is one
// conversation with the assistant.
func (s *Server) handleAgentChat(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Assistant is not configured")
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(MaxBodyBytes)

	conv := s.assistant.StartConversation()
	s.log.Infof("Assistant chat opened from %s", getClientIP(r))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warnf("WebSocket error: %v", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.send(conn, ServerMessage{Type: "error", Error: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case "message":
			if msg.Content == "" {
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), s.config.AgentTimeout)
			reply, err := conv.Send(ctx, msg.Content)
			cancel()
			if err != nil {
				s.log.Errorf("Assistant failed: %v", err)
				s.send(conn, ServerMessage{Type: "error", Error: err.Error()})
				continue
			}
			s.send(conn, ServerMessage{Type: "reply", Content: reply})
		case "reset":
			conv = s.assistant.StartConversation()
			s.send(conn, ServerMessage{Type: "reset"})
		default:
			s.send(conn, ServerMessage{Type: "error", Error: "Unknown message type: " + msg.Type})
		}
	}
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(s.config.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
}

func (s *Server) send(conn *websocket.Conn, msg ServerMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Warnf("WebSocket write failed: %v", err)
	}
}
