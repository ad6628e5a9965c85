package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"disbroad/internal/observability/metrics"
)

type handlerFunc func(ctx context.Context, data json.RawMessage) error

// session runs the receive loop shared by every socket endpoint: it decodes
// JSON envelopes, answers pings and routes actions to registered handlers.
// Malformed input is reported to the client without dropping the connection.
type session struct {
	conn     *Conn
	log      *slog.Logger
	endpoint string
	handlers map[string]handlerFunc
}

type envelope struct {
	Action any             `json:"action"`
	Data   json.RawMessage `json:"data"`
}

func (s *session) run(ctx context.Context) {
	defer func() { _ = s.conn.Close() }()
	metrics.WSConnectionsTotal.WithLabelValues(s.endpoint).Inc()
	for {
		opcode, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.log.Info("websocket session ended", "endpoint", s.endpoint, "reason", err)
			return
		}
		if opcode != opText {
			if err := s.conn.WriteJSON(map[string]string{"error": "Invalid data."}); err != nil {
				return
			}
			continue
		}
		s.dispatch(ctx, payload)
	}
}

func (s *session) dispatch(ctx context.Context, payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		metrics.WSMessagesTotal.WithLabelValues(s.endpoint, "unknown", "invalid").Inc()
		_ = s.conn.WriteJSON(map[string]string{"error": "Invalid data."})
		return
	}
	action, ok := env.Action.(string)
	if !ok || action == "" {
		metrics.WSMessagesTotal.WithLabelValues(s.endpoint, "unknown", "missing").Inc()
		_ = s.conn.WriteJSON(map[string]string{"error": "No action provided."})
		return
	}
	if action == "ping" {
		_ = s.conn.WriteJSON(map[string]string{"action": "pong"})
		return
	}
	handler, ok := s.handlers[action]
	if !ok {
		metrics.WSMessagesTotal.WithLabelValues(s.endpoint, action, "unrouted").Inc()
		_ = s.conn.WriteJSON(map[string]string{"error": "Invalid action."})
		return
	}
	if err := handler(ctx, env.Data); err != nil {
		metrics.WSMessagesTotal.WithLabelValues(s.endpoint, action, "error").Inc()
		s.log.Error("websocket handler failed", "endpoint", s.endpoint, "action", action, "error", err)
		_ = s.conn.WriteJSON(map[string]string{"action": action, "error": "internal_error"})
		return
	}
	metrics.WSMessagesTotal.WithLabelValues(s.endpoint, action, "ok").Inc()
}
