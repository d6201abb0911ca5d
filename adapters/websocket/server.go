package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vasifvortex/azercell-project3/adapters/metrics"
	"github.com/vasifvortex/azercell-project3/domain"
	"github.com/vasifvortex/azercell-project3/utils/log"
)

// Streamer is the part of the chat service the websocket transport needs.
type Streamer interface {
	Stream(ctx context.Context, req domain.ChatRequest) <-chan domain.StreamEvent
	Provider() string
}

type Server struct {
	upgrader websocket.Upgrader
	chat     Streamer
	hub      *Hub
}

func NewServer(chat Streamer) *Server {
	hub := NewHub()
	hub.OnChange = func(n int) { metrics.WebsocketSessions.Set(float64(n)) }

	return &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		chat:     chat,
		hub:      hub,
	}
}

func (s *Server) RunWebsocketHub() {
	s.hub.Run()
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// Shutdown closes all open sessions.
func (s *Server) Shutdown() {
	s.hub.Shutdown()
}

// serve answers one request frame, relaying the provider stream as typed
// events in generation order.
func (s *Server) serve(client *Client, raw []byte) {
	ctx := client.Context()
	start := time.Now()

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		log.WithCtx(ctx).Warn("invalid websocket request", zap.Error(err))
		s.send(client, Event{Type: EventError, Error: "invalid request: " + err.Error()})
		return
	}

	fragments := 0
	status := "ok"
	for ev := range s.chat.Stream(ctx, domain.ChatRequest{Query: req.Query, System: req.System}) {
		var out Event
		switch ev.Kind {
		case domain.StreamChunk:
			fragments++
			out = Event{Type: EventChunk, Text: ev.Text}
		case domain.StreamError:
			status = "error"
			if domain.IsProviderError(ev.Err) {
				metrics.RecordProviderError(s.chat.Provider(), string(domain.KindOf(ev.Err)))
			}
			log.WithCtx(ctx).Error("stream failed", zap.Int("fragments", fragments), zap.Error(ev.Err))
			out = Event{Type: EventError, Error: domain.Describe(ev.Err)}
		case domain.StreamEnd:
			out = Event{Type: EventEnd}
		}
		if err := s.send(client, out); err != nil {
			status = "disconnected"
			break
		}
	}

	metrics.RecordChat("ws", status, time.Since(start).Seconds())
	metrics.RecordFragments(fragments)
	log.WithCtx(ctx).Info("websocket answer finished",
		zap.String("mode", "ws"),
		zap.String("provider", s.chat.Provider()),
		zap.String("status", status),
		zap.Int("fragments", fragments),
		zap.Duration("latency", time.Since(start)),
	)
}

func (s *Server) send(client *Client, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return client.SendMessage(payload)
}
