package api

import (
	"encoding/json"
	"net/http"

	"citabot/internal/events"

	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"
)

const streamBuffer = 64

// streamFrame is one message on the event feed.
type streamFrame struct {
	ID      int64           `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type streamCommand struct {
	Type string `json:"type"` // "ping"
}

// eventStream pushes every bus event to connected websocket clients.
type eventStream struct {
	bus    *events.EventBus
	logger *zerolog.Logger
}

func (s *eventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(s.serveWS).ServeHTTP(w, r)
}

func (s *eventStream) serveWS(conn *websocket.Conn) {
	out := make(chan streamFrame, streamBuffer)
	quit := make(chan struct{})
	done := make(chan struct{})

	// медленный клиент теряет события, но не тормозит шину
	unsubscribe := s.bus.Subscribe(events.AnyEvent, func(e *events.Event) error {
		select {
		case out <- streamFrame{ID: e.ID, Type: e.Type, Payload: e.Payload}:
		case <-quit:
		default:
			s.logger.Warn().Str("event", e.Type).Msg("stream client lagging, event dropped")
		}
		return nil
	})

	go func() {
		defer close(done)
		for {
			select {
			case frame := <-out:
				if err := websocket.JSON.Send(conn, frame); err != nil {
					s.logger.Debug().Err(err).Msg("stream send failed")
					return
				}
			case <-quit:
				return
			}
		}
	}()

	out <- streamFrame{Type: "connected"}
	s.logger.Info().Str("remote", conn.Request().RemoteAddr).Msg("stream connection opened")

	for {
		var cmd streamCommand
		if err := websocket.JSON.Receive(conn, &cmd); err != nil {
			s.logger.Debug().Err(err).Msg("stream connection closed")
			break
		}
		if cmd.Type == "ping" {
			select {
			case out <- streamFrame{Type: "pong"}:
			case <-done:
			}
		}
	}

	unsubscribe()
	close(quit)
	<-done
}
