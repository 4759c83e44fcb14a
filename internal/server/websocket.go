package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jpalmerr/boardclient/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the dashboard API is served without auth, like the SSE stream
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket streams view states as JSON text messages. Messages from
// the client are read and discarded; a read error ends the stream.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(state store.ViewState) error {
		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			return err
		}
		return conn.WriteJSON(state)
	}

	if err := send(s.store.Get()); err != nil {
		return
	}

	for {
		select {
		case state, ok := <-ch:
			if !ok {
				return
			}
			if err := send(state); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}

		case <-closed:
			return

		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(time.Second))
			return
		}
	}
}
