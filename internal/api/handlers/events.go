package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/autobridge/autobridge/internal/events"
	"github.com/autobridge/autobridge/internal/workflow"
)

const (
	eventWriteWait  = 10 * time.Second
	eventPongWait   = 60 * time.Second
	eventPingPeriod = (eventPongWait * 9) / 10
)

// SnapshotAction labels the first message of an event stream.
const SnapshotAction = "snapshot"

// EventsHandler streams session changes over a WebSocket.
type EventsHandler struct {
	manager  *workflow.Manager
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(manager *workflow.Manager, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		manager: manager,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Access is gated by the session token, not the origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream handles GET /v1/sessions/{id}/events.
// The first message carries the current state; applied transitions follow.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before reading the snapshot so nothing falls in between.
	sub := h.manager.Broker().Subscribe(ctx, id)

	session, err := h.manager.Get(ctx, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket", "session_id", id, "error", err)
		return
	}
	defer conn.Close()

	h.logger.Debug("event stream opened", "session_id", id)

	// Reads only serve control frames; a read error means the client is gone.
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(eventPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snapshot := &events.Event{
		SessionID: session.ID,
		Action:    SnapshotAction,
		Version:   session.Version,
		State:     session.State,
		Timestamp: time.Now().UTC(),
	}
	if err := h.write(conn, snapshot); err != nil {
		return
	}
	lastVersion := session.Version

	ticker := time.NewTicker(eventPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			h.logger.Debug("event stream closed", "session_id", id)
			return
		case ev, ok := <-sub.Ch:
			if !ok {
				return
			}
			if ev.Version <= lastVersion {
				continue
			}
			if err := h.write(conn, ev); err != nil {
				return
			}
			lastVersion = ev.Version
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *EventsHandler) write(conn *websocket.Conn, ev *events.Event) error {
	conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
	if err := conn.WriteJSON(ev); err != nil {
		h.logger.Debug("event write failed", "session_id", ev.SessionID, "error", err)
		return err
	}
	return nil
}
