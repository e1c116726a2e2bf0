// internal/api/events.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github-repo-browser/internal/store"
)

const (
	eventBuffer       = 64
	heartbeatInterval = 30 * time.Second
)

type streamMessage struct {
	Event store.EventType `json:"event"`
	State stateView       `json:"state"`
}

// streamEvents pushes every applied transition as a server-sent event.
// GET /v1/events
func (h *Handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	messages := make(chan streamMessage, eventBuffer)
	unsubscribe := h.store.Subscribe(func(ev store.Event, st store.State) {
		// Listeners run inside the store drain and must never block it.
		select {
		case messages <- streamMessage{Event: ev.Type(), State: newStateView(st)}:
		default:
			h.logger.Warn("Event stream client is slow, dropping event", "event", ev.Type())
		}
	})
	defer unsubscribe()

	h.logger.Debug("Event stream client connected", "remote", r.RemoteAddr)
	if err := writeEvent(w, "state", streamMessage{State: newStateView(h.store.State())}); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("Event stream client disconnected", "remote", r.RemoteAddr)
			return
		case msg := <-messages:
			if err := writeEvent(w, string(msg.Event), msg); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, msg streamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
