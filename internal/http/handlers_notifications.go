package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/Kjdragan/universal-agent-sub000/internal/stream"
)

// FeedMirror is the read side of the server-side notification mirror.
type FeedMirror interface {
	Snapshot() []stream.Item
	Counters() json.RawMessage
	Status() stream.Status
}

// NotificationHandlers serves the mirrored notification feed. When the
// mirror is disabled the UI falls back to proxying the upstream feed
// directly through /gateway.
type NotificationHandlers struct {
	Mirror FeedMirror // nil when the mirror is disabled
}

// List returns the mirrored item list plus the stream health, so the
// UI can label the feed "live" or "polling" without a second request.
// GET /api/notifications.
func (h *NotificationHandlers) List(w http.ResponseWriter, r *http.Request) {
	if h.Mirror == nil {
		WriteDetail(w, http.StatusNotFound, "notification mirror is disabled")
		return
	}
	items := h.Mirror.Snapshot()
	if items == nil {
		items = []stream.Item{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"status": h.Mirror.Status(),
	})
}

// Counters returns the last fetched aggregate counters payload.
// GET /api/notifications/counters.
func (h *NotificationHandlers) Counters(w http.ResponseWriter, r *http.Request) {
	if h.Mirror == nil {
		WriteDetail(w, http.StatusNotFound, "notification mirror is disabled")
		return
	}
	counters := h.Mirror.Counters()
	if counters == nil {
		counters = json.RawMessage("{}")
	}
	WriteJSON(w, http.StatusOK, counters)
}

// StreamStatus reports the mirror's connection mode, cursor, and
// failure count.
// GET /api/notifications/stream/status.
func (h *NotificationHandlers) StreamStatus(w http.ResponseWriter, r *http.Request) {
	if h.Mirror == nil {
		WriteDetail(w, http.StatusNotFound, "notification mirror is disabled")
		return
	}
	WriteJSON(w, http.StatusOK, h.Mirror.Status())
}
