package handler

import (
	"net/http"

	"github.com/alanyoungcy/whalebot/internal/domain"
)

// StreamSource exposes the per-connection status snapshot.
type StreamSource interface {
	Snapshot() []domain.StreamStatus
}

// StatusInfo is the static part of the status response.
type StatusInfo struct {
	Threshold string   `json:"threshold"`
	BatchSize int      `json:"batch_size"`
	Backoff   string   `json:"backoff"`
	Senders   []string `json:"senders"`
}

// StatusHandler serves monitor configuration and per-stream state.
type StatusHandler struct {
	info    StatusInfo
	streams StreamSource
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(info StatusInfo, streams StreamSource) *StatusHandler {
	return &StatusHandler{info: info, streams: streams}
}

// GetStatus responds with the monitor settings and a count of open streams.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"monitor":     h.info,
		"connections": len(snap),
		"open":        countOpen(snap),
	})
}

// ListStreams responds with one entry per batch connection.
// GET /api/streams
func (h *StatusHandler) ListStreams(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"connections": len(snap),
		"open":        countOpen(snap),
		"streams":     snap,
	})
}

func (h *StatusHandler) snapshot() []domain.StreamStatus {
	if h.streams == nil {
		return []domain.StreamStatus{}
	}
	return h.streams.Snapshot()
}

func countOpen(snap []domain.StreamStatus) int {
	n := 0
	for _, s := range snap {
		if s.State == domain.ConnOpen.String() {
			n++
		}
	}
	return n
}
