// Package dashboard bridges engine notifications onto the WebSocket feed.
package dashboard

import (
	"encoding/json"
	"log"
	"time"

	"github.com/KingArtGames/uversioncontrol/internal/engine"
	"github.com/KingArtGames/uversioncontrol/internal/status"
)

// Handler subscribes to engine notifications and formats them as
// dashboard messages.
type Handler struct {
	server *Server
	eng    *engine.Engine
	logger *log.Logger
}

// NewHandler creates a handler and registers it with the engine's
// notification callbacks.
func NewHandler(server *Server, eng *engine.Engine, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	h := &Handler{
		server: server,
		eng:    eng,
		logger: logger,
	}

	eng.OnStatusCompleted(h.onStatusCompleted)
	eng.OnProgress(h.onProgress)

	return h
}

// onStatusCompleted fires after each successful cache merge.
func (h *Handler) onStatusCompleted() {
	h.server.Broadcast(Message{
		Type:      MessageTypeStatus,
		Timestamp: time.Now(),
	})
	h.broadcastSummary()
}

// onProgress fires per output line of a running operation.
func (h *Handler) onProgress(line string) {
	data, err := json.Marshal(ProgressData{Line: line})
	if err != nil {
		h.logger.Printf("Failed to marshal progress data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeProgress,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (h *Handler) broadcastSummary() {
	summary := SummaryData{
		ByStatus: make(map[string]int),
	}

	for _, path := range h.eng.Cache().Keys() {
		entry := h.eng.GetAssetStatus(path)
		summary.Total++
		summary.ByStatus[entry.Status.String()]++
		if entry.Status == status.StatusConflicted {
			summary.Conflicted++
		}
		if entry.LockOwner != "" {
			summary.Locked++
		}
	}

	data, err := json.Marshal(summary)
	if err != nil {
		h.logger.Printf("Failed to marshal summary: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeSummary,
		Timestamp: time.Now(),
		Data:      data,
	})
}
