// Package handler provides the bot's small HTTP diagnostic surface.
package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/your-org/spread-alert-bot/internal/signal"
	"github.com/your-org/spread-alert-bot/pkg/logger"
)

// SignalSource exposes the current open signals. The signal engine
// satisfies it.
type SignalSource interface {
	Active() []signal.ActiveSignal
}

// SignalsHandler serves the open-signal inventory as JSON.
type SignalsHandler struct {
	source SignalSource
}

// NewSignalsHandler creates a SignalsHandler.
func NewSignalsHandler(source SignalSource) *SignalsHandler {
	return &SignalsHandler{source: source}
}

type signalResponse struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Direction   string    `json:"direction"`
	EntryTime   time.Time `json:"entry_time"`
	AgeSeconds  float64   `json:"age_seconds"`
	EntrySpread float64   `json:"entry_spread_pct"`
	EntryPrice  float64   `json:"entry_price"`
}

// ServeHTTP implements http.Handler.
func (h *SignalsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	active := h.source.Active()
	sort.Slice(active, func(i, j int) bool { return active[i].Symbol < active[j].Symbol })

	resp := make([]signalResponse, 0, len(active))
	for _, sig := range active {
		resp = append(resp, signalResponse{
			ID:          sig.ID.String(),
			Symbol:      sig.Symbol,
			Direction:   sig.Direction.String(),
			EntryTime:   sig.EntryTime.UTC(),
			AgeSeconds:  now.Sub(sig.EntryTime).Seconds(),
			EntrySpread: sig.EntrySpread,
			EntryPrice:  sig.EntryPrice,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Errorf("Failed to encode signals response: %v", err)
	}
}
