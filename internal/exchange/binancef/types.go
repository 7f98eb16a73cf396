// Package binancef handles the Binance USDⓈ-M futures market-data feeds.
package binancef

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// MarkPriceEvent is one element of the combined mark-price stream frame.
// Prices arrive as strings; IndexPrice may be empty on a tick.
type MarkPriceEvent struct {
	Symbol     string `json:"s"`
	MarkPrice  string `json:"p"`
	IndexPrice string `json:"i"`
}

// BookTickerEvent is one element of the all-market book ticker stream.
// EventType is a discriminator that is not always present.
type BookTickerEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	BidPrice  string `json:"b"`
	AskPrice  string `json:"a"`
}

const bookTickerEventType = "bookTicker"

// ParseMarkPriceFrame decodes a mark-price frame. The stream always
// delivers an array of per-symbol objects.
func ParseMarkPriceFrame(msg []byte) ([]MarkPriceEvent, error) {
	var events []MarkPriceEvent
	if err := json.Unmarshal(msg, &events); err != nil {
		return nil, fmt.Errorf("failed to decode mark price frame: %w", err)
	}
	return events, nil
}

// ParseBookTickerFrame decodes a book ticker frame, which may carry a
// single object or an array of objects. Objects with a foreign event
// type are skipped; an absent event type is accepted.
func ParseBookTickerFrame(msg []byte) ([]BookTickerEvent, error) {
	var events []BookTickerEvent
	if len(msg) > 0 && msg[0] == '[' {
		if err := json.Unmarshal(msg, &events); err != nil {
			return nil, fmt.Errorf("failed to decode book ticker frame: %w", err)
		}
	} else {
		var single BookTickerEvent
		if err := json.Unmarshal(msg, &single); err != nil {
			return nil, fmt.Errorf("failed to decode book ticker frame: %w", err)
		}
		events = append(events, single)
	}

	filtered := events[:0]
	for _, ev := range events {
		if ev.EventType != "" && ev.EventType != bookTickerEventType {
			continue
		}
		filtered = append(filtered, ev)
	}
	return filtered, nil
}

// parsePrice converts a string-encoded price to a positive finite float.
// The empty string (e.g. an omitted index price) is not an error, just
// not a value.
func parsePrice(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}
