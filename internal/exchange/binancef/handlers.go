package binancef

import (
	"time"

	"github.com/your-org/spread-alert-bot/internal/cache"
)

// evaluator is the slice of the signal engine the feed handlers need.
type evaluator interface {
	Evaluate(now time.Time, symbol string, snap cache.Snapshot)
}

// MarkPriceHandler returns a frame handler for the mark-price stream.
// Each accepted update is written to the cache and triggers one
// re-evaluation for the symbol. An empty index price on a tick keeps the
// last cached index value (sticky).
func MarkPriceHandler(store *cache.Cache, engine evaluator) func(msg []byte) error {
	return func(msg []byte) error {
		events, err := ParseMarkPriceFrame(msg)
		if err != nil {
			return err
		}
		now := time.Now()
		for _, ev := range events {
			if ev.Symbol == "" {
				continue
			}
			accepted := false
			if mark, ok := parsePrice(ev.MarkPrice); ok {
				accepted = store.SetFair(ev.Symbol, mark) || accepted
			}
			if index, ok := parsePrice(ev.IndexPrice); ok {
				accepted = store.SetIndex(ev.Symbol, index) || accepted
			}
			if accepted {
				engine.Evaluate(now, ev.Symbol, store.Get(ev.Symbol))
			}
		}
		return nil
	}
}

// BookTickerHandler returns a frame handler for the book ticker stream.
func BookTickerHandler(store *cache.Cache, engine evaluator) func(msg []byte) error {
	return func(msg []byte) error {
		events, err := ParseBookTickerFrame(msg)
		if err != nil {
			return err
		}
		now := time.Now()
		for _, ev := range events {
			if ev.Symbol == "" {
				continue
			}
			accepted := false
			if bid, ok := parsePrice(ev.BidPrice); ok {
				accepted = store.SetBid(ev.Symbol, bid) || accepted
			}
			if ask, ok := parsePrice(ev.AskPrice); ok {
				accepted = store.SetAsk(ev.Symbol, ask) || accepted
			}
			if accepted {
				engine.Evaluate(now, ev.Symbol, store.Get(ev.Symbol))
			}
		}
		return nil
	}
}
