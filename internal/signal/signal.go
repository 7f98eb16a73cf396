// Package signal implements the spread-detection state machine. It turns
// per-symbol cache snapshots into entry/exit alerts using a
// threshold-with-hysteresis rule.
package signal

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/your-org/spread-alert-bot/internal/cache"
	"github.com/your-org/spread-alert-bot/internal/config"
	"github.com/your-org/spread-alert-bot/pkg/logger"
)

// Direction represents the side of a spread signal.
type Direction int

const (
	// DirectionLong indicates the tradable price is below fair value.
	DirectionLong Direction = iota
	// DirectionShort indicates the tradable price is above fair value.
	DirectionShort
)

// String returns the string representation of Direction.
func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "LONG"
	case DirectionShort:
		return "SHORT"
	default:
		return "UNKNOWN"
	}
}

// ActiveSignal is the open notification for one symbol. At most one
// exists per symbol; its absence means the symbol is flat.
type ActiveSignal struct {
	ID          uuid.UUID
	Symbol      string
	Direction   Direction
	EntryTime   time.Time
	EntrySpread float64 // signed percentage deviation at entry
	EntryPrice  float64 // execution reference price at entry
}

// Event is a journal record of one state-machine transition.
type Event struct {
	Time        time.Time
	SignalID    uuid.UUID
	Symbol      string
	Direction   Direction
	Kind        string // "entry" or "exit"
	Price       float64
	FairPrice   float64
	SpreadPct   float64
	EntrySpread float64
}

// EventRecorder receives transition events, e.g. for the DB journal.
// Implementations must not block.
type EventRecorder interface {
	Record(ev Event)
}

// Sender receives formatted alert text. Implementations must not block;
// the alert dispatcher's Enqueue satisfies this.
type Sender func(message string)

// EngineConfig encapsulates configuration for the Engine.
type EngineConfig struct {
	Policy            string
	EntryThresholdPct float64
	ExitThresholdPct  float64
	Cooldown          time.Duration
}

// Engine evaluates cache snapshots and drives the per-symbol
// FLAT/ACTIVE state machine. It is safe for concurrent use by both
// stream readers.
type Engine struct {
	mu        sync.Mutex
	config    EngineConfig
	active    map[string]*ActiveSignal
	lastEntry map[string]time.Time // cooldown record, keyed to last entry
	send      Sender
	recorder  EventRecorder
}

// NewEngine creates an Engine from the bot config. The recorder may be nil.
func NewEngine(cfg *config.Config, send Sender, recorder EventRecorder) (*Engine, error) {
	if cfg.EntryThresholdPct <= cfg.ExitThresholdPct {
		return nil, fmt.Errorf("entry threshold (%v%%) must be greater than exit threshold (%v%%)",
			cfg.EntryThresholdPct, cfg.ExitThresholdPct)
	}
	if send == nil {
		send = func(string) {}
	}
	return &Engine{
		config: EngineConfig{
			Policy:            cfg.Policy,
			EntryThresholdPct: cfg.EntryThresholdPct,
			ExitThresholdPct:  cfg.ExitThresholdPct,
			Cooldown:          cfg.SignalCooldown.Duration(),
		},
		active:    make(map[string]*ActiveSignal),
		lastEntry: make(map[string]time.Time),
		send:      send,
		recorder:  recorder,
	}, nil
}

// candidate is one directional spread observation for a symbol.
type candidate struct {
	direction Direction
	spreadPct float64
	price     float64 // execution reference price
	qualifies bool    // deviates in the entry-qualifying direction
}

// Evaluate runs one state-machine step for the symbol against the given
// snapshot. It is triggered on every accepted cache update.
func (e *Engine) Evaluate(now time.Time, symbol string, snap cache.Snapshot) {
	// Division guard: no fair price, no evaluation.
	if !snap.HasFair || snap.Fair <= 0 {
		return
	}

	var cand candidate
	var ok bool
	switch e.config.Policy {
	case config.PolicyIndex:
		cand, ok = indexCandidate(snap)
	default:
		cand, ok = bookCandidate(snap)
	}
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if sig, exists := e.active[symbol]; exists {
		// While a signal is open only the exit test runs; direction
		// cannot flip without an intervening exit.
		e.maybeExit(now, symbol, sig, cand, snap)
		return
	}
	e.maybeEnter(now, symbol, cand, snap)
}

// bookCandidate implements the bid/ask vs fair policy. The LONG candidate
// is the ask deviation (qualifying when negative), the SHORT candidate
// the bid deviation (qualifying when positive). The larger absolute
// qualifying deviation wins, LONG on an exact tie. When neither side
// qualifies it returns the raw deviation, ask preferred, as the neutral
// spread used only by the exit test.
func bookCandidate(snap cache.Snapshot) (candidate, bool) {
	if !snap.HasBid && !snap.HasAsk {
		return candidate{}, false
	}

	var long, short *candidate
	if snap.HasAsk {
		spread := (snap.Ask - snap.Fair) / snap.Fair * 100
		long = &candidate{direction: DirectionLong, spreadPct: spread, price: snap.Ask, qualifies: spread < 0}
	}
	if snap.HasBid {
		spread := (snap.Bid - snap.Fair) / snap.Fair * 100
		short = &candidate{direction: DirectionShort, spreadPct: spread, price: snap.Bid, qualifies: spread > 0}
	}

	switch {
	case long != nil && long.qualifies && short != nil && short.qualifies:
		if math.Abs(long.spreadPct) >= math.Abs(short.spreadPct) {
			return *long, true
		}
		return *short, true
	case long != nil && long.qualifies:
		return *long, true
	case short != nil && short.qualifies:
		return *short, true
	case long != nil:
		// Neutral spread: not entry-qualifying, still decides convergence.
		return *long, true
	default:
		return *short, true
	}
}

// indexCandidate implements the fair vs index policy. Every tick yields
// exactly one candidate; there is no qualification gate.
func indexCandidate(snap cache.Snapshot) (candidate, bool) {
	if !snap.HasIndex || snap.Index <= 0 {
		return candidate{}, false
	}
	spread := (snap.Fair - snap.Index) / snap.Index * 100
	direction := DirectionShort
	if snap.Fair < snap.Index {
		direction = DirectionLong
	}
	return candidate{direction: direction, spreadPct: spread, price: snap.Fair, qualifies: true}, true
}

func (e *Engine) maybeEnter(now time.Time, symbol string, cand candidate, snap cache.Snapshot) {
	if !cand.qualifies {
		return
	}
	if math.Abs(cand.spreadPct) < e.config.EntryThresholdPct {
		return
	}
	if last, ok := e.lastEntry[symbol]; ok && now.Sub(last) < e.config.Cooldown {
		logger.Debugf("%s: entry blocked by cooldown (%.0fs remaining)",
			symbol, (e.config.Cooldown - now.Sub(last)).Seconds())
		return
	}

	sig := &ActiveSignal{
		ID:          uuid.New(),
		Symbol:      symbol,
		Direction:   cand.direction,
		EntryTime:   now,
		EntrySpread: cand.spreadPct,
		EntryPrice:  cand.price,
	}
	e.active[symbol] = sig
	e.lastEntry[symbol] = now

	logger.Infof("%s: %s entry, spread %.4f%%", symbol, sig.Direction, cand.spreadPct)
	e.send(e.formatEntry(sig, snap))
	if e.recorder != nil {
		e.recorder.Record(Event{
			Time: now, SignalID: sig.ID, Symbol: symbol, Direction: sig.Direction,
			Kind: "entry", Price: cand.price, FairPrice: snap.Fair,
			SpreadPct: cand.spreadPct, EntrySpread: cand.spreadPct,
		})
	}
}

func (e *Engine) maybeExit(now time.Time, symbol string, sig *ActiveSignal, cand candidate, snap cache.Snapshot) {
	if math.Abs(cand.spreadPct) > e.config.ExitThresholdPct {
		return // hold
	}

	delete(e.active, symbol)
	elapsed := now.Sub(sig.EntryTime)

	logger.Infof("%s: %s exit after %s, spread %.4f%% (entry %.4f%%)",
		symbol, sig.Direction, elapsed, cand.spreadPct, sig.EntrySpread)
	e.send(e.formatExit(sig, cand, snap, elapsed))
	if e.recorder != nil {
		e.recorder.Record(Event{
			Time: now, SignalID: sig.ID, Symbol: symbol, Direction: sig.Direction,
			Kind: "exit", Price: cand.price, FairPrice: snap.Fair,
			SpreadPct: cand.spreadPct, EntrySpread: sig.EntrySpread,
		})
	}
}

func (e *Engine) formatEntry(sig *ActiveSignal, snap cache.Snapshot) string {
	emoji := "🟢"
	if sig.Direction == DirectionShort {
		emoji = "🔴"
	}
	if e.config.Policy == config.PolicyIndex {
		return fmt.Sprintf("%s **%s %s** | mark %s vs index %s | spread %.4f%% | %s | id %s",
			emoji, sig.Direction, sig.Symbol,
			fmtPrice(snap.Fair), fmtPrice(snap.Index),
			math.Abs(sig.EntrySpread),
			sig.EntryTime.UTC().Format(time.RFC3339),
			sig.ID)
	}
	return fmt.Sprintf("%s **%s %s** | price %s vs mark %s | spread %.4f%% | %s | id %s",
		emoji, sig.Direction, sig.Symbol,
		fmtPrice(sig.EntryPrice), fmtPrice(snap.Fair),
		math.Abs(sig.EntrySpread),
		sig.EntryTime.UTC().Format(time.RFC3339),
		sig.ID)
}

func (e *Engine) formatExit(sig *ActiveSignal, cand candidate, snap cache.Snapshot, elapsed time.Duration) string {
	return fmt.Sprintf("⚪ **EXIT %s %s** | held %ds %dms | price %s vs mark %s | spread %.4f%% (entry %.4f%%) | id %s",
		sig.Direction, sig.Symbol,
		int(elapsed.Seconds()), elapsed.Milliseconds()%1000,
		fmtPrice(cand.price), fmtPrice(snap.Fair),
		cand.spreadPct, sig.EntrySpread,
		sig.ID)
}

// fmtPrice renders a price without float artifacts or trailing zeros.
func fmtPrice(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// Active returns a snapshot of the current open signals.
func (e *Engine) Active() []ActiveSignal {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ActiveSignal, 0, len(e.active))
	for _, sig := range e.active {
		out = append(out, *sig)
	}
	return out
}

// ActiveCount returns the number of currently open signals.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}
