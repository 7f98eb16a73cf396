// Package cache holds the latest known per-symbol prices shared by the
// two stream readers and the signal engine.
package cache

import (
	"math"
	"sync"
)

// Snapshot is a point-in-time copy of one symbol's cached prices.
// Fields are updated independently by whichever feed last reported, so a
// snapshot may combine a fresh fair price with an older book half (or the
// other way around). That skew is tolerated by design.
type Snapshot struct {
	Fair  float64
	Index float64
	Bid   float64
	Ask   float64

	HasFair  bool
	HasIndex bool
	HasBid   bool
	HasAsk   bool
}

type symbolState struct {
	fair, index, bid, ask             float64
	hasFair, hasIndex, hasBid, hasAsk bool
}

// Cache is a concurrent per-symbol price store. Once a field has been
// set it is never cleared back to absent; reconnects keep stale values
// in place rather than wiping them.
type Cache struct {
	mu sync.RWMutex
	m  map[string]*symbolState
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{m: make(map[string]*symbolState)}
}

// valid reports whether v may overwrite a cached field. Malformed and
// non-positive values are dropped, preserving the last good value.
func valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func (c *Cache) state(symbol string) *symbolState {
	if s, ok := c.m[symbol]; ok {
		return s
	}
	s := &symbolState{}
	c.m[symbol] = s
	return s
}

// SetFair stores the latest fair (mark) price for symbol.
// It reports whether the value was accepted.
func (c *Cache) SetFair(symbol string, v float64) bool {
	if !valid(v) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state(symbol)
	s.fair, s.hasFair = v, true
	return true
}

// SetIndex stores the latest secondary (index) reference price for symbol.
// It reports whether the value was accepted.
func (c *Cache) SetIndex(symbol string, v float64) bool {
	if !valid(v) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state(symbol)
	s.index, s.hasIndex = v, true
	return true
}

// SetBid stores the latest best bid for symbol.
// It reports whether the value was accepted.
func (c *Cache) SetBid(symbol string, v float64) bool {
	if !valid(v) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state(symbol)
	s.bid, s.hasBid = v, true
	return true
}

// SetAsk stores the latest best ask for symbol.
// It reports whether the value was accepted.
func (c *Cache) SetAsk(symbol string, v float64) bool {
	if !valid(v) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state(symbol)
	s.ask, s.hasAsk = v, true
	return true
}

// Get returns a snapshot of the symbol's cached state. Unknown symbols
// yield a zero snapshot with all Has flags false.
func (c *Cache) Get(symbol string) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.m[symbol]
	if !ok {
		return Snapshot{}
	}
	return Snapshot{
		Fair: s.fair, Index: s.index, Bid: s.bid, Ask: s.ask,
		HasFair: s.hasFair, HasIndex: s.hasIndex, HasBid: s.hasBid, HasAsk: s.hasAsk,
	}
}

// Symbols returns the number of symbols seen so far.
func (c *Cache) Symbols() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
