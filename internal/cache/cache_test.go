package cache

import (
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New()

	assert.True(t, c.SetFair("BTCUSDT", 100))
	assert.True(t, c.SetIndex("BTCUSDT", 100.2))
	assert.True(t, c.SetBid("BTCUSDT", 99.8))
	assert.True(t, c.SetAsk("BTCUSDT", 99.9))

	got := c.Get("BTCUSDT")
	want := Snapshot{
		Fair: 100, Index: 100.2, Bid: 99.8, Ask: 99.9,
		HasFair: true, HasIndex: true, HasBid: true, HasAsk: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestCache_UnknownSymbolIsEmpty(t *testing.T) {
	c := New()
	got := c.Get("ETHUSDT")
	if diff := cmp.Diff(Snapshot{}, got); diff != "" {
		t.Errorf("expected zero snapshot (-want +got):\n%s", diff)
	}
}

func TestCache_RejectsInvalidValues(t *testing.T) {
	c := New()
	c.SetFair("BTCUSDT", 100)

	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.False(t, c.SetFair("BTCUSDT", v), "value %v should be rejected", v)
		assert.False(t, c.SetBid("BTCUSDT", v), "value %v should be rejected", v)
	}

	// The last good value survives every rejected write.
	got := c.Get("BTCUSDT")
	assert.Equal(t, 100.0, got.Fair)
	assert.True(t, got.HasFair)
	assert.False(t, got.HasBid)
}

func TestCache_FieldsAreIndependent(t *testing.T) {
	c := New()
	c.SetBid("BTCUSDT", 99.8)

	got := c.Get("BTCUSDT")
	assert.True(t, got.HasBid)
	assert.False(t, got.HasFair)
	assert.False(t, got.HasAsk)
	assert.False(t, got.HasIndex)
}

func TestCache_ConcurrentWritersAndReaders(t *testing.T) {
	c := New()
	symbols := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}

	var wg sync.WaitGroup
	// Mimic the two feed writers plus evaluation readers.
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 1; i <= 1000; i++ {
				for _, s := range symbols {
					if w == 0 {
						c.SetFair(s, float64(i))
						c.SetIndex(s, float64(i))
					} else {
						c.SetBid(s, float64(i))
						c.SetAsk(s, float64(i))
					}
				}
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			for _, s := range symbols {
				c.Get(s)
			}
		}
	}()
	wg.Wait()

	assert.Equal(t, len(symbols), c.Symbols())
	for _, s := range symbols {
		got := c.Get(s)
		assert.Equal(t, 1000.0, got.Fair)
		assert.Equal(t, 1000.0, got.Ask)
	}
}
