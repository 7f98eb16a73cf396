package binancef

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/spread-alert-bot/internal/cache"
)

func TestParseMarkPriceFrame(t *testing.T) {
	frame := []byte(`[
		{"e":"markPriceUpdate","s":"BTCUSDT","p":"45000.10","i":"45010.50"},
		{"e":"markPriceUpdate","s":"ETHUSDT","p":"3000.00","i":""}
	]`)

	events, err := ParseMarkPriceFrame(frame)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "BTCUSDT", events[0].Symbol)
	assert.Equal(t, "45000.10", events[0].MarkPrice)
	assert.Equal(t, "45010.50", events[0].IndexPrice)
	assert.Empty(t, events[1].IndexPrice)
}

func TestParseMarkPriceFrame_Malformed(t *testing.T) {
	_, err := ParseMarkPriceFrame([]byte(`{"not":"an array"}`))
	assert.Error(t, err)
}

func TestParseBookTickerFrame_SingleObject(t *testing.T) {
	events, err := ParseBookTickerFrame([]byte(`{"e":"bookTicker","s":"BTCUSDT","b":"44990.00","a":"44991.00"}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "BTCUSDT", events[0].Symbol)
}

func TestParseBookTickerFrame_Array(t *testing.T) {
	events, err := ParseBookTickerFrame([]byte(`[
		{"e":"bookTicker","s":"BTCUSDT","b":"44990.00","a":"44991.00"},
		{"s":"ETHUSDT","b":"2999.50","a":"3000.50"}
	]`))
	require.NoError(t, err)
	require.Len(t, events, 2, "absent event type must be accepted")
}

func TestParseBookTickerFrame_SkipsForeignEventTypes(t *testing.T) {
	events, err := ParseBookTickerFrame([]byte(`{"e":"depthUpdate","s":"BTCUSDT","b":"1","a":"2"}`))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"45000.10", 45000.10, true},
		{"", 0, false},
		{"0", 0, false},
		{"-1.5", 0, false},
		{"NaN", 0, false},
		{"not-a-number", 0, false},
	}
	for _, tt := range tests {
		got, ok := parsePrice(tt.in)
		assert.Equal(t, tt.ok, ok, "parsePrice(%q)", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

// recordingEvaluator captures evaluation triggers.
type recordingEvaluator struct {
	mu      sync.Mutex
	symbols []string
}

func (r *recordingEvaluator) Evaluate(now time.Time, symbol string, snap cache.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.symbols = append(r.symbols, symbol)
}

func TestMarkPriceHandler_UpdatesCacheAndTriggersEvaluation(t *testing.T) {
	store := cache.New()
	eval := &recordingEvaluator{}
	handle := MarkPriceHandler(store, eval)

	err := handle([]byte(`[{"s":"BTCUSDT","p":"45000.10","i":"45010.50"}]`))
	require.NoError(t, err)

	snap := store.Get("BTCUSDT")
	assert.Equal(t, 45000.10, snap.Fair)
	assert.Equal(t, 45010.50, snap.Index)
	assert.Equal(t, []string{"BTCUSDT"}, eval.symbols)
}

func TestMarkPriceHandler_EmptyIndexKeepsLastValue(t *testing.T) {
	store := cache.New()
	eval := &recordingEvaluator{}
	handle := MarkPriceHandler(store, eval)

	require.NoError(t, handle([]byte(`[{"s":"BTCUSDT","p":"45000","i":"45010"}]`)))
	require.NoError(t, handle([]byte(`[{"s":"BTCUSDT","p":"45001","i":""}]`)))

	snap := store.Get("BTCUSDT")
	assert.Equal(t, 45001.0, snap.Fair)
	assert.Equal(t, 45010.0, snap.Index, "sticky index must survive an omitted tick")
	assert.Len(t, eval.symbols, 2)
}

func TestMarkPriceHandler_MalformedFrameLeavesStateUntouched(t *testing.T) {
	store := cache.New()
	eval := &recordingEvaluator{}
	handle := MarkPriceHandler(store, eval)

	err := handle([]byte(`{"garbage":true}`))
	require.Error(t, err)
	assert.Zero(t, store.Symbols())
	assert.Empty(t, eval.symbols)
}

func TestMarkPriceHandler_FrameMissingPriceIsDropped(t *testing.T) {
	store := cache.New()
	eval := &recordingEvaluator{}
	handle := MarkPriceHandler(store, eval)

	// Well-formed JSON, no usable price: no cache write, no evaluation.
	require.NoError(t, handle([]byte(`[{"s":"BTCUSDT","p":"","i":""}]`)))
	assert.False(t, store.Get("BTCUSDT").HasFair)
	assert.Empty(t, eval.symbols)
}

func TestBookTickerHandler_UpdatesCacheAndTriggersEvaluation(t *testing.T) {
	store := cache.New()
	eval := &recordingEvaluator{}
	handle := BookTickerHandler(store, eval)

	err := handle([]byte(`{"e":"bookTicker","s":"BTCUSDT","b":"44990.00","a":"44991.00"}`))
	require.NoError(t, err)

	snap := store.Get("BTCUSDT")
	assert.Equal(t, 44990.0, snap.Bid)
	assert.Equal(t, 44991.0, snap.Ask)
	assert.Equal(t, []string{"BTCUSDT"}, eval.symbols)
}

func TestCountTradableSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/exchangeInfo", r.URL.Path)
		w.Write([]byte(`{"symbols":[
			{"symbol":"BTCUSDT","status":"TRADING","quoteAsset":"USDT"},
			{"symbol":"ETHUSDT","status":"TRADING","quoteAsset":"USDT"},
			{"symbol":"OLDUSDT","status":"DELISTED","quoteAsset":"USDT"},
			{"symbol":"BTCUSDC","status":"TRADING","quoteAsset":"USDC"}
		]}`))
	}))
	defer srv.Close()

	count, err := CountTradableSymbols(context.Background(), srv.URL, "USDT")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCountTradableSymbols_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := CountTradableSymbols(context.Background(), srv.URL, "USDT")
	assert.Error(t, err)
}
