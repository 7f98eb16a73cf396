// Package journal persists discrete signal entry/exit events to
// Postgres/TimescaleDB in batches. It is optional; without a configured
// database the bot runs without it.
package journal

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/your-org/spread-alert-bot/internal/config"
	"github.com/your-org/spread-alert-bot/internal/signal"
)

// Pool abstracts the pgxpool.Pool for testability.
type Pool interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// Writer buffers signal events and flushes them in batches, either when
// the buffer reaches the configured size or on a timer. Record never
// blocks the caller on database I/O.
type Writer struct {
	pool   Pool
	logger *zap.Logger

	batchSize     int
	flushInterval time.Duration

	mu     sync.Mutex
	buffer []signal.Event

	flushTicker *time.Ticker
	shutdown    chan struct{}
	done        chan struct{}
}

// NewWriter connects to the database, applies pending migrations and
// starts the background flusher.
func NewWriter(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Writer, error) {
	if err := Migrate(cfg.URL); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return newWriterWithPool(pool, cfg, logger), nil
}

func newWriterWithPool(pool Pool, cfg config.DatabaseConfig, logger *zap.Logger) *Writer {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
		logger.Warn("Journal batch size is zero or negative, defaulting to 100")
	}
	flushInterval := cfg.FlushInterval.Duration()
	if flushInterval <= 0 {
		flushInterval = time.Second
		logger.Warn("Journal flush interval is zero or negative, defaulting to 1s")
	}

	w := &Writer{
		pool:          pool,
		logger:        logger,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		buffer:        make([]signal.Event, 0, batchSize),
		flushTicker:   time.NewTicker(flushInterval),
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.flushTicker.C:
			w.flush()
		case <-w.shutdown:
			return
		}
	}
}

// Record implements signal.EventRecorder. It appends the event to the
// buffer and triggers a flush once the batch is full.
func (w *Writer) Record(ev signal.Event) {
	w.mu.Lock()
	w.buffer = append(w.buffer, ev)
	shouldFlush := len(w.buffer) >= w.batchSize
	w.mu.Unlock()

	if shouldFlush {
		go w.flush()
	}
}

func (w *Writer) flush() {
	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.buffer
	w.buffer = make([]signal.Event, 0, w.batchSize)
	w.mu.Unlock()

	w.logger.Debug("Flushing signal events", zap.Int("count", len(batch)))
	_, err := w.pool.CopyFrom(
		context.Background(),
		pgx.Identifier{"signal_events"},
		[]string{"time", "signal_id", "symbol", "direction", "kind", "price", "fair_price", "spread_pct", "entry_spread_pct"},
		pgx.CopyFromRows(toEventRows(batch)),
	)
	if err != nil {
		w.logger.Error("Failed to batch insert signal events", zap.Error(err))
	}
}

func toEventRows(events []signal.Event) [][]interface{} {
	rows := make([][]interface{}, len(events))
	for i, ev := range events {
		rows[i] = []interface{}{
			ev.Time, ev.SignalID, ev.Symbol, ev.Direction.String(), ev.Kind,
			ev.Price, ev.FairPrice, ev.SpreadPct, ev.EntrySpread,
		}
	}
	return rows
}

// Close flushes the remaining buffer and closes the pool.
func (w *Writer) Close() {
	w.logger.Info("Closing signal journal...")
	close(w.shutdown)
	<-w.done
	w.flushTicker.Stop()

	w.flush()
	w.pool.Close()
	w.logger.Info("Signal journal closed")
}
