// Package stream supervises one long-lived websocket subscription:
// connect, decode-and-route, forced reconnect before the server's own
// disconnect deadline, constant-delay retry after any close, and an
// optional idle watchdog for feeds that can go silent without closing.
package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/your-org/spread-alert-bot/pkg/logger"
)

// Config describes one supervised stream connection.
type Config struct {
	Name string
	URL  string

	// ForcedReconnect terminates the socket after this duration so the
	// reconnect happens on our schedule, not the server's.
	ForcedReconnect time.Duration

	// RetryDelay is the constant wait between reconnect attempts.
	RetryDelay time.Duration

	// WatchdogSilence, when positive, is the silence budget after which
	// the watchdog forces a reconnect. WatchdogCheck is how often the
	// budget is evaluated.
	WatchdogSilence time.Duration
	WatchdogCheck   time.Duration
}

// Handler processes one inbound frame. A returned error marks the frame
// malformed; it is logged and skipped without touching the connection.
type Handler func(msg []byte) error

// Supervisor owns the lifecycle of one stream connection. Each reconnect
// cycle creates a fresh socket and a fresh forced-reconnect timer; the
// watchdog goroutine outlives individual connections.
type Supervisor struct {
	cfg    Config
	handle Handler

	mu            sync.Mutex
	conn          *websocket.Conn
	lastMessageAt time.Time // zero while no frame seen on current connection

	frames             atomic.Uint64
	watchdogReconnects atomic.Uint64
}

// New creates a Supervisor. Run must be called to start it.
func New(cfg Config, handle Handler) *Supervisor {
	return &Supervisor{cfg: cfg, handle: handle}
}

// Frames returns the total number of frames processed across all
// connections of this stream.
func (s *Supervisor) Frames() uint64 {
	return s.frames.Load()
}

// WatchdogReconnects returns how often the watchdog forced a reconnect.
func (s *Supervisor) WatchdogReconnects() uint64 {
	return s.watchdogReconnects.Load()
}

// Run connects and keeps the stream alive until ctx is cancelled.
// Connection errors are never fatal; the retry count is unbounded.
func (s *Supervisor) Run(ctx context.Context) {
	if s.cfg.WatchdogSilence > 0 {
		go s.watchdog(ctx)
	}

	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.runOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Warnf("%s: connection ended: %v", s.cfg.Name, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.RetryDelay):
		}
	}
}

// runOnce performs one connect/read cycle and returns when the
// connection is gone. All timers owned by the cycle are cancelled before
// it returns, so the next cycle never sees a stale timer.
func (s *Supervisor) runOnce(ctx context.Context) error {
	logger.Infof("%s: connecting to %s", s.cfg.Name, s.cfg.URL)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.lastMessageAt = time.Time{} // unset until the first frame arrives
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()

	// Protocol keepalive obligation: answer pings with pongs.
	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	// Deliberate reconnect before the server's own disconnect deadline.
	forced := time.AfterFunc(s.cfg.ForcedReconnect, func() {
		logger.Infof("%s: forced reconnect interval reached, cycling connection", s.cfg.Name)
		conn.Close()
	})
	defer forced.Stop()

	// Unblock ReadMessage on shutdown.
	readDone := make(chan struct{})
	defer close(readDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-readDone:
		}
	}()

	logger.Infof("%s: connected", s.cfg.Name)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.lastMessageAt = time.Now()
		s.mu.Unlock()
		s.frames.Add(1)

		if herr := s.handle(msg); herr != nil {
			// Transient decode error: skip the frame, keep the connection.
			logger.Warnf("%s: dropping malformed frame: %v", s.cfg.Name, herr)
		}
	}
}

// watchdog forces a reconnect when the current connection has received at
// least one frame and then gone silent for longer than the budget. It
// runs for the supervisor's whole lifetime.
func (s *Supervisor) watchdog(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.WatchdogCheck)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			conn := s.conn
			last := s.lastMessageAt
			s.mu.Unlock()

			if conn == nil || !silenceExceeded(last, time.Now(), s.cfg.WatchdogSilence) {
				continue
			}
			s.watchdogReconnects.Add(1)
			logger.Warnf("%s: no frames for %v (budget %v), watchdog forcing reconnect",
				s.cfg.Name, time.Since(last).Round(time.Second), s.cfg.WatchdogSilence)
			conn.Close()
		}
	}
}

// silenceExceeded reports whether the silence budget is blown. A zero
// lastMessageAt means no frame has arrived on the current connection yet,
// which never trips the watchdog.
func silenceExceeded(lastMessageAt, now time.Time, budget time.Duration) bool {
	return !lastMessageAt.IsZero() && now.Sub(lastMessageAt) > budget
}
