// Package stats emits a periodic, throttled diagnostic summary of feed
// throughput and open-signal inventory. It is purely observational and
// never touches engine state.
package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/spread-alert-bot/pkg/logger"
)

// Feed is one counted input stream.
type Feed struct {
	Name               string
	Frames             func() uint64
	WatchdogReconnects func() uint64
}

// Snapshotter enumerates what the reporter logs on each tick.
type Snapshotter struct {
	Feeds       []Feed
	ActiveLines func(now time.Time) []string // per-signal age/entry-spread listing
	ActiveCount func() int
	SymbolCount func() int
}

// Reporter logs a summary at most once per interval.
type Reporter struct {
	interval time.Duration
	snap     Snapshotter

	lastFrames []uint64
}

// NewReporter creates a Reporter. interval must be positive.
func NewReporter(interval time.Duration, snap Snapshotter) *Reporter {
	return &Reporter{
		interval:   interval,
		snap:       snap,
		lastFrames: make([]uint64, len(snap.Feeds)),
	}
}

// Run emits the summary until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report(time.Now())
		}
	}
}

func (r *Reporter) report(now time.Time) {
	logger.Info(r.summaryLine(now))
	if r.snap.ActiveLines == nil {
		return
	}
	for _, line := range r.snap.ActiveLines(now) {
		logger.Infof("  %s", line)
	}
}

// summaryLine builds the one-line throughput/inventory summary. Frame
// counts are deltas since the previous report.
func (r *Reporter) summaryLine(now time.Time) string {
	var b strings.Builder
	b.WriteString("stats:")

	var watchdog uint64
	for i, feed := range r.snap.Feeds {
		total := feed.Frames()
		fmt.Fprintf(&b, " %s=%d", feed.Name, total-r.lastFrames[i])
		r.lastFrames[i] = total
		if feed.WatchdogReconnects != nil {
			watchdog += feed.WatchdogReconnects()
		}
	}

	fmt.Fprintf(&b, " | watchdog reconnects=%d", watchdog)
	if r.snap.ActiveCount != nil {
		fmt.Fprintf(&b, " | active signals=%d", r.snap.ActiveCount())
	}
	if r.snap.SymbolCount != nil {
		fmt.Fprintf(&b, " | symbols=%d", r.snap.SymbolCount())
	}
	return b.String()
}
