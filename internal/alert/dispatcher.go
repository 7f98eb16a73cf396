package alert

import (
	"sync"

	"github.com/your-org/spread-alert-bot/pkg/logger"
)

// Dispatcher decouples alert producers from the notifier behind a bounded
// queue. Enqueue never blocks: when the queue is full the message is
// dropped and logged, so a slow or failing sink cannot stall ingestion.
type Dispatcher struct {
	notifier Notifier
	queue    chan string

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher creates a dispatcher with the given queue size and starts
// its worker goroutine.
func NewDispatcher(notifier Notifier, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		notifier: notifier,
		queue:    make(chan string, queueSize),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		if err := d.notifier.Send(msg); err != nil {
			// Fire and forget: log, never retry.
			logger.Errorf("Alert delivery failed: %v", err)
		}
	}
}

// Enqueue queues a message for delivery without blocking. Messages
// arriving after Close are dropped.
func (d *Dispatcher) Enqueue(message string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		logger.Warnf("Alert dispatcher closed, dropping message: %s", message)
		return
	}
	select {
	case d.queue <- message:
	default:
		logger.Warnf("Alert queue full, dropping message: %s", message)
	}
}

// Close stops accepting messages, waits for the queue to drain and closes
// the notifier.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.done
	return d.notifier.Close()
}
