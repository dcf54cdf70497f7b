// Package export ships room results to the configured stores off the room
// goroutines.
package export

import (
	"context"
	"sync"
	"time"

	"github.com/skyraal/humanaiconnection/domain"
	"go.uber.org/zap"
)

// Sink persists results records. Implementations decide for themselves which
// records they care about.
type Sink interface {
	Name() string
	Save(ctx context.Context, record domain.ResultsExport) error
}

// Dispatcher queues records and hands each one to every sink from a single
// worker. A full queue drops the record.
type Dispatcher struct {
	queue   chan domain.ResultsExport
	sinks   []Sink
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sinks []Sink, buffer int, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	return &Dispatcher{
		queue:   make(chan domain.ResultsExport, buffer),
		sinks:   sinks,
		timeout: timeout,
		logger:  logger,
	}
}

// Start runs the worker until Close drains the queue.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for rec := range d.queue {
			d.dispatch(rec)
		}
	}()
}

// Export enqueues rec without blocking.
func (d *Dispatcher) Export(rec domain.ResultsExport) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- rec:
	default:
		d.logger.Warn("export queue full, dropping record",
			zap.String("room", rec.RoomCode),
			zap.Bool("final", rec.Final))
	}
}

func (d *Dispatcher) dispatch(rec domain.ResultsExport) {
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := s.Save(ctx, rec); err != nil {
			d.logger.Error("failed to export results",
				zap.String("sink", s.Name()),
				zap.String("room", rec.RoomCode),
				zap.Bool("final", rec.Final),
				zap.Error(err))
		}
		cancel()
	}
}

// Close stops accepting records and waits for the queued ones.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}
