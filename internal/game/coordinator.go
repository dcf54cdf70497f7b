package game

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skyraal/humanaiconnection/domain"
	"github.com/skyraal/humanaiconnection/internal/protocol"
	"go.uber.org/zap"
)

// Sink receives the deliveries of a room in the order they were produced.
// Deliver must not block.
type Sink interface {
	Deliver(code string, deliveries []Delivery)
}

// Exporter accepts results records for asynchronous persistence. Export must
// not block.
type Exporter interface {
	Export(record domain.ResultsExport)
}

type noopSink struct{}

func (noopSink) Deliver(string, []Delivery) {}

type noopExporter struct{}

func (noopExporter) Export(domain.ResultsExport) {}

type command struct {
	apply func(r *Room, now time.Time) (Outcome, error)
	reply chan error
}

// Coordinator owns one Room and applies every operation on it from a single
// goroutine.
type Coordinator struct {
	code     string
	room     *Room
	cmds     chan command
	done     chan struct{}
	stopOnce sync.Once

	lastActivity atomic.Int64

	sink     Sink
	exporter Exporter
	logger   *zap.Logger
	clock    func() time.Time
	// remove is called from the room goroutine when the room must go away.
	remove func(code string, reason RemovalReason)
}

func newCoordinator(room *Room, sink Sink, exporter Exporter, logger *zap.Logger, clock func() time.Time, remove func(string, RemovalReason)) *Coordinator {
	c := &Coordinator{
		code:     room.Code(),
		room:     room,
		cmds:     make(chan command),
		done:     make(chan struct{}),
		sink:     sink,
		exporter: exporter,
		logger:   logger.With(zap.String("room", room.Code())),
		clock:    clock,
		remove:   remove,
	}
	c.lastActivity.Store(room.LastActivity().UnixNano())
	return c
}

func (c *Coordinator) start() {
	go c.run(c.room.Created())
}

func (c *Coordinator) run(created Outcome) {
	c.sink.Deliver(c.code, created.Deliveries)
	for {
		select {
		case <-c.done:
			return
		default:
		}

		select {
		case <-c.done:
			return
		case cmd := <-c.cmds:
			cmd.reply <- c.execute(cmd)
		}
	}
}

func (c *Coordinator) execute(cmd command) (err error) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("room transition panicked",
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("%w: room %s failed", domain.ErrInternal, c.code)
			c.fault()
		}
	}()

	out, err := cmd.apply(c.room, c.clock())
	if err != nil {
		return err
	}
	c.lastActivity.Store(c.room.LastActivity().UnixNano())
	c.sink.Deliver(c.code, out.Deliveries)
	for _, rec := range out.Exports {
		c.exporter.Export(rec)
	}
	if out.Empty {
		c.remove(c.code, RemovalEmpty)
	}
	return nil
}

// fault tells every seated player the room broke, then takes it down.
func (c *Coordinator) fault() {
	func() {
		defer func() { _ = recover() }()
		c.sink.Deliver(c.code, []Delivery{{
			To:    c.room.everyone(),
			Event: protocol.ErrorFrom(domain.ErrInternal),
		}})
	}()
	c.remove(c.code, RemovalFault)
}

func (c *Coordinator) do(ctx context.Context, apply func(r *Room, now time.Time) (Outcome, error)) error {
	cmd := command{apply: apply, reply: make(chan error, 1)}
	select {
	case c.cmds <- cmd:
	case <-c.done:
		return fmt.Errorf("%w: room %s is closed", domain.ErrNotFound, c.code)
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) Code() string { return c.code }

// LastActivity is readable without entering the room.
func (c *Coordinator) LastActivity() time.Time {
	return time.Unix(0, c.lastActivity.Load())
}

// Done is closed once the room stopped accepting commands.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

func (c *Coordinator) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *Coordinator) Join(ctx context.Context, playerID, username string) error {
	return c.do(ctx, func(r *Room, now time.Time) (Outcome, error) {
		return r.Join(playerID, username, now)
	})
}

func (c *Coordinator) Leave(ctx context.Context, playerID string) error {
	return c.do(ctx, func(r *Room, now time.Time) (Outcome, error) {
		return r.Leave(playerID, now)
	})
}

func (c *Coordinator) StartGame(ctx context.Context, actor string) error {
	return c.do(ctx, func(r *Room, now time.Time) (Outcome, error) {
		return r.StartGame(actor, now)
	})
}

func (c *Coordinator) SubmitChoice(ctx context.Context, actor, choice string) error {
	return c.do(ctx, func(r *Room, now time.Time) (Outcome, error) {
		return r.SubmitChoice(actor, choice, now)
	})
}

func (c *Coordinator) RevealChoices(ctx context.Context, actor string) error {
	return c.do(ctx, func(r *Room, now time.Time) (Outcome, error) {
		return r.RevealChoices(actor, now)
	})
}

func (c *Coordinator) UpdateChoice(ctx context.Context, actor, choice string) error {
	return c.do(ctx, func(r *Room, now time.Time) (Outcome, error) {
		return r.UpdateChoice(actor, choice, now)
	})
}

func (c *Coordinator) NextCard(ctx context.Context, actor string) error {
	return c.do(ctx, func(r *Room, now time.Time) (Outcome, error) {
		return r.NextCard(actor, now)
	})
}

func (c *Coordinator) MissedCards(ctx context.Context, actor string) error {
	return c.do(ctx, func(r *Room, _ time.Time) (Outcome, error) {
		return r.MissedCards(actor)
	})
}

func (c *Coordinator) RoomData(ctx context.Context, actor string) error {
	return c.do(ctx, func(r *Room, _ time.Time) (Outcome, error) {
		return r.RoomData(actor)
	})
}

// Reconnect locates the seat held under username and calls rebind with its
// player id before the reconnected event is delivered, so the caller can
// attach its connection to the seat inside the room's critical section.
func (c *Coordinator) Reconnect(ctx context.Context, username string, rebind func(playerID string)) (string, error) {
	var playerID string
	err := c.do(ctx, func(r *Room, now time.Time) (Outcome, error) {
		id, out, err := r.Reconnect(username, now)
		if err != nil {
			return out, err
		}
		playerID = id
		if rebind != nil {
			rebind(id)
		}
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return playerID, nil
}

// Snapshot returns a copy of the room state.
func (c *Coordinator) Snapshot(ctx context.Context) (domain.RoomSnapshot, error) {
	var snap domain.RoomSnapshot
	err := c.do(ctx, func(r *Room, _ time.Time) (Outcome, error) {
		snap = r.Snapshot()
		return Outcome{}, nil
	})
	return snap, err
}
