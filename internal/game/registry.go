package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/skyraal/humanaiconnection/domain"
	"github.com/skyraal/humanaiconnection/internal/deck"
	"go.uber.org/zap"
)

const maxCodeAttempts = 32

type RemovalReason string

const (
	RemovalEmpty    RemovalReason = "empty"
	RemovalInactive RemovalReason = "inactive"
	RemovalFault    RemovalReason = "fault"
)

type RegistryConfig struct {
	MaxPlayers        int
	MaxRooms          int
	InactivityTimeout time.Duration
}

// RemoveListener is told about every room that left the registry. It runs on
// the goroutine that removed the room and must not call back into it.
type RemoveListener func(code string, reason RemovalReason)

type Option func(*Registry)

// WithClock replaces time.Now for rooms and sweeps.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithCodeGenerator replaces NewCode.
func WithCodeGenerator(gen func() string) Option {
	return func(r *Registry) { r.newCode = gen }
}

// Registry indexes live rooms by code.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Coordinator

	listenersMu sync.RWMutex
	listeners   []RemoveListener

	cfg      RegistryConfig
	deck     *deck.Deck
	sink     Sink
	exporter Exporter
	logger   *zap.Logger
	clock    func() time.Time
	newCode  func() string
}

func NewRegistry(cfg RegistryConfig, d *deck.Deck, sink Sink, exporter Exporter, logger *zap.Logger, opts ...Option) *Registry {
	if sink == nil {
		sink = noopSink{}
	}
	if exporter == nil {
		exporter = noopExporter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		rooms:    make(map[string]*Coordinator),
		cfg:      cfg,
		deck:     d,
		sink:     sink,
		exporter: exporter,
		logger:   logger,
		clock:    time.Now,
		newCode:  NewCode,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetSink swaps the delivery target for rooms created afterwards. It exists
// to break the construction cycle between the registry and the hub.
func (r *Registry) SetSink(sink Sink) {
	r.mu.Lock()
	r.sink = sink
	r.mu.Unlock()
}

// OnRemove registers a listener for room removals.
func (r *Registry) OnRemove(fn RemoveListener) {
	r.listenersMu.Lock()
	r.listeners = append(r.listeners, fn)
	r.listenersMu.Unlock()
}

// CreateRoom opens a room with hostID as its only player and host.
func (r *Registry) CreateRoom(hostID, username string) (*Coordinator, error) {
	if _, err := ValidateUsername(username); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg.MaxRooms > 0 && len(r.rooms) >= r.cfg.MaxRooms {
		return nil, fmt.Errorf("%w: %d rooms are open", domain.ErrCapacity, len(r.rooms))
	}

	for range maxCodeAttempts {
		code := r.newCode()
		if _, taken := r.rooms[code]; taken {
			continue
		}
		rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		room, err := NewRoom(code, hostID, username, r.deck, rng, r.cfg.MaxPlayers, r.clock())
		if err != nil {
			return nil, err
		}
		c := newCoordinator(room, r.sink, r.exporter, r.logger, r.clock, r.Remove)
		r.rooms[code] = c
		c.start()
		r.logger.Info("room created", zap.String("room", code), zap.Int("rooms", len(r.rooms)))
		return c, nil
	}
	return nil, fmt.Errorf("%w: no free room code", domain.ErrCapacity)
}

// GetRoom looks up a room by code, ignoring case.
func (r *Registry) GetRoom(code string) (*Coordinator, error) {
	code = NormalizeCode(code)
	r.mu.RLock()
	c, ok := r.rooms[code]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: room %s", domain.ErrNotFound, code)
	}
	return c, nil
}

// Remove drops the room, stops its goroutine and notifies listeners. Removing
// an unknown code is a no-op.
func (r *Registry) Remove(code string, reason RemovalReason) {
	r.mu.Lock()
	c, ok := r.rooms[code]
	if ok {
		delete(r.rooms, code)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	c.stop()
	r.logger.Info("room removed", zap.String("room", code), zap.String("reason", string(reason)))
	r.notify(code, reason)
}

func (r *Registry) notify(code string, reason RemovalReason) {
	r.listenersMu.RLock()
	listeners := append([]RemoveListener(nil), r.listeners...)
	r.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(code, reason)
	}
}

// Sweep removes every room idle for longer than the inactivity timeout and
// returns how many went away.
func (r *Registry) Sweep(now time.Time) int {
	timeout := r.cfg.InactivityTimeout
	if timeout <= 0 {
		return 0
	}

	r.mu.RLock()
	var stale []string
	for code, c := range r.rooms {
		if now.Sub(c.LastActivity()) > timeout {
			stale = append(stale, code)
		}
	}
	r.mu.RUnlock()

	removed := make([]*Coordinator, 0, len(stale))
	r.mu.Lock()
	for _, code := range stale {
		c, ok := r.rooms[code]
		// the room may have been touched since the scan
		if !ok || now.Sub(c.LastActivity()) <= timeout {
			continue
		}
		delete(r.rooms, code)
		removed = append(removed, c)
	}
	r.mu.Unlock()

	for _, c := range removed {
		c.stop()
		r.logger.Info("room removed", zap.String("room", c.Code()), zap.String("reason", string(RemovalInactive)))
		r.notify(c.Code(), RemovalInactive)
	}
	return len(removed)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.clock()); n > 0 {
				r.logger.Info("swept inactive rooms", zap.Int("removed", n), zap.Int("remaining", r.Count()))
			}
		}
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Close stops every room without notifying listeners.
func (r *Registry) Close() {
	r.mu.Lock()
	rooms := r.rooms
	r.rooms = make(map[string]*Coordinator)
	r.mu.Unlock()
	for _, c := range rooms {
		c.stop()
	}
}
