// Package hub binds websocket connections to room seats and fans room
// deliveries out to them.
package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skyraal/humanaiconnection/domain"
	"github.com/skyraal/humanaiconnection/internal/game"
	"github.com/skyraal/humanaiconnection/internal/protocol"
	"go.uber.org/zap"
)

var ErrHubClosed = errors.New("hub is shutting down")

// Rooms is the registry as seen by the hub.
type Rooms interface {
	CreateRoom(hostID, username string) (*game.Coordinator, error)
	GetRoom(code string) (*game.Coordinator, error)
}

type Config struct {
	SendBuffer int
	// ReconnectGrace keeps the seat of a dropped connection this long before
	// leaving the room. Zero leaves immediately.
	ReconnectGrace   time.Duration
	OperationTimeout time.Duration
}

// Hub never holds its mutex while calling into a room.
type Hub struct {
	rooms  Rooms
	cfg    Config
	logger *zap.Logger

	mu sync.RWMutex
	// clients by connection id
	clients map[string]*Client
	// seats maps a player id to the connection that currently speaks for it.
	// Player ids are minted per seat and never equal a connection id.
	seats   map[string]*Client
	byRoom  map[string]map[string]*Client
	pending map[string]*time.Timer
	closed  bool
	wg      sync.WaitGroup
}

func NewHub(rooms Rooms, cfg Config, logger *zap.Logger) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 5 * time.Second
	}
	return &Hub{
		rooms:   rooms,
		cfg:     cfg,
		logger:  logger,
		clients: make(map[string]*Client),
		seats:   make(map[string]*Client),
		byRoom:  make(map[string]map[string]*Client),
		pending: make(map[string]*time.Timer),
	}
}

// Serve runs conn until it disconnects. It blocks.
func (h *Hub) Serve(conn Conn) error {
	client := &Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, h.cfg.SendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	h.clients[client.ID] = client
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	h.logger.Debug("client connected", zap.String("client", client.ID))

	go h.writePump(client)
	h.readPump(client)
	h.disconnect(client)
	return nil
}

func (h *Hub) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.cfg.OperationTimeout)
}

// Deliver implements game.Sink.
func (h *Hub) Deliver(code string, deliveries []game.Delivery) {
	for _, d := range deliveries {
		payload, err := protocol.Encode(d.Event)
		if err != nil {
			h.logger.Error("failed to encode event",
				zap.String("room", code),
				zap.String("event", d.Event.EventType()),
				zap.Error(err))
			continue
		}
		h.mu.RLock()
		for _, id := range d.To {
			if c, ok := h.seats[id]; ok {
				h.trySend(c, payload)
			}
		}
		h.mu.RUnlock()
	}
}

// trySend must be called with h.mu held.
func (h *Hub) trySend(c *Client, payload []byte) {
	if c.closed {
		return
	}
	select {
	case c.Send <- payload:
	default:
		h.logger.Warn("client send queue full, dropping message", zap.String("client", c.ID))
	}
}

func (h *Hub) sendEvent(c *Client, e protocol.Event) {
	payload, err := protocol.Encode(e)
	if err != nil {
		h.logger.Error("failed to encode event", zap.String("event", e.EventType()), zap.Error(err))
		return
	}
	h.mu.RLock()
	h.trySend(c, payload)
	h.mu.RUnlock()
}

func (h *Hub) sendError(c *Client, err error) {
	if domain.KindOf(err) == domain.KindInternal {
		h.logger.Error("operation failed", zap.String("client", c.ID), zap.Error(err))
	}
	h.sendEvent(c, protocol.ErrorFrom(err))
}

// seat returns the room and player id the client currently speaks for. Both
// are empty for an unseated client.
func (h *Hub) seat(c *Client) (code, playerID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.roomCode, c.playerID
}

// claim routes deliveries for playerID to c before the room knows the seat,
// so the events a room emits while granting it reach the client.
func (h *Hub) claim(c *Client, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seats[playerID] = c
}

// release undoes a claim whose seat was never granted.
func (h *Hub) release(c *Client, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.seats[playerID] == c && c.playerID != playerID {
		delete(h.seats, playerID)
	}
}

// bind records that c sits in room code as playerID.
func (h *Hub) bind(c *Client, code, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bindLocked(c, code, playerID)
}

// bindLocked gives c the seat. A connection that held it before is unseated.
func (h *Hub) bindLocked(c *Client, code, playerID string) {
	if old, ok := h.seats[playerID]; ok && old != c && old.playerID == playerID {
		old.roomCode = ""
		old.playerID = ""
	}
	if t, ok := h.pending[playerID]; ok {
		t.Stop()
		delete(h.pending, playerID)
	}
	c.roomCode = code
	c.playerID = playerID
	h.seats[playerID] = c
	members, ok := h.byRoom[code]
	if !ok {
		members = make(map[string]*Client)
		h.byRoom[code] = members
	}
	members[playerID] = c
}

func (h *Hub) dropSeatLocked(c *Client, code, playerID string) {
	if members, ok := h.byRoom[code]; ok {
		if members[playerID] == c {
			delete(members, playerID)
		}
		if len(members) == 0 {
			delete(h.byRoom, code)
		}
	}
	if h.seats[playerID] == c {
		delete(h.seats, playerID)
	}
	if c.roomCode == code && c.playerID == playerID {
		c.roomCode = ""
		c.playerID = ""
	}
}

// vacate leaves the seat playerID in room code, which c is giving up for
// another one. A seat another connection has taken over is left alone.
func (h *Hub) vacate(ctx context.Context, c *Client, code, playerID string) {
	if code == "" {
		return
	}
	h.mu.RLock()
	holder, held := h.seats[playerID]
	h.mu.RUnlock()
	if held && holder != c {
		return
	}
	if room, err := h.rooms.GetRoom(code); err == nil {
		if err := room.Leave(ctx, playerID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			h.logger.Warn("failed to leave room", zap.String("room", code), zap.Error(err))
		}
	}
	h.mu.Lock()
	h.dropSeatLocked(c, code, playerID)
	h.mu.Unlock()
}

func (h *Hub) disconnect(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	c.closed = true
	close(c.Send)

	code, playerID := c.roomCode, c.playerID
	if code == "" {
		h.mu.Unlock()
		h.logger.Debug("client disconnected", zap.String("client", c.ID))
		return
	}

	if h.cfg.ReconnectGrace > 0 {
		h.pending[playerID] = time.AfterFunc(h.cfg.ReconnectGrace, func() {
			h.expireSeat(c, code, playerID)
		})
		h.mu.Unlock()
		h.logger.Debug("client disconnected, holding seat",
			zap.String("client", c.ID),
			zap.String("room", code),
			zap.Duration("grace", h.cfg.ReconnectGrace))
		return
	}
	h.mu.Unlock()
	h.expireSeat(c, code, playerID)
}

// expireSeat leaves the room on behalf of a dead connection, unless another
// connection took the seat over in the meantime.
func (h *Hub) expireSeat(c *Client, code, playerID string) {
	h.mu.Lock()
	if h.seats[playerID] != c {
		h.mu.Unlock()
		return
	}
	delete(h.pending, playerID)
	h.dropSeatLocked(c, code, playerID)
	h.mu.Unlock()

	room, err := h.rooms.GetRoom(code)
	if err != nil {
		return
	}
	ctx, cancel := h.opContext()
	defer cancel()
	if err := room.Leave(ctx, playerID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.logger.Warn("failed to leave room after disconnect", zap.String("room", code), zap.Error(err))
	}
}

// OnRoomRemoved is registered with the registry. Every connection seated in
// the room loses its affiliation; rooms that did not empty out tell them why.
func (h *Hub) OnRoomRemoved(code string, reason game.RemovalReason) {
	var notice []byte
	if reason != game.RemovalEmpty {
		notice, _ = protocol.Encode(protocol.RoomClosed{Code: code, Reason: string(reason)})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for playerID, c := range h.byRoom[code] {
		if t, ok := h.pending[playerID]; ok {
			t.Stop()
			delete(h.pending, playerID)
		}
		if notice != nil {
			h.trySend(c, notice)
		}
		h.dropSeatLocked(c, code, playerID)
	}
	delete(h.byRoom, code)
}

// ClientCount reports live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown refuses new connections, closes the live ones and waits for their
// handlers to return or ctx to end.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	for _, c := range h.clients {
		c.Conn.Close()
	}
	for id, t := range h.pending {
		t.Stop()
		delete(h.pending, id)
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
