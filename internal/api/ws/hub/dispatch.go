package hub

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/skyraal/humanaiconnection/domain"
	"github.com/skyraal/humanaiconnection/internal/game"
	"github.com/skyraal/humanaiconnection/internal/protocol"
	"go.uber.org/zap"
)

// handle runs one inbound frame to completion. Frames of a connection are
// handled in the order they were read.
func (h *Hub) handle(c *Client, payload []byte) {
	act, err := protocol.Decode(payload)
	if err != nil {
		h.sendError(c, err)
		return
	}

	ctx, cancel := h.opContext()
	defer cancel()

	if err := h.apply(ctx, c, act); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			h.logger.Warn("room operation timed out",
				zap.String("client", c.ID),
				zap.String("action", act.ActionType()))
			err = domain.ErrInternal
		}
		h.sendError(c, err)
	}
}

func (h *Hub) apply(ctx context.Context, c *Client, act protocol.Action) error {
	switch a := act.(type) {
	case *protocol.CreateRoom:
		return h.createRoom(ctx, c, a)
	case *protocol.JoinRoom:
		return h.joinRoom(ctx, c, a)
	case *protocol.ReconnectAttempt:
		return h.reconnect(ctx, c, a)
	case *protocol.GetRoomData:
		return h.roomData(ctx, c, a)
	case *protocol.LeaveRoom:
		return h.leaveRoom(ctx, c, a)
	case protocol.RoomScoped:
		room, playerID, err := h.target(c, a)
		if err != nil {
			return err
		}
		return h.play(ctx, room, playerID, a)
	default:
		return domain.ErrInvalidInput
	}
}

// target resolves the room of a room scoped action and the seat the client
// holds there. A client not seated in that room cannot act in it.
func (h *Hub) target(c *Client, a protocol.RoomScoped) (*game.Coordinator, string, error) {
	room, err := h.rooms.GetRoom(a.RoomCode())
	if err != nil {
		return nil, "", err
	}
	code, playerID := h.seat(c)
	if code != room.Code() {
		return nil, "", fmt.Errorf("%w: not a member of room %s", domain.ErrNotFound, room.Code())
	}
	return room, playerID, nil
}

func (h *Hub) play(ctx context.Context, room *game.Coordinator, playerID string, act protocol.Action) error {
	switch a := act.(type) {
	case *protocol.StartGame:
		return room.StartGame(ctx, playerID)
	case *protocol.SubmitChoice:
		return room.SubmitChoice(ctx, playerID, a.Choice)
	case *protocol.RevealChoices:
		return room.RevealChoices(ctx, playerID)
	case *protocol.UpdateChoice:
		return room.UpdateChoice(ctx, playerID, a.Choice)
	case *protocol.NextCard:
		return room.NextCard(ctx, playerID)
	case *protocol.GetMissedCards:
		return room.MissedCards(ctx, playerID)
	default:
		return domain.ErrInvalidInput
	}
}

// createRoom and joinRoom mint a seat and claim it before asking the room, so
// the room's first events reach the client. The seat the client held before is
// given up only once the new one is granted.
func (h *Hub) createRoom(ctx context.Context, c *Client, a *protocol.CreateRoom) error {
	prevCode, prevID := h.seat(c)
	playerID := uuid.NewString()
	h.claim(c, playerID)
	room, err := h.rooms.CreateRoom(playerID, a.Username)
	if err != nil {
		h.release(c, playerID)
		return err
	}
	h.vacate(ctx, c, prevCode, prevID)
	h.bind(c, room.Code(), playerID)
	return nil
}

func (h *Hub) joinRoom(ctx context.Context, c *Client, a *protocol.JoinRoom) error {
	room, err := h.rooms.GetRoom(a.RoomCode())
	if err != nil {
		return err
	}
	prevCode, prevID := h.seat(c)
	playerID := uuid.NewString()
	h.claim(c, playerID)
	if err := room.Join(ctx, playerID, a.Username); err != nil {
		h.release(c, playerID)
		return err
	}
	h.vacate(ctx, c, prevCode, prevID)
	h.bind(c, room.Code(), playerID)
	return nil
}

// reconnect rebinds the seat inside the room's actor, before the reconnected
// event is delivered.
func (h *Hub) reconnect(ctx context.Context, c *Client, a *protocol.ReconnectAttempt) error {
	room, err := h.rooms.GetRoom(a.RoomCode())
	if err != nil {
		return err
	}
	prevCode, prevID := h.seat(c)
	playerID, err := room.Reconnect(ctx, a.Username, func(playerID string) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c.closed {
			return
		}
		if c.roomCode != "" && c.playerID != playerID {
			h.dropSeatLocked(c, c.roomCode, c.playerID)
		}
		h.bindLocked(c, room.Code(), playerID)
	})
	if err != nil {
		return err
	}
	if prevCode != "" && prevID != playerID {
		h.vacate(ctx, c, prevCode, prevID)
	}
	return nil
}

// roomData answers members through the room so the snapshot is ordered with
// the room's other events. Anyone else just gets the current snapshot.
func (h *Hub) roomData(ctx context.Context, c *Client, a *protocol.GetRoomData) error {
	room, err := h.rooms.GetRoom(a.RoomCode())
	if err != nil {
		return err
	}
	if code, playerID := h.seat(c); code == room.Code() {
		return room.RoomData(ctx, playerID)
	}
	snap, err := room.Snapshot(ctx)
	if err != nil {
		return err
	}
	h.sendEvent(c, protocol.UpdateRoom{RoomSnapshot: snap})
	return nil
}

func (h *Hub) leaveRoom(ctx context.Context, c *Client, a *protocol.LeaveRoom) error {
	room, playerID, err := h.target(c, a)
	if err != nil {
		return err
	}
	if err := room.Leave(ctx, playerID); err != nil {
		return err
	}
	h.mu.Lock()
	h.dropSeatLocked(c, room.Code(), playerID)
	h.mu.Unlock()
	return nil
}
