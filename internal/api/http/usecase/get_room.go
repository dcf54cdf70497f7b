package httpUsecase

import (
	"context"
	"errors"
	"net/http"

	"github.com/skyraal/humanaiconnection/domain"
)

type GetRoomUseCase interface {
	Execute(ctx context.Context, code string) (domain.RoomSnapshot, int, error)
}

type getRoomUseCase struct {
	rooms RoomLookup
}

func NewGetRoomUseCase(rooms RoomLookup) GetRoomUseCase {
	return &getRoomUseCase{
		rooms: rooms,
	}
}

func (u *getRoomUseCase) Execute(ctx context.Context, code string) (domain.RoomSnapshot, int, error) {
	room, err := u.rooms.LookupRoom(code)
	if err != nil {
		return domain.RoomSnapshot{}, statusOf(err), err
	}
	snap, err := room.Snapshot(ctx)
	if err != nil {
		return domain.RoomSnapshot{}, statusOf(err), err
	}
	return snap, http.StatusOK, nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
