package httpUsecase

import (
	"context"

	"github.com/skyraal/humanaiconnection/domain"
)

// Room is the part of a live room the HTTP surface reads.
type Room interface {
	Snapshot(ctx context.Context) (domain.RoomSnapshot, error)
}

type RoomLookup interface {
	LookupRoom(code string) (Room, error)
}
