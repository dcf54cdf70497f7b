package bootstrap

import (
	httpHandler "github.com/skyraal/humanaiconnection/internal/api/http/handler"
	httpUsecase "github.com/skyraal/humanaiconnection/internal/api/http/usecase"
	wsHandler "github.com/skyraal/humanaiconnection/internal/api/ws/handler"
	"github.com/skyraal/humanaiconnection/internal/game"
)

type roomLookup struct {
	rooms Rooms
}

func (l roomLookup) LookupRoom(code string) (httpUsecase.Room, error) {
	room, err := l.rooms.GetRoom(game.NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	return room, nil
}

func SetupHTTPHandlers(rooms Rooms) map[string]interface{} {
	getRoomUseCase := httpUsecase.NewGetRoomUseCase(roomLookup{rooms: rooms})
	getRoomHandler := httpHandler.NewGetRoomHandler(getRoomUseCase)

	return map[string]interface{}{
		"get-room": getRoomHandler,
	}
}

func SetupWSHandlers(hub Hub) map[string]interface{} {
	roomConnectHandler := wsHandler.NewWebSocketRoomHandler(hub)

	return map[string]interface{}{
		"room-connect": roomConnectHandler,
	}
}
