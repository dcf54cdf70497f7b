package bootstrap

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/skyraal/humanaiconnection/config"
	httpHandler "github.com/skyraal/humanaiconnection/internal/api/http/handler"
	wsHandler "github.com/skyraal/humanaiconnection/internal/api/ws/handler"
	"github.com/skyraal/humanaiconnection/internal/handler"
	"github.com/skyraal/humanaiconnection/internal/server"
)

func SetupServer(config config.Config, httpHandlers map[string]interface{}, wsHandlers map[string]interface{}) *fiber.App {

	serverConfig := server.Config{
		Port:         config.Server.Port,
		AllowOrigins: config.Server.AllowOrigins,
		IdleTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	app := server.NewFiberApp(serverConfig)

	getRoomHandler := httpHandlers["get-room"].(*httpHandler.GetRoomHandler)
	app.Get("/rooms/:code", handler.HandleWithFiber[httpHandler.GetRoomRequest, httpHandler.GetRoomResponse](getRoomHandler))

	roomConnectHandler := wsHandlers["room-connect"].(*wsHandler.WebSocketRoomHandler)
	app.Get("/ws", handler.HandleWithFiberWS[wsHandler.WebSocketRoomRequest](roomConnectHandler))

	return app
}
