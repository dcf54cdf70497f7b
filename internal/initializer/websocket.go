package initializer

import (
	"github.com/skyraal/humanaiconnection/config"
	"github.com/skyraal/humanaiconnection/internal/api/ws/hub"
	"github.com/skyraal/humanaiconnection/internal/game"
	"go.uber.org/zap"
)

// InitWebsocket builds the hub and makes it the registry's delivery sink.
func InitWebsocket(appConfig config.Config, registry *game.Registry) *hub.Hub {
	h := hub.NewHub(registry, hub.Config{
		SendBuffer:       appConfig.Game.SendBuffer,
		ReconnectGrace:   appConfig.Game.ReconnectGrace,
		OperationTimeout: appConfig.Game.OperationTimeout,
	}, zap.L().Named("hub"))
	registry.SetSink(h)
	registry.OnRemove(h.OnRoomRemoved)
	return h
}
