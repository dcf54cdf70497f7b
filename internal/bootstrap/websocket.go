package bootstrap

import (
	"context"

	"github.com/skyraal/humanaiconnection/config"
	"github.com/skyraal/humanaiconnection/internal/api/ws/hub"
	"github.com/skyraal/humanaiconnection/internal/game"
	"github.com/skyraal/humanaiconnection/internal/initializer"
)

type Hub interface {
	Serve(conn hub.Conn) error
	ClientCount() int
	Shutdown(ctx context.Context) error
}

func InitWebsocket(config config.Config, registry *game.Registry) Hub {
	return initializer.InitWebsocket(config, registry)
}
