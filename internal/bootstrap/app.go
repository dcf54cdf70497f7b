package bootstrap

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/skyraal/humanaiconnection/config"
	"github.com/skyraal/humanaiconnection/internal/initializer"
	"github.com/skyraal/humanaiconnection/internal/server"
	"github.com/skyraal/humanaiconnection/pkg/graceful"
	"go.uber.org/zap"
)

type App struct {
	config       config.Config
	sinks        []ResultsSink
	exporter     Exporter
	rooms        Rooms
	hub          Hub
	fiberApp     *fiber.App
	httpHandlers map[string]interface{}
	wsHandlers   map[string]interface{}
}

func NewApp(config config.Config) *App {
	app := &App{
		config: config,
	}
	app.initDependencies()
	return app
}

func (a *App) initDependencies() {
	for _, sink := range []ResultsSink{InitDatabase(a.config), InitResultsRedis(a.config), SetupMessaging(a.config)} {
		if sink != nil {
			a.sinks = append(a.sinks, sink)
		}
	}
	a.exporter = SetupExporter(a.config, a.sinks)

	registry := SetupRegistry(a.config, initializer.InitDeck(a.config), a.exporter)
	a.rooms = registry
	a.hub = InitWebsocket(a.config, registry)

	a.httpHandlers = SetupHTTPHandlers(a.rooms)
	a.wsHandlers = SetupWSHandlers(a.hub)
	a.fiberApp = SetupServer(a.config, a.httpHandlers, a.wsHandlers)
}

func (a *App) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if interval := a.config.Game.SweepInterval; interval > 0 {
		go a.rooms.RunSweeper(ctx, interval)
	}

	go func() {
		if err := server.Start(a.fiberApp, a.config.Server.Port); err != nil {
			zap.L().Error("Failed to start server", zap.Error(err))
			cancel()
		}
	}()

	zap.L().Info("Server started on port",
		zap.String("port", a.config.Server.Port),
		zap.Int("results sinks", len(a.sinks)))

	defer a.shutdown()

	graceful.WaitForShutdown(a.fiberApp, a.config.Server.ShutdownTimeout, ctx)
}

// shutdown closes connections before rooms, and rooms before the exporter so
// in-flight results still reach the sinks.
func (a *App) shutdown() {
	timeout := a.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.hub.Shutdown(ctx); err != nil {
		zap.L().Warn("Websocket clients did not close in time", zap.Int("clients", a.hub.ClientCount()), zap.Error(err))
	}
	a.rooms.Close()
	a.exporter.Close()

	for _, sink := range a.sinks {
		if err := sink.Close(); err != nil {
			zap.L().Error("Failed to close results sink", zap.String("sink", sink.Name()), zap.Error(err))
		}
	}
}
