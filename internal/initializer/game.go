package initializer

import (
	"github.com/skyraal/humanaiconnection/config"
	"github.com/skyraal/humanaiconnection/internal/deck"
	"github.com/skyraal/humanaiconnection/internal/export"
	"github.com/skyraal/humanaiconnection/internal/game"
	"go.uber.org/zap"
)

// InitDeck loads the configured deck file, falling back to the built-in deck.
func InitDeck(appConfig config.Config) *deck.Deck {
	path := appConfig.Game.DeckFile
	if path == "" {
		return deck.Default()
	}
	d, err := deck.Load(path)
	if err != nil {
		zap.L().Error("Failed to load deck file, using built-in deck", zap.String("path", path), zap.Error(err))
		return deck.Default()
	}
	zap.L().Info("Deck loaded", zap.String("path", path), zap.Int("cards", d.Len()))
	return d
}

func InitExporter(appConfig config.Config, sinks []export.Sink) *export.Dispatcher {
	dispatcher := export.NewDispatcher(sinks, appConfig.Game.ExportBuffer, appConfig.Game.ExportTimeout, zap.L().Named("export"))
	dispatcher.Start()
	return dispatcher
}

func InitRegistry(appConfig config.Config, d *deck.Deck, exporter game.Exporter) *game.Registry {
	return game.NewRegistry(game.RegistryConfig{
		MaxPlayers:        appConfig.Game.MaxPlayers,
		MaxRooms:          appConfig.Game.MaxRooms,
		InactivityTimeout: appConfig.Game.InactivityTimeout,
	}, d, nil, exporter, zap.L().Named("rooms"))
}
