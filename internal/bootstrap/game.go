package bootstrap

import (
	"context"
	"time"

	"github.com/skyraal/humanaiconnection/config"
	"github.com/skyraal/humanaiconnection/domain"
	"github.com/skyraal/humanaiconnection/internal/deck"
	"github.com/skyraal/humanaiconnection/internal/export"
	"github.com/skyraal/humanaiconnection/internal/game"
	"github.com/skyraal/humanaiconnection/internal/initializer"
)

type Exporter interface {
	Export(record domain.ResultsExport)
	Close()
}

type Rooms interface {
	CreateRoom(hostID, username string) (*game.Coordinator, error)
	GetRoom(code string) (*game.Coordinator, error)
	RunSweeper(ctx context.Context, interval time.Duration)
	Close()
}

func SetupExporter(config config.Config, sinks []ResultsSink) Exporter {
	exportSinks := make([]export.Sink, 0, len(sinks))
	for _, s := range sinks {
		exportSinks = append(exportSinks, s)
	}
	return initializer.InitExporter(config, exportSinks)
}

func SetupRegistry(config config.Config, d *deck.Deck, exporter Exporter) *game.Registry {
	return initializer.InitRegistry(config, d, exporter)
}
