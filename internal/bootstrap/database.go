package bootstrap

import (
	"github.com/skyraal/humanaiconnection/config"
	"github.com/skyraal/humanaiconnection/internal/export"
	"github.com/skyraal/humanaiconnection/internal/initializer"
)

// ResultsSink is a results destination the app has to close on shutdown.
type ResultsSink interface {
	export.Sink
	Close() error
}

func InitDatabase(config config.Config) ResultsSink {
	if repo := initializer.InitDatabase(config); repo != nil {
		return repo
	}
	return nil
}
