package bootstrap

import (
	"github.com/skyraal/humanaiconnection/config"
	"github.com/skyraal/humanaiconnection/internal/initializer"
)

func InitResultsRedis(config config.Config) ResultsSink {
	if manager := initializer.InitResultsRedis(config); manager != nil {
		return manager
	}
	return nil
}
