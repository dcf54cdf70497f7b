package bootstrap

import (
	"github.com/skyraal/humanaiconnection/config"
	"github.com/skyraal/humanaiconnection/internal/initializer"
)

func SetupMessaging(config config.Config) ResultsSink {
	if producer := initializer.InitMessaging(config); producer != nil {
		return producer
	}
	return nil
}
