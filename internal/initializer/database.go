package initializer

import (
	"fmt"

	"github.com/skyraal/humanaiconnection/config"
	"github.com/skyraal/humanaiconnection/infra/postgres"
	"go.uber.org/zap"
)

// InitDatabase returns nil when the postgres sink is disabled or unreachable.
func InitDatabase(appConfig config.Config) *postgres.Repository {
	if !appConfig.Postgres.Enabled {
		return nil
	}
	connString := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		appConfig.Postgres.Host,
		appConfig.Postgres.Port,
		appConfig.Postgres.User,
		appConfig.Postgres.Password,
		appConfig.Postgres.DB,
	)

	repo, err := postgres.NewRepository(connString)
	if err != nil {
		zap.L().Error("Postgres results sink disabled", zap.Error(err))
		return nil
	}
	return repo
}
