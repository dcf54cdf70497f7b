package initializer

import (
	"fmt"

	"github.com/skyraal/humanaiconnection/config"
	"github.com/skyraal/humanaiconnection/infra/redis"
	"go.uber.org/zap"
)

func InitResultsRedis(appConfig config.Config) *redis.ResultsManager {
	if !appConfig.Redis.Enabled {
		return nil
	}
	address := fmt.Sprintf("%s:%s", appConfig.Redis.Host, appConfig.Redis.Port)

	manager, err := redis.NewResultsManager(address, appConfig.Redis.Password, appConfig.Redis.DB, appConfig.Redis.ResultsTTL)
	if err != nil {
		zap.L().Error("Redis results sink disabled", zap.String("address", address), zap.Error(err))
		return nil
	}
	return manager
}
