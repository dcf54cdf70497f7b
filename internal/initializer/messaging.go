package initializer

import (
	"github.com/skyraal/humanaiconnection/config"
	"github.com/skyraal/humanaiconnection/infra/kafka"
	"go.uber.org/zap"
)

func InitMessaging(appConfig config.Config) *kafka.ResultsProducer {
	if !appConfig.Kafka.Enabled {
		return nil
	}

	kafkaConfig := kafka.NewDefaultConfig(appConfig.Kafka.Brokers)
	if appConfig.Kafka.Topic != "" {
		kafkaConfig.Topic = appConfig.Kafka.Topic
	}
	if appConfig.Kafka.ClientID != "" {
		kafkaConfig.ClientID = appConfig.Kafka.ClientID
	}

	producer, err := kafka.NewResultsProducer(kafkaConfig)
	if err != nil {
		zap.L().Error("Kafka results sink disabled", zap.Error(err))
		return nil
	}
	return producer
}
