package kafka

import "time"

type KafkaConfig struct {
	Brokers           []string
	Topic             string
	ClientID          string
	MaxRetries        int
	BatchTimeout      time.Duration
	ConnectionTimeout time.Duration
}

func NewDefaultConfig(kafkaBrokers []string) KafkaConfig {
	if len(kafkaBrokers) == 0 {
		kafkaBrokers = []string{"localhost:9092"}
	}

	return KafkaConfig{
		Brokers:           kafkaBrokers,
		Topic:             "room-results",
		ClientID:          "room-coordinator",
		MaxRetries:        3,
		BatchTimeout:      50 * time.Millisecond,
		ConnectionTimeout: 10 * time.Second,
	}
}
