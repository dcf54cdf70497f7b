package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/skyraal/humanaiconnection/domain"
	"go.uber.org/zap"
)

const messageTypeHeader = "message-type"

// ResultsProducer streams final room results, keyed by room code.
type ResultsProducer struct {
	writer *kafka.Writer
}

func NewResultsProducer(config KafkaConfig) (*ResultsProducer, error) {
	if len(config.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if config.Topic == "" {
		return nil, errors.New("kafka: no topic configured")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Topic:                  config.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            config.MaxRetries,
		BatchTimeout:           config.BatchTimeout,
		AllowAutoTopicCreation: true,
		Transport: &kafka.Transport{
			ClientID:    config.ClientID,
			DialTimeout: config.ConnectionTimeout,
		},
	}

	zap.L().Info("Kafka producer initialized",
		zap.Strings("brokers", config.Brokers),
		zap.String("topic", config.Topic))
	return &ResultsProducer{writer: writer}, nil
}

func (p *ResultsProducer) Name() string { return "kafka" }

// Save publishes final records only. Incremental records are skipped.
func (p *ResultsProducer) Save(ctx context.Context, record domain.ResultsExport) error {
	if !record.Final {
		return nil
	}
	msg, err := buildMessage(record)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish results of room %s: %w", record.RoomCode, err)
	}
	return nil
}

func buildMessage(record domain.ResultsExport) (kafka.Message, error) {
	value, err := json.Marshal(record)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal results: %w", err)
	}
	return kafka.Message{
		Key:   []byte(record.RoomCode),
		Value: value,
		Time:  record.Timestamp,
		Headers: []kafka.Header{
			{Key: messageTypeHeader, Value: []byte("room_results_final")},
		},
	}, nil
}

func (p *ResultsProducer) Close() error {
	return p.writer.Close()
}
