package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skyraal/humanaiconnection/domain"
	"go.uber.org/zap"
)

// ResultsChannel carries every results record as it is cached.
const ResultsChannel = "room-results"

// ResultsManager caches the latest results record of each room and
// announces it on ResultsChannel.
type ResultsManager struct {
	client *redis.Client
	ttl    time.Duration
}

// PubSubMessage is the payload published on ResultsChannel.
type PubSubMessage struct {
	Type      string               `json:"type"`
	RoomCode  string               `json:"roomCode"`
	Data      domain.ResultsExport `json:"data"`
	Timestamp time.Time            `json:"timestamp"`
}

func NewResultsManager(redisAddr string, password string, db int, ttl time.Duration) (*ResultsManager, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", redisAddr, err)
	}
	zap.L().Info("Connected to Redis successfully", zap.String("addr", redisAddr))

	return &ResultsManager{client: rdb, ttl: ttl}, nil
}

// ResultsKey is where the latest record of a room is cached.
func ResultsKey(code string) string {
	return fmt.Sprintf("room:%s:results", code)
}

func messageType(rec domain.ResultsExport) string {
	if rec.Final {
		return "results_final"
	}
	return "results_updated"
}

func (rm *ResultsManager) Name() string { return "redis" }

func (rm *ResultsManager) Save(ctx context.Context, record domain.ResultsExport) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	msg, err := json.Marshal(PubSubMessage{
		Type:      messageType(record),
		RoomCode:  record.RoomCode,
		Data:      record,
		Timestamp: record.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal results message: %w", err)
	}

	pipe := rm.client.TxPipeline()
	pipe.Set(ctx, ResultsKey(record.RoomCode), payload, rm.ttl)
	pipe.Publish(ctx, ResultsChannel, msg)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache results of room %s: %w", record.RoomCode, err)
	}
	return nil
}

func (rm *ResultsManager) Close() error {
	return rm.client.Close()
}
