package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/skyraal/humanaiconnection/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig(nil)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, "room-results", cfg.Topic)

	cfg = NewDefaultConfig([]string{"kafka:9092"})
	assert.Equal(t, []string{"kafka:9092"}, cfg.Brokers)
}

func TestNewResultsProducerValidates(t *testing.T) {
	_, err := NewResultsProducer(KafkaConfig{Topic: "room-results"})
	assert.Error(t, err)
	_, err = NewResultsProducer(KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := domain.ResultsExport{RoomCode: "ABC123", Host: "Ava", Players: []string{"Ava", "Ben"}, Timestamp: ts, Final: true}

	msg, err := buildMessage(rec)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABC123"), msg.Key)
	assert.Equal(t, ts, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, messageTypeHeader, msg.Headers[0].Key)

	var decoded domain.ResultsExport
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "ABC123", decoded.RoomCode)
	assert.True(t, decoded.Final)
}

func TestSaveSkipsIncrementalRecords(t *testing.T) {
	// the writer is never touched for incremental records
	p := &ResultsProducer{}
	assert.NoError(t, p.Save(context.Background(), domain.ResultsExport{RoomCode: "ABC123"}))
}
