package repository

import (
	"context"
	"fmt"
	"time"

	"StratForge/internal/domain/models"
	domrepo "StratForge/internal/domain/repository"
	pkgkafka "StratForge/pkg/kafka"
)

// featureRowMessage is the wire form of one computed feature value.
type featureRowMessage struct {
	RunID     string    `json:"run_id"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"tf"`
	Bucket    time.Time `json:"bucket"`
	FeatureID string    `json:"feature_id"`
	Value     float64   `json:"value"`
}

// KafkaFeaturePublisher streams computed feature rows to a topic, keyed by
// symbol so consumers see one symbol's rows in order.
type KafkaFeaturePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaFeaturePublisher(p *pkgkafka.Producer, topic string) *KafkaFeaturePublisher {
	return &KafkaFeaturePublisher{producer: p, topic: topic}
}

func (p *KafkaFeaturePublisher) PublishTable(ctx context.Context, runID, symbol string, t *models.FeatureTable) error {
	msgs := make([]pkgkafka.Message, 0, 256)
	for _, col := range t.Columns {
		for i, v := range col.Values {
			row := featureRowMessage{
				RunID:     runID,
				Symbol:    symbol,
				Timeframe: col.Timeframe,
				Bucket:    col.Times[i],
				FeatureID: col.FeatureID,
				Value:     v,
			}
			msgs = append(msgs, pkgkafka.Message{Key: []byte(symbol), Value: row})
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("publish feature rows: %w", err)
	}
	return nil
}

func (p *KafkaFeaturePublisher) Close() error {
	return p.producer.Close()
}

var _ domrepo.FeaturePublisher = (*KafkaFeaturePublisher)(nil)
