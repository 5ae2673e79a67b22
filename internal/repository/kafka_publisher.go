package repository

import (
	"context"
	"fmt"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/repository"
	"github.com/timur-ship-it/marketdata-dashboard/pkg/kafka"
	"github.com/timur-ship-it/marketdata-dashboard/pkg/util"
)

// KafkaPublisher implements Publisher by emitting one observation message per
// point, keyed by series id so downstream consumers see a series in order.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka-backed observation publisher.
func NewKafkaPublisher(producer *kafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// PublishSeries batches the whole series into one producer write.
func (p *KafkaPublisher) PublishSeries(ctx context.Context, series *models.TimeSeries, source string) error {
	if series.Empty() {
		return nil
	}

	key := []byte(series.ID)
	msgs := make([]kafka.Message, 0, series.Len())
	for _, pt := range series.Points {
		msgs = append(msgs, kafka.Message{
			Key: key,
			Value: models.Observation{
				Series: series.ID,
				Date:   util.FormatDay(pt.Date),
				Value:  pt.Value,
				Source: source,
			},
		})
	}

	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("publish series %s: %w", series.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
