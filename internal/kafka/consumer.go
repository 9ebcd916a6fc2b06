package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ayat-booking/internal/logger"
	"ayat-booking/internal/models"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
	Logger *logger.Logger
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, Logger: log}
}

// Start consumes booking-recorded messages until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, handler func(ctx context.Context, row models.SinkRow)) {
	topic := c.reader.Config().Topic
	c.Logger.LogKafka("CONSUME", topic, "Kafka consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.Logger.LogKafka("CONSUME", topic, "Kafka consumer stopped")
				return
			}
			c.Logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			continue
		}

		row, err := DecodeBookingRecorded(msg.Value)
		if err != nil {
			c.Logger.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal message at offset %d: %v", msg.Offset, err))
			continue
		}

		c.Logger.LogKafka("RECEIVED", topic, fmt.Sprintf("booking row %d for %s", row.ID, row.EventID))
		handler(ctx, row)
	}
}

func DecodeBookingRecorded(value []byte) (models.SinkRow, error) {
	var row models.SinkRow
	if err := json.Unmarshal(value, &row); err != nil {
		return models.SinkRow{}, err
	}
	if row.Email == "" {
		return models.SinkRow{}, fmt.Errorf("booking row %d has no email", row.ID)
	}
	return row, nil
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
