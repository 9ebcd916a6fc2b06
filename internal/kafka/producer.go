package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"ayat-booking/internal/logger"
	"ayat-booking/internal/models"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	Writer *kafka.Writer
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer, Logger: log}
}

// PublishBookingRecorded streams a stored booking so the notifier can
// email the visitor.
func (p *Producer) PublishBookingRecorded(ctx context.Context, row models.SinkRow) error {
	msgBytes, err := json.Marshal(row)
	if err != nil {
		return err
	}

	p.Logger.LogKafka("PUBLISH", p.Writer.Topic, fmt.Sprintf("booking row %d for %s", row.ID, row.EventID))

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(strconv.FormatInt(row.ID, 10)),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
