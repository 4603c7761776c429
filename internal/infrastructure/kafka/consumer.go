package kafka

import (
	"context"
	"log"

	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader messageReader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

// Consume delivers messages to handler until ctx is done. Handler errors are
// logged and the message is not retried.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("[Kafka] Error reading message: %v", err)
				continue
			}

			if err := handler(ctx, msg.Key, msg.Value); err != nil {
				log.Printf("[Kafka] Error handling message at offset %d: %v", msg.Offset, err)
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
