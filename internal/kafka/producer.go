package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer      MessageWriter
	TopicPrefix string
	Logger      *logger.Logger
}

// NewProducer writes to any topic; each message names its own.
func NewProducer(brokers []string, topicPrefix string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, TopicPrefix: topicPrefix, Logger: log}
}

// Topic maps an event type to its topic, e.g. "ticketing.booking.created".
func (p *Producer) Topic(eventType string) string {
	if p.TopicPrefix == "" {
		return eventType
	}
	return p.TopicPrefix + "." + eventType
}

// Topics lists every booking topic the service writes to.
func (p *Producer) Topics() []string {
	return []string{
		p.Topic(models.BookingCreated),
		p.Topic(models.BookingRevoked),
		p.Topic(models.BookingEdited),
	}
}

// PublishBookingEvent streams a committed booking change, keyed by the
// transaction id so one transaction's events stay ordered.
func (p *Producer) PublishBookingEvent(ctx context.Context, event models.BookingEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}

	topic := p.Topic(event.Type)
	p.Logger.LogKafka("PUBLISH", topic, string(msgBytes))

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(strconv.FormatInt(event.BookedTicketTransactionID, 10)),
		Value: msgBytes,
	})
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
