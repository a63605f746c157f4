package kafka

//go:generate go run go.uber.org/mock/mockgen -source=./kafka.go -destination=./mocks/kafka_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"messbook/config"
	"messbook/infras/otel"
	"messbook/shared/constant"
	"time"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

const writeTimeout = 5 * time.Second

type Message struct {
	Key   string
	Value any
}

func (m *Message) ToKafkaMessage() (kafkaGo.Message, error) {
	jsonValue, err := json.Marshal(m.Value)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal message value to JSON")

		return kafkaGo.Message{}, fmt.Errorf("failed to marshal message value to JSON: %w", err)
	}

	return kafkaGo.Message{
		Key:   []byte(m.Key),
		Value: jsonValue,
	}, nil
}

// Publisher writes messages to the configured booking topic.
type Publisher interface {
	Publish(ctx context.Context, messages ...Message) error
	Close() error
}

type publisherImpl struct {
	writer *kafkaGo.Writer
	otel   otel.Otel
}

func New(cfg *config.Config, otl otel.Otel) Publisher {
	if !cfg.Kafka.Enable {
		log.Info().Msg("Kafka disabled, booking events will be dropped")

		return &noopPublisher{}
	}

	var transport *kafkaGo.Transport
	if cfg.Kafka.SASL.Username != "" {
		transport = &kafkaGo.Transport{
			SASL: plain.Mechanism{
				Username: cfg.Kafka.SASL.Username,
				Password: cfg.Kafka.SASL.Password,
			},
		}
	}

	writer := &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(cfg.Kafka.Brokers...),
		Topic:                  cfg.Kafka.BookingTopic,
		Balancer:               &kafkaGo.Hash{},
		RequiredAcks:           kafkaGo.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           writeTimeout,
	}
	if transport != nil {
		writer.Transport = transport
	}

	log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.BookingTopic).Msg("Kafka publisher initialized")

	return &publisherImpl{writer: writer, otel: otl}
}

func (p *publisherImpl) Publish(ctx context.Context, messages ...Message) (err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".Publish")
	defer scope.End()
	defer scope.TraceIfError(err)

	msgs := make([]kafkaGo.Message, 0, len(messages))

	for _, message := range messages {
		msg, err := message.ToKafkaMessage()
		if err != nil {
			return fmt.Errorf("failed to convert message to Kafka message: %w", err)
		}

		msgs = append(msgs, msg)
	}

	err = p.writer.WriteMessages(ctx, msgs...)
	if err != nil {
		log.Error().Err(err).Str("topic", p.writer.Topic).Msg("Failed to send message to Kafka.")

		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	log.Debug().Str("topic", p.writer.Topic).Int("count", len(msgs)).Msg("Sent message successfully.")

	return nil
}

func (p *publisherImpl) Close() error {
	return p.writer.Close() //nolint:wrapcheck
}

type noopPublisher struct{}

func (n *noopPublisher) Publish(_ context.Context, messages ...Message) error {
	for _, message := range messages {
		log.Debug().Str("key", message.Key).Msg("Kafka disabled, dropping message")
	}

	return nil
}

func (n *noopPublisher) Close() error {
	return nil
}
