package kafka_test

import (
	"context"
	"messbook/config"
	"messbook/infras/kafka"
	"messbook/infras/otel/mocks"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_ToKafkaMessage(t *testing.T) {
	message := kafka.Message{
		Key:   "order-1",
		Value: map[string]string{"type": "booking.confirmed"},
	}

	msg, err := message.ToKafkaMessage()
	require.NoError(t, err)
	assert.Equal(t, []byte("order-1"), msg.Key)
	assert.JSONEq(t, `{"type":"booking.confirmed"}`, string(msg.Value))

	bad := kafka.Message{Key: "order-1", Value: make(chan int)}
	_, err = bad.ToKafkaMessage()
	assert.Error(t, err)
}

func TestNew_DisabledPublisherDropsMessages(t *testing.T) {
	cfg := &config.Config{}

	publisher := kafka.New(cfg, mocks.NewOtel())

	assert.NoError(t, publisher.Publish(context.Background(), kafka.Message{Key: "order-1", Value: "x"}))
	assert.NoError(t, publisher.Close())
}
