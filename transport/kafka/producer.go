package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/YoonKyungHan/baseball/internal/entity"
)

// Producer streams finished matches and user events to kafka for consumers
// outside the game server.
type Producer struct {
	logger     *slog.Logger
	gameWriter *kafkago.Writer
	userWriter *kafkago.Writer
}

func NewProducer(logger *slog.Logger, brokers []string, gameTopic, userTopic string) *Producer {
	return &Producer{
		logger:     logger.With("component", "kafka"),
		gameWriter: newWriter(brokers, gameTopic),
		userWriter: newWriter(brokers, userTopic),
	}
}

func newWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func (that *Producer) PublishGameEnded(ctx context.Context, record *entity.MatchRecord) error {
	return that.publish(ctx, that.gameWriter, "gameEnded", record)
}

func (that *Producer) PublishUserEvent(ctx context.Context, record *entity.UserRecord) error {
	return that.publish(ctx, that.userWriter, record.Event, record)
}

func (that *Producer) publish(ctx context.Context, writer *kafkago.Writer, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		return fmt.Errorf("failed to write event to %q: %w", writer.Topic, err)
	}

	return nil
}

func (that *Producer) Close() {
	if err := that.gameWriter.Close(); err != nil {
		that.logger.Error("failed to close game writer", "error", err)
	}
	if err := that.userWriter.Close(); err != nil {
		that.logger.Error("failed to close user writer", "error", err)
	}
}
