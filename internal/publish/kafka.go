package publish

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"

	"abewatch/internal/config"
	"abewatch/internal/model"
)

// Kafka publishes confirmed repost events as JSON, keyed by guild so
// per-guild ordering survives partitioning.
type Kafka struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewKafka(cfg config.KafkaConfig, logger *slog.Logger) *Kafka {
	if !cfg.Enabled {
		if logger != nil {
			logger.Info("kafka publisher disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("kafka publisher enabled", "brokers", cfg.Brokers, "topic", cfg.Topic)
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Kafka{writer: writer, logger: logger}
}

func (k *Kafka) PublishRepost(ctx context.Context, ev model.RepostEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.GuildID, 10)),
		Value: value,
	}
	return k.writer.WriteMessages(ctx, msg)
}

func (k *Kafka) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
