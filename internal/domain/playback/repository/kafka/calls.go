// Package kafka contains the call transport that talks to the streaming engine over Kafka
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ahmadraza76/Rolavibe/config"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/consts"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/dto"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/entities"
)

// CallProducer implements deps.CallTransport by publishing call commands
type CallProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewCallProducer creates a Kafka producer for call commands
func NewCallProducer(cfg *config.KafkaConfig, logger zerolog.Logger) (*CallProducer, error) {
	brokers := cfg.Brokers
	if len(brokers) == 0 {
		brokers = []string{"localhost:9093"}
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Timeout = 10 * time.Second
	// commands for one chat must stay ordered
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	saramaConfig.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Info().Strs("brokers", brokers).Str("topic", cfg.TopicCallCommands).Msg("Call command producer initialized successfully")

	return newCallProducer(producer, cfg.TopicCallCommands, logger), nil
}

func newCallProducer(producer sarama.SyncProducer, topic string, logger zerolog.Logger) *CallProducer {
	return &CallProducer{
		producer: producer,
		topic:    topic,
		logger:   logger.With().Str("component", "call-producer").Logger(),
	}
}

// JoinCall implements deps.CallTransport
func (p *CallProducer) JoinCall(ctx context.Context, chatID int64, item entities.QueueItem) error {
	return p.send(ctx, consts.ActionJoin, chatID, item)
}

// PlayNext implements deps.CallTransport
func (p *CallProducer) PlayNext(ctx context.Context, chatID int64, item entities.QueueItem) error {
	return p.send(ctx, consts.ActionPlay, chatID, item)
}

// LeaveCall implements deps.CallTransport
func (p *CallProducer) LeaveCall(ctx context.Context, chatID int64) error {
	return p.send(ctx, consts.ActionLeave, chatID, entities.QueueItem{})
}

// Pause implements deps.CallTransport
func (p *CallProducer) Pause(ctx context.Context, chatID int64) error {
	return p.send(ctx, consts.ActionPause, chatID, entities.QueueItem{})
}

// Resume implements deps.CallTransport
func (p *CallProducer) Resume(ctx context.Context, chatID int64) error {
	return p.send(ctx, consts.ActionResume, chatID, entities.QueueItem{})
}

func (p *CallProducer) send(ctx context.Context, action string, chatID int64, item entities.QueueItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event := dto.CallCommandEvent{
		RequestID: uuid.New().String(),
		Action:    action,
		ChatID:    chatID,
		StreamURL: item.StreamURL,
		Kind:      string(item.Kind),
		IssuedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal call command: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(chatID, 10)),
		Value: sarama.ByteEncoder(jsonData),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.logger.Error().Err(err).Str("action", action).Int64("chat_id", chatID).Msg("Failed to send call command")
		return fmt.Errorf("failed to send %s command: %w", action, err)
	}

	p.logger.Info().
		Str("request_id", event.RequestID).
		Str("action", action).
		Int64("chat_id", chatID).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Call command sent")

	return nil
}

// Close closes the Kafka producer
func (p *CallProducer) Close() error {
	if p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		p.logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	p.logger.Info().Msg("Kafka producer closed successfully")
	return nil
}
