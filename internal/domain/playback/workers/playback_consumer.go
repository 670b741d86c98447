// Package workers contains background workers for the playback domain
package workers

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/ahmadraza76/Rolavibe/config"
	kafkaHandlers "github.com/ahmadraza76/Rolavibe/internal/domain/playback/delivery/kafka"
)

// PlaybackConsumer consumes playback finished events from the streaming engine
type PlaybackConsumer struct {
	reader   *kafka.Reader
	handlers *kafkaHandlers.Handlers
	logger   zerolog.Logger
	done     chan struct{}
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewPlaybackConsumer creates new Kafka consumer for playback finished events
func NewPlaybackConsumer(cfg *config.KafkaConfig, handlers *kafkaHandlers.Handlers, logger zerolog.Logger) *PlaybackConsumer {
	brokers := cfg.Brokers
	if len(brokers) == 0 {
		brokers = []string{"localhost:9093"}
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.TopicPlaybackFinished,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	logger = logger.With().Str("component", "playback-consumer").Logger()
	logger.Info().
		Strs("brokers", brokers).
		Str("group_id", cfg.GroupID).
		Str("topic", cfg.TopicPlaybackFinished).
		Msg("Kafka playback consumer initialized")

	ctx, cancel := context.WithCancel(context.Background())

	return &PlaybackConsumer{
		reader:   reader,
		handlers: handlers,
		logger:   logger,
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts consuming messages from Kafka
func (c *PlaybackConsumer) Start() {
	c.logger.Info().Msg("Starting Kafka playback consumer...")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.done:
				return
			case <-c.ctx.Done():
				return
			default:
				msg, err := c.reader.ReadMessage(c.ctx)
				if err != nil {
					if c.ctx.Err() != nil {
						return
					}
					c.logger.Error().Err(err).Msg("Failed to read message from Kafka")
					continue
				}

				c.logger.Debug().
					Str("topic", msg.Topic).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("Received message from Kafka")

				if err := c.handlers.HandlePlaybackFinished(c.ctx, msg.Value); err != nil {
					c.logger.Error().Err(err).Msg("Failed to handle playback finished event")
				}
			}
		}
	}()
}

// Stop stops the consumer gracefully
func (c *PlaybackConsumer) Stop() error {
	c.logger.Info().Msg("Stopping Kafka playback consumer...")
	c.cancel()
	close(c.done)
	// an in-flight event finishes before the reader goes away
	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Failed to close Kafka reader")
		return err
	}

	c.logger.Info().Msg("Kafka playback consumer stopped successfully")
	return nil
}
