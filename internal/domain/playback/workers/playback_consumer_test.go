package workers

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadraza76/Rolavibe/config"
	kafkaHandlers "github.com/ahmadraza76/Rolavibe/internal/domain/playback/delivery/kafka"
)

func TestPlaybackConsumer_StopWithoutStart(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:               []string{"127.0.0.1:1"},
		GroupID:               "test",
		TopicPlaybackFinished: "calls.playback_finished",
	}
	consumer := NewPlaybackConsumer(cfg, kafkaHandlers.NewHandlers(nil, zerolog.Nop()), zerolog.Nop())

	assert.NoError(t, consumer.Stop())
}

func TestPlaybackConsumer_StopUnblocksReader(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:               []string{"127.0.0.1:1"},
		GroupID:               "test",
		TopicPlaybackFinished: "calls.playback_finished",
	}
	consumer := NewPlaybackConsumer(cfg, kafkaHandlers.NewHandlers(nil, zerolog.Nop()), zerolog.Nop())

	consumer.Start()
	time.Sleep(50 * time.Millisecond)

	stopped := make(chan error, 1)
	go func() { stopped <- consumer.Stop() }()

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
