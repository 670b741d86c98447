// Package kafka contains Kafka delivery handlers
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/deps"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/dto"
	playbackerrors "github.com/ahmadraza76/Rolavibe/internal/domain/playback/errors"
)

// Handlers contains Kafka message handlers
type Handlers struct {
	sessions deps.PlaybackEvents
	logger   zerolog.Logger
}

// NewHandlers creates new Kafka handlers
func NewHandlers(sessions deps.PlaybackEvents, logger zerolog.Logger) *Handlers {
	return &Handlers{
		sessions: sessions,
		logger:   logger.With().Str("component", "playback-events").Logger(),
	}
}

// HandlePlaybackFinished advances the chat queue when the engine reports the
// end of the stream that is currently at its head. Events for any other
// stream are stale and dropped by the session manager.
func (h *Handlers) HandlePlaybackFinished(ctx context.Context, data []byte) error {
	var event dto.PlaybackFinishedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error().Err(err).Str("data", string(data)).Msg("Failed to unmarshal playback finished event")
		return err
	}

	if event.ChatID == 0 {
		return fmt.Errorf("playback finished event without chat_id")
	}

	err := h.sessions.OnPlaybackFinished(ctx, event.ChatID, event.StreamURL)
	switch {
	case errors.Is(err, playbackerrors.ErrNothingPlaying):
		h.logger.Debug().Int64("chat_id", event.ChatID).Msg("Playback finished for idle chat")
	case errors.Is(err, playbackerrors.ErrStalePlaybackEvent):
		h.logger.Debug().
			Int64("chat_id", event.ChatID).
			Str("stream_url", event.StreamURL).
			Msg("Ignoring stale playback finished event")
	case err != nil:
		return err
	default:
		h.logger.Info().
			Int64("chat_id", event.ChatID).
			Str("stream_url", event.StreamURL).
			Msg("Playback finished")
	}
	return nil
}
