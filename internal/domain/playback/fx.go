// Package playback contains the playback domain module
package playback

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/ahmadraza76/Rolavibe/config"
	kafkaDelivery "github.com/ahmadraza76/Rolavibe/internal/domain/playback/delivery/kafka"
	telegramDelivery "github.com/ahmadraza76/Rolavibe/internal/domain/playback/delivery/telegram"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/deps"
	kafkaRepo "github.com/ahmadraza76/Rolavibe/internal/domain/playback/repository/kafka"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/repository/resolver"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/repository/statestore"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/usecase/access"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/usecase/buissines"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/usecase/session"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/workers"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/metrics"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/telegram"
)

// Resolver throughput towards YouTube
const (
	resolveRate  = rate.Limit(2)
	resolveBurst = 4
)

// Module provides playback domain components for fx dependency injection
var Module = fx.Module("playback",
	// Repository
	fx.Provide(provideStateStore),
	fx.Provide(provideCallTransport),
	fx.Provide(provideResolver),

	// UseCase
	fx.Provide(session.NewManager),
	fx.Provide(
		func(m *session.Manager) deps.StateSource { return m },
		func(m *session.Manager) deps.PlaybackEvents { return m },
		func(s *statestore.Store) deps.StateStore { return s },
	),
	fx.Provide(provideGate),
	fx.Provide(buissines.NewUseCase),

	// Delivery - Telegram (needs raw bot from infrastructure)
	fx.Provide(provideTelegramHandlers),
	fx.Provide(telegramDelivery.NewRouter),

	// Delivery - Kafka
	fx.Provide(kafkaDelivery.NewHandlers),

	// Workers
	workers.Module,

	fx.Invoke(wireAndRegister),
)

// provideStateStore picks the document backend selected by STATE_BACKEND
func provideStateStore(cfg *config.StateConfig, db *gorm.DB, logger zerolog.Logger) *statestore.Store {
	var backend statestore.Backend
	switch cfg.Backend {
	case config.StateBackendPostgres:
		backend = statestore.NewGormBackend(db)
	default:
		backend = statestore.NewFileBackend(cfg.Dir)
	}

	logger.Info().Str("backend", cfg.Backend).Msg("State store configured")
	return statestore.NewStore(backend, logger)
}

// provideCallTransport creates the Kafka link to the streaming engine
func provideCallTransport(lc fx.Lifecycle, cfg *config.KafkaConfig, logger zerolog.Logger) (deps.CallTransport, error) {
	producer, err := kafkaRepo.NewCallProducer(cfg, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return producer.Close()
		},
	})

	return producer, nil
}

// provideResolver chains YouTube Music metadata, native search and a yt-dlp search fallback
func provideResolver(m *metrics.Metrics, logger zerolog.Logger) deps.MediaResolver {
	return resolver.NewResolver(
		resolver.MusicLookup{},
		resolver.YtdlpExtractor{},
		rate.NewLimiter(resolveRate, resolveBurst),
		m,
		logger,
		resolver.NativeSearch{},
		resolver.YtdlpSearch{Limit: 1},
	)
}

// provideGate wires the bot as membership checker and the session manager as maintenance source
func provideGate(
	owner *config.OwnerConfig,
	store *statestore.Store,
	bot *telegram.Bot,
	sessions *session.Manager,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *access.Gate {
	return access.NewGate(owner, store, bot, sessions, m, logger)
}

// provideTelegramHandlers creates Telegram handlers with raw bot
func provideTelegramHandlers(uc *buissines.UseCase, bot *telegram.Bot, logger zerolog.Logger) *telegramDelivery.Handlers {
	return telegramDelivery.NewHandlers(uc, bot.Raw(), logger)
}

// wireAndRegister opens the command routes before polling starts and holds
// their execution until persisted state is restored, then starts the workers
func wireAndRegister(
	lc fx.Lifecycle,
	sessions *session.Manager,
	store *statestore.Store,
	handlers *telegramDelivery.Handlers,
	router *telegramDelivery.Router,
	bot *telegram.Bot,
	consumer *workers.PlaybackConsumer,
	flusher *workers.Flusher,
) {
	router.RegisterRoutes(bot.Raw())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sessions.Restore(ctx, store.Load(ctx))
			handlers.MarkReady()

			flusher.Start()
			consumer.Start()

			router.PublishMenu(ctx, bot)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// consumer first so no event lands after the final flush
			consumerErr := consumer.Stop()
			flushErr := flusher.Stop(ctx)
			return errors.Join(consumerErr, flushErr)
		},
	})
}
