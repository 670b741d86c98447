package logger

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/ahmadraza76/Rolavibe/config"
)

// Module provides logger for fx DI
var Module = fx.Module("logger",
	fx.Provide(NewLogger),
)

// NewLogger creates a new logger from config and closes the log file on stop
func NewLogger(lc fx.Lifecycle, cfg *config.LoggingConfig) (zerolog.Logger, error) {
	logger, closer, err := New(cfg.Level, cfg.File)
	if err != nil {
		return zerolog.Logger{}, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return closer.Close()
		},
	})

	return logger, nil
}
