// Package app contains application bootstrap
package app

import (
	"go.uber.org/fx"

	"github.com/ahmadraza76/Rolavibe/config"
	"github.com/ahmadraza76/Rolavibe/internal/domain"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure"
)

// CreateApp creates fx application with all modules
func CreateApp() fx.Option {
	return fx.Options(
		// Configuration
		fx.Provide(config.Out),

		// Infrastructure (logger, metrics, database, telegram bot, http)
		infrastructure.Module,

		// Domain (playback)
		domain.Module,
	)
}
