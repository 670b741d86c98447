// Package infrastructure contains infrastructure layer components
package infrastructure

import (
	"go.uber.org/fx"

	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/database"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/http"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/logger"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/metrics"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/telegram"
)

// Module provides all infrastructure components for fx dependency injection
var Module = fx.Module("infrastructure",
	logger.Module,
	metrics.Module,
	database.Module,
	telegram.Module,
	http.Module,
)
