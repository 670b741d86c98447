// Package domain contains all domain modules
package domain

import (
	"go.uber.org/fx"

	"github.com/ahmadraza76/Rolavibe/internal/domain/playback"
)

// Module aggregates all domain modules for fx dependency injection
var Module = fx.Module("domain",
	playback.Module,
)
