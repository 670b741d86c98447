package workers

import "go.uber.org/fx"

// Module provides workers for fx dependency injection.
// Their lifecycle is driven by the playback module so that they start after state restore.
var Module = fx.Module("playback-workers",
	fx.Provide(NewPlaybackConsumer),
	fx.Provide(NewFlusher),
)
