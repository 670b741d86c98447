package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ahmadraza76/Rolavibe/config"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/deps"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/metrics"
)

const (
	defaultFlushInterval = 120 * time.Second
	defaultFlushTimeout  = 10 * time.Second
)

// Flusher writes session snapshots to the state store on a fixed interval
// and after every mutation. A failed flush is logged and retried on the next tick.
type Flusher struct {
	source   deps.StateSource
	store    deps.StateStore
	interval time.Duration
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewFlusher creates a state flusher
func NewFlusher(source deps.StateSource, store deps.StateStore, cfg *config.StateConfig, m *metrics.Metrics, logger zerolog.Logger) *Flusher {
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	timeout := cfg.FlushTimeout
	if timeout <= 0 {
		timeout = defaultFlushTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Flusher{
		source:   source,
		store:    store,
		interval: interval,
		timeout:  timeout,
		metrics:  m,
		logger:   logger.With().Str("component", "state-flusher").Logger(),
		ctx:      ctx,
		cancel:   cancel,
		stopped:  make(chan struct{}),
	}
}

// Start runs the flush loop in the background
func (f *Flusher) Start() {
	f.logger.Info().Dur("interval", f.interval).Msg("Starting state flusher...")

	go func() {
		defer close(f.stopped)

		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-f.ctx.Done():
				return
			case <-ticker.C:
				_ = f.Flush(f.ctx)
			case <-f.source.Dirty():
				_ = f.Flush(f.ctx)
			}
		}
	}()
}

// Stop ends the loop and performs the final flush
func (f *Flusher) Stop(ctx context.Context) error {
	f.logger.Info().Msg("Stopping state flusher...")
	f.cancel()

	select {
	case <-f.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := f.Flush(ctx); err != nil {
		return err
	}

	f.logger.Info().Msg("State flusher stopped, final state saved")
	return nil
}

// Flush saves one snapshot within the flush timeout. Panics in the store are contained.
func (f *Flusher) Flush(ctx context.Context) (err error) {
	// a cancelled loop context must not abort the final flush
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("state flush panicked: %v", r)
		}
		f.metrics.FlushDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			f.metrics.FlushErrors.Inc()
			f.logger.Error().Err(err).Msg("State flush failed")
		}
	}()

	snapshot := f.source.Snapshot()
	if err = f.store.Save(flushCtx, snapshot); err != nil {
		return err
	}

	f.logger.Debug().
		Int("sessions", len(snapshot.Sessions)).
		Bool("maintenance", snapshot.MaintenanceMode).
		Dur("took", time.Since(start)).
		Msg("State flushed")
	return nil
}
