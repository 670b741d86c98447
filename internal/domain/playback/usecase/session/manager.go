// Package session owns the per-chat playback sessions and their queues
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ahmadraza76/Rolavibe/config"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/deps"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/entities"
	playbackerrors "github.com/ahmadraza76/Rolavibe/internal/domain/playback/errors"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/metrics"
)

const defaultCallTimeout = 15 * time.Second

// EnqueueResult describes where an enqueued item landed
type EnqueueResult struct {
	// Position is the index in the queue, 0 means the item is playing now
	Position int
	// Started is true when the enqueue opened the call
	Started bool
}

// headState is the outcome of removing the head of a queue
type headState int

const (
	headNext      headState = iota // queue has a new head
	headExhausted                  // queue emptied, session removed
	headGone                       // session was stopped or replaced concurrently
	headStale                      // head is not the stream the caller expected
)

// Manager owns GlobalState. Every mutation happens under mu, and mu is never
// held across a call transport request.
type Manager struct {
	mu    sync.Mutex
	state entities.GlobalState

	calls       deps.CallTransport
	callTimeout time.Duration
	dirty       chan struct{}
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewManager creates a session manager with an empty state
func NewManager(calls deps.CallTransport, cfg *config.PlaybackConfig, m *metrics.Metrics, logger zerolog.Logger) *Manager {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	return &Manager{
		state:       entities.NewGlobalState(),
		calls:       calls,
		callTimeout: timeout,
		dirty:       make(chan struct{}, 1),
		metrics:     m,
		logger:      logger.With().Str("component", "session-manager").Logger(),
	}
}

// Enqueue appends item to the chat queue and opens the call if none is active.
// When the join fails the enqueue is rolled back and ErrJoinFailed is returned.
func (m *Manager) Enqueue(ctx context.Context, chatID int64, item entities.QueueItem) (EnqueueResult, error) {
	m.mu.Lock()
	s, ok := m.state.Sessions[chatID]
	if !ok {
		s = &entities.ChatSession{ChatID: chatID}
		m.state.Sessions[chatID] = s
	}
	s.Queue = append(s.Queue, item)
	position := len(s.Queue) - 1
	join := !s.CallActive
	s.CallActive = true
	m.observeLocked()
	m.mu.Unlock()

	m.markDirty()
	m.metrics.EnqueuedTotal.WithLabelValues(string(item.Kind)).Inc()

	m.logger.Info().
		Int64("chat_id", chatID).
		Str("media_id", item.MediaID).
		Int("position", position).
		Bool("join", join).
		Msg("Item enqueued")

	if !join {
		return EnqueueResult{Position: position}, nil
	}

	if err := m.startCall(ctx, chatID, s, item); err != nil {
		return EnqueueResult{}, err
	}

	return EnqueueResult{Position: position, Started: true}, nil
}

// Stop clears the chat queue and leaves the call. Leaving is best-effort:
// the session is gone from bookkeeping before the leave request is sent.
func (m *Manager) Stop(ctx context.Context, chatID int64) {
	m.mu.Lock()
	s, ok := m.state.Sessions[chatID]
	if !ok {
		m.mu.Unlock()
		return
	}
	wasActive := s.CallActive
	s.CallActive = false
	s.Queue = nil
	delete(m.state.Sessions, chatID)
	m.observeLocked()
	m.mu.Unlock()

	m.markDirty()
	m.metrics.StoppedTotal.Inc()
	m.logger.Info().Int64("chat_id", chatID).Bool("was_active", wasActive).Msg("Session stopped")

	if wasActive {
		m.leave(ctx, chatID)
	}
}

// CurrentItem returns the head of the chat queue without dequeuing it
func (m *Manager) CurrentItem(chatID int64) (entities.QueueItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.state.Sessions[chatID]
	if !ok || len(s.Queue) == 0 {
		return entities.QueueItem{}, false
	}
	return s.Queue[0], true
}

// Queue returns a copy of the chat queue, head first
func (m *Manager) Queue(chatID int64) []entities.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.state.Sessions[chatID]
	if !ok {
		return nil
	}
	out := make([]entities.QueueItem, len(s.Queue))
	copy(out, s.Queue)
	return out
}

// IsCallActive reports whether the chat has an active call
func (m *Manager) IsCallActive(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.state.Sessions[chatID]
	return ok && s.CallActive
}

// OnPlaybackFinished is invoked when the streaming engine finished streamURL.
// The queue advances only if streamURL is still the head; the comparison and
// the removal happen under one lock. An empty streamURL matches any head.
// It returns ErrNothingPlaying for idle chats and ErrStalePlaybackEvent when
// the head has already moved on.
func (m *Manager) OnPlaybackFinished(ctx context.Context, chatID int64, streamURL string) error {
	_, _, err := m.advance(ctx, chatID, streamURL)
	return err
}

// Skip drops the playing item and switches to the next one.
// It returns the new head, or false when the queue ran out and the call was left.
func (m *Manager) Skip(ctx context.Context, chatID int64) (entities.QueueItem, bool, error) {
	return m.advance(ctx, chatID, "")
}

// Pause pauses the chat's stream
func (m *Manager) Pause(ctx context.Context, chatID int64) error {
	if !m.IsCallActive(chatID) {
		return playbackerrors.ErrNothingPlaying
	}

	callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()

	if err := m.calls.Pause(callCtx, chatID); err != nil {
		m.callFailed("pause", chatID, err)
		return fmt.Errorf("%w: %w", playbackerrors.ErrPlayFailed, err)
	}
	return nil
}

// Resume resumes the chat's stream
func (m *Manager) Resume(ctx context.Context, chatID int64) error {
	if !m.IsCallActive(chatID) {
		return playbackerrors.ErrNothingPlaying
	}

	callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()

	if err := m.calls.Resume(callCtx, chatID); err != nil {
		m.callFailed("resume", chatID, err)
		return fmt.Errorf("%w: %w", playbackerrors.ErrPlayFailed, err)
	}
	return nil
}

// Maintenance implements deps.MaintenanceReader
func (m *Manager) Maintenance() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.MaintenanceMode
}

// SetMaintenance sets the global maintenance flag
func (m *Manager) SetMaintenance(enabled bool) {
	m.mu.Lock()
	m.state.MaintenanceMode = enabled
	m.mu.Unlock()

	m.markDirty()
	m.logger.Info().Bool("maintenance", enabled).Msg("Maintenance mode changed")
}

// ToggleMaintenance flips the maintenance flag and returns the new value
func (m *Manager) ToggleMaintenance() bool {
	m.mu.Lock()
	m.state.MaintenanceMode = !m.state.MaintenanceMode
	enabled := m.state.MaintenanceMode
	m.mu.Unlock()

	m.markDirty()
	m.logger.Info().Bool("maintenance", enabled).Msg("Maintenance mode toggled")
	return enabled
}

// Snapshot returns a deep copy of the state, taken under the lock
func (m *Manager) Snapshot() entities.GlobalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// ActiveSessions returns the number of chats with a session
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.Sessions)
}

// Dirty is signalled after every mutation that should reach the state store
func (m *Manager) Dirty() <-chan struct{} {
	return m.dirty
}

// Restore installs a persisted state and re-joins the calls of restored queues.
// A restored session whose join fails is dropped. It returns the number of
// sessions that are playing again.
func (m *Manager) Restore(ctx context.Context, state entities.GlobalState) int {
	type pending struct {
		session *entities.ChatSession
		head    entities.QueueItem
	}

	m.mu.Lock()
	m.state.MaintenanceMode = state.MaintenanceMode
	var restored []pending
	for chatID, s := range state.Sessions {
		if s == nil || len(s.Queue) == 0 {
			continue
		}
		if _, exists := m.state.Sessions[chatID]; exists {
			continue
		}
		cs := s.Clone()
		cs.ChatID = chatID
		cs.CallActive = true
		m.state.Sessions[chatID] = cs
		restored = append(restored, pending{session: cs, head: cs.Queue[0]})
	}
	m.observeLocked()
	m.mu.Unlock()

	playing := 0
	for _, p := range restored {
		chatID := p.session.ChatID
		callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
		err := m.calls.JoinCall(callCtx, chatID, p.head)
		cancel()
		if err == nil {
			playing++
			continue
		}

		m.callFailed("join", chatID, err)
		m.mu.Lock()
		if m.state.Sessions[chatID] == p.session {
			p.session.CallActive = false
			delete(m.state.Sessions, chatID)
			m.observeLocked()
		}
		m.mu.Unlock()
		m.logger.Warn().Int64("chat_id", chatID).Msg("Dropped restored session after failed join")
	}

	if len(restored) > 0 {
		m.markDirty()
	}

	m.logger.Info().
		Int("restored", len(restored)).
		Int("playing", playing).
		Bool("maintenance", state.MaintenanceMode).
		Msg("Playback state restored")

	return playing
}

// startCall joins the call for item, the head of s. On failure the head is
// dropped; items enqueued while the join was in flight get their own join.
func (m *Manager) startCall(ctx context.Context, chatID int64, s *entities.ChatSession, item entities.QueueItem) error {
	callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	err := m.calls.JoinCall(callCtx, chatID, item)
	cancel()
	if err == nil {
		return nil
	}

	joinErr := fmt.Errorf("%w: %w", playbackerrors.ErrJoinFailed, err)
	for err != nil {
		m.callFailed("join", chatID, err)

		next, state := m.dropHead(chatID, s, "")
		if state != headNext {
			break
		}

		m.logger.Info().Int64("chat_id", chatID).Str("media_id", next.MediaID).Msg("Joining call with next queued item")
		callCtx, cancel = context.WithTimeout(ctx, m.callTimeout)
		err = m.calls.JoinCall(callCtx, chatID, next)
		cancel()
	}

	return joinErr
}

// advance removes the head and starts the next item, leaving the call when
// the queue runs out. Items the engine refuses to switch to are skipped.
// A non-empty finished must match the head for the first removal.
func (m *Manager) advance(ctx context.Context, chatID int64, finished string) (entities.QueueItem, bool, error) {
	m.mu.Lock()
	s, ok := m.state.Sessions[chatID]
	if !ok || !s.CallActive {
		m.mu.Unlock()
		return entities.QueueItem{}, false, playbackerrors.ErrNothingPlaying
	}
	m.mu.Unlock()

	expected := finished
	for {
		next, state := m.dropHead(chatID, s, expected)
		expected = ""
		switch state {
		case headStale:
			return entities.QueueItem{}, false, playbackerrors.ErrStalePlaybackEvent
		case headGone:
			return entities.QueueItem{}, false, nil
		case headExhausted:
			m.metrics.AdvancedTotal.Inc()
			m.logger.Info().Int64("chat_id", chatID).Msg("Queue finished")
			m.leave(ctx, chatID)
			return entities.QueueItem{}, false, nil
		}

		callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
		err := m.calls.PlayNext(callCtx, chatID, next)
		cancel()
		if err == nil {
			m.metrics.AdvancedTotal.Inc()
			m.logger.Info().Int64("chat_id", chatID).Str("media_id", next.MediaID).Msg("Advanced to next item")
			return next, true, nil
		}
		m.callFailed("play", chatID, err)
	}
}

// dropHead removes the head of s if s is still the chat's session and, when
// expected is set, the head streams expected
func (m *Manager) dropHead(chatID int64, s *entities.ChatSession, expected string) (entities.QueueItem, headState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Sessions[chatID] != s || len(s.Queue) == 0 {
		return entities.QueueItem{}, headGone
	}
	if expected != "" && s.Queue[0].StreamURL != expected {
		return entities.QueueItem{}, headStale
	}

	s.Queue = s.Queue[1:]
	m.markDirty()

	if len(s.Queue) == 0 {
		s.CallActive = false
		s.Queue = nil
		delete(m.state.Sessions, chatID)
		m.observeLocked()
		return entities.QueueItem{}, headExhausted
	}

	return s.Queue[0], headNext
}

func (m *Manager) leave(ctx context.Context, chatID int64) {
	callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()

	if err := m.calls.LeaveCall(callCtx, chatID); err != nil {
		m.callFailed("leave", chatID, fmt.Errorf("%w: %w", playbackerrors.ErrLeaveFailed, err))
	}
}

func (m *Manager) callFailed(action string, chatID int64, err error) {
	m.metrics.CallRequestErrors.WithLabelValues(action).Inc()
	m.logger.Error().
		Err(err).
		Str("action", action).
		Int64("chat_id", chatID).
		Msg("Call transport request failed")
}

func (m *Manager) observeLocked() {
	m.metrics.ActiveSessions.Set(float64(len(m.state.Sessions)))
}

func (m *Manager) markDirty() {
	select {
	case m.dirty <- struct{}{}:
	default:
	}
}
