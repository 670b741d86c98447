package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadraza76/Rolavibe/config"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/entities"
	playbackerrors "github.com/ahmadraza76/Rolavibe/internal/domain/playback/errors"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/metrics"
)

// mockCallTransport is a mock implementation of deps.CallTransport that records every request
type mockCallTransport struct {
	joinFunc     func(ctx context.Context, chatID int64, item entities.QueueItem) error
	playNextFunc func(ctx context.Context, chatID int64, item entities.QueueItem) error
	leaveFunc    func(ctx context.Context, chatID int64) error
	pauseFunc    func(ctx context.Context, chatID int64) error
	resumeFunc   func(ctx context.Context, chatID int64) error

	mu    sync.Mutex
	calls []string
}

func (m *mockCallTransport) record(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *mockCallTransport) log() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *mockCallTransport) count(prefix string) int {
	n := 0
	for _, c := range m.log() {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (m *mockCallTransport) JoinCall(ctx context.Context, chatID int64, item entities.QueueItem) error {
	m.record("join %d %s", chatID, item.MediaID)
	if m.joinFunc != nil {
		return m.joinFunc(ctx, chatID, item)
	}
	return nil
}

func (m *mockCallTransport) PlayNext(ctx context.Context, chatID int64, item entities.QueueItem) error {
	m.record("play %d %s", chatID, item.MediaID)
	if m.playNextFunc != nil {
		return m.playNextFunc(ctx, chatID, item)
	}
	return nil
}

func (m *mockCallTransport) LeaveCall(ctx context.Context, chatID int64) error {
	m.record("leave %d", chatID)
	if m.leaveFunc != nil {
		return m.leaveFunc(ctx, chatID)
	}
	return nil
}

func (m *mockCallTransport) Pause(ctx context.Context, chatID int64) error {
	m.record("pause %d", chatID)
	if m.pauseFunc != nil {
		return m.pauseFunc(ctx, chatID)
	}
	return nil
}

func (m *mockCallTransport) Resume(ctx context.Context, chatID int64) error {
	m.record("resume %d", chatID)
	if m.resumeFunc != nil {
		return m.resumeFunc(ctx, chatID)
	}
	return nil
}

func newTestManager(calls *mockCallTransport) *Manager {
	return NewManager(calls, &config.PlaybackConfig{CallTimeout: time.Second}, metrics.GetDefaultMetrics(), zerolog.Nop())
}

func item(id string) entities.QueueItem {
	return entities.QueueItem{
		StreamURL: "https://stream/" + id,
		Title:     "Title " + id,
		MediaID:   id,
		Kind:      entities.MediaKindAudio,
	}
}

func mediaIDs(items []entities.QueueItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.MediaID)
	}
	return ids
}

func TestManager_PlayThroughScenario(t *testing.T) {
	calls := &mockCallTransport{}
	m := newTestManager(calls)
	ctx := context.Background()
	const chatID int64 = -100

	res, err := m.Enqueue(ctx, chatID, item("a"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Position)
	assert.True(t, res.Started)

	res, err = m.Enqueue(ctx, chatID, item("b"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Position)
	assert.False(t, res.Started)

	assert.Equal(t, []string{"join -100 a"}, calls.log())
	assert.True(t, m.IsCallActive(chatID))

	require.NoError(t, m.OnPlaybackFinished(ctx, chatID, "https://stream/a"))
	current, ok := m.CurrentItem(chatID)
	require.True(t, ok)
	assert.Equal(t, "b", current.MediaID)

	require.NoError(t, m.OnPlaybackFinished(ctx, chatID, "https://stream/b"))
	assert.False(t, m.IsCallActive(chatID))
	assert.Nil(t, m.Queue(chatID))
	assert.Equal(t, 0, m.ActiveSessions())

	assert.Equal(t, []string{"join -100 a", "play -100 b", "leave -100"}, calls.log())
}

func TestManager_DrainsInFIFOOrder(t *testing.T) {
	calls := &mockCallTransport{}
	m := newTestManager(calls)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := m.Enqueue(ctx, 1, item(id))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, mediaIDs(m.Queue(1)))

	for i := 0; i < 4; i++ {
		require.NoError(t, m.OnPlaybackFinished(ctx, 1, ""))
	}

	assert.Equal(t, []string{
		"join 1 a",
		"play 1 b",
		"play 1 c",
		"play 1 d",
		"leave 1",
	}, calls.log())
}

func TestManager_FinishedWithoutSessionIsIgnored(t *testing.T) {
	calls := &mockCallTransport{}
	m := newTestManager(calls)

	err := m.OnPlaybackFinished(context.Background(), 7, "https://stream/a")

	assert.ErrorIs(t, err, playbackerrors.ErrNothingPlaying)
	assert.Empty(t, calls.log())
	assert.Equal(t, 0, m.ActiveSessions())
}

func TestManager_StaleFinishedEventKeepsQueue(t *testing.T) {
	calls := &mockCallTransport{}
	m := newTestManager(calls)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := m.Enqueue(ctx, 3, item(id))
		require.NoError(t, err)
	}

	next, ok, err := m.Skip(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", next.MediaID)

	err = m.OnPlaybackFinished(ctx, 3, "https://stream/a")

	assert.ErrorIs(t, err, playbackerrors.ErrStalePlaybackEvent)
	assert.Equal(t, []string{"b", "c"}, mediaIDs(m.Queue(3)))
	assert.Equal(t, []string{"join 3 a", "play 3 b"}, calls.log())
}

func TestManager_StopClearsStateEvenWhenLeaveFails(t *testing.T) {
	calls := &mockCallTransport{
		leaveFunc: func(ctx context.Context, chatID int64) error {
			return errors.New("engine unavailable")
		},
	}
	m := newTestManager(calls)
	ctx := context.Background()

	_, err := m.Enqueue(ctx, 5, item("a"))
	require.NoError(t, err)
	_, err = m.Enqueue(ctx, 5, item("b"))
	require.NoError(t, err)

	m.Stop(ctx, 5)

	assert.False(t, m.IsCallActive(5))
	assert.Nil(t, m.Queue(5))
	_, ok := m.CurrentItem(5)
	assert.False(t, ok)

	m.Stop(ctx, 5)
	assert.Equal(t, 1, calls.count("leave"))
}

func TestManager_JoinFailureLeavesNoSession(t *testing.T) {
	calls := &mockCallTransport{
		joinFunc: func(ctx context.Context, chatID int64, item entities.QueueItem) error {
			return errors.New("no voice chat")
		},
	}
	m := newTestManager(calls)

	_, err := m.Enqueue(context.Background(), 9, item("a"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, playbackerrors.ErrJoinFailed))

	assert.False(t, m.IsCallActive(9))
	assert.Nil(t, m.Queue(9))
	assert.Equal(t, 0, m.ActiveSessions())
	assert.Equal(t, 0, calls.count("leave"))
}

func TestManager_JoinFailurePromotesItemsQueuedDuringJoin(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	calls := &mockCallTransport{
		joinFunc: func(ctx context.Context, chatID int64, it entities.QueueItem) error {
			if it.MediaID == "a" {
				close(started)
				<-release
				return errors.New("join rejected")
			}
			return nil
		},
	}
	m := newTestManager(calls)
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		_, err := m.Enqueue(ctx, 3, item("a"))
		errCh <- err
	}()

	<-started
	res, err := m.Enqueue(ctx, 3, item("b"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Position)
	assert.False(t, res.Started)
	close(release)

	err = <-errCh
	assert.True(t, errors.Is(err, playbackerrors.ErrJoinFailed))

	assert.Equal(t, []string{"b"}, mediaIDs(m.Queue(3)))
	assert.True(t, m.IsCallActive(3))
	assert.Equal(t, []string{"join 3 a", "join 3 b"}, calls.log())
}

func TestManager_ConcurrentEnqueueJoinsOnce(t *testing.T) {
	calls := &mockCallTransport{
		joinFunc: func(ctx context.Context, chatID int64, item entities.QueueItem) error {
			time.Sleep(10 * time.Millisecond)
			return nil
		},
	}
	m := newTestManager(calls)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Enqueue(ctx, 11, item(fmt.Sprintf("item-%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, calls.count("join"))
	assert.Len(t, m.Queue(11), n)
	assert.True(t, m.IsCallActive(11))
}

func TestManager_ChatsAreIndependent(t *testing.T) {
	calls := &mockCallTransport{}
	m := newTestManager(calls)
	ctx := context.Background()

	_, err := m.Enqueue(ctx, 1, item("a"))
	require.NoError(t, err)
	_, err = m.Enqueue(ctx, 2, item("b"))
	require.NoError(t, err)

	m.Stop(ctx, 1)

	assert.False(t, m.IsCallActive(1))
	assert.True(t, m.IsCallActive(2))
	assert.Equal(t, []string{"b"}, mediaIDs(m.Queue(2)))
}

func TestManager_Skip(t *testing.T) {
	calls := &mockCallTransport{}
	m := newTestManager(calls)
	ctx := context.Background()

	_, _, err := m.Skip(ctx, 4)
	assert.ErrorIs(t, err, playbackerrors.ErrNothingPlaying)

	_, err = m.Enqueue(ctx, 4, item("a"))
	require.NoError(t, err)
	_, err = m.Enqueue(ctx, 4, item("b"))
	require.NoError(t, err)

	next, ok, err := m.Skip(ctx, 4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", next.MediaID)

	_, ok, err = m.Skip(ctx, 4)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, m.IsCallActive(4))
	assert.Equal(t, 1, calls.count("leave"))
}

func TestManager_PlayNextFailureSkipsItem(t *testing.T) {
	calls := &mockCallTransport{
		playNextFunc: func(ctx context.Context, chatID int64, item entities.QueueItem) error {
			if item.MediaID == "b" {
				return errors.New("stream expired")
			}
			return nil
		},
	}
	m := newTestManager(calls)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := m.Enqueue(ctx, 8, item(id))
		require.NoError(t, err)
	}

	require.NoError(t, m.OnPlaybackFinished(ctx, 8, "https://stream/a"))

	current, ok := m.CurrentItem(8)
	require.True(t, ok)
	assert.Equal(t, "c", current.MediaID)
	assert.Equal(t, []string{"join 8 a", "play 8 b", "play 8 c"}, calls.log())
}

func TestManager_PauseResume(t *testing.T) {
	tests := []struct {
		name      string
		active    bool
		callErr   error
		wantErr   error
		wantCalls int
	}{
		{name: "idle chat", active: false, wantErr: playbackerrors.ErrNothingPlaying},
		{name: "active chat", active: true, wantCalls: 1},
		{name: "engine error", active: true, callErr: errors.New("boom"), wantErr: playbackerrors.ErrPlayFailed, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := &mockCallTransport{
				pauseFunc:  func(ctx context.Context, chatID int64) error { return tt.callErr },
				resumeFunc: func(ctx context.Context, chatID int64) error { return tt.callErr },
			}
			m := newTestManager(calls)
			ctx := context.Background()

			if tt.active {
				_, err := m.Enqueue(ctx, 6, item("a"))
				require.NoError(t, err)
			}

			pauseErr := m.Pause(ctx, 6)
			resumeErr := m.Resume(ctx, 6)

			if tt.wantErr != nil {
				assert.ErrorIs(t, pauseErr, tt.wantErr)
				assert.ErrorIs(t, resumeErr, tt.wantErr)
			} else {
				assert.NoError(t, pauseErr)
				assert.NoError(t, resumeErr)
			}
			assert.Equal(t, tt.wantCalls, calls.count("pause"))
			assert.Equal(t, tt.wantCalls, calls.count("resume"))
		})
	}
}

func TestManager_Maintenance(t *testing.T) {
	m := newTestManager(&mockCallTransport{})

	assert.False(t, m.Maintenance())
	assert.True(t, m.ToggleMaintenance())
	assert.True(t, m.Maintenance())
	m.SetMaintenance(false)
	assert.False(t, m.Maintenance())
	assert.False(t, m.Snapshot().MaintenanceMode)
}

func TestManager_SnapshotIsDetached(t *testing.T) {
	m := newTestManager(&mockCallTransport{})
	ctx := context.Background()

	_, err := m.Enqueue(ctx, 1, item("a"))
	require.NoError(t, err)

	snap := m.Snapshot()
	snap.Sessions[1].Queue[0].Title = "changed"
	snap.Sessions[1].Queue = append(snap.Sessions[1].Queue, item("x"))

	current, ok := m.CurrentItem(1)
	require.True(t, ok)
	assert.Equal(t, "Title a", current.Title)
	assert.Len(t, m.Queue(1), 1)
}

func TestManager_DirtySignalledOnMutation(t *testing.T) {
	m := newTestManager(&mockCallTransport{})

	select {
	case <-m.Dirty():
		t.Fatal("fresh manager should not be dirty")
	default:
	}

	_, err := m.Enqueue(context.Background(), 1, item("a"))
	require.NoError(t, err)

	select {
	case <-m.Dirty():
	default:
		t.Fatal("expected dirty signal after enqueue")
	}
}

func TestManager_Restore(t *testing.T) {
	calls := &mockCallTransport{
		joinFunc: func(ctx context.Context, chatID int64, item entities.QueueItem) error {
			if chatID == 2 {
				return errors.New("voice chat closed")
			}
			return nil
		},
	}
	m := newTestManager(calls)

	state := entities.NewGlobalState()
	state.MaintenanceMode = true
	state.Sessions[1] = &entities.ChatSession{ChatID: 1, Queue: []entities.QueueItem{item("a"), item("b")}}
	state.Sessions[2] = &entities.ChatSession{ChatID: 2, Queue: []entities.QueueItem{item("c")}}
	state.Sessions[3] = &entities.ChatSession{ChatID: 3}

	playing := m.Restore(context.Background(), state)

	assert.Equal(t, 1, playing)
	assert.True(t, m.Maintenance())
	assert.True(t, m.IsCallActive(1))
	assert.Equal(t, []string{"a", "b"}, mediaIDs(m.Queue(1)))
	assert.False(t, m.IsCallActive(2))
	assert.Nil(t, m.Queue(2))
	assert.Nil(t, m.Queue(3))
	assert.Equal(t, 1, m.ActiveSessions())

	// restored input is not aliased
	state.Sessions[1].Queue[0].MediaID = "mutated"
	current, _ := m.CurrentItem(1)
	assert.Equal(t, "a", current.MediaID)
}
