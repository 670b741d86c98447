package buissines

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadraza76/Rolavibe/config"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/dto"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/entities"
	playbackerrors "github.com/ahmadraza76/Rolavibe/internal/domain/playback/errors"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/usecase/access"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/usecase/session"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/metrics"
)

const (
	ownerID  int64 = 1
	adminID  int64 = 2
	memberID int64 = 3
	groupID  int64 = -100500
)

// mockResolver is a mock implementation of deps.MediaResolver
type mockResolver struct {
	resolveByQueryFunc func(ctx context.Context, query string) (entities.QueueItem, error)
	resolveByURLFunc   func(ctx context.Context, url string) (entities.QueueItem, error)

	mu    sync.Mutex
	calls int
}

func (m *mockResolver) ResolveByQuery(ctx context.Context, query string) (entities.QueueItem, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.resolveByQueryFunc != nil {
		return m.resolveByQueryFunc(ctx, query)
	}
	return entities.QueueItem{
		StreamURL: "https://cdn/" + query,
		Title:     query,
		MediaID:   "id-" + query,
		Kind:      entities.MediaKindAudio,
		Duration:  3 * time.Minute,
	}, nil
}

func (m *mockResolver) ResolveByURL(ctx context.Context, url string) (entities.QueueItem, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.resolveByURLFunc != nil {
		return m.resolveByURLFunc(ctx, url)
	}
	return entities.QueueItem{StreamURL: url, Title: "Video", Kind: entities.MediaKindVideo, Duration: time.Hour}, nil
}

func (m *mockResolver) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockCalls is a mock implementation of deps.CallTransport
type mockCalls struct {
	joinErr error

	mu    sync.Mutex
	joins []entities.QueueItem
}

func (m *mockCalls) JoinCall(ctx context.Context, chatID int64, item entities.QueueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joins = append(m.joins, item)
	return m.joinErr
}

func (m *mockCalls) PlayNext(ctx context.Context, chatID int64, item entities.QueueItem) error {
	return nil
}

func (m *mockCalls) LeaveCall(ctx context.Context, chatID int64) error { return nil }
func (m *mockCalls) Pause(ctx context.Context, chatID int64) error     { return nil }
func (m *mockCalls) Resume(ctx context.Context, chatID int64) error    { return nil }

func (m *mockCalls) joinCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.joins)
}

// memoryAccessStore keeps access documents in memory
type memoryAccessStore struct {
	mu       sync.Mutex
	commands []string
	groups   map[int64]bool
}

func (s *memoryAccessStore) LoadAdminCommands(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *memoryAccessStore) SaveAdminCommands(ctx context.Context, commands []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append([]string(nil), commands...)
	return nil
}

func (s *memoryAccessStore) LoadAllowedGroups(ctx context.Context) map[int64]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]bool, len(s.groups))
	for k, v := range s.groups {
		out[k] = v
	}
	return out
}

func (s *memoryAccessStore) SaveAllowedGroups(ctx context.Context, groups map[int64]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = groups
	return nil
}

type roleMembership struct{}

func (roleMembership) GetMembership(ctx context.Context, chatID, userID int64) (string, error) {
	if userID == adminID {
		return entities.MemberStatusAdministrator, nil
	}
	return entities.MemberStatusMember, nil
}

type fixture struct {
	uc       *UseCase
	resolver *mockResolver
	calls    *mockCalls
	sessions *session.Manager
	gate     *access.Gate
}

func newFixture(t *testing.T, store *memoryAccessStore, playbackCfg *config.PlaybackConfig, logFile string) *fixture {
	t.Helper()

	if store == nil {
		store = &memoryAccessStore{
			commands: []string{"play", "stop", "pause", "resume", "skip", "queue"},
			groups:   map[int64]bool{groupID: true},
		}
	}
	if playbackCfg == nil {
		playbackCfg = &config.PlaybackConfig{
			MaxAudioDuration: 600 * time.Second,
			MaxVideoDuration: 10800 * time.Second,
			ResolveTimeout:   time.Second,
			CallTimeout:      time.Second,
		}
	}

	m := metrics.GetDefaultMetrics()
	logger := zerolog.Nop()
	calls := &mockCalls{}
	sessions := session.NewManager(calls, playbackCfg, m, logger)
	gate := access.NewGate(&config.OwnerConfig{ID: ownerID}, store, roleMembership{}, sessions, m, logger)
	resolver := &mockResolver{}

	return &fixture{
		uc:       NewUseCase(gate, sessions, resolver, playbackCfg, &config.LoggingConfig{File: logFile}, m, logger),
		resolver: resolver,
		calls:    calls,
		sessions: sessions,
		gate:     gate,
	}
}

func groupRequest(userID int64, command, args string) *dto.CommandRequest {
	return &dto.CommandRequest{
		ChatID:   groupID,
		UserID:   userID,
		ChatType: entities.ChatTypeSupergroup,
		Command:  command,
		Args:     args,
	}
}

func TestUseCase_PlayStartsCallThenQueues(t *testing.T) {
	f := newFixture(t, nil, nil, "")
	ctx := context.Background()

	resp := f.uc.Execute(ctx, groupRequest(adminID, "play", "song one"))
	assert.Contains(t, resp.Message, "Now Playing")
	assert.Contains(t, resp.Message, "song one")
	assert.Equal(t, "https://img.youtube.com/vi/id-song one/maxresdefault.jpg", resp.PhotoURL)
	assert.Equal(t, dto.KeyboardPlayback, resp.Keyboard)

	resp = f.uc.Execute(ctx, groupRequest(adminID, "rola", "song two"))
	assert.Contains(t, resp.Message, "position 1")
	assert.Empty(t, resp.PhotoURL)

	assert.Equal(t, 1, f.calls.joinCount())
	assert.Len(t, f.sessions.Queue(groupID), 2)
}

func TestUseCase_PlayWithoutQuery(t *testing.T) {
	f := newFixture(t, nil, nil, "")

	resp := f.uc.Execute(context.Background(), groupRequest(adminID, "play", "  "))

	assert.Contains(t, resp.Message, "song name")
	assert.Equal(t, 0, f.resolver.callCount())
}

func TestUseCase_DurationPolicy(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		userID    int64
		duration  time.Duration
		wantQueue bool
	}{
		{name: "audio within limit", command: "play", userID: adminID, duration: 600 * time.Second, wantQueue: true},
		{name: "audio over limit", command: "play", userID: adminID, duration: 601 * time.Second},
		{name: "video within limit", command: "playvideo", userID: ownerID, duration: 3 * time.Hour, wantQueue: true},
		{name: "video over limit", command: "playvideo", userID: ownerID, duration: 3*time.Hour + time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, nil, "")
			f.resolver.resolveByQueryFunc = func(ctx context.Context, query string) (entities.QueueItem, error) {
				return entities.QueueItem{StreamURL: "https://cdn/a", Title: "A", MediaID: "a", Kind: entities.MediaKindAudio, Duration: tt.duration}, nil
			}
			f.resolver.resolveByURLFunc = func(ctx context.Context, url string) (entities.QueueItem, error) {
				return entities.QueueItem{StreamURL: url, Title: "V", Kind: entities.MediaKindVideo, Duration: tt.duration}, nil
			}

			resp := f.uc.Execute(context.Background(), groupRequest(tt.userID, tt.command, "https://example.com/v"))

			if tt.wantQueue {
				assert.Contains(t, resp.Message, "Now Playing")
				assert.Equal(t, 1, f.calls.joinCount())
				return
			}
			assert.Contains(t, resp.Message, "too long")
			assert.Equal(t, 0, f.calls.joinCount())
			assert.Nil(t, f.sessions.Queue(groupID))
		})
	}
}

func TestUseCase_HandlePlayReturnsDurationError(t *testing.T) {
	f := newFixture(t, nil, nil, "")
	f.resolver.resolveByQueryFunc = func(ctx context.Context, query string) (entities.QueueItem, error) {
		return entities.QueueItem{StreamURL: "https://cdn/a", Title: "A", MediaID: "a", Kind: entities.MediaKindAudio, Duration: 11 * time.Minute}, nil
	}

	resp, err := f.uc.handlePlay(context.Background(), groupRequest(adminID, "play", "long song"), entities.MediaKindAudio)

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, playbackerrors.ErrDurationExceeded))

	var tooLong *playbackerrors.DurationError
	require.True(t, errors.As(err, &tooLong))
	assert.Equal(t, entities.MediaKindAudio, tooLong.Kind)
	assert.Equal(t, 600*time.Second, tooLong.Limit)
	assert.Equal(t, "⚠️ Song is too long. Maximum allowed duration is 10 minutes.", f.uc.errorResponse(groupRequest(adminID, "play", ""), "play", err).Message)
}

func TestUseCase_ResolutionTimeoutLeavesNoState(t *testing.T) {
	cfg := &config.PlaybackConfig{
		MaxAudioDuration: 600 * time.Second,
		ResolveTimeout:   20 * time.Millisecond,
		CallTimeout:      time.Second,
	}
	f := newFixture(t, nil, cfg, "")
	f.resolver.resolveByQueryFunc = func(ctx context.Context, query string) (entities.QueueItem, error) {
		<-ctx.Done()
		return entities.QueueItem{}, ctx.Err()
	}

	resp := f.uc.Execute(context.Background(), groupRequest(adminID, "play", "slow song"))

	assert.Contains(t, resp.Message, "took too long")
	assert.Nil(t, f.sessions.Queue(groupID))
	assert.Equal(t, 0, f.calls.joinCount())
}

func TestUseCase_ResolverErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "not found", err: playbackerrors.ErrNotFound, wantMsg: "No results found"},
		{name: "invalid url", err: playbackerrors.ErrInvalidURL, wantMsg: "Invalid URL"},
		{name: "unexpected", err: errors.New("boom"), wantMsg: "An error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, nil, "")
			f.resolver.resolveByQueryFunc = func(ctx context.Context, query string) (entities.QueueItem, error) {
				return entities.QueueItem{}, tt.err
			}

			resp := f.uc.Execute(context.Background(), groupRequest(adminID, "play", "x"))

			assert.Contains(t, resp.Message, tt.wantMsg)
			assert.Nil(t, f.sessions.Queue(groupID))
		})
	}
}

func TestUseCase_JoinFailureReply(t *testing.T) {
	f := newFixture(t, nil, nil, "")
	f.calls.joinErr = errors.New("no voice chat")

	resp := f.uc.Execute(context.Background(), groupRequest(adminID, "play", "song"))

	assert.Contains(t, resp.Message, "Could not join")
	assert.False(t, f.sessions.IsCallActive(groupID))
	assert.Nil(t, f.sessions.Queue(groupID))
}

func TestUseCase_DeniedCommandsNeverResolve(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		req     *dto.CommandRequest
		wantMsg string
	}{
		{
			name:    "unauthorized group",
			req:     &dto.CommandRequest{ChatID: -42, UserID: adminID, ChatType: entities.ChatTypeSupergroup, Command: "play", Args: "x"},
			wantMsg: "not authorized",
		},
		{
			name:    "maintenance",
			setup:   func(f *fixture) { f.sessions.SetMaintenance(true) },
			req:     groupRequest(adminID, "play", "x"),
			wantMsg: "under maintenance",
		},
		{
			name:    "plain member",
			req:     groupRequest(memberID, "play", "x"),
			wantMsg: "Only admins",
		},
		{
			name:    "owner only",
			req:     groupRequest(adminID, "playvideo", "https://example.com/v"),
			wantMsg: "Only the bot owner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, nil, "")
			if tt.setup != nil {
				tt.setup(f)
			}

			resp := f.uc.Execute(context.Background(), tt.req)

			assert.Contains(t, resp.Message, tt.wantMsg)
			assert.Equal(t, 0, f.resolver.callCount())
			assert.Equal(t, 0, f.calls.joinCount())
		})
	}
}

func TestUseCase_OwnerDelegatesAdminCommand(t *testing.T) {
	store := &memoryAccessStore{groups: map[int64]bool{groupID: true}}
	f := newFixture(t, store, nil, "")
	ctx := context.Background()

	resp := f.uc.Execute(ctx, groupRequest(adminID, "play", "song"))
	assert.Contains(t, resp.Message, "not enabled for admins")

	resp = f.uc.Execute(ctx, &dto.CommandRequest{ChatID: ownerID, UserID: ownerID, ChatType: "private", Command: "enableadmin", Args: "play"})
	assert.Contains(t, resp.Message, "enabled for admins")
	assert.Equal(t, []string{"play"}, store.LoadAdminCommands(ctx))

	resp = f.uc.Execute(ctx, groupRequest(adminID, "play", "song"))
	assert.Contains(t, resp.Message, "Now Playing")

	resp = f.uc.Execute(ctx, &dto.CommandRequest{ChatID: ownerID, UserID: ownerID, ChatType: "private", Command: "enableadmin", Args: "playvideo"})
	assert.Contains(t, resp.Message, "Unknown command")
}

func TestUseCase_PlaybackControls(t *testing.T) {
	f := newFixture(t, nil, nil, "")
	ctx := context.Background()

	resp := f.uc.Execute(ctx, groupRequest(adminID, "pause", ""))
	assert.Contains(t, resp.Message, "Nothing is playing")

	f.uc.Execute(ctx, groupRequest(adminID, "play", "a"))
	f.uc.Execute(ctx, groupRequest(adminID, "play", "b"))

	resp = f.uc.Execute(ctx, groupRequest(adminID, "queue", ""))
	assert.Contains(t, resp.Message, "▶️ <code>a</code>")
	assert.Contains(t, resp.Message, "1. <code>b</code>")

	resp = f.uc.Execute(ctx, groupRequest(adminID, "pause", ""))
	assert.Contains(t, resp.Message, "paused")
	resp = f.uc.Execute(ctx, groupRequest(adminID, "resume", ""))
	assert.Contains(t, resp.Message, "resumed")

	resp = f.uc.Execute(ctx, groupRequest(adminID, "skip", ""))
	assert.Contains(t, resp.Message, "Now Playing")
	assert.Contains(t, resp.Message, "<code>b</code>")

	resp = f.uc.Execute(ctx, groupRequest(adminID, "stop", ""))
	assert.Contains(t, resp.Message, "stopped")
	assert.False(t, f.sessions.IsCallActive(groupID))

	resp = f.uc.Execute(ctx, groupRequest(adminID, "queue", ""))
	assert.Contains(t, resp.Message, "empty")
}

func TestUseCase_OwnerCommands(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "bot.log")
	f := newFixture(t, &memoryAccessStore{}, nil, logFile)
	ctx := context.Background()
	private := func(command, args string) *dto.CommandRequest {
		return &dto.CommandRequest{ChatID: ownerID, UserID: ownerID, ChatType: "private", Command: command, Args: args}
	}

	resp := f.uc.Execute(ctx, groupRequest(ownerID, "addgroup", ""))
	assert.Contains(t, resp.Message, "now authorized")
	assert.True(t, f.gate.IsGroupAllowed(groupID))

	resp = f.uc.Execute(ctx, private("addgroup", ""))
	assert.Contains(t, resp.Message, "inside the group")

	resp = f.uc.Execute(ctx, private("maintenance", ""))
	assert.Contains(t, resp.Message, "ON")
	assert.True(t, f.sessions.Maintenance())

	resp = f.uc.Execute(ctx, private("admin_commands", ""))
	assert.Contains(t, resp.Message, "No commands")

	resp = f.uc.Execute(ctx, private("logs", ""))
	assert.Contains(t, resp.Message, "No logs")
	assert.Empty(t, resp.DocumentPath)

	require.NoError(t, os.WriteFile(logFile, []byte("line\n"), 0o644))
	resp = f.uc.Execute(ctx, private("logs", ""))
	assert.Equal(t, logFile, resp.DocumentPath)

	resp = f.uc.Execute(ctx, groupRequest(ownerID, "removegroup", ""))
	assert.Contains(t, resp.Message, "no longer authorized")
}

func TestUseCase_StartKeyboard(t *testing.T) {
	f := newFixture(t, nil, nil, "")
	ctx := context.Background()

	resp := f.uc.Execute(ctx, &dto.CommandRequest{ChatID: memberID, UserID: memberID, ChatType: "private", Command: "start"})
	assert.Equal(t, dto.KeyboardStart, resp.Keyboard)

	resp = f.uc.Execute(ctx, &dto.CommandRequest{ChatID: ownerID, UserID: ownerID, ChatType: "private", Command: "start"})
	assert.Equal(t, dto.KeyboardStartOwner, resp.Keyboard)
}

func TestUseCase_UnknownCommand(t *testing.T) {
	f := newFixture(t, nil, nil, "")

	resp := f.uc.Execute(context.Background(), groupRequest(adminID, "dance", ""))

	assert.Contains(t, resp.Message, "Unknown command")
}
