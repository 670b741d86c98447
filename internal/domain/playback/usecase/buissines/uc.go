// Package buissines contains business logic for the playback domain
package buissines

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ahmadraza76/Rolavibe/config"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/consts"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/deps"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/dto"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/entities"
	playbackerrors "github.com/ahmadraza76/Rolavibe/internal/domain/playback/errors"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/usecase/access"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/usecase/session"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/metrics"
)

const defaultResolveTimeout = 45 * time.Second

// UseCase maps every command to exactly one reply
type UseCase struct {
	gate     *access.Gate
	sessions *session.Manager
	resolver deps.MediaResolver

	maxAudio       time.Duration
	maxVideo       time.Duration
	resolveTimeout time.Duration
	logFile        string

	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewUseCase creates a new UseCase instance
func NewUseCase(
	gate *access.Gate,
	sessions *session.Manager,
	resolver deps.MediaResolver,
	playbackCfg *config.PlaybackConfig,
	loggingCfg *config.LoggingConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *UseCase {
	timeout := playbackCfg.ResolveTimeout
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}

	return &UseCase{
		gate:           gate,
		sessions:       sessions,
		resolver:       resolver,
		maxAudio:       playbackCfg.MaxAudioDuration,
		maxVideo:       playbackCfg.MaxVideoDuration,
		resolveTimeout: timeout,
		logFile:        loggingCfg.File,
		metrics:        m,
		logger:         logger.With().Str("component", "playback-usecase").Logger(),
	}
}

// Execute authorizes and runs a command
func (uc *UseCase) Execute(ctx context.Context, req *dto.CommandRequest) *dto.CommandResponse {
	cmd, ok := consts.Lookup(req.Command)
	if !ok {
		return &dto.CommandResponse{Message: "⚠️ Unknown command. Send /help for the list of commands."}
	}

	uc.metrics.CommandsTotal.WithLabelValues(cmd.Name).Inc()

	if err := uc.gate.Authorize(ctx, access.Request{
		ChatID:   req.ChatID,
		UserID:   req.UserID,
		ChatType: req.ChatType,
		Command:  cmd.Name,
	}); err != nil {
		return uc.errorResponse(req, cmd.Name, err)
	}

	uc.logger.Info().
		Int64("chat_id", req.ChatID).
		Int64("user_id", req.UserID).
		Str("command", cmd.Name).
		Msg("Processing command")

	resp, err := uc.run(ctx, req, cmd)
	if err != nil {
		return uc.errorResponse(req, cmd.Name, err)
	}
	return resp
}

func (uc *UseCase) run(ctx context.Context, req *dto.CommandRequest, cmd consts.Command) (*dto.CommandResponse, error) {
	switch cmd.Name {
	case consts.CommandStart.Name:
		return uc.handleStart(req), nil
	case consts.CommandHelp.Name:
		return &dto.CommandResponse{Message: helpMessage}, nil
	case consts.CommandPlay.Name, consts.CommandRola.Name:
		return uc.handlePlay(ctx, req, entities.MediaKindAudio)
	case consts.CommandPlayVideo.Name:
		return uc.handlePlay(ctx, req, entities.MediaKindVideo)
	case consts.CommandStop.Name:
		uc.sessions.Stop(ctx, req.ChatID)
		return &dto.CommandResponse{Message: "⏹️ Playback stopped and the queue was cleared."}, nil
	case consts.CommandPause.Name:
		if err := uc.sessions.Pause(ctx, req.ChatID); err != nil {
			return nil, err
		}
		return &dto.CommandResponse{Message: "⏸️ Playback paused."}, nil
	case consts.CommandResume.Name:
		if err := uc.sessions.Resume(ctx, req.ChatID); err != nil {
			return nil, err
		}
		return &dto.CommandResponse{Message: "▶️ Playback resumed."}, nil
	case consts.CommandSkip.Name:
		return uc.handleSkip(ctx, req)
	case consts.CommandQueue.Name:
		return uc.handleQueue(req), nil
	case consts.CommandEnableAdmin.Name:
		return uc.handleAdminCommand(ctx, req, true)
	case consts.CommandDisableAdmin.Name:
		return uc.handleAdminCommand(ctx, req, false)
	case consts.CommandAddGroup.Name:
		return uc.handleGroup(ctx, req, true), nil
	case consts.CommandRemoveGroup.Name:
		return uc.handleGroup(ctx, req, false), nil
	case consts.CommandMaintenance.Name:
		return uc.handleMaintenance(), nil
	case consts.CommandAdminList.Name:
		return uc.handleAdminList(), nil
	case consts.CommandLogs.Name:
		return uc.handleLogs()
	}
	return nil, playbackerrors.ErrInvalidCommand
}

func (uc *UseCase) handleStart(req *dto.CommandRequest) *dto.CommandResponse {
	keyboard := dto.KeyboardStart
	if uc.gate.IsOwner(req.UserID) {
		keyboard = dto.KeyboardStartOwner
	}
	return &dto.CommandResponse{Message: startMessage, Keyboard: keyboard}
}

// handlePlay resolves outside any lock, applies the duration policy and only then enqueues
func (uc *UseCase) handlePlay(ctx context.Context, req *dto.CommandRequest, kind entities.MediaKind) (*dto.CommandResponse, error) {
	query := strings.TrimSpace(req.Args)
	if query == "" {
		if kind == entities.MediaKindVideo {
			return &dto.CommandResponse{Message: "⚠️ Please provide a video URL!"}, nil
		}
		return &dto.CommandResponse{Message: "⚠️ Please provide a song name!"}, nil
	}

	item, err := uc.resolve(ctx, query, kind)
	if err != nil {
		return nil, err
	}

	limit := uc.maxAudio
	if kind == entities.MediaKindVideo {
		limit = uc.maxVideo
	}
	if limit > 0 && item.Duration > limit {
		return nil, playbackerrors.NewDurationExceeded(kind, item.Duration, limit)
	}

	res, err := uc.sessions.Enqueue(ctx, req.ChatID, item)
	if err != nil {
		return nil, err
	}

	if res.Position == 0 {
		return &dto.CommandResponse{
			Message:  nowPlayingMessage(item),
			PhotoURL: item.ThumbnailURL(),
			Keyboard: dto.KeyboardPlayback,
		}, nil
	}

	return &dto.CommandResponse{
		Message: fmt.Sprintf("➕ <b>Added to queue</b> at position %d: <code>%s</code>", res.Position, html.EscapeString(item.Title)),
	}, nil
}

func (uc *UseCase) resolve(ctx context.Context, query string, kind entities.MediaKind) (entities.QueueItem, error) {
	resolveCtx, cancel := context.WithTimeout(ctx, uc.resolveTimeout)
	defer cancel()

	var (
		item entities.QueueItem
		err  error
	)
	if kind == entities.MediaKindVideo {
		item, err = uc.resolver.ResolveByURL(resolveCtx, query)
	} else {
		item, err = uc.resolver.ResolveByQuery(resolveCtx, query)
	}

	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return entities.QueueItem{}, fmt.Errorf("%w: %w", playbackerrors.ErrResolutionTimeout, err)
	}
	return item, err
}

func (uc *UseCase) handleSkip(ctx context.Context, req *dto.CommandRequest) (*dto.CommandResponse, error) {
	next, ok, err := uc.sessions.Skip(ctx, req.ChatID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &dto.CommandResponse{Message: "⏭️ Skipped. The queue is empty, leaving the voice chat."}, nil
	}
	return &dto.CommandResponse{
		Message:  nowPlayingMessage(next),
		PhotoURL: next.ThumbnailURL(),
		Keyboard: dto.KeyboardPlayback,
	}, nil
}

func (uc *UseCase) handleQueue(req *dto.CommandRequest) *dto.CommandResponse {
	items := uc.sessions.Queue(req.ChatID)
	if len(items) == 0 {
		return &dto.CommandResponse{Message: "📭 The queue is empty."}
	}

	var b strings.Builder
	b.WriteString("📋 <b>Queue:</b>\n")
	for i, it := range items {
		if i == 0 {
			fmt.Fprintf(&b, "▶️ <code>%s</code>\n", html.EscapeString(it.Title))
			continue
		}
		fmt.Fprintf(&b, "%d. <code>%s</code>\n", i, html.EscapeString(it.Title))
	}
	return &dto.CommandResponse{Message: b.String()}
}

func (uc *UseCase) handleAdminCommand(ctx context.Context, req *dto.CommandRequest, enable bool) (*dto.CommandResponse, error) {
	name := strings.TrimSpace(req.Args)
	if name == "" {
		return &dto.CommandResponse{Message: "⚠️ Please provide a command name!"}, nil
	}

	var (
		changed bool
		err     error
	)
	if enable {
		changed, err = uc.gate.EnableAdminCommand(ctx, name)
	} else {
		changed, err = uc.gate.DisableAdminCommand(ctx, name)
	}
	if err != nil {
		return nil, err
	}

	name = html.EscapeString(strings.ToLower(strings.TrimLeft(name, "./")))
	switch {
	case enable && changed:
		return &dto.CommandResponse{Message: fmt.Sprintf("✅ Command <code>%s</code> enabled for admins.", name)}, nil
	case enable:
		return &dto.CommandResponse{Message: fmt.Sprintf("ℹ️ Command <code>%s</code> is already enabled for admins.", name)}, nil
	case changed:
		return &dto.CommandResponse{Message: fmt.Sprintf("✅ Command <code>%s</code> disabled for admins.", name)}, nil
	default:
		return &dto.CommandResponse{Message: fmt.Sprintf("ℹ️ Command <code>%s</code> is not enabled for admins.", name)}, nil
	}
}

func (uc *UseCase) handleGroup(ctx context.Context, req *dto.CommandRequest, allow bool) *dto.CommandResponse {
	if req.ChatType == "private" {
		return &dto.CommandResponse{Message: "⚠️ Use this command inside the group."}
	}

	if allow {
		if uc.gate.AllowGroup(ctx, req.ChatID) {
			return &dto.CommandResponse{Message: "✅ This group is now authorized to use the bot."}
		}
		return &dto.CommandResponse{Message: "ℹ️ This group is already authorized."}
	}

	if uc.gate.DisallowGroup(ctx, req.ChatID) {
		return &dto.CommandResponse{Message: "✅ This group is no longer authorized."}
	}
	return &dto.CommandResponse{Message: "ℹ️ This group was not authorized."}
}

func (uc *UseCase) handleMaintenance() *dto.CommandResponse {
	if uc.sessions.ToggleMaintenance() {
		return &dto.CommandResponse{Message: "🛠 Maintenance mode is now <b>ON</b>.", Keyboard: dto.KeyboardOwnerPanel}
	}
	return &dto.CommandResponse{Message: "🛠 Maintenance mode is now <b>OFF</b>.", Keyboard: dto.KeyboardOwnerPanel}
}

func (uc *UseCase) handleAdminList() *dto.CommandResponse {
	names := uc.gate.AdminCommands()
	if len(names) == 0 {
		return &dto.CommandResponse{Message: "📋 No commands are enabled for admins.", Keyboard: dto.KeyboardOwnerPanel}
	}

	var b strings.Builder
	b.WriteString("📋 <b>Admin commands:</b>\n")
	for _, name := range names {
		fmt.Fprintf(&b, "• <code>%s</code>\n", name)
	}
	return &dto.CommandResponse{Message: b.String(), Keyboard: dto.KeyboardOwnerPanel}
}

func (uc *UseCase) handleLogs() (*dto.CommandResponse, error) {
	if uc.logFile == "" {
		return &dto.CommandResponse{Message: "⚠️ File logging is disabled."}, nil
	}

	info, err := os.Stat(uc.logFile)
	if err != nil || info.Size() == 0 {
		return &dto.CommandResponse{Message: "📭 No logs found."}, nil
	}

	return &dto.CommandResponse{Message: "📄 Bot logs", DocumentPath: uc.logFile}, nil
}

// errorResponse converts err into the reply for the user
func (uc *UseCase) errorResponse(req *dto.CommandRequest, command string, err error) *dto.CommandResponse {
	if reason, ok := playbackerrors.DeniedReason(err); ok {
		return &dto.CommandResponse{Message: deniedMessage(reason)}
	}

	var tooLong *playbackerrors.DurationError
	if errors.As(err, &tooLong) {
		uc.logger.Info().
			Int64("chat_id", req.ChatID).
			Str("command", command).
			Dur("duration", tooLong.Duration).
			Dur("limit", tooLong.Limit).
			Msg("Rejected item over duration limit")
		return &dto.CommandResponse{Message: durationMessage(tooLong.Kind, tooLong.Limit)}
	}

	level := zerolog.WarnLevel
	msg := "⚠️ An error occurred. Please try again later."
	switch {
	case errors.Is(err, playbackerrors.ErrEmptyQuery):
		msg = "⚠️ Please provide a song name!"
	case errors.Is(err, playbackerrors.ErrNotFound):
		msg = "⚠️ No results found. Please try another name."
	case errors.Is(err, playbackerrors.ErrInvalidURL):
		msg = "⚠️ Invalid URL or unsupported website."
	case errors.Is(err, playbackerrors.ErrResolutionTimeout):
		msg = "⚠️ Search took too long. Please try again."
	case errors.Is(err, playbackerrors.ErrJoinFailed):
		msg = "⚠️ Could not join the voice chat. Make sure a voice chat is running."
	case errors.Is(err, playbackerrors.ErrNothingPlaying):
		msg = "⚠️ Nothing is playing right now."
	case errors.Is(err, playbackerrors.ErrPlayFailed):
		msg = "⚠️ The voice chat did not respond. Please try again."
	case errors.Is(err, playbackerrors.ErrInvalidCommand):
		msg = "⚠️ Unknown command."
	default:
		level = zerolog.ErrorLevel
	}

	uc.logger.WithLevel(level).
		Err(err).
		Int64("chat_id", req.ChatID).
		Int64("user_id", req.UserID).
		Str("command", command).
		Msg("Command failed")

	return &dto.CommandResponse{Message: msg}
}
