// Package access decides who may run which command
package access

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ahmadraza76/Rolavibe/config"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/consts"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/deps"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/entities"
	playbackerrors "github.com/ahmadraza76/Rolavibe/internal/domain/playback/errors"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/metrics"
)

const loadTimeout = 10 * time.Second

// Request is a command invocation to authorize
type Request struct {
	ChatID   int64
	UserID   int64
	ChatType string
	Command  string
}

// Gate combines the group allow-list, maintenance mode, owner-only commands
// and the admin-command allow-list.
type Gate struct {
	ownerID     int64
	store       deps.AccessStore
	members     deps.MembershipChecker
	maintenance deps.MaintenanceReader
	metrics     *metrics.Metrics
	logger      zerolog.Logger

	mu            sync.RWMutex
	allowedGroups map[int64]bool
	adminCommands map[string]bool

	// one write path per persisted document
	adminWriteMu  sync.Mutex
	groupsWriteMu sync.Mutex
}

// NewGate creates the gate and loads both allow-lists from the store
func NewGate(
	owner *config.OwnerConfig,
	store deps.AccessStore,
	members deps.MembershipChecker,
	maintenance deps.MaintenanceReader,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Gate {
	g := &Gate{
		ownerID:       owner.ID,
		store:         store,
		members:       members,
		maintenance:   maintenance,
		metrics:       m,
		logger:        logger.With().Str("component", "access-gate").Logger(),
		allowedGroups: make(map[int64]bool),
		adminCommands: make(map[string]bool),
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	for _, name := range store.LoadAdminCommands(ctx) {
		g.adminCommands[name] = true
	}
	for chatID, allowed := range store.LoadAllowedGroups(ctx) {
		if allowed {
			g.allowedGroups[chatID] = true
		}
	}

	g.logger.Info().
		Int("admin_commands", len(g.adminCommands)).
		Int("allowed_groups", len(g.allowedGroups)).
		Msg("Access lists loaded")

	return g
}

// IsOwner reports whether userID is the bot owner
func (g *Gate) IsOwner(userID int64) bool {
	return userID == g.ownerID
}

// Authorize returns nil when the request may run, a *DeniedError otherwise.
// Checks run in order: group allow-list, maintenance, owner-only, admin.
func (g *Gate) Authorize(ctx context.Context, req Request) error {
	cmd, ok := consts.Lookup(req.Command)
	if !ok {
		return playbackerrors.ErrInvalidCommand
	}

	if err := g.authorize(ctx, req, cmd); err != nil {
		if reason, ok := playbackerrors.DeniedReason(err); ok {
			g.metrics.DeniedCommands.WithLabelValues(string(reason)).Inc()
			g.logger.Info().
				Int64("chat_id", req.ChatID).
				Int64("user_id", req.UserID).
				Str("command", cmd.Name).
				Str("reason", string(reason)).
				Msg("Command denied")
		}
		return err
	}
	return nil
}

func (g *Gate) authorize(ctx context.Context, req Request, cmd consts.Command) error {
	isOwner := g.IsOwner(req.UserID)

	// the owner has to be able to authorize a group from inside it
	ownerAddsGroup := isOwner && cmd.Name == consts.CommandAddGroup.Name
	if req.ChatType == entities.ChatTypeSupergroup && !ownerAddsGroup && !g.IsGroupAllowed(req.ChatID) {
		return playbackerrors.NewDenied(playbackerrors.ReasonGroupNotAuthorized)
	}

	if !isOwner && g.maintenance.Maintenance() {
		return playbackerrors.NewDenied(playbackerrors.ReasonMaintenance)
	}

	switch cmd.Level {
	case consts.LevelOwner:
		if !isOwner {
			return playbackerrors.NewDenied(playbackerrors.ReasonOwnerOnly)
		}
		return nil

	case consts.LevelAdmin:
		if isOwner {
			return nil
		}

		status, err := g.members.GetMembership(ctx, req.ChatID, req.UserID)
		if err != nil {
			g.logger.Error().
				Err(err).
				Int64("chat_id", req.ChatID).
				Int64("user_id", req.UserID).
				Msg("Admin check failed")
			return playbackerrors.NewDenied(playbackerrors.ReasonNotAdmin)
		}
		if status != entities.MemberStatusAdministrator && status != entities.MemberStatusCreator {
			return playbackerrors.NewDenied(playbackerrors.ReasonNotAdmin)
		}

		g.mu.RLock()
		enabled := g.adminCommands[cmd.Permission]
		g.mu.RUnlock()
		if !enabled {
			return playbackerrors.NewDenied(playbackerrors.ReasonAdminCommandDisabled)
		}
		return nil

	default:
		return nil
	}
}

// IsGroupAllowed reports whether chatID is on the group allow-list
func (g *Gate) IsGroupAllowed(chatID int64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.allowedGroups[chatID]
}

// AdminCommands returns the delegated admin commands, sorted
func (g *Gate) AdminCommands() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.adminCommands))
	for name := range g.adminCommands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// EnableAdminCommand delegates an admin-level command to group admins.
// It reports whether the list changed.
func (g *Gate) EnableAdminCommand(ctx context.Context, name string) (bool, error) {
	return g.setAdminCommand(ctx, name, true)
}

// DisableAdminCommand revokes a delegated admin command
func (g *Gate) DisableAdminCommand(ctx context.Context, name string) (bool, error) {
	return g.setAdminCommand(ctx, name, false)
}

func (g *Gate) setAdminCommand(ctx context.Context, name string, enabled bool) (bool, error) {
	cmd, ok := consts.Lookup(name)
	if !ok || cmd.Level != consts.LevelAdmin {
		return false, playbackerrors.ErrInvalidCommand
	}

	g.adminWriteMu.Lock()
	defer g.adminWriteMu.Unlock()

	g.mu.Lock()
	if g.adminCommands[cmd.Permission] == enabled {
		g.mu.Unlock()
		return false, nil
	}
	if enabled {
		g.adminCommands[cmd.Permission] = true
	} else {
		delete(g.adminCommands, cmd.Permission)
	}
	snapshot := make([]string, 0, len(g.adminCommands))
	for permission := range g.adminCommands {
		snapshot = append(snapshot, permission)
	}
	g.mu.Unlock()

	if err := g.store.SaveAdminCommands(ctx, snapshot); err != nil {
		g.logger.Error().Err(err).Str("command", cmd.Permission).Msg("Failed to persist admin commands")
	}

	g.logger.Info().Str("command", cmd.Permission).Bool("enabled", enabled).Msg("Admin command updated")
	return true, nil
}

// AllowGroup adds chatID to the group allow-list and reports whether it changed
func (g *Gate) AllowGroup(ctx context.Context, chatID int64) bool {
	return g.setGroup(ctx, chatID, true)
}

// DisallowGroup removes chatID from the group allow-list
func (g *Gate) DisallowGroup(ctx context.Context, chatID int64) bool {
	return g.setGroup(ctx, chatID, false)
}

func (g *Gate) setGroup(ctx context.Context, chatID int64, allowed bool) bool {
	g.groupsWriteMu.Lock()
	defer g.groupsWriteMu.Unlock()

	g.mu.Lock()
	if g.allowedGroups[chatID] == allowed {
		g.mu.Unlock()
		return false
	}
	if allowed {
		g.allowedGroups[chatID] = true
	} else {
		delete(g.allowedGroups, chatID)
	}
	snapshot := make(map[int64]bool, len(g.allowedGroups))
	for id := range g.allowedGroups {
		snapshot[id] = true
	}
	g.mu.Unlock()

	if err := g.store.SaveAllowedGroups(ctx, snapshot); err != nil {
		g.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to persist allowed groups")
	}

	g.logger.Info().Int64("chat_id", chatID).Bool("allowed", allowed).Msg("Group allow-list updated")
	return true
}
