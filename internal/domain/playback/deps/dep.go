// Package deps contains interface definitions for the playback domain dependencies
package deps

import (
	"context"

	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/entities"
)

// CallTransport issues requests to the external streaming engine that owns voice calls.
// A nil error means the request was accepted by the engine link.
type CallTransport interface {
	// JoinCall joins the chat's voice call and starts streamURL
	JoinCall(ctx context.Context, chatID int64, item entities.QueueItem) error

	// PlayNext switches the running call to the next stream
	PlayNext(ctx context.Context, chatID int64, item entities.QueueItem) error

	// LeaveCall leaves the chat's voice call
	LeaveCall(ctx context.Context, chatID int64) error

	// Pause pauses the running stream
	Pause(ctx context.Context, chatID int64) error

	// Resume resumes a paused stream
	Resume(ctx context.Context, chatID int64) error
}

// MediaResolver turns a query or URL into a playable item
type MediaResolver interface {
	// ResolveByQuery combines a metadata lookup with a search and extraction step
	ResolveByQuery(ctx context.Context, query string) (entities.QueueItem, error)

	// ResolveByURL extracts a stream directly from url
	ResolveByURL(ctx context.Context, url string) (entities.QueueItem, error)
}

// StateStore persists the session map and maintenance flag
type StateStore interface {
	// Load never fails: missing or malformed documents yield an empty state
	Load(ctx context.Context) entities.GlobalState

	// Save writes the state so that readers never observe a partial document
	Save(ctx context.Context, state entities.GlobalState) error
}

// AccessStore persists the admin-command allow-list and allowed groups
type AccessStore interface {
	LoadAdminCommands(ctx context.Context) []string
	SaveAdminCommands(ctx context.Context, commands []string) error
	LoadAllowedGroups(ctx context.Context) map[int64]bool
	SaveAllowedGroups(ctx context.Context, groups map[int64]bool) error
}

// MembershipChecker reports the status of a user in a chat ("creator", "administrator", ...)
type MembershipChecker interface {
	GetMembership(ctx context.Context, chatID, userID int64) (string, error)
}

// MaintenanceReader exposes the global maintenance flag
type MaintenanceReader interface {
	Maintenance() bool
}

// PlaybackEvents is the part of the session manager driven by the streaming engine
type PlaybackEvents interface {
	// OnPlaybackFinished advances the queue if streamURL is still its head
	OnPlaybackFinished(ctx context.Context, chatID int64, streamURL string) error
}

// StateSource exposes snapshots of the session manager for persistence
type StateSource interface {
	Snapshot() entities.GlobalState
	Dirty() <-chan struct{}
}
