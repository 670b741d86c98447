// Package entities contains domain entities
package entities

import "time"

// MediaKind tells the streaming engine which kind of stream to pipe
type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
)

// QueueItem is a resolved, playable entry of a chat queue.
// It is treated as an immutable value: consumers remove items, never mutate them.
type QueueItem struct {
	StreamURL string        `json:"streamUrl"`
	Title     string        `json:"title"`
	MediaID   string        `json:"mediaId"`
	Kind      MediaKind     `json:"kind"`
	Duration  time.Duration `json:"-"`
}

// ThumbnailURL returns the preview image for items that come from YouTube
func (i QueueItem) ThumbnailURL() string {
	if i.Kind != MediaKindAudio || i.MediaID == "" {
		return ""
	}
	return "https://img.youtube.com/vi/" + i.MediaID + "/maxresdefault.jpg"
}

// WatchURL returns the public page of the item, falling back to the stream URL
func (i QueueItem) WatchURL() string {
	if i.Kind == MediaKindAudio && i.MediaID != "" {
		return "https://youtu.be/" + i.MediaID
	}
	return i.StreamURL
}

// ChatSession is the playback state of one chat.
// CallActive is true iff a join was issued and no leave has completed since.
type ChatSession struct {
	ChatID     int64
	Queue      []QueueItem
	CallActive bool
}

// Clone returns a deep copy safe to hand out of the session manager
func (s *ChatSession) Clone() *ChatSession {
	queue := make([]QueueItem, len(s.Queue))
	copy(queue, s.Queue)
	return &ChatSession{
		ChatID:     s.ChatID,
		Queue:      queue,
		CallActive: s.CallActive,
	}
}

// GlobalState is the process-wide playback state
type GlobalState struct {
	Sessions        map[int64]*ChatSession
	MaintenanceMode bool
}

// NewGlobalState returns an empty state
func NewGlobalState() GlobalState {
	return GlobalState{Sessions: make(map[int64]*ChatSession)}
}

// Clone returns a deep copy of the state
func (g GlobalState) Clone() GlobalState {
	out := GlobalState{
		Sessions:        make(map[int64]*ChatSession, len(g.Sessions)),
		MaintenanceMode: g.MaintenanceMode,
	}
	for chatID, session := range g.Sessions {
		out.Sessions[chatID] = session.Clone()
	}
	return out
}

// ChatMember statuses reported by the chat transport
const (
	MemberStatusCreator       = "creator"
	MemberStatusAdministrator = "administrator"
	MemberStatusMember        = "member"
)

// ChatTypeSupergroup is the chat type that requires an allow-list entry
const ChatTypeSupergroup = "supergroup"
