// Package dto contains data transfer objects for the playback domain
package dto

// CommandRequest is a command or button press after transport parsing
type CommandRequest struct {
	ChatID   int64
	UserID   int64
	ChatType string
	// Command is the command name without prefix, e.g. "play"
	Command string
	// Args is the text after the command
	Args string
}

// Keyboard selects the inline keyboard attached to a reply
type Keyboard string

const (
	KeyboardNone       Keyboard = ""
	KeyboardStart      Keyboard = "start"
	KeyboardStartOwner Keyboard = "start_owner"
	KeyboardPlayback   Keyboard = "playback"
	KeyboardOwnerPanel Keyboard = "owner_panel"
)

// CommandResponse is the single reply produced for a command
type CommandResponse struct {
	Message string `json:"message"`
	// PhotoURL turns the reply into a photo with Message as caption
	PhotoURL string   `json:"photoUrl,omitempty"`
	Keyboard Keyboard `json:"keyboard,omitempty"`
	// DocumentPath is a local file sent as a document
	DocumentPath string `json:"documentPath,omitempty"`
}

// CallCommandEvent is published to the streaming engine
type CallCommandEvent struct {
	RequestID string `json:"request_id"`
	Action    string `json:"action"`
	ChatID    int64  `json:"chat_id"`
	StreamURL string `json:"stream_url,omitempty"`
	Kind      string `json:"kind,omitempty"`
	IssuedAt  string `json:"issued_at"`
}

// PlaybackFinishedEvent is emitted by the streaming engine when a stream ends
type PlaybackFinishedEvent struct {
	ChatID    int64  `json:"chat_id"`
	StreamURL string `json:"stream_url"`
}
