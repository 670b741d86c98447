// Package consts contains constants for the playback domain
package consts

import "strings"

// Level is the privilege a command requires
type Level int

const (
	LevelPublic Level = iota
	LevelAdmin
	LevelOwner
)

// Command represents a bot command
type Command struct {
	Name        string
	Description string
	Level       Level
	// Permission is the name checked against the admin-command allow-list
	Permission string
}

// Bot commands
var (
	CommandStart = Command{Name: "start", Description: "Start the bot", Level: LevelPublic}
	CommandHelp  = Command{Name: "help", Description: "Show help message", Level: LevelPublic}

	CommandPlay   = Command{Name: "play", Description: "Play a song by name", Level: LevelAdmin, Permission: "play"}
	CommandRola   = Command{Name: "rola", Description: "Alias of play", Level: LevelAdmin, Permission: "play"}
	CommandStop   = Command{Name: "stop", Description: "Stop playback and clear the queue", Level: LevelAdmin, Permission: "stop"}
	CommandPause  = Command{Name: "pause", Description: "Pause playback", Level: LevelAdmin, Permission: "pause"}
	CommandResume = Command{Name: "resume", Description: "Resume playback", Level: LevelAdmin, Permission: "resume"}
	CommandSkip   = Command{Name: "skip", Description: "Play the next queued item", Level: LevelAdmin, Permission: "skip"}
	CommandQueue  = Command{Name: "queue", Description: "Show the queue", Level: LevelAdmin, Permission: "queue"}

	CommandPlayVideo    = Command{Name: "playvideo", Description: "Play a video by URL", Level: LevelOwner}
	CommandEnableAdmin  = Command{Name: "enableadmin", Description: "Allow admins to use a command", Level: LevelOwner}
	CommandDisableAdmin = Command{Name: "disableadmin", Description: "Disallow admins to use a command", Level: LevelOwner}
	CommandAddGroup     = Command{Name: "addgroup", Description: "Authorize this group", Level: LevelOwner}
	CommandRemoveGroup  = Command{Name: "removegroup", Description: "Revoke this group", Level: LevelOwner}
	CommandMaintenance  = Command{Name: "maintenance", Description: "Toggle maintenance mode", Level: LevelOwner}
	CommandAdminList    = Command{Name: "admin_commands", Description: "List admin commands", Level: LevelOwner}
	CommandLogs         = Command{Name: "logs", Description: "Send the log file", Level: LevelOwner}
)

// AllCommands contains all available bot commands
var AllCommands = []Command{
	CommandStart,
	CommandHelp,
	CommandPlay,
	CommandRola,
	CommandStop,
	CommandPause,
	CommandResume,
	CommandSkip,
	CommandQueue,
	CommandPlayVideo,
	CommandEnableAdmin,
	CommandDisableAdmin,
	CommandAddGroup,
	CommandRemoveGroup,
	CommandMaintenance,
	CommandAdminList,
	CommandLogs,
}

var byName = func() map[string]Command {
	m := make(map[string]Command, len(AllCommands))
	for _, c := range AllCommands {
		m[c.Name] = c
	}
	return m
}()

// Lookup finds a command by name, ignoring case and a leading "." or "/"
func Lookup(name string) (Command, bool) {
	name = strings.ToLower(strings.TrimLeft(strings.TrimSpace(name), "./"))
	c, ok := byName[name]
	return c, ok
}

// Callback tags of inline buttons
const (
	CallbackHelp          = "help"
	CallbackPause         = "pause"
	CallbackResume        = "resume"
	CallbackSkip          = "skip"
	CallbackStop          = "stop"
	CallbackMaintenance   = "maintenance"
	CallbackAdminCommands = "admin_commands"
	CallbackCheckLogs     = "check_logs"
)

// CallbackCommands maps callback tags to the command they authorize as
var CallbackCommands = map[string]Command{
	CallbackHelp:          CommandHelp,
	CallbackPause:         CommandPause,
	CallbackResume:        CommandResume,
	CallbackSkip:          CommandSkip,
	CallbackStop:          CommandStop,
	CallbackMaintenance:   CommandMaintenance,
	CallbackAdminCommands: CommandAdminList,
	CallbackCheckLogs:     CommandLogs,
}
