package consts

// Call command actions understood by the streaming engine
const (
	ActionJoin   = "join"
	ActionPlay   = "play"
	ActionLeave  = "leave"
	ActionPause  = "pause"
	ActionResume = "resume"
)
