package buissines

import (
	"fmt"
	"html"
	"time"

	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/entities"
	playbackerrors "github.com/ahmadraza76/Rolavibe/internal/domain/playback/errors"
)

const startMessage = `<b>✨ Welcome to Rola Vibe! 🎶</b>

🎧 Enjoy high-quality music streaming in your groups.
🎶 Play your favorite songs with just a command!

Send /help to see what I can do.`

const helpMessage = `✨ <b>Rola Vibe Bot Help Menu</b> ✨

🎵 <b>For Everyone:</b>
▫️ .start - Start the bot
▫️ .help - Show this menu

🔧 <b>Admin Commands:</b>
▫️ .play &lt;song name&gt; - Play a song (alias .rola)
▫️ .stop - Stop playback
▫️ .pause - Pause playback
▫️ .resume - Resume playback
▫️ .skip - Play the next song
▫️ .queue - Show the queue

👑 <b>Owner Commands:</b>
▫️ .enableadmin &lt;command&gt; - Allow admins to use a command
▫️ .disableadmin &lt;command&gt; - Disallow admins to use a command
▫️ .playvideo &lt;video url&gt; - Play a video
▫️ .addgroup - Authorize this group
▫️ .removegroup - Revoke this group
▫️ .maintenance - Toggle maintenance mode
▫️ .logs - Get the log file

📌 Admin commands can only be used by group admins and the bot owner.`

func nowPlayingMessage(item entities.QueueItem) string {
	msg := fmt.Sprintf("🎵 <b>Now Playing:</b> <code>%s</code>\n", html.EscapeString(item.Title))
	if u := item.WatchURL(); u != "" {
		msg += fmt.Sprintf("🔗 <a href=\"%s\">Watch</a>\n", html.EscapeString(u))
	}
	return msg + "\n🎧 Enjoy the Rola Vibe!"
}

func durationMessage(kind entities.MediaKind, limit time.Duration) string {
	if kind == entities.MediaKindVideo {
		return fmt.Sprintf("⚠️ Video is too long. Maximum allowed duration is %s.", humanDuration(limit))
	}
	return fmt.Sprintf("⚠️ Song is too long. Maximum allowed duration is %s.", humanDuration(limit))
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	m := int(d / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}

func deniedMessage(reason playbackerrors.DenyReason) string {
	switch reason {
	case playbackerrors.ReasonGroupNotAuthorized:
		return "⚠️ This group is not authorized to use the bot. Please contact the bot owner."
	case playbackerrors.ReasonMaintenance:
		return "⚠️ Bot is currently under maintenance. Please try again later."
	case playbackerrors.ReasonOwnerOnly:
		return "⚠️ Only the bot owner can use this command!"
	case playbackerrors.ReasonAdminCommandDisabled:
		return "⚠️ This command is not enabled for admins."
	default:
		return "⚠️ Only admins can use this command!"
	}
}
