package telegram

import (
	"github.com/go-telegram/bot/models"

	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/consts"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/dto"
)

func button(text, callback string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: callback}
}

var (
	playbackRow = []models.InlineKeyboardButton{
		button("⏸ Pause", consts.CallbackPause),
		button("▶️ Resume", consts.CallbackResume),
		button("⏭ Skip", consts.CallbackSkip),
		button("⏹ Stop", consts.CallbackStop),
	}
	ownerRow = []models.InlineKeyboardButton{
		button("🛠 Maintenance", consts.CallbackMaintenance),
		button("📋 Admin commands", consts.CallbackAdminCommands),
		button("📄 Logs", consts.CallbackCheckLogs),
	}
	helpRow = []models.InlineKeyboardButton{
		button("📖 Help", consts.CallbackHelp),
	}
)

// keyboardMarkup returns nil for dto.KeyboardNone and unknown keyboards
func keyboardMarkup(kb dto.Keyboard) models.ReplyMarkup {
	var rows [][]models.InlineKeyboardButton

	switch kb {
	case dto.KeyboardStart:
		rows = [][]models.InlineKeyboardButton{helpRow}
	case dto.KeyboardStartOwner:
		rows = [][]models.InlineKeyboardButton{helpRow, ownerRow}
	case dto.KeyboardPlayback:
		rows = [][]models.InlineKeyboardButton{playbackRow}
	case dto.KeyboardOwnerPanel:
		rows = [][]models.InlineKeyboardButton{ownerRow}
	default:
		return nil
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
