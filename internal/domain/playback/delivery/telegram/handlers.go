// Package telegram contains Telegram delivery handlers
package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/consts"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/dto"
	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/usecase/buissines"
)

// RequestTimeout bounds every Telegram API call
const RequestTimeout = 30 * time.Second

const searchingMessage = "🔎 Searching..."

// executor runs a parsed command and returns its single reply
type executor interface {
	Execute(ctx context.Context, req *dto.CommandRequest) *dto.CommandResponse
}

// sender is the subset of the Bot API used for replies
type sender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *tgbot.EditMessageTextParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *tgbot.DeleteMessageParams) (bool, error)
	SendPhoto(ctx context.Context, params *tgbot.SendPhotoParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *tgbot.SendDocumentParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error)
}

// Handlers contains Telegram command and callback handlers.
// Updates received before MarkReady wait until the session state is restored.
type Handlers struct {
	uc     executor
	bot    sender
	logger zerolog.Logger

	ready     chan struct{}
	readyOnce sync.Once
}

// NewHandlers creates new Telegram handlers
func NewHandlers(uc *buissines.UseCase, bot *tgbot.Bot, logger zerolog.Logger) *Handlers {
	return newHandlers(uc, bot, logger)
}

func newHandlers(uc executor, bot sender, logger zerolog.Logger) *Handlers {
	return &Handlers{
		uc:     uc,
		bot:    bot,
		logger: logger.With().Str("component", "telegram-handlers").Logger(),
		ready:  make(chan struct{}),
	}
}

// MarkReady releases held and future updates
func (h *Handlers) MarkReady() {
	h.readyOnce.Do(func() { close(h.ready) })
}

func (h *Handlers) waitReady(ctx context.Context) bool {
	select {
	case <-h.ready:
		return true
	case <-ctx.Done():
		h.logger.Warn().Err(ctx.Err()).Msg("Update dropped before handlers were ready")
		return false
	}
}

// HandleCommand handles every "/" or "." prefixed command
func (h *Handlers) HandleCommand(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	name, args, ok := parseCommand(msg.Text)
	if !ok {
		return
	}
	// Unknown dot-words are ordinary chat, not typos of commands
	if _, known := consts.Lookup(name); !known && strings.HasPrefix(strings.TrimSpace(msg.Text), dotPrefix) {
		return
	}

	if !h.waitReady(ctx) {
		return
	}

	chatID := msg.Chat.ID
	req := &dto.CommandRequest{
		ChatID:   chatID,
		UserID:   msg.From.ID,
		ChatType: string(msg.Chat.Type),
		Command:  name,
		Args:     args,
	}

	h.logCommand(req.UserID, name, "processing")

	var placeholderID int
	if needsPlaceholder(name, args) {
		placeholderID = h.sendPlaceholder(ctx, chatID)
	}

	resp := h.uc.Execute(ctx, req)
	h.reply(ctx, chatID, placeholderID, resp)

	h.logCommand(req.UserID, name, "replied")
}

// HandleCallback handles inline button presses
func (h *Handlers) HandleCallback(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	if !h.waitReady(ctx) {
		return
	}

	h.answerCallback(ctx, cq.ID)

	cmd, ok := consts.CallbackCommands[cq.Data]
	if !ok {
		h.logger.Warn().Str("data", cq.Data).Msg("Unknown callback data")
		return
	}
	if cq.Message.Message == nil {
		return
	}

	chat := cq.Message.Message.Chat
	req := &dto.CommandRequest{
		ChatID:   chat.ID,
		UserID:   cq.From.ID,
		ChatType: string(chat.Type),
		Command:  cmd.Name,
	}

	h.logCommand(req.UserID, "callback:"+cq.Data, "processing")

	resp := h.uc.Execute(ctx, req)
	h.reply(ctx, chat.ID, 0, resp)
}

func needsPlaceholder(name, args string) bool {
	if args == "" {
		return false
	}
	switch name {
	case consts.CommandPlay.Name, consts.CommandRola.Name, consts.CommandPlayVideo.Name:
		return true
	}
	return false
}

// sendPlaceholder returns 0 when the placeholder could not be sent
func (h *Handlers) sendPlaceholder(ctx context.Context, chatID int64) int {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	msg, err := h.bot.SendMessage(msgCtx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   searchingMessage,
	})
	if err != nil {
		h.logger.Warn().Int64("chat_id", chatID).Err(err).Msg("Failed to send placeholder")
		return 0
	}
	return msg.ID
}

// reply renders resp, replacing the placeholder when there is one
func (h *Handlers) reply(ctx context.Context, chatID int64, placeholderID int, resp *dto.CommandResponse) {
	if resp == nil {
		return
	}
	markup := keyboardMarkup(resp.Keyboard)

	switch {
	case resp.DocumentPath != "":
		h.dropPlaceholder(ctx, chatID, placeholderID)
		if err := h.sendDocument(ctx, chatID, resp.DocumentPath, resp.Message); err != nil {
			h.logger.Error().Int64("chat_id", chatID).Err(err).Msg("Failed to send document")
			h.sendResponse(ctx, chatID, "❌ Failed to send the log file.", nil)
		}

	case resp.PhotoURL != "":
		h.dropPlaceholder(ctx, chatID, placeholderID)
		if err := h.sendPhoto(ctx, chatID, resp.PhotoURL, resp.Message, markup); err != nil {
			h.logger.Warn().Int64("chat_id", chatID).Err(err).Msg("Failed to send photo, falling back to text")
			h.sendResponse(ctx, chatID, resp.Message, markup)
		}

	case placeholderID != 0:
		if err := h.editText(ctx, chatID, placeholderID, resp.Message, markup); err != nil {
			h.logger.Warn().Int64("chat_id", chatID).Err(err).Msg("Failed to edit placeholder")
			h.dropPlaceholder(ctx, chatID, placeholderID)
			h.sendResponse(ctx, chatID, resp.Message, markup)
		}

	default:
		h.sendResponse(ctx, chatID, resp.Message, markup)
	}
}

func (h *Handlers) sendResponse(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.SendMessage(msgCtx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.logger.Error().Int64("chat_id", chatID).Err(err).Msg("Failed to send Telegram response")
	}
}

func (h *Handlers) editText(ctx context.Context, chatID int64, messageID int, text string, markup models.ReplyMarkup) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.EditMessageText(msgCtx, &tgbot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	return err
}

func (h *Handlers) dropPlaceholder(ctx context.Context, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}

	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	if _, err := h.bot.DeleteMessage(msgCtx, &tgbot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	}); err != nil {
		h.logger.Debug().Int64("chat_id", chatID).Err(err).Msg("Failed to delete placeholder")
	}
}

func (h *Handlers) sendPhoto(ctx context.Context, chatID int64, photoURL, caption string, markup models.ReplyMarkup) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.SendPhoto(msgCtx, &tgbot.SendPhotoParams{
		ChatID:      chatID,
		Photo:       &models.InputFileString{Data: photoURL},
		Caption:     caption,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	return err
}

func (h *Handlers) sendDocument(ctx context.Context, chatID int64, path, caption string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err = h.bot.SendDocument(msgCtx, &tgbot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: filepath.Base(path), Data: f},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	return err
}

func (h *Handlers) answerCallback(ctx context.Context, callbackID string) {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	if _, err := h.bot.AnswerCallbackQuery(msgCtx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
	}); err != nil {
		h.logger.Debug().Str("callback_id", callbackID).Err(err).Msg("Failed to answer callback")
	}
}

// logCommand logs command progress
func (h *Handlers) logCommand(userID int64, command, result string) {
	h.logger.Info().Int64("user_id", userID).Str("command", command).Str("result", result).Msg("Telegram command processed")
}
