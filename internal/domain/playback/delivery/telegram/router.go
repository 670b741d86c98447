// Package telegram contains Telegram delivery layer
package telegram

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/consts"
)

// Router registers Telegram bot handlers
type Router struct {
	handlers *Handlers
	logger   zerolog.Logger
}

// NewRouter creates new Telegram router
func NewRouter(handlers *Handlers, logger zerolog.Logger) *Router {
	return &Router{
		handlers: handlers,
		logger:   logger,
	}
}

// RegisterRoutes registers all command handlers on the bot
func (r *Router) RegisterRoutes(bot *tgbot.Bot) {
	patterns := commandPatterns()
	for _, pattern := range patterns {
		bot.RegisterHandler(tgbot.HandlerTypeMessageText, pattern, tgbot.MatchTypePrefix, r.handlers.HandleCommand)
	}

	// Empty prefix matches every callback
	bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, "", tgbot.MatchTypePrefix, r.handlers.HandleCallback)

	r.logger.Info().Int("patterns", len(patterns)).Msg("All Telegram command handlers registered successfully")
}

// commandPatterns lists the message prefixes routed to HandleCommand.
// Every "/" message is routed so unknown commands get a reply; dot commands
// are routed per name since ".word" is common in plain chat.
func commandPatterns() []string {
	patterns := []string{slashPrefix}
	for _, cmd := range consts.AllCommands {
		patterns = append(patterns, dotPrefix+cmd.Name)
	}
	return patterns
}

// MenuCommands lists public and admin commands for the client menu
func MenuCommands() []models.BotCommand {
	var commands []models.BotCommand
	for _, cmd := range consts.AllCommands {
		if cmd.Level == consts.LevelOwner {
			continue
		}
		commands = append(commands, models.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		})
	}
	return commands
}

// MenuPublisher sets the client command menu
type MenuPublisher interface {
	SetCommands(ctx context.Context, commands []models.BotCommand) error
}

// PublishMenu sets the command menu, logging failures
func (r *Router) PublishMenu(ctx context.Context, setter MenuPublisher) {
	if err := setter.SetCommands(ctx, MenuCommands()); err != nil {
		r.logger.Warn().Err(err).Msg("Command menu not published")
	}
}
