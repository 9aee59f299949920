package tgbot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type UpdateHandler func(context.Context, tgbotapi.Update)

type Bot struct {
	Username string

	api         *tgbotapi.BotAPI
	logger      *slog.Logger
	pollTimeout int
}

func New(token string, pollTimeout int, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if pollTimeout <= 0 {
		pollTimeout = 30
	}

	return &Bot{
		Username:    api.Self.UserName,
		api:         api,
		logger:      logger,
		pollTimeout: pollTimeout,
	}, nil
}

func (b *Bot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return b.api.Send(c)
}

func (b *Bot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return b.api.Request(c)
}

// Run long-polls for updates and hands each one to handler in order until
// ctx is done. A panicking handler is logged and the loop continues.
func (b *Bot) Run(ctx context.Context, handler UpdateHandler) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(ctx, handler, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, handler UpdateHandler, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("update handler panicked", "update_id", update.UpdateID, "error", fmt.Sprint(r))
		}
	}()
	handler(ctx, update)
}
