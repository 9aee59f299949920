package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/thaiminh0911/telefilm-bot/src/adapters"
	"github.com/thaiminh0911/telefilm-bot/src/config"
	"github.com/thaiminh0911/telefilm-bot/src/conversation"
	"github.com/thaiminh0911/telefilm-bot/src/logger"
	"github.com/thaiminh0911/telefilm-bot/src/metrics"
	"github.com/thaiminh0911/telefilm-bot/src/server"
	"github.com/thaiminh0911/telefilm-bot/src/tgbot"
)

// PayPal approval tokens expire after about three hours.
const pendingPaymentTTL = 3 * time.Hour

func main() {
	envConfig, err := config.LoadEnvConfig(".env")
	if err != nil {
		log.Fatalf("Couldn't load .env config: %v", err)
	}
	if err := envConfig.ValidateWithDefaults(); err != nil {
		log.Fatalf("Invalid .env config: %v", err)
	}

	logs := logger.New(envConfig.LogLevel)
	metrics.InitMetrics()

	httpClient := &http.Client{Timeout: time.Duration(envConfig.HTTPTimeoutSeconds) * time.Second}

	paypal := adapters.NewPayPalProvider(
		adapters.PayPalBaseURL(envConfig.PayPalMode),
		envConfig.PayPalClientID,
		envConfig.PayPalClientSecret,
		envConfig.PayPalReturnURL,
		envConfig.PayPalCancelURL,
		httpClient,
	)
	forex := adapters.NewFreeForexProvider(envConfig.ForexAPIURL, httpClient)

	bot, err := tgbot.New(envConfig.TelegramToken, 30, logs)
	if err != nil {
		log.Fatalf("Couldn't start Telegram bot: %v", err)
	}

	flow := conversation.New(bot, paypal, forex, conversation.NewPaymentRegistry(pendingPaymentTTL), logs, conversation.Options{
		AppURL:       envConfig.AppURL,
		PackageTable: tgbotapi.FilePath(envConfig.PackageTablePath),
		IsAllowed:    envConfig.IsAllowed,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.New(envConfig.HTTPAddr, flow, logs).Run(ctx); err != nil {
			logs.Error("http server stopped", "error", err)
			stop()
		}
	}()

	logs.Info("started Telegram bot", "username", bot.Username, "paypal_mode", envConfig.PayPalMode)
	bot.Run(ctx, flow.HandleUpdate)

	wg.Wait()
	logs.Info("stopped")
}
