package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ukrmarket/baraholka-bot/config"
	"github.com/ukrmarket/baraholka-bot/internal/bot"
	"github.com/ukrmarket/baraholka-bot/internal/llm"
	"github.com/ukrmarket/baraholka-bot/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		log.Fatal().Msg("BOT_TOKEN is not set")
	}

	adminID := requireChatID("ADMIN_CHAT_ID")
	channelID := requireChatID("CHANNEL_ID")

	// Phone encryption key (required)
	phoneKeyPassphrase := os.Getenv("PHONE_KEY")
	if phoneKeyPassphrase == "" {
		log.Fatal().Msg("PHONE_KEY is not set")
	}

	// Database path (optional, defaults to baraholka.db)
	dbPath := os.Getenv("BARAHOLKA_DB_PATH")
	if dbPath == "" {
		dbPath = "baraholka.db"
	}

	tg, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telegram bot")
	}
	tg.Debug = false
	log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")

	phoneKey, err := storage.DeriveKey(phoneKeyPassphrase)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to derive phone encryption key")
	}

	store, err := storage.NewSQLiteStore(dbPath, phoneKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer store.Close()
	log.Info().Str("dbPath", dbPath).Msg("store initialized")

	// Create context that cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	b := bot.NewBot(tg, store, adminID, channelID)

	// LLM features are optional: without a key the bot skips tag suggestions
	// and free-text answers
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		assistant, err := llm.NewGeminiAssistant(ctx, apiKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize gemini assistant")
		}
		b.SetAssistant(assistant)
		log.Info().Msg("gemini assistant initialized")
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, llm features disabled")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runBot(ctx, tg, b)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

func requireChatID(envVar string) int64 {
	raw := os.Getenv(envVar)
	if raw == "" {
		log.Fatal().Msgf("%s is not set", envVar)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Fatal().Err(err).Msgf("%s must be a valid integer", envVar)
	}
	return id
}

func runBot(ctx context.Context, tg *tgbotapi.BotAPI, b *bot.Bot) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			tg.StopReceivingUpdates()
			log.Info().Msg("waiting for active handlers to finish")
			wg.Wait()
			b.Shutdown()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				wg.Wait()
				b.Shutdown()
				return nil
			}
			wg.Add(1)
			go func(u tgbotapi.Update) {
				defer wg.Done()
				b.HandleUpdate(ctx, u)
			}(update)
		}
	}
}
