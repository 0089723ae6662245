// Command tg-login performs the interactive Telegram authentication and
// stores the session file the archive service reads at startup. Run it
// once per phone number before deploying.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xpolarzero/nightwatch/config"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/logger"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Logging.Level)
	log.Info().
		Str("session_dir", cfg.Telegram.SessionDir).
		Msg("Starting Telegram login")

	client, err := telegram.NewMTProtoClient(&cfg.Telegram, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Telegram client")
	}

	// Generous timeout: the flow waits on a human typing a code
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := client.Login(ctx); err != nil {
		log.Fatal().Err(err).Msg("Login failed")
	}

	log.Info().Msg("Session stored, the archive service can now connect")
}
