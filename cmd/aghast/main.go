package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/randomairborne/aghast/internal/api"
	"github.com/randomairborne/aghast/internal/automigrate"
	"github.com/randomairborne/aghast/internal/config"
	"github.com/randomairborne/aghast/internal/discord"
	"github.com/randomairborne/aghast/internal/interactions"
	"github.com/randomairborne/aghast/internal/relay"
	"github.com/randomairborne/aghast/internal/store"
	"github.com/randomairborne/aghast/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr).With().Timestamp().Logger()
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer db.Close()
	logger.Info().Msg("connected to PostgreSQL")

	if err := automigrate.Run(db, migrations.FS, logger); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	// Discord identity and command registration
	client := discord.NewClient(cfg.Token)

	app, err := client.CurrentApplication(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to fetch application identity")
	}
	logger.Info().Str("application", app.Name).Msg("authenticated with Discord")

	verifier, err := interactions.NewVerifier(app.VerifyKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid interaction verify key")
	}

	if err := client.BulkOverwriteGlobalCommands(ctx, app.ID, interactions.Commands()); err != nil {
		logger.Fatal().Err(err).Msg("failed to register commands")
	}

	// Relay engine over the ticket stores
	engine := &relay.Engine{
		Tickets:      store.NewTicketStore(db),
		Counterparts: store.NewCounterpartStore(db),
		API:          client,
		Config: relay.Config{
			ForumChannel: cfg.ForumChannel,
			Guild:        cfg.Guild,
			OpenMessage:  cfg.OpenMessage,
			CloseMessage: cfg.CloseMessage,
		},
		Log: logger.With().Str("component", "relay").Logger(),
	}

	// Interaction endpoint
	interactionApp := &interactions.App{
		API: client,
		Log: logger.With().Str("component", "interactions").Logger(),
	}
	handler := &interactions.Handler{
		Verifier: verifier,
		Dispatcher: &interactions.Dispatcher{
			OnCommand:   interactionApp.HandleCommand,
			OnComponent: interactionApp.HandleComponent,
			OnModal:     interactionApp.HandleModal,
			Log:         logger.With().Str("component", "interactions").Logger(),
		},
		Log: logger.With().Str("component", "interactions").Logger(),
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(logger, handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Environment).
			Msg("starting interaction endpoint")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Gateway session feeding the relay
	session := discord.NewSession(
		cfg.Token,
		discord.IntentGuilds|discord.IntentGuildMessages|discord.IntentDirectMessages|discord.IntentMessageContent,
		logger.With().Str("component", "gateway").Logger(),
	)
	consumer := &relay.Consumer{
		Engine: engine,
		Log:    logger.With().Str("component", "relay").Logger(),
	}

	gatewayDone := make(chan struct{})
	go func() {
		defer close(gatewayDone)
		_ = session.Run(ctx)
	}()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		consumer.Run(ctx, session.Events())
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	// The canceled context stops the session, which closes the event
	// stream, which lets the consumer drain and return.
	<-gatewayDone
	<-consumerDone

	logger.Info().Msg("aghast stopped")
}

func newLogger(cfg config.Config) zerolog.Logger {
	if cfg.IsProduction() {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()
}
