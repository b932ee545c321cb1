package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/justestif/go-spotify-submission-bot/internal/auth"
	"github.com/justestif/go-spotify-submission-bot/internal/config"
	"github.com/justestif/go-spotify-submission-bot/internal/db"
	"github.com/justestif/go-spotify-submission-bot/internal/discord"
	"github.com/justestif/go-spotify-submission-bot/internal/moderation"
	"github.com/justestif/go-spotify-submission-bot/internal/spotify"
	"github.com/justestif/go-spotify-submission-bot/internal/submissions"
	"github.com/justestif/go-spotify-submission-bot/internal/web"
)

func newLogger(level string) *log.Logger {
	return newLoggerTo(os.Stderr, level)
}

func newLoggerTo(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: true, ReportCaller: true})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the config and submissions tables",
		Action: func(ctx context.Context, _ *cli.Command) error {
			env, err := config.LoadEnv()
			if err != nil {
				return err
			}
			logger := newLogger(env.LogLevel)

			database, err := db.New(ctx, env.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.Migrate(ctx); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Connect to chat and serve the authorization callback",
		Action: serve,
	}
}

func serve(ctx context.Context, _ *cli.Command) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	logger := newLogger(env.LogLevel)

	database, err := db.New(ctx, env.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	store := database.Config()

	settings, err := config.LoadSettings(ctx, store)
	if err != nil {
		return err
	}
	logger.Info("settings loaded", "curators", len(settings.Curators))

	manager := auth.NewManager(
		auth.NewAuthenticator(settings.ClientID, settings.ClientSecret, settings.RedirectURI),
		store,
		auth.WithLogger(logger.With("component", "auth")),
	)

	catalog := spotify.NewFromTokenSource(manager, spotify.WithLogger(logger.With("component", "spotify")))

	service := submissions.New(catalog, database.Submissions(), manager, submissions.Playlists{
		Pending:  settings.PendingPlaylist,
		Approved: settings.ApprovedPlaylist,
	}, logger.With("component", "submissions"))

	chat, err := discord.New(settings.BotToken, settings.AdminID,
		discord.WithLogger(logger.With("component", "discord")),
		discord.WithAdminTTL(env.AuthTimeout),
	)
	if err != nil {
		return err
	}

	modCfg := moderation.Config{
		SubmissionChannelID: settings.SubmissionChannel,
		HelpChannelID:       settings.HelpChannel,
		CommandsChannelID:   settings.CommandsChannel,
		TokenName:           settings.TokenName,
		SubmittedRoleID:     settings.SubmittedRoleID,
		CuratorIDs:          settings.CuratorIDs(),
		GodMode:             env.GodMode,
		RequireToken:        env.RequireToken,
		SecretTTL:           env.SecretMessageTTL,
		TokenLevels:         settings.TokenLevels,
	}
	ready := &auth.Readiness{}
	gate := moderation.NewGate(modCfg, chat, service, ready, logger.With("component", "gate"))
	reviewer := moderation.NewReviewer(modCfg, chat, service, logger.With("component", "review"))
	info := moderation.NewInfo(modCfg, chat, logger.With("component", "info"))

	chat.Handle(ctx, gate.Handle)
	chat.Handle(ctx, reviewer.Handle)
	chat.Handle(ctx, info.Handle)

	if err := chat.Open(); err != nil {
		return err
	}
	defer chat.Close()

	codeGate := auth.NewCodeGate()
	server := web.NewServer(web.ServerConfig{
		Addr:   env.Addr(),
		Store:  store,
		Gate:   codeGate,
		Logger: logger.With("component", "web"),
	})

	bootstrap := &auth.Bootstrap{
		Manager:  manager,
		Store:    store,
		Gate:     codeGate,
		Ready:    ready,
		Notifier: chat,
		Timeout:  env.AuthTimeout,
	}
	go func() {
		err := bootstrap.Run(ctx)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrAuthTimeout):
			logger.Error("timed out waiting for Spotify authorization code, restart the bot to retry")
		default:
			logger.Error("authorization failed, submissions will be deleted until restart", "err", err)
		}
	}()

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("callback server: %w", err)
	}
	return nil
}
