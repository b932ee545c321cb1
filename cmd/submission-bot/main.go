// Command submission-bot moderates a chat channel where members submit
// Spotify tracks for review and keeps the review playlists in sync.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	logger := newLogger("info")

	app := &cli.Command{
		Name:  "submission-bot",
		Usage: "Moderate track submissions and sync review playlists",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		logger.Fatal("application error", "err", err)
	}
}
