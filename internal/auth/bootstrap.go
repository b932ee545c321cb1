package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justestif/go-spotify-submission-bot/internal/db"
)

// DefaultAuthTimeout is how long startup waits for the OAuth callback.
const DefaultAuthTimeout = 60 * time.Second

// ErrAuthTimeout is returned when the OAuth callback is not received in time.
var ErrAuthTimeout = errors.New("timed out waiting for Spotify authorization code")

// Notifier delivers the consent URL to the operator.
type Notifier interface {
	NotifyAdmin(ctx context.Context, message string) error
}

// Bootstrap brings the credential to a usable state at startup and marks
// ready on success. Failures leave ready unset; they are not fatal to the
// process.
type Bootstrap struct {
	Manager  *Manager
	Store    Store
	Gate     *CodeGate
	Ready    *Readiness
	Notifier Notifier
	Timeout  time.Duration
}

// Run performs one of three paths:
//   - no stored authorization code: send the consent URL, wait for the
//     callback, exchange the code;
//   - stored credential expired: refresh it;
//   - otherwise: ready immediately.
func (b *Bootstrap) Run(ctx context.Context) error {
	logger := b.Manager.logger

	b.Manager.Load(ctx)

	_, err := b.Store.Get(ctx, KeyAuthCode)
	switch {
	case errors.Is(err, db.ErrNotFound):
		if err := b.authorize(ctx); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("reading authorization code: %w", err)
	case b.Manager.IsExpired():
		if !b.Manager.Refresh(ctx) {
			return ErrRefreshFailed
		}
	}

	b.Ready.MarkReady()
	logger.Info("bot is ready")
	return nil
}

func (b *Bootstrap) authorize(ctx context.Context) error {
	timeout := b.Timeout
	if timeout == 0 {
		timeout = DefaultAuthTimeout
	}

	if err := b.Notifier.NotifyAdmin(ctx, b.Manager.InitiateAuthorization()); err != nil {
		return fmt.Errorf("sending authorization URL: %w", err)
	}

	if !b.Gate.Wait(timeout) {
		return ErrAuthTimeout
	}

	// The callback persisted the code; read it back from the store.
	code, err := b.Store.Get(ctx, KeyAuthCode)
	if err != nil {
		return fmt.Errorf("reading authorization code: %w", err)
	}
	return b.Manager.CompleteAuthorization(ctx, code)
}
