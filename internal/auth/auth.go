// Package auth owns the Spotify OAuth credential lifecycle for the bot:
// the access/refresh token pair, its expiry bookkeeping and the startup
// authorization handshake.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-submission-bot/internal/db"
)

// Keys under which the live credential is persisted.
const (
	KeyAccessToken  = "AUTH_ACCESS_TOKEN"
	KeyRefreshToken = "AUTH_REFRESH_TOKEN"
	KeyIssuedAt     = "AUTH_TIME"
	KeyExpiresIn    = "EXPIRES_IN"
	KeyAuthCode     = "SPOTIFY_AUTH_CODE"
)

var (
	// ErrMissingToken is returned when the access or refresh token is absent.
	ErrMissingToken = errors.New("access/refresh token(s) missing")

	// ErrRefreshFailed is returned when the refresh grant could not be exchanged.
	ErrRefreshFailed = errors.New("refreshing access token failed")
)

// Store persists named configuration values. Get returns db.ErrNotFound
// for a key that was never stored.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Exchanger performs the OAuth grants against the catalog's accounts
// service. *spotifyauth.Authenticator satisfies it.
type Exchanger interface {
	AuthURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
	RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// Credential is the OAuth token pair plus expiry bookkeeping.
// IssuedAt + ExpiresIn (seconds) is the expiry boundary.
type Credential struct {
	AccessToken  string
	RefreshToken string
	IssuedAt     int64
	ExpiresIn    int64
}

// NewAuthenticator builds the Spotify authenticator requesting playlist
// read and modify scopes.
func NewAuthenticator(clientID, clientSecret, redirectURI string) *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithClientID(clientID),
		spotifyauth.WithClientSecret(clientSecret),
		spotifyauth.WithRedirectURL(redirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistReadPrivate,
		),
	)
}

// Manager owns the credential. It is shared by every handler; all reads and
// writes of the credential go through mu so an expiry check and the refresh
// it triggers happen as one step.
type Manager struct {
	mu     sync.Mutex
	cred   Credential
	oauth  Exchanger
	store  Store
	logger *log.Logger
	now    func() time.Time

	// missingReported suppresses repeat warnings until a token appears.
	missingReported bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger used for operator-visible failures.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a Manager. Call Load to pick up a persisted credential.
func NewManager(oauth Exchanger, store Store, opts ...Option) *Manager {
	m := &Manager{
		oauth:  oauth,
		store:  store,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads the persisted credential. Missing or unparsable fields are
// left empty, which IsExpired reports as expired.
func (m *Manager) Load(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cred = Credential{
		AccessToken:  m.read(ctx, KeyAccessToken),
		RefreshToken: m.read(ctx, KeyRefreshToken),
	}
	m.cred.IssuedAt, _ = strconv.ParseInt(m.read(ctx, KeyIssuedAt), 10, 64)
	m.cred.ExpiresIn, _ = strconv.ParseInt(m.read(ctx, KeyExpiresIn), 10, 64)
}

// Credential returns a copy of the current credential.
func (m *Manager) Credential() Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred
}

// IsExpired reports whether the access token is past its expiry boundary.
// It fails closed: a missing token counts as expired.
func (m *Manager) IsExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiredLocked()
}

func (m *Manager) expiredLocked() bool {
	if m.cred.AccessToken == "" || m.cred.RefreshToken == "" {
		if !m.missingReported {
			m.logger.Warn("token check", "err", ErrMissingToken)
			m.missingReported = true
		}
		return true
	}
	m.missingReported = false

	elapsed := m.now().Unix() - m.cred.IssuedAt
	if elapsed <= m.cred.ExpiresIn {
		m.logger.Debug("token still valid", "elapsed", elapsed, "expiresIn", m.cred.ExpiresIn)
	}
	return elapsed > m.cred.ExpiresIn
}

// Refresh exchanges the refresh token for a new access token. On failure the
// previous tokens are kept and false is returned.
func (m *Manager) Refresh(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

// EnsureFresh refreshes the credential if it is expired. It returns false
// only when a needed refresh failed.
func (m *Manager) EnsureFresh(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.expiredLocked() {
		return true
	}
	return m.refreshLocked(ctx)
}

func (m *Manager) refreshLocked(ctx context.Context) bool {
	if m.cred.RefreshToken == "" {
		m.logger.Error("refresh", "err", ErrMissingToken)
		return false
	}

	// An empty access token forces the oauth2 package to run the refresh grant.
	token, err := m.oauth.RefreshToken(ctx, &oauth2.Token{RefreshToken: m.cred.RefreshToken})
	if err != nil {
		m.logger.Error("refresh", "err", fmt.Errorf("%w: %w", ErrRefreshFailed, err))
		return false
	}

	m.cred.AccessToken = token.AccessToken
	m.cred.IssuedAt = m.now().Unix()
	m.cred.ExpiresIn = m.lifetime(token)

	m.write(ctx, KeyIssuedAt, strconv.FormatInt(m.cred.IssuedAt, 10))
	m.write(ctx, KeyAccessToken, m.cred.AccessToken)
	m.write(ctx, KeyExpiresIn, strconv.FormatInt(m.cred.ExpiresIn, 10))
	m.logger.Info("access token refreshed")

	if token.RefreshToken != "" && token.RefreshToken != m.cred.RefreshToken {
		m.cred.RefreshToken = token.RefreshToken
		m.write(ctx, KeyRefreshToken, m.cred.RefreshToken)
		m.logger.Info("refresh token rotated")
	}
	return true
}

// InitiateAuthorization returns the interactive consent URL.
func (m *Manager) InitiateAuthorization() string {
	return m.oauth.AuthURL(uuid.NewString(), spotifyauth.ShowDialog)
}

// CompleteAuthorization exchanges a one-time authorization code for the
// initial token pair and persists it.
func (m *Manager) CompleteAuthorization(ctx context.Context, code string) error {
	token, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}
	if token.AccessToken == "" || token.RefreshToken == "" {
		return ErrMissingToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cred = Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IssuedAt:     m.now().Unix(),
		ExpiresIn:    m.lifetime(token),
	}

	m.write(ctx, KeyIssuedAt, strconv.FormatInt(m.cred.IssuedAt, 10))
	m.write(ctx, KeyAccessToken, m.cred.AccessToken)
	m.write(ctx, KeyRefreshToken, m.cred.RefreshToken)
	m.write(ctx, KeyExpiresIn, strconv.FormatInt(m.cred.ExpiresIn, 10))

	m.logger.Info("authorized", "lifespan", time.Duration(m.cred.ExpiresIn)*time.Second)
	return nil
}

// Token implements oauth2.TokenSource. Refreshing is left to EnsureFresh,
// so the returned token carries no expiry of its own.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred.AccessToken == "" {
		return nil, ErrMissingToken
	}
	return &oauth2.Token{
		AccessToken:  m.cred.AccessToken,
		RefreshToken: m.cred.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}

// lifetime returns the token lifespan in seconds.
func (m *Manager) lifetime(token *oauth2.Token) int64 {
	if token.ExpiresIn > 0 {
		return token.ExpiresIn
	}
	if !token.Expiry.IsZero() {
		return int64(token.Expiry.Sub(m.now()) / time.Second)
	}
	return 0
}

func (m *Manager) read(ctx context.Context, key string) string {
	v, err := m.store.Get(ctx, key)
	if errors.Is(err, db.ErrNotFound) {
		m.logger.Debug("credential field not stored", "key", key)
		return ""
	}
	if err != nil {
		m.logger.Warn("reading credential field", "key", key, "err", err)
		return ""
	}
	return v
}

// write persists a field. Failures are logged only; the in-memory value wins.
func (m *Manager) write(ctx context.Context, key, value string) {
	if err := m.store.Set(ctx, key, value); err != nil {
		m.logger.Error("persisting credential field", "key", key, "err", err)
	}
}
