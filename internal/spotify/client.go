// Package spotify provides a wrapper around the Spotify Web API for the
// calls the submission bot needs.
package spotify

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://api.spotify.com/v1/"

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api     *spotify.Client
	http    *http.Client
	baseURL string
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root. The URL must end
// with a slash.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithLogger sets the client's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a new Spotify client wrapper. httpClient must attach the
// bearer token to every request; see oauth2.NewClient.
func New(httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		baseURL: defaultBaseURL,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.api = spotify.New(httpClient, spotify.WithBaseURL(c.baseURL))
	return c
}

// NewFromTokenSource builds a Client whose requests are authorized by ts.
// ts is consulted on every request, so a token rotated by its owner is
// picked up immediately.
func NewFromTokenSource(ts oauth2.TokenSource, opts ...Option) *Client {
	return New(&http.Client{
		Transport: &oauth2.Transport{Source: ts},
		Timeout:   15 * time.Second,
	}, opts...)
}
