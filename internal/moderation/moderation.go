// Package moderation decides what happens to each message posted in the
// submission channel and runs the curator review command.
package moderation

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/justestif/go-spotify-submission-bot/internal/submissions"
)

// DefaultSecretTTL is how long private explanations stay visible.
const DefaultSecretTTL = 60 * time.Second

// Role is a granted entitlement.
type Role struct {
	ID   string
	Name string
}

// Message is an inbound chat message with its author's roles resolved.
type Message struct {
	ID         string
	ChannelID  string
	GuildID    string
	AuthorID   string
	AuthorName string
	AuthorBot  bool
	Content    string
	Roles      []Role
}

// Chat is the chat platform as seen by moderation.
type Chat interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	SendMessage(ctx context.Context, channelID, content string) error
	// SendSecretMessage DMs the user and deletes the DM after ttl.
	SendSecretMessage(ctx context.Context, userID, content string, ttl time.Duration) error
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	React(ctx context.Context, channelID, messageID, emoji string) error
	SendEmbed(ctx context.Context, channelID string, embed Embed) error
}

// Embed is a rich informational message.
type Embed struct {
	Title     string
	Color     int
	Thumbnail string
	Fields    []EmbedField
}

// EmbedField is one titled block of an Embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Submitter adds tracks to the submission playlist.
type Submitter interface {
	AddToPlaylist(ctx context.Context, rawLink, userID, messageID string) (submissions.Outcome, error)
}

// Reconciler resolves the submission queue.
type Reconciler interface {
	Reconcile(ctx context.Context) ([]submissions.Reaction, error)
}

// Readiness reports whether authorization has completed.
type Readiness interface {
	Ready() bool
}

// Config holds the community settings moderation depends on.
type Config struct {
	SubmissionChannelID string
	HelpChannelID       string
	CommandsChannelID   string
	TokenName           string // entitlement roles contain this in their name
	SubmittedRoleID     string
	CuratorIDs          []string
	GodMode             bool // curators may submit without an entitlement
	RequireToken        bool
	SecretTTL           time.Duration
	TokenLevels         []string // entitlement role IDs, lowest level first
}

func (c Config) isCurator(userID string) bool {
	return slices.Contains(c.CuratorIDs, userID)
}

// hasToken reports whether the member holds an entitlement. With the
// requirement disabled everyone does.
func (c Config) hasToken(roles []Role) bool {
	if !c.RequireToken {
		return true
	}
	_, ok := c.tokenRole(roles)
	return ok
}

// tokenRoles returns every entitlement role held, in member order.
func (c Config) tokenRoles(roles []Role) []Role {
	var held []Role
	for _, r := range roles {
		if c.TokenName != "" && strings.Contains(r.Name, c.TokenName) {
			held = append(held, r)
		}
	}
	return held
}

// tokenRole returns the first entitlement role held.
func (c Config) tokenRole(roles []Role) (Role, bool) {
	for _, r := range roles {
		if c.TokenName != "" && strings.Contains(r.Name, c.TokenName) {
			return r, true
		}
	}
	return Role{}, false
}

func (c Config) secretTTL() time.Duration {
	if c.SecretTTL == 0 {
		return DefaultSecretTTL
	}
	return c.SecretTTL
}
