// Package discord adapts a discordgo session to the chat operations the
// moderation and auth packages need.
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-submission-bot/internal/moderation"
)

// api is the subset of *discordgo.Session the adapter calls.
type api interface {
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
}

// HandlerFunc handles one inbound message.
type HandlerFunc func(ctx context.Context, msg moderation.Message)

// Adapter is the chat platform.
type Adapter struct {
	session *discordgo.Session
	api     api
	adminID string
	ttl     time.Duration
	logger  *log.Logger

	mu    sync.Mutex
	roles map[string]map[string]string // guild -> role ID -> name
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

// WithAdminTTL sets how long the admin's authorization DM stays visible.
func WithAdminTTL(ttl time.Duration) Option {
	return func(a *Adapter) { a.ttl = ttl }
}

// New creates an adapter for a bot token. Call Open to connect.
func New(token, adminID string, opts ...Option) (*Adapter, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsDirectMessages

	a := newAdapter(session, adminID, opts...)
	a.session = session
	return a, nil
}

func newAdapter(api api, adminID string, opts ...Option) *Adapter {
	a := &Adapter{
		api:     api,
		adminID: adminID,
		ttl:     moderation.DefaultSecretTTL,
		logger:  log.Default(),
		roles:   make(map[string]map[string]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle registers fn for every message created. discordgo dispatches
// each event on its own goroutine.
func (a *Adapter) Handle(ctx context.Context, fn HandlerFunc) {
	a.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Message == nil || m.Author == nil {
			return
		}
		fn(ctx, a.toMessage(ctx, m.Message))
	})
}

// Open connects to the gateway.
func (a *Adapter) Open() error {
	if err := a.session.Open(); err != nil {
		return fmt.Errorf("opening discord gateway: %w", err)
	}
	a.logger.Info("connected to discord")
	return nil
}

// Close disconnects from the gateway.
func (a *Adapter) Close() error {
	return a.session.Close()
}

// DeleteMessage deletes a message.
func (a *Adapter) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return a.api.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

// SendMessage posts content to a channel.
func (a *Adapter) SendMessage(ctx context.Context, channelID, content string) error {
	_, err := a.api.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

// SendSecretMessage DMs the user and deletes the DM after ttl.
func (a *Adapter) SendSecretMessage(ctx context.Context, userID, content string, ttl time.Duration) error {
	ch, err := a.api.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("opening DM channel: %w", err)
	}
	msg, err := a.api.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("sending DM: %w", err)
	}

	time.AfterFunc(ttl, func() {
		if err := a.api.ChannelMessageDelete(ch.ID, msg.ID); err != nil {
			a.logger.Warn("deleting expired DM", "user", userID, "err", err)
		}
	})
	return nil
}

// NotifyAdmin DMs the operator.
func (a *Adapter) NotifyAdmin(ctx context.Context, message string) error {
	if a.adminID == "" {
		return fmt.Errorf("admin user not configured")
	}
	return a.SendSecretMessage(ctx, a.adminID, message, a.ttl)
}

// AddRole grants a role.
func (a *Adapter) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return a.api.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

// RemoveRole revokes a role.
func (a *Adapter) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return a.api.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
}

// React adds an emoji reaction to a message.
func (a *Adapter) React(ctx context.Context, channelID, messageID, emoji string) error {
	return a.api.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

// SendEmbed posts a rich message to a channel.
func (a *Adapter) SendEmbed(ctx context.Context, channelID string, embed moderation.Embed) error {
	_, err := a.api.ChannelMessageSendEmbed(channelID, toEmbed(embed), discordgo.WithContext(ctx))
	return err
}
