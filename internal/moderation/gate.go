package moderation

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/justestif/go-spotify-submission-bot/internal/links"
	"github.com/justestif/go-spotify-submission-bot/internal/submissions"
)

// action is what the gate does with a classified message.
type action int

const (
	actIgnore action = iota
	actSubmit
	actRejectContentType
	actRejectForeign
)

var linkActions = map[links.Kind]action{
	links.None:           actIgnore,
	links.Track:          actSubmit,
	links.Album:          actRejectContentType,
	links.Playlist:       actRejectContentType,
	links.Malformed:      actRejectContentType,
	links.NotThisCatalog: actRejectForeign,
}

// route is the authorization path a track submission takes.
type route int

const (
	routeDenied route = iota
	routeOverride
	routeEntitled
)

func chooseRoute(curator, godMode, entitled bool) route {
	switch {
	case curator && godMode:
		return routeOverride
	case entitled:
		return routeEntitled
	default:
		return routeDenied
	}
}

type replyFunc func(userID, link string) string

var (
	replyAlreadyApproved replyFunc = func(string, string) string {
		return "This track has already been approved and is in the approved playlist!"
	}
	replyAlreadyQueued replyFunc = func(string, string) string {
		return "Duplicate entry found. This track is already in queue for review!"
	}
	replyFailed replyFunc = func(userID, _ string) string {
		return fmt.Sprintf("Sorry <@%s>, I couldn't add your submission right now. Please try again later.", userID)
	}
)

// replies maps a route and submission outcome to the public reply.
var replies = map[route]map[submissions.Outcome]replyFunc{
	routeOverride: {
		submissions.Accepted: func(userID, _ string) string {
			return fmt.Sprintf("Submission added by admin without using a token. <@%s>", userID)
		},
		submissions.RejectedAlreadyApproved: replyAlreadyApproved,
		submissions.RejectedAlreadyQueued:   replyAlreadyQueued,
		submissions.RejectedTrackNotFound: func(_, link string) string {
			return "Unable to add submission without using a token because track does not exist: " + link
		},
	},
	routeEntitled: {
		submissions.Accepted: func(userID, _ string) string {
			return fmt.Sprintf("We got your submission <@%s>, thanks!", userID)
		},
		submissions.RejectedAlreadyApproved: replyAlreadyApproved,
		submissions.RejectedAlreadyQueued:   replyAlreadyQueued,
		submissions.RejectedTrackNotFound: func(_, link string) string {
			return "Hey, I was unable to find the track you submitted: " + link +
				"\n\nPlease double check the link is correct!"
		},
	},
}

// Gate moderates the submission channel.
type Gate struct {
	cfg       Config
	chat      Chat
	submitter Submitter
	ready     Readiness
	logger    *log.Logger
}

// NewGate creates a Gate.
func NewGate(cfg Config, chat Chat, submitter Submitter, ready Readiness, logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.Default()
	}
	return &Gate{
		cfg:       cfg,
		chat:      chat,
		submitter: submitter,
		ready:     ready,
		logger:    logger,
	}
}

// Handle moderates one message. It is safe to call concurrently.
func (g *Gate) Handle(ctx context.Context, msg Message) {
	if msg.ChannelID != g.cfg.SubmissionChannelID || msg.AuthorBot {
		return
	}
	logger := g.logger.With("event", uuid.NewString(), "user", msg.AuthorName, "message", msg.ID)

	if !g.ready.Ready() {
		g.deleteMessage(ctx, logger, msg)
		logger.Error("bot is not ready")
		return
	}

	link := links.Classify(msg.Content)

	switch linkActions[link.Kind] {
	case actSubmit:
		g.submit(ctx, logger, msg, link)
	case actRejectContentType:
		g.deleteMessage(ctx, logger, msg)
		g.secret(ctx, logger, msg.AuthorID, fmt.Sprintf(
			"Provided %s: %s\n\n"+
				"This is not a track link! Please pick a single track to submit. "+
				"Check the <#%s> channel for more information.\n\n"+
				"Note: This message will disappear after %d seconds.",
			formOf(link), link.Kind, g.cfg.HelpChannelID, int(g.cfg.secretTTL().Seconds())))
		logger.Warn("invalid Spotify submission deleted", "kind", link.Kind)
	case actRejectForeign:
		g.deleteMessage(ctx, logger, msg)
		g.secret(ctx, logger, msg.AuthorID, fmt.Sprintf(
			"Hello o/, I saw your submission, but I only accept Spotify links!\n\n"+
				"Check out the <#%s> channel for more details!\n\n"+
				"Note: This message will be deleted after %d seconds.",
			g.cfg.HelpChannelID, int(g.cfg.secretTTL().Seconds())))
		logger.Warn("invalid link deleted", "url", link.Raw)
	}
}

func (g *Gate) submit(ctx context.Context, logger *log.Logger, msg Message, link links.Link) {
	r := chooseRoute(g.cfg.isCurator(msg.AuthorID), g.cfg.GodMode, g.cfg.hasToken(msg.Roles))

	if r == routeDenied {
		g.deleteMessage(ctx, logger, msg)
		logger.Warn("suspicious activity detected: submission without token")
		return
	}

	outcome, err := g.submitter.AddToPlaylist(ctx, msg.Content, msg.AuthorID, msg.ID)
	if err != nil {
		logger.Error("adding submission", "err", err)
		g.send(ctx, logger, msg.ChannelID, replyFailed(msg.AuthorID, link.Raw))
		return
	}
	logger.Info("submission processed", "outcome", outcome, "track", link.ID)

	if reply, ok := replies[r][outcome]; ok {
		g.send(ctx, logger, msg.ChannelID, reply(msg.AuthorID, link.Raw))
	}

	if r == routeEntitled && outcome == submissions.Accepted {
		g.flagSubmitted(ctx, logger, msg)
		if g.cfg.RequireToken {
			g.consumeToken(ctx, logger, msg)
		}
	}
}

// flagSubmitted grants the submitted marker unless already held.
func (g *Gate) flagSubmitted(ctx context.Context, logger *log.Logger, msg Message) {
	if g.cfg.SubmittedRoleID == "" {
		logger.Error("submitted role not configured")
		return
	}
	if slices.ContainsFunc(msg.Roles, func(r Role) bool { return r.ID == g.cfg.SubmittedRoleID }) {
		return
	}
	if err := g.chat.AddRole(ctx, msg.GuildID, msg.AuthorID, g.cfg.SubmittedRoleID); err != nil {
		logger.Error("granting submitted role", "err", err)
	}
}

// consumeToken revokes the first entitlement role the member holds.
func (g *Gate) consumeToken(ctx context.Context, logger *log.Logger, msg Message) {
	role, ok := g.cfg.tokenRole(msg.Roles)
	if !ok {
		return
	}
	if err := g.chat.RemoveRole(ctx, msg.GuildID, msg.AuthorID, role.ID); err != nil {
		logger.Error("removing token", "role", role.Name, "err", err)
	}
}

func (g *Gate) deleteMessage(ctx context.Context, logger *log.Logger, msg Message) {
	if err := g.chat.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		logger.Error("deleting message", "err", err)
	}
}

func (g *Gate) send(ctx context.Context, logger *log.Logger, channelID, content string) {
	if err := g.chat.SendMessage(ctx, channelID, content); err != nil {
		logger.Error("sending message", "err", err)
	}
}

func (g *Gate) secret(ctx context.Context, logger *log.Logger, userID, content string) {
	if err := g.chat.SendSecretMessage(ctx, userID, content, g.cfg.secretTTL()); err != nil {
		logger.Error("sending private message", "err", err)
	}
}

func formOf(l links.Link) links.Form {
	if l.Form == "" {
		return links.FormLink
	}
	return l.Form
}
