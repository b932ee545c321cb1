package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-submission-bot/internal/submissions"
)

// ReviewCommand is the curator command that triggers reconciliation.
const ReviewCommand = "]reviewSubs"

// Reviewer runs the review command from the commands channel.
type Reviewer struct {
	cfg        Config
	chat       Chat
	reconciler Reconciler
	logger     *log.Logger
}

// NewReviewer creates a Reviewer.
func NewReviewer(cfg Config, chat Chat, reconciler Reconciler, logger *log.Logger) *Reviewer {
	if logger == nil {
		logger = log.Default()
	}
	return &Reviewer{cfg: cfg, chat: chat, reconciler: reconciler, logger: logger}
}

// Handle runs reconciliation if msg is the review command from a curator
// and applies the resulting reactions in the submission channel.
func (r *Reviewer) Handle(ctx context.Context, msg Message) {
	if msg.AuthorBot || msg.ChannelID != r.cfg.CommandsChannelID || strings.TrimSpace(msg.Content) != ReviewCommand {
		return
	}
	logger := r.logger.With("user", msg.AuthorName)

	if !r.cfg.isCurator(msg.AuthorID) {
		err := r.chat.SendSecretMessage(ctx, msg.AuthorID,
			"You do not have the required permissions to run that command!", r.cfg.secretTTL())
		if err != nil {
			logger.Error("sending private message", "err", err)
		}
		return
	}

	reactions, err := r.reconciler.Reconcile(ctx)
	if errors.Is(err, submissions.ErrEmptyQueue) {
		logger.Error("database does not contain any submissions")
		return
	}
	if err != nil {
		logger.Error("processing submissions", "err", err)
		return
	}
	if len(reactions) == 0 {
		logger.Error("no actionable submissions found")
		return
	}

	for _, reaction := range reactions {
		if err := r.chat.React(ctx, r.cfg.SubmissionChannelID, reaction.MessageID, reaction.Emoji); err != nil {
			logger.Error("could not react to message", "message", reaction.MessageID, "err", err)
		}
	}

	if err := r.chat.SendMessage(ctx, r.cfg.SubmissionChannelID, r.announcement()); err != nil {
		logger.Error("sending announcement", "err", err)
	}
}

func (r *Reviewer) announcement() string {
	return fmt.Sprintf("<@&%s>\n\n"+
		"Just finished listening to all of the latest submissions and added a few to the playlist!\n\n"+
		"There should be a %s reaction if I listened to it, so let me know if I missed your submission.",
		r.cfg.SubmittedRoleID, submissions.ReviewedEmoji)
}
