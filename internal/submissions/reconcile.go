package submissions

import (
	"context"
	"fmt"

	"github.com/justestif/go-spotify-submission-bot/internal/spotify"
)

// ReviewedEmoji marks a submission a curator has dealt with, whether it was
// approved or removed.
const ReviewedEmoji = "✅"

// Reaction tells the caller to react to a submission message.
type Reaction struct {
	UserID    string
	MessageID string
	Emoji     string
}

// Resolution is what reconciliation decided for one submission.
type Resolution int

const (
	StillPending Resolution = iota
	Approved
	Removed
)

// resolve classifies a track against the approved and pending snapshots.
func resolve(trackID string, approved, pending spotify.TrackSet) Resolution {
	switch {
	case approved.Contains(trackID):
		return Approved
	case !pending.Contains(trackID):
		return Removed
	default:
		return StillPending
	}
}

// Reconcile compares the queue with fresh snapshots of both playlists. Each
// approved or removed submission yields a Reaction and its row is deleted
// as soon as it is resolved. Reactions are returned in queue order.
func (s *Service) Reconcile(ctx context.Context) ([]Reaction, error) {
	s.logger.Info("reconciling submissions")

	if !s.tokens.EnsureFresh(ctx) {
		s.logger.Warn("continuing with stale credential")
	}

	subs, err := s.queue.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	if len(subs) == 0 {
		return nil, ErrEmptyQueue
	}

	approved, err := s.catalog.FetchTrackIDs(ctx, s.playlists.Approved)
	if err != nil {
		return nil, fmt.Errorf("%w: approved: %w", ErrSnapshotIncomplete, err)
	}
	pending, err := s.catalog.FetchTrackIDs(ctx, s.playlists.Pending)
	if err != nil {
		return nil, fmt.Errorf("%w: pending: %w", ErrSnapshotIncomplete, err)
	}
	s.logger.Info("snapshots fetched", "approved", len(approved), "pending", len(pending))

	var reactions []Reaction
	for _, sub := range subs {
		res := resolve(sub.TrackID, approved, pending)
		logger := s.logger.With("submission", sub.ID, "track", sub.TrackID, "user", sub.UserID)

		switch res {
		case Approved:
			logger.Info("track approved")
		case Removed:
			logger.Info("track removed from pending playlist")
		default:
			logger.Debug("track still pending")
			continue
		}

		reactions = append(reactions, Reaction{UserID: sub.UserID, MessageID: sub.MessageID, Emoji: ReviewedEmoji})
		if err := s.queue.Delete(ctx, sub.ID); err != nil {
			logger.Error("deleting submission", "err", err)
		}
	}

	s.logger.Info("reconciliation complete", "reactions", len(reactions))
	return reactions, nil
}
