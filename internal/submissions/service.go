// Package submissions adds user-submitted tracks to the submission playlist
// and reconciles the submission queue against the playlists after curator
// review.
package submissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-submission-bot/internal/db"
	"github.com/justestif/go-spotify-submission-bot/internal/links"
	"github.com/justestif/go-spotify-submission-bot/internal/spotify"
)

// Common errors.
var (
	// ErrIndeterminate is returned when duplicate membership could not be
	// established; nothing is inserted.
	ErrIndeterminate = errors.New("could not determine whether track is a duplicate")

	// ErrEmptyQueue is returned by Reconcile when there are no submissions.
	ErrEmptyQueue = errors.New("no submissions in queue")

	// ErrSnapshotIncomplete is returned by Reconcile when a playlist could
	// not be fetched completely.
	ErrSnapshotIncomplete = errors.New("playlist snapshot incomplete")
)

// Outcome is the result of a submission attempt that did not fail.
type Outcome int

const (
	Accepted Outcome = iota
	RejectedNotATrack
	RejectedTrackNotFound
	RejectedAlreadyApproved
	RejectedAlreadyQueued
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case RejectedNotATrack:
		return "not a track link"
	case RejectedTrackNotFound:
		return "track not found"
	case RejectedAlreadyApproved:
		return "already approved"
	case RejectedAlreadyQueued:
		return "already queued"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Catalog is the subset of the catalog API the service needs.
type Catalog interface {
	GetTrack(ctx context.Context, id string) (*spotify.TrackReference, error)
	FetchTrackIDs(ctx context.Context, playlistID string) (spotify.TrackSet, error)
	IsDuplicate(ctx context.Context, playlistID, trackID string) (bool, error)
	InsertTrack(ctx context.Context, playlistID, uri string, position int) error
}

// Queue is the submission queue store.
type Queue interface {
	Create(ctx context.Context, sub *db.Submission) error
	List(ctx context.Context) ([]db.Submission, error)
	Delete(ctx context.Context, id int64) error
}

// Tokens refreshes the catalog credential when needed.
type Tokens interface {
	EnsureFresh(ctx context.Context) bool
}

// Playlists names the two playlists the service works against.
type Playlists struct {
	Pending  string // submissions awaiting review
	Approved string
}

// Service handles submissions and reconciliation.
type Service struct {
	catalog   Catalog
	queue     Queue
	tokens    Tokens
	playlists Playlists
	logger    *log.Logger
}

// New creates a new submission service.
func New(catalog Catalog, queue Queue, tokens Tokens, playlists Playlists, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		catalog:   catalog,
		queue:     queue,
		tokens:    tokens,
		playlists: playlists,
		logger:    logger,
	}
}

// AddToPlaylist validates rawLink and, if it names a track present in
// neither playlist, inserts it at the top of the pending playlist and
// records a submission. A non-nil error means nothing was decided; the
// Outcome is then meaningless.
func (s *Service) AddToPlaylist(ctx context.Context, rawLink, userID, messageID string) (Outcome, error) {
	if !s.tokens.EnsureFresh(ctx) {
		s.logger.Warn("continuing with stale credential")
	}

	link := links.Classify(rawLink)
	if link.Kind != links.Track {
		s.logger.Warn("provided text is not a track link", "text", rawLink)
		return RejectedNotATrack, nil
	}

	track, err := s.catalog.GetTrack(ctx, link.ID)
	if errors.Is(err, spotify.ErrTrackNotFound) {
		s.logger.Warn("valid track link but unknown track", "track", link.ID)
		return RejectedTrackNotFound, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolving track: %w", err)
	}

	inApproved, errApproved := s.catalog.IsDuplicate(ctx, s.playlists.Approved, track.ID)
	inPending, errPending := s.catalog.IsDuplicate(ctx, s.playlists.Pending, track.ID)
	if err := errors.Join(errApproved, errPending); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIndeterminate, err)
	}

	switch {
	case inApproved:
		return RejectedAlreadyApproved, nil
	case inPending:
		return RejectedAlreadyQueued, nil
	}

	if err := s.catalog.InsertTrack(ctx, s.playlists.Pending, track.URI, 0); err != nil {
		return 0, fmt.Errorf("inserting track: %w", err)
	}

	// The playlist already holds the track; a failed write here leaves it
	// without a queue row and is only logged.
	sub := &db.Submission{TrackID: track.ID, UserID: userID, MessageID: messageID}
	if err := s.queue.Create(ctx, sub); err != nil {
		s.logger.Error("saving submission", "track", track.ID, "user", userID, "err", err)
	}

	return Accepted, nil
}
