package submissions

import (
	"context"
	"errors"
	"testing"

	"github.com/justestif/go-spotify-submission-bot/internal/db"
	"github.com/justestif/go-spotify-submission-bot/internal/spotify"
)

func TestReconcile(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.playlists[approvedID] = spotify.TrackSet{"A1": {}}
	catalog.playlists[pendingID] = spotify.TrackSet{"B1": {}}
	queue := &fakeQueue{rows: []db.Submission{
		{ID: 1, TrackID: "A1", UserID: "u1", MessageID: "m1"},
		{ID: 2, TrackID: "B1", UserID: "u2", MessageID: "m2"},
		{ID: 3, TrackID: "C1", UserID: "u3", MessageID: "m3"},
	}}
	svc, _ := newTestService(catalog, queue)

	reactions, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	want := []Reaction{
		{UserID: "u1", MessageID: "m1", Emoji: ReviewedEmoji},
		{UserID: "u3", MessageID: "m3", Emoji: ReviewedEmoji},
	}
	if len(reactions) != len(want) {
		t.Fatalf("got %d reactions, want %d", len(reactions), len(want))
	}
	for i := range want {
		if reactions[i] != want[i] {
			t.Errorf("reaction %d = %+v, want %+v", i, reactions[i], want[i])
		}
	}

	if len(queue.deleted) != 2 || queue.deleted[0] != 1 || queue.deleted[1] != 3 {
		t.Errorf("deleted = %v, want [1 3]", queue.deleted)
	}
	if len(queue.rows) != 1 || queue.rows[0].ID != 2 {
		t.Errorf("remaining rows = %+v, want only submission 2", queue.rows)
	}
}

func TestReconcile_EmptyQueue(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.playlists[approvedID] = spotify.TrackSet{"A1": {}}
	catalog.fetchErr[pendingID] = errors.New("HTTP 502")
	queue := &fakeQueue{}
	svc, _ := newTestService(catalog, queue)

	reactions, err := svc.Reconcile(context.Background())
	if !errors.Is(err, ErrEmptyQueue) {
		t.Errorf("Reconcile() error = %v, want ErrEmptyQueue", err)
	}
	if reactions != nil {
		t.Errorf("reactions = %v, want nil", reactions)
	}
	if len(queue.deleted) != 0 || len(catalog.inserted) != 0 {
		t.Error("reconciliation of empty queue had side effects")
	}
	if catalog.fetches != 0 {
		t.Errorf("fetched %d playlists for an empty queue, want 0", catalog.fetches)
	}
}

func TestReconcile_IncompleteSnapshot(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.fetchErr[pendingID] = errors.New("HTTP 502")
	queue := &fakeQueue{rows: []db.Submission{{ID: 1, TrackID: "B1", UserID: "u", MessageID: "m"}}}
	svc, _ := newTestService(catalog, queue)

	_, err := svc.Reconcile(context.Background())
	if !errors.Is(err, ErrSnapshotIncomplete) {
		t.Errorf("Reconcile() error = %v, want ErrSnapshotIncomplete", err)
	}
	if len(queue.deleted) != 0 {
		t.Errorf("deleted %v from an incomplete snapshot", queue.deleted)
	}
}

func TestResolve(t *testing.T) {
	approved := spotify.TrackSet{"a": {}, "both": {}}
	pending := spotify.TrackSet{"p": {}, "both": {}}

	tests := []struct {
		track string
		want  Resolution
	}{
		{"a", Approved},
		{"both", Approved},
		{"p", StillPending},
		{"gone", Removed},
	}
	for _, tt := range tests {
		t.Run(tt.track, func(t *testing.T) {
			if got := resolve(tt.track, approved, pending); got != tt.want {
				t.Errorf("resolve(%q) = %v, want %v", tt.track, got, tt.want)
			}
		})
	}
}
