package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
)

// fakeAPI serves the subset of the Web API the client uses.
type fakeAPI struct {
	mu        sync.Mutex
	playlists map[string][]string // playlist ID -> track IDs ("" = malformed item)
	failAt    map[string]int      // playlist ID -> 1-based page request that fails
	pageHits  map[string]int
	inserts   []insertCall
	tracks    map[string]bool
}

type insertCall struct {
	playlistID string
	body       addItemsRequest
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		playlists: make(map[string][]string),
		failAt:    make(map[string]int),
		pageHits:  make(map[string]int),
		tracks:    make(map[string]bool),
	}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 2 && parts[0] == "tracks" && r.Method == http.MethodGet:
		f.serveTrack(w, parts[1])
	case len(parts) == 3 && parts[0] == "playlists" && r.Method == http.MethodGet:
		f.servePage(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "playlists" && r.Method == http.MethodPost:
		var body addItemsRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.inserts = append(f.inserts, insertCall{playlistID: parts[1], body: body})
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"snapshot_id":"snap"}`)
	default:
		writeError(w, http.StatusNotFound, "no route")
	}
}

func (f *fakeAPI) serveTrack(w http.ResponseWriter, id string) {
	if !f.tracks[id] {
		writeError(w, http.StatusNotFound, "Non existing id")
		return
	}
	fmt.Fprintf(w, `{"id":%q,"uri":"spotify:track:%s","type":"track","name":"Song"}`, id, id)
}

func (f *fakeAPI) servePage(w http.ResponseWriter, r *http.Request, playlistID string) {
	if n, ok := f.failAt[playlistID]; ok && f.pageHits[playlistID]+1 >= n {
		writeError(w, http.StatusInternalServerError, "boom")
		return
	}
	f.pageHits[playlistID]++

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	all := f.playlists[playlistID]
	end := min(offset+limit, len(all))

	items := make([]string, 0, max(end-offset, 0))
	for _, id := range all[min(offset, len(all)):end] {
		items = append(items, fmt.Sprintf(`{"added_at":"2024-01-01T00:00:00Z","track":{"type":"track","id":%q}}`, id))
	}
	fmt.Fprintf(w, `{"href":"x","limit":%d,"offset":%d,"total":%d,"items":[%s]}`,
		limit, offset, len(all), strings.Join(items, ","))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"status":%d,"message":%q}}`, status, msg)
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return New(srv.Client(), WithBaseURL(srv.URL+"/"), WithLogger(log.New(io.Discard)))
}

func trackIDs(n int, prefix string) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return ids
}

func TestFetchTrackIDs_Pagination(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		wantPages int
	}{
		{"empty", 0, 1},
		{"single page", 50, 1},
		{"exactly 100", 100, 1},
		{"101 items", 101, 2},
		{"250 items", 250, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.playlists["pl"] = trackIDs(tt.total, "t")
			c := newTestClient(t, api)

			ids, err := c.FetchTrackIDs(context.Background(), "pl")
			if err != nil {
				t.Fatalf("FetchTrackIDs() error = %v", err)
			}
			if len(ids) != tt.total {
				t.Errorf("got %d IDs, want %d", len(ids), tt.total)
			}
			if api.pageHits["pl"] != tt.wantPages {
				t.Errorf("got %d page requests, want %d", api.pageHits["pl"], tt.wantPages)
			}
		})
	}
}

func TestFetchTrackIDs_DeduplicatesAndSkipsMalformed(t *testing.T) {
	api := newFakeAPI()
	api.playlists["pl"] = []string{"a", "b", "a", "", "c"}
	c := newTestClient(t, api)

	ids, err := c.FetchTrackIDs(context.Background(), "pl")
	if err != nil {
		t.Fatalf("FetchTrackIDs() error = %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("got %d IDs, want 3", len(ids))
	}
	for _, id := range []string{"a", "b", "c"} {
		if !ids.Contains(id) {
			t.Errorf("missing %q", id)
		}
	}
}

func TestFetchTrackIDs_PartialOnError(t *testing.T) {
	api := newFakeAPI()
	api.playlists["pl"] = trackIDs(250, "t")
	api.failAt["pl"] = 3
	c := newTestClient(t, api)

	ids, err := c.FetchTrackIDs(context.Background(), "pl")
	if err == nil {
		t.Fatal("FetchTrackIDs() error = nil, want error")
	}
	if len(ids) != 200 {
		t.Errorf("got %d partial IDs, want 200", len(ids))
	}
}

func TestIsDuplicate(t *testing.T) {
	api := newFakeAPI()
	api.playlists["pl"] = []string{"a", "b"}
	c := newTestClient(t, api)

	dup, err := c.IsDuplicate(context.Background(), "pl", "a")
	if err != nil || !dup {
		t.Errorf("IsDuplicate(a) = %v, %v; want true, nil", dup, err)
	}

	dup, err = c.IsDuplicate(context.Background(), "pl", "z")
	if err != nil || dup {
		t.Errorf("IsDuplicate(z) = %v, %v; want false, nil", dup, err)
	}
}

func TestIsDuplicate_Indeterminate(t *testing.T) {
	api := newFakeAPI()
	api.playlists["pl"] = []string{"a"}
	api.failAt["pl"] = 1
	c := newTestClient(t, api)

	if _, err := c.IsDuplicate(context.Background(), "pl", "a"); err == nil {
		t.Error("IsDuplicate() error = nil, want error")
	}
}

func TestGetTrack(t *testing.T) {
	api := newFakeAPI()
	api.tracks["abc"] = true
	c := newTestClient(t, api)

	ref, err := c.GetTrack(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetTrack() error = %v", err)
	}
	if ref.ID != "abc" || ref.URI != "spotify:track:abc" {
		t.Errorf("GetTrack() = %+v", ref)
	}

	_, err = c.GetTrack(context.Background(), "missing")
	if !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("GetTrack(missing) error = %v, want ErrTrackNotFound", err)
	}
}

func TestInsertTrack(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)

	if err := c.InsertTrack(context.Background(), "pl", "spotify:track:abc", 0); err != nil {
		t.Fatalf("InsertTrack() error = %v", err)
	}

	if len(api.inserts) != 1 {
		t.Fatalf("got %d inserts, want 1", len(api.inserts))
	}
	got := api.inserts[0]
	if got.playlistID != "pl" {
		t.Errorf("playlist = %q, want %q", got.playlistID, "pl")
	}
	if len(got.body.URIs) != 1 || got.body.URIs[0] != "spotify:track:abc" || got.body.Position != 0 {
		t.Errorf("body = %+v", got.body)
	}
}

func TestInsertTrack_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusForbidden, "Insufficient client scope")
	}))
	defer srv.Close()
	c := New(srv.Client(), WithBaseURL(srv.URL+"/"), WithLogger(log.New(io.Discard)))

	err := c.InsertTrack(context.Background(), "pl", "spotify:track:abc", 0)
	if err == nil {
		t.Fatal("InsertTrack() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "Insufficient client scope") {
		t.Errorf("error = %v, want API message", err)
	}
}
