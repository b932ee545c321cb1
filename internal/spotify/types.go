package spotify

// TrackReference identifies a resolved catalog track.
type TrackReference struct {
	ID  string
	URI string
}

// TrackSet is a deduplicated set of track IDs, one playlist's contents at
// fetch time.
type TrackSet map[string]struct{}

// Contains reports whether id is in the set.
func (s TrackSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}
