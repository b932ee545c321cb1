package db

// Submission is a queued track proposal awaiting curator review.
type Submission struct {
	ID        int64 // store-assigned
	TrackID   string
	UserID    string
	MessageID string
}
