package proto

import "time"

// Known paper statuses.
const (
	PaperSubmitted     = "submitted"
	PaperReviewed      = "reviewed"
	PaperNeedsRevision = "needs_revision"
	PaperAccepted      = "accepted"
)

// Paper is a position paper.
type Paper struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	CommitteeID   string    `json:"committee_id,omitempty"`
	Title         string    `json:"title"`
	FileURL       string    `json:"file_url"`
	Status        string    `json:"status"`
	Feedback      string    `json:"feedback,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ValidPaperStatus reports whether s is a status a reviewer may set.
func ValidPaperStatus(s string) bool {
	switch s {
	case PaperReviewed, PaperNeedsRevision, PaperAccepted:
		return true
	}
	return false
}
