package mqtt

import "time"

// Announcement tells subscribers that a new catalog snapshot is being served.
type Announcement struct {
	Source    string    `json:"source"`
	Term      string    `json:"term,omitempty"`
	Classes   int       `json:"classes"`
	Sections  int       `json:"sections"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Announcer publishes catalog announcements.
type Announcer interface {
	Announce(a Announcement) error
}

// RefreshRequest is the optional payload of a refresh trigger message.
type RefreshRequest struct {
	Reason string `json:"reason"`
}

// NopAnnouncer drops announcements.
type NopAnnouncer struct{}

func (NopAnnouncer) Announce(Announcement) error { return nil }
