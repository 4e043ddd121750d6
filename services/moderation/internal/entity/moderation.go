package entity

import (
	"fmt"
	"time"
)

type Status int

const (
	StatusDraft        Status = 1
	StatusModeration   Status = 2
	StatusManualReview Status = 3
	StatusPublished    Status = 4
	StatusBlocked      Status = 5
	StatusArchived     Status = 6
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusDraft,
	StatusModeration,
	StatusManualReview,
	StatusPublished,
	StatusBlocked,
	StatusArchived,
}

var statusNames = map[Status]string{
	StatusDraft:        "draft",
	StatusModeration:   "moderation",
	StatusManualReview: "manual_review",
	StatusPublished:    "published",
	StatusBlocked:      "blocked",
	StatusArchived:     "archived",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	status, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

func ParseStatus(name string) (Status, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

type Listing struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	PostType       string    `json:"post_type"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	ImageURL       string    `json:"image_url,omitempty"`
	Status         Status    `json:"status"`
	IsPremium      bool      `json:"is_premium"`
	ModerationNote string    `json:"moderation_note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ListingPage struct {
	Listings []*Listing `json:"listings"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
}

// Verdict is the outcome of automatic screening.
type Verdict struct {
	Blocked bool
	Matches []string
}

const (
	NoticeReviewRequested = "review_requested"
	NoticeDecided         = "decided"
)

// ReviewNotice is pushed to moderators watching the review feed.
type ReviewNotice struct {
	Type      string    `json:"type"`
	ListingID string    `json:"listing_id"`
	AuthorID  string    `json:"author_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Status    Status    `json:"status"`
	Note      string    `json:"note,omitempty"`
	IsPremium bool      `json:"is_premium"`
	At        time.Time `json:"at"`
}
