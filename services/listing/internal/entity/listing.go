package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PostType string

const (
	PostTypeJob     PostType = "job"
	PostTypeService PostType = "service"
)

func (p PostType) Valid() bool {
	return p == PostTypeJob || p == PostTypeService
}

type ListingStatus int

const (
	StatusDraft        ListingStatus = 1
	StatusModeration   ListingStatus = 2
	StatusManualReview ListingStatus = 3
	StatusPublished    ListingStatus = 4
	StatusBlocked      ListingStatus = 5
	StatusArchived     ListingStatus = 6
)

var statusNames = map[ListingStatus]string{
	StatusDraft:        "draft",
	StatusModeration:   "moderation",
	StatusManualReview: "manual_review",
	StatusPublished:    "published",
	StatusBlocked:      "blocked",
	StatusArchived:     "archived",
}

func (s ListingStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func ParseStatus(name string) (ListingStatus, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

func (s ListingStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ListingStatus) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	*s = 0
	return nil
}

type Listing struct {
	ID                string              `json:"id"`
	AuthorID          string              `json:"author_id"`
	PostType          PostType            `json:"post_type"`
	CategoryID        string              `json:"category_id"`
	CityID            string              `json:"city_id"`
	CurrencyID        string              `json:"currency_id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Price             decimal.NullDecimal `json:"price"`
	Phone             string              `json:"phone,omitempty"`
	Experience        string              `json:"experience,omitempty"`
	Schedule          string              `json:"schedule,omitempty"`
	WorkFormat        string              `json:"work_format,omitempty"`
	ImageURL          string              `json:"image_url,omitempty"`
	PackageID         string              `json:"package_id"`
	PaymentID         string              `json:"payment_id,omitempty"`
	Status            ListingStatus       `json:"status"`
	IsPremium         bool                `json:"is_premium"`
	HasPhoto          bool                `json:"has_photo"`
	HasHighlight      bool                `json:"has_highlight"`
	HasBoost          bool                `json:"has_boost"`
	BoostIntervalDays int                 `json:"boost_interval_days,omitempty"`
	BoostedAt         *time.Time          `json:"boosted_at,omitempty"`
	Views             int                 `json:"views"`
	IsFavorite        bool                `json:"is_favorite"`
	ExpiresAt         *time.Time          `json:"expires_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// CreateListingInput is a submitted listing before the package rules are applied.
type CreateListingInput struct {
	AuthorID    string
	PostType    PostType
	Title       string
	Description string
	Price       decimal.NullDecimal
	CurrencyID  string
	CityID      string
	CategoryID  string
	Phone       string
	Experience  string
	Schedule    string
	WorkFormat  string
	PackageID   string
	PaymentID   string
	Image       string
}

type ListingFilter struct {
	PostType   PostType
	Search     string
	CategoryID string
	CityID     string
	AuthorID   string
	ViewerID   string
	Page       int
	Limit      int
}

type ListingPage struct {
	Listings []*Listing `json:"listings"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
	Pages    int        `json:"pages"`
}

type FreePostStatus struct {
	Eligible       bool       `json:"eligible"`
	NextEligibleAt *time.Time `json:"next_eligible_at"`
}

// AuthorActivity aggregates an author's listings by status.
type AuthorActivity struct {
	ByStatus   map[ListingStatus]int64
	TotalViews int64
}

type UserStats struct {
	PostsByStatus     map[string]int64 `json:"posts_by_status"`
	TotalViews        int64            `json:"total_views"`
	FavoritesCount    int64            `json:"favorites_count"`
	FreePostAvailable bool             `json:"free_post_available"`
	NextFreePostAt    *time.Time       `json:"next_free_post_at"`
}
