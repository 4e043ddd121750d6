package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListingStatus int

const (
	ListingDraft        ListingStatus = 1
	ListingModeration   ListingStatus = 2
	ListingManualReview ListingStatus = 3
	ListingPublished    ListingStatus = 4
	ListingBlocked      ListingStatus = 5
	ListingArchived     ListingStatus = 6
)

func (s ListingStatus) String() string {
	switch s {
	case ListingDraft:
		return "draft"
	case ListingModeration:
		return "moderation"
	case ListingManualReview:
		return "manual_review"
	case ListingPublished:
		return "published"
	case ListingBlocked:
		return "blocked"
	case ListingArchived:
		return "archived"
	}
	return "unknown"
}

type PostType string

const (
	PostTypeJob     PostType = "job"
	PostTypeService PostType = "service"
)

type Listing struct {
	ID                string              `gorm:"type:uuid;primary_key" json:"id"`
	AuthorID          string              `gorm:"type:uuid;not null;index" json:"author_id"`
	PostType          PostType            `gorm:"type:varchar(10);not null;index" json:"post_type"`
	CategoryID        string              `gorm:"type:uuid;not null;index" json:"category_id"`
	CityID            string              `gorm:"type:uuid;not null;index" json:"city_id"`
	CurrencyID        string              `gorm:"type:varchar(3);not null" json:"currency_id"`
	Title             string              `gorm:"type:varchar(255);not null" json:"title"`
	Description       string              `gorm:"type:text;not null" json:"description"`
	Price             decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"price"`
	Phone             string              `gorm:"type:varchar(32)" json:"phone"`
	Experience        string              `gorm:"type:varchar(32)" json:"experience,omitempty"`
	Schedule          string              `gorm:"type:varchar(32)" json:"schedule,omitempty"`
	WorkFormat        string              `gorm:"type:varchar(32)" json:"work_format,omitempty"`
	ImageURL          string              `gorm:"type:varchar(500)" json:"image_url,omitempty"`
	PackageID         string              `gorm:"type:uuid;index" json:"package_id"`
	PaymentID         *string             `gorm:"type:uuid;uniqueIndex:idx_listings_payment_id,where:payment_id IS NOT NULL" json:"payment_id,omitempty"`
	Status            ListingStatus       `gorm:"default:1;index" json:"status"`
	IsPremium         bool                `gorm:"default:false" json:"is_premium"`
	HasPhoto          bool                `gorm:"default:false" json:"has_photo"`
	HasHighlight      bool                `gorm:"default:false" json:"has_highlight"`
	HasBoost          bool                `gorm:"default:false" json:"has_boost"`
	BoostIntervalDays int                 `gorm:"default:0" json:"boost_interval_days"`
	BoostedAt         *time.Time          `gorm:"index" json:"boosted_at,omitempty"`
	Views             int                 `gorm:"default:0" json:"views"`
	ModerationNote    string              `gorm:"type:text" json:"moderation_note,omitempty"`
	ExpiresAt         *time.Time          `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt         time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	DeletedAt         gorm.DeletedAt      `gorm:"index" json:"-"`
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

type Favorite struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_listing" json:"user_id"`
	ListingID string    `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_listing;index" json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// All lists every table in creation order, for tests and tooling that need AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&City{},
		&Currency{},
		&Package{},
		&Payment{},
		&Listing{},
		&Favorite{},
	}
}
