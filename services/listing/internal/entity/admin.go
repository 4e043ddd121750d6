package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdminListingFilter pages through every stored listing regardless of owner.
// A zero Status matches all statuses.
type AdminListingFilter struct {
	Status   ListingStatus
	PostType PostType
	Page     int
	Limit    int
}

// ListingPatch is a back-office edit. Nil fields are left unchanged.
type ListingPatch struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" swaggertype:"string"`
	Phone       *string          `json:"phone"`
	CategoryID  *string          `json:"category_id"`
	CityID      *string          `json:"city_id"`
	Status      *ListingStatus   `json:"status" swaggertype:"string"`
	ExpiresAt   *time.Time       `json:"expires_at"`
}

func (p ListingPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil && p.Phone == nil &&
		p.CategoryID == nil && p.CityID == nil && p.Status == nil && p.ExpiresAt == nil
}

// CategoryInput creates or edits a category. On edit nil fields are left unchanged.
type CategoryInput struct {
	Slug      *string `json:"slug"`
	NameRU    *string `json:"name_ru"`
	NameUA    *string `json:"name_ua"`
	IsActive  *bool   `json:"is_active"`
	SortOrder *int    `json:"sort_order"`
}

// CityInput creates or edits a city. On edit nil fields are left unchanged.
type CityInput struct {
	NameRU    *string `json:"name_ru"`
	NameUA    *string `json:"name_ua"`
	IsActive  *bool   `json:"is_active"`
	SortOrder *int    `json:"sort_order"`
}

type StatsOverview struct {
	TotalListings   int64 `json:"total_listings"`
	TotalUsers      int64 `json:"total_users"`
	ActiveListings  int64 `json:"active_listings"`
	PendingListings int64 `json:"pending_listings"`
}

type RecentActivity struct {
	ListingsLastWeek int64 `json:"listings_last_week"`
	UsersLastWeek    int64 `json:"users_last_week"`
}

type PremiumBreakdown struct {
	Premium int64 `json:"premium"`
	Free    int64 `json:"free"`
}

// AdminStats is the back-office dashboard. Deleted listings are not counted.
type AdminStats struct {
	Overview         StatsOverview    `json:"overview"`
	ListingsByType   map[string]int64 `json:"listings_by_type"`
	ListingsByStatus map[string]int64 `json:"listings_by_status"`
	RecentActivity   RecentActivity   `json:"recent_activity"`
	PremiumBreakdown PremiumBreakdown `json:"premium_breakdown"`
}
