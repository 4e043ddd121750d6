package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type PackageType string

const (
	PackageTypeFree     PackageType = "free"
	PackageTypeStandard PackageType = "standard"
	PackageTypePremium  PackageType = "premium"
)

// Package is a tier a listing can be published under.
type Package struct {
	ID                string          `json:"id"`
	NameRU            string          `json:"name_ru"`
	NameUA            string          `json:"name_ua"`
	PackageType       PackageType     `json:"package_type"`
	Price             decimal.Decimal `json:"price"`
	CurrencyID        string          `json:"currency_id"`
	DurationDays      int             `json:"duration_days"`
	PostLifetimeDays  int             `json:"post_lifetime_days"`
	Features          []string        `json:"features"`
	HasPhoto          bool            `json:"has_photo"`
	HasHighlight      bool            `json:"has_highlight"`
	HasBoost          bool            `json:"has_boost"`
	BoostIntervalDays int             `json:"boost_interval_days"`
	IsActive          bool            `json:"is_active"`
	SortOrder         int             `json:"sort_order"`
}

func (p *Package) IsFree() bool {
	return !p.Price.IsPositive()
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	PackageID        string          `json:"package_id"`
	Amount           decimal.Decimal `json:"amount"`
	CurrencyID       string          `json:"currency_id"`
	Status           PaymentStatus   `json:"status"`
	TelegramChargeID string          `json:"telegram_charge_id,omitempty"`
	ProviderChargeID string          `json:"provider_charge_id,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Charge identifies the provider transaction that settled a payment.
type Charge struct {
	TelegramChargeID string
	ProviderChargeID string
}

// ReleasedListing is a draft that moved to moderation when its payment completed.
type ReleasedListing struct {
	ID          string
	AuthorID    string
	PostType    string
	Title       string
	Description string
	IsPremium   bool
	CreatedAt   time.Time
}

// Completion is the outcome of settling a payment.
type Completion struct {
	Payment          *Payment
	AlreadyCompleted bool
	Released         []ReleasedListing
}

func (t PackageType) Valid() bool {
	return t == PackageTypeFree || t == PackageTypeStandard || t == PackageTypePremium
}

// PackageInput creates or edits a package from the back-office. On edit nil
// fields are left unchanged.
type PackageInput struct {
	NameRU            *string          `json:"name_ru"`
	NameUA            *string          `json:"name_ua"`
	PackageType       *PackageType     `json:"package_type" swaggertype:"string"`
	Price             *decimal.Decimal `json:"price" swaggertype:"string"`
	CurrencyID        *string          `json:"currency_id"`
	DurationDays      *int             `json:"duration_days"`
	PostLifetimeDays  *int             `json:"post_lifetime_days"`
	Features          []string         `json:"features"`
	HasPhoto          *bool            `json:"has_photo"`
	HasHighlight      *bool            `json:"has_highlight"`
	HasBoost          *bool            `json:"has_boost"`
	BoostIntervalDays *int             `json:"boost_interval_days"`
	IsActive          *bool            `json:"is_active"`
	SortOrder         *int             `json:"sort_order"`
}
