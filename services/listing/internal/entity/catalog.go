package entity

import "github.com/shopspring/decimal"

type Category struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	NameRU    string `json:"name_ru"`
	NameUA    string `json:"name_ua"`
	IsActive  bool   `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

type City struct {
	ID        string `json:"id"`
	NameRU    string `json:"name_ru"`
	NameUA    string `json:"name_ua"`
	IsActive  bool   `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

type Currency struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type Catalog struct {
	Categories     []*Category         `json:"categories"`
	Cities         []*City             `json:"cities"`
	Currencies     []*Currency         `json:"currencies"`
	CategoryByType map[PostType]string `json:"category_by_type"`
}

// Package is the slice of a billing package the listing rules depend on.
type Package struct {
	ID                string
	Price             decimal.Decimal
	PostLifetimeDays  int
	HasPhoto          bool
	HasHighlight      bool
	HasBoost          bool
	BoostIntervalDays int
	IsActive          bool
}

func (p *Package) IsFree() bool {
	return !p.Price.IsPositive()
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

type Payment struct {
	ID        string
	UserID    string
	PackageID string
	Status    PaymentStatus
}
