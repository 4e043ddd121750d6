package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PackageType string

const (
	PackageTypeFree     PackageType = "free"
	PackageTypeStandard PackageType = "standard"
	PackageTypePremium  PackageType = "premium"
)

// Package is a monetization tier a listing is published under.
type Package struct {
	ID                string          `gorm:"type:uuid;primary_key" json:"id"`
	NameRU            string          `gorm:"column:name_ru;type:varchar(128);not null" json:"name_ru"`
	NameUA            string          `gorm:"column:name_ua;type:varchar(128)" json:"name_ua"`
	PackageType       PackageType     `gorm:"type:varchar(20);not null" json:"package_type"`
	Price             decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	CurrencyID        string          `gorm:"type:varchar(3);not null" json:"currency_id"`
	DurationDays      int             `gorm:"default:0" json:"duration_days"`
	PostLifetimeDays  int             `gorm:"default:30" json:"post_lifetime_days"`
	Features          string          `gorm:"type:text" json:"features"`
	HasPhoto          bool            `gorm:"default:false" json:"has_photo"`
	HasHighlight      bool            `gorm:"default:false" json:"has_highlight"`
	HasBoost          bool            `gorm:"default:false" json:"has_boost"`
	BoostIntervalDays int             `gorm:"default:0" json:"boost_interval_days"`
	IsActive          bool            `gorm:"default:true;index" json:"is_active"`
	SortOrder         int             `gorm:"default:0" json:"sort_order"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (p *Package) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func (p *Package) IsFree() bool {
	return p.Price.IsZero()
}

// FeatureList splits the "|" separated feature column.
func (p *Package) FeatureList() []string {
	if p.Features == "" {
		return []string{}
	}
	parts := strings.Split(p.Features, "|")
	out := make([]string, 0, len(parts))
	for _, f := range parts {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
