package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	Slug      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`
	NameRU    string    `gorm:"column:name_ru;type:varchar(128);not null" json:"name_ru"`
	NameUA    string    `gorm:"column:name_ua;type:varchar(128)" json:"name_ua"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

type City struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	NameRU    string    `gorm:"column:name_ru;type:varchar(128);not null" json:"name_ru"`
	NameUA    string    `gorm:"column:name_ua;type:varchar(128)" json:"name_ua"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *City) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Currency is keyed by its ISO code ("RUB", "UAH").
type Currency struct {
	ID        string    `gorm:"type:varchar(3);primary_key" json:"id"`
	Symbol    string    `gorm:"type:varchar(8)" json:"symbol"`
	Name      string    `gorm:"type:varchar(64)" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
