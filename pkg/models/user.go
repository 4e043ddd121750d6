package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User is a messaging-platform account that signed into the mini-app.
type User struct {
	ID           string         `gorm:"type:uuid;primary_key" json:"id"`
	TelegramID   int64          `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username     string         `gorm:"type:varchar(64)" json:"username"`
	FirstName    string         `gorm:"type:varchar(128)" json:"first_name"`
	LastName     string         `gorm:"type:varchar(128)" json:"last_name"`
	LanguageCode string         `gorm:"type:varchar(8)" json:"language_code"`
	PhotoURL     string         `gorm:"type:varchar(500)" json:"photo_url"`
	Role         UserRole       `gorm:"type:varchar(20);default:'user'" json:"role"`
	IsBlocked    bool           `gorm:"default:false" json:"is_blocked"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
