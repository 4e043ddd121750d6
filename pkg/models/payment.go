package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	ID               string          `gorm:"type:uuid;primary_key" json:"id"`
	UserID           string          `gorm:"type:uuid;not null;index" json:"user_id"`
	PackageID        string          `gorm:"type:uuid;not null;index" json:"package_id"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	CurrencyID       string          `gorm:"type:varchar(3);not null" json:"currency_id"`
	Status           PaymentStatus   `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	TelegramChargeID string          `gorm:"type:varchar(255)" json:"telegram_charge_id,omitempty"`
	ProviderChargeID string          `gorm:"type:varchar(255)" json:"provider_charge_id,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
