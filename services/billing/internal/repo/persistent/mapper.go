package persistent

import (
	"strings"

	"tg-market/pkg/models"
	"tg-market/services/billing/internal/entity"
)

func ToPackageEntity(m *models.Package) *entity.Package {
	return &entity.Package{
		ID:                m.ID,
		NameRU:            m.NameRU,
		NameUA:            m.NameUA,
		PackageType:       entity.PackageType(m.PackageType),
		Price:             m.Price,
		CurrencyID:        m.CurrencyID,
		DurationDays:      m.DurationDays,
		PostLifetimeDays:  m.PostLifetimeDays,
		Features:          m.FeatureList(),
		HasPhoto:          m.HasPhoto,
		HasHighlight:      m.HasHighlight,
		HasBoost:          m.HasBoost,
		BoostIntervalDays: m.BoostIntervalDays,
		IsActive:          m.IsActive,
		SortOrder:         m.SortOrder,
	}
}

func ToPackageModel(e *entity.Package) *models.Package {
	return &models.Package{
		ID:                e.ID,
		NameRU:            e.NameRU,
		NameUA:            e.NameUA,
		PackageType:       models.PackageType(e.PackageType),
		Price:             e.Price,
		CurrencyID:        e.CurrencyID,
		DurationDays:      e.DurationDays,
		PostLifetimeDays:  e.PostLifetimeDays,
		Features:          strings.Join(e.Features, "|"),
		HasPhoto:          e.HasPhoto,
		HasHighlight:      e.HasHighlight,
		HasBoost:          e.HasBoost,
		BoostIntervalDays: e.BoostIntervalDays,
		IsActive:          e.IsActive,
		SortOrder:         e.SortOrder,
	}
}

func ToPaymentEntity(m *models.Payment) *entity.Payment {
	return &entity.Payment{
		ID:               m.ID,
		UserID:           m.UserID,
		PackageID:        m.PackageID,
		Amount:           m.Amount,
		CurrencyID:       m.CurrencyID,
		Status:           entity.PaymentStatus(m.Status),
		TelegramChargeID: m.TelegramChargeID,
		ProviderChargeID: m.ProviderChargeID,
		CompletedAt:      m.CompletedAt,
		CreatedAt:        m.CreatedAt,
	}
}

func ToPaymentModel(e *entity.Payment) *models.Payment {
	return &models.Payment{
		ID:               e.ID,
		UserID:           e.UserID,
		PackageID:        e.PackageID,
		Amount:           e.Amount,
		CurrencyID:       e.CurrencyID,
		Status:           models.PaymentStatus(e.Status),
		TelegramChargeID: e.TelegramChargeID,
		ProviderChargeID: e.ProviderChargeID,
		CompletedAt:      e.CompletedAt,
		CreatedAt:        e.CreatedAt,
	}
}

func toReleasedListing(m *models.Listing) entity.ReleasedListing {
	return entity.ReleasedListing{
		ID:          m.ID,
		AuthorID:    m.AuthorID,
		PostType:    string(m.PostType),
		Title:       m.Title,
		Description: m.Description,
		IsPremium:   m.IsPremium,
		CreatedAt:   m.CreatedAt,
	}
}
