package persistent

import (
	"tg-market/pkg/models"
	"tg-market/services/listing/internal/entity"
)

func ToListingEntity(m *models.Listing) *entity.Listing {
	if m == nil {
		return nil
	}

	l := &entity.Listing{
		ID:                m.ID,
		AuthorID:          m.AuthorID,
		PostType:          entity.PostType(m.PostType),
		CategoryID:        m.CategoryID,
		CityID:            m.CityID,
		CurrencyID:        m.CurrencyID,
		Title:             m.Title,
		Description:       m.Description,
		Price:             m.Price,
		Phone:             m.Phone,
		Experience:        m.Experience,
		Schedule:          m.Schedule,
		WorkFormat:        m.WorkFormat,
		ImageURL:          m.ImageURL,
		PackageID:         m.PackageID,
		Status:            entity.ListingStatus(m.Status),
		IsPremium:         m.IsPremium,
		HasPhoto:          m.HasPhoto,
		HasHighlight:      m.HasHighlight,
		HasBoost:          m.HasBoost,
		BoostIntervalDays: m.BoostIntervalDays,
		BoostedAt:         m.BoostedAt,
		Views:             m.Views,
		ExpiresAt:         m.ExpiresAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.PaymentID != nil {
		l.PaymentID = *m.PaymentID
	}
	return l
}

func ToListingModel(e *entity.Listing) *models.Listing {
	if e == nil {
		return nil
	}

	m := &models.Listing{
		ID:                e.ID,
		AuthorID:          e.AuthorID,
		PostType:          models.PostType(e.PostType),
		CategoryID:        e.CategoryID,
		CityID:            e.CityID,
		CurrencyID:        e.CurrencyID,
		Title:             e.Title,
		Description:       e.Description,
		Price:             e.Price,
		Phone:             e.Phone,
		Experience:        e.Experience,
		Schedule:          e.Schedule,
		WorkFormat:        e.WorkFormat,
		ImageURL:          e.ImageURL,
		PackageID:         e.PackageID,
		Status:            models.ListingStatus(e.Status),
		IsPremium:         e.IsPremium,
		HasPhoto:          e.HasPhoto,
		HasHighlight:      e.HasHighlight,
		HasBoost:          e.HasBoost,
		BoostIntervalDays: e.BoostIntervalDays,
		BoostedAt:         e.BoostedAt,
		Views:             e.Views,
		ExpiresAt:         e.ExpiresAt,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
	if e.PaymentID != "" {
		paymentID := e.PaymentID
		m.PaymentID = &paymentID
	}
	return m
}

func ToListingEntities(ms []models.Listing) []*entity.Listing {
	out := make([]*entity.Listing, len(ms))
	for i := range ms {
		out[i] = ToListingEntity(&ms[i])
	}
	return out
}

func ToCategoryEntity(m *models.Category) *entity.Category {
	return &entity.Category{ID: m.ID, Slug: m.Slug, NameRU: m.NameRU, NameUA: m.NameUA, IsActive: m.IsActive, SortOrder: m.SortOrder}
}

func ToCityEntity(m *models.City) *entity.City {
	return &entity.City{ID: m.ID, NameRU: m.NameRU, NameUA: m.NameUA, IsActive: m.IsActive, SortOrder: m.SortOrder}
}

func ToCurrencyEntity(m *models.Currency) *entity.Currency {
	return &entity.Currency{ID: m.ID, Symbol: m.Symbol, Name: m.Name}
}

func ToPackageEntity(m *models.Package) *entity.Package {
	if m == nil {
		return nil
	}
	return &entity.Package{
		ID:                m.ID,
		Price:             m.Price,
		PostLifetimeDays:  m.PostLifetimeDays,
		HasPhoto:          m.HasPhoto,
		HasHighlight:      m.HasHighlight,
		HasBoost:          m.HasBoost,
		BoostIntervalDays: m.BoostIntervalDays,
		IsActive:          m.IsActive,
	}
}

func ToPaymentEntity(m *models.Payment) *entity.Payment {
	if m == nil {
		return nil
	}
	return &entity.Payment{
		ID:        m.ID,
		UserID:    m.UserID,
		PackageID: m.PackageID,
		Status:    entity.PaymentStatus(m.Status),
	}
}
