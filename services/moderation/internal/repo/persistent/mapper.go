package persistent

import (
	"tg-market/pkg/models"
	"tg-market/services/moderation/internal/entity"
)

func ToListingEntity(m *models.Listing) *entity.Listing {
	return &entity.Listing{
		ID:             m.ID,
		AuthorID:       m.AuthorID,
		PostType:       string(m.PostType),
		Title:          m.Title,
		Description:    m.Description,
		ImageURL:       m.ImageURL,
		Status:         entity.Status(m.Status),
		IsPremium:      m.IsPremium,
		ModerationNote: m.ModerationNote,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
