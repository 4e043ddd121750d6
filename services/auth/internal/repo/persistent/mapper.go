package persistent

import (
	"tg-market/pkg/models"
	"tg-market/services/auth/internal/entity"
)

func ToUserEntity(m *models.User) *entity.User {
	if m == nil {
		return nil
	}

	return &entity.User{
		ID:           m.ID,
		TelegramID:   m.TelegramID,
		Username:     m.Username,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		LanguageCode: m.LanguageCode,
		PhotoURL:     m.PhotoURL,
		Role:         entity.UserRole(m.Role),
		IsBlocked:    m.IsBlocked,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func ToUserModel(e *entity.User) *models.User {
	if e == nil {
		return nil
	}

	return &models.User{
		ID:           e.ID,
		TelegramID:   e.TelegramID,
		Username:     e.Username,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		LanguageCode: e.LanguageCode,
		PhotoURL:     e.PhotoURL,
		Role:         models.UserRole(e.Role),
		IsBlocked:    e.IsBlocked,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}
