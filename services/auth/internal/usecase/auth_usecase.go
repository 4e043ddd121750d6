package usecase

import (
	"errors"
	"fmt"
	"time"

	"tg-market/pkg/jwt"
	"tg-market/pkg/logger"
	"tg-market/pkg/telegram"
	"tg-market/services/auth/internal/entity"
	"tg-market/services/auth/internal/repo/persistent"
)

var (
	ErrInvalidInitData = errors.New("invalid init data")
	ErrUserBlocked     = errors.New("account is blocked")
	ErrUserNotFound    = persistent.ErrUserNotFound
)

type AuthUseCase interface {
	LoginWithTelegram(initData string) (*entity.User, string, error)
	GetUser(userID string) (*entity.User, error)
}

type authUseCase struct {
	userRepo   persistent.UserRepository
	jwtService *jwt.Service
	botToken   string
	maxAge     time.Duration
	now        func() time.Time
	logger     *logger.Logger
}

func NewAuthUseCase(
	userRepo persistent.UserRepository,
	jwtService *jwt.Service,
	botToken string,
	maxAge time.Duration,
	logger *logger.Logger,
) AuthUseCase {
	return &authUseCase{
		userRepo:   userRepo,
		jwtService: jwtService,
		botToken:   botToken,
		maxAge:     maxAge,
		now:        time.Now,
		logger:     logger,
	}
}

// LoginWithTelegram verifies the signed initData, creates the account on first
// sight, refreshes the profile on later logins and issues an access token.
func (uc *authUseCase) LoginWithTelegram(initData string) (*entity.User, string, error) {
	data, err := telegram.Validate(initData, uc.botToken, uc.maxAge, uc.now())
	if err != nil {
		uc.logger.Warn("[AUTH] rejected init data: %v", err)
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidInitData, err)
	}

	user, err := uc.userRepo.GetByTelegramID(data.User.ID)
	switch {
	case errors.Is(err, persistent.ErrUserNotFound):
		user = &entity.User{
			TelegramID: data.User.ID,
			Role:       entity.RoleUser,
		}
		applyProfile(user, data.User)
		if err := uc.userRepo.Create(user); err != nil {
			uc.logger.Error("Failed to create user: %v", err)
			return nil, "", fmt.Errorf("failed to create user")
		}
		uc.logger.Info("[AUTH] new user %s (telegram %d)", user.ID, user.TelegramID)
	case err != nil:
		uc.logger.Error("Failed to load user: %v", err)
		return nil, "", fmt.Errorf("failed to load user")
	default:
		if applyProfile(user, data.User) {
			if err := uc.userRepo.Update(user); err != nil {
				uc.logger.Error("Failed to update user %s: %v", user.ID, err)
			}
		}
	}

	if user.IsBlocked {
		return nil, "", ErrUserBlocked
	}

	token, err := uc.jwtService.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		uc.logger.Error("Failed to generate token: %v", err)
		return nil, "", fmt.Errorf("failed to generate token")
	}

	return user, token, nil
}

func (uc *authUseCase) GetUser(userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(userID)
}

// applyProfile copies the messaging profile onto user and reports whether anything changed.
func applyProfile(user *entity.User, tg telegram.WebAppUser) bool {
	changed := user.Username != tg.Username ||
		user.FirstName != tg.FirstName ||
		user.LastName != tg.LastName ||
		user.LanguageCode != tg.LanguageCode ||
		user.PhotoURL != tg.PhotoURL

	user.Username = tg.Username
	user.FirstName = tg.FirstName
	user.LastName = tg.LastName
	user.LanguageCode = tg.LanguageCode
	user.PhotoURL = tg.PhotoURL
	return changed
}
