package usecase

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"

	"tg-market/pkg/jwt"
	"tg-market/pkg/logger"
	"tg-market/pkg/telegram"
	"tg-market/services/auth/internal/entity"
	"tg-market/services/auth/internal/repo/persistent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const botToken = "123456:test-bot-token"

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *entity.User) error {
	args := m.Called(user)
	if args.Error(0) == nil && user.ID == "" {
		user.ID = "user-new"
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id string) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByTelegramID(telegramID int64) (*entity.User, error) {
	args := m.Called(telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

var _ persistent.UserRepository = (*MockUserRepository)(nil)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func signedInitData(t *testing.T, user telegram.WebAppUser, authDate time.Time) string {
	t.Helper()
	raw, err := json.Marshal(user)
	require.NoError(t, err)

	values := url.Values{}
	values.Set("query_id", "AAE-test")
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("user", string(raw))
	values.Set("hash", telegram.Sign(values, botToken))
	return values.Encode()
}

func newUseCase(repo persistent.UserRepository, jwtService *jwt.Service) *authUseCase {
	uc := NewAuthUseCase(repo, jwtService, botToken, 24*time.Hour, logger.Discard()).(*authUseCase)
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func TestLoginWithTelegram_CreatesUser(t *testing.T) {
	repo := new(MockUserRepository)
	jwtService := jwt.NewService("secret")
	uc := newUseCase(repo, jwtService)

	tgUser := telegram.WebAppUser{ID: 777, FirstName: "Anna", Username: "anna_dev", LanguageCode: "ru"}

	repo.On("GetByTelegramID", int64(777)).Return(nil, persistent.ErrUserNotFound)
	repo.On("Create", mock.MatchedBy(func(u *entity.User) bool {
		return u.TelegramID == 777 && u.Username == "anna_dev" && u.Role == entity.RoleUser
	})).Return(nil)

	user, token, err := uc.LoginWithTelegram(signedInitData(t, tgUser, fixedNow.Add(-time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, "user-new", user.ID)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-new", claims.UserID)
	assert.Equal(t, "user", claims.Role)

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestLoginWithTelegram_ExistingUserRefreshesProfile(t *testing.T) {
	repo := new(MockUserRepository)
	uc := newUseCase(repo, jwt.NewService("secret"))

	existing := &entity.User{ID: "user-1", TelegramID: 777, Username: "old_name", FirstName: "Anna", Role: entity.RoleAdmin}
	repo.On("GetByTelegramID", int64(777)).Return(existing, nil)
	repo.On("Update", mock.MatchedBy(func(u *entity.User) bool { return u.Username == "anna_dev" })).Return(nil)

	user, _, err := uc.LoginWithTelegram(signedInitData(t, telegram.WebAppUser{ID: 777, FirstName: "Anna", Username: "anna_dev"}, fixedNow))
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, user.Role)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestLoginWithTelegram_UnchangedProfileSkipsUpdate(t *testing.T) {
	repo := new(MockUserRepository)
	uc := newUseCase(repo, jwt.NewService("secret"))

	existing := &entity.User{ID: "user-1", TelegramID: 777, FirstName: "Anna", Role: entity.RoleUser}
	repo.On("GetByTelegramID", int64(777)).Return(existing, nil)

	_, _, err := uc.LoginWithTelegram(signedInitData(t, telegram.WebAppUser{ID: 777, FirstName: "Anna"}, fixedNow))
	require.NoError(t, err)
	repo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestLoginWithTelegram_Rejections(t *testing.T) {
	tgUser := telegram.WebAppUser{ID: 777, FirstName: "Anna"}

	t.Run("tampered", func(t *testing.T) {
		repo := new(MockUserRepository)
		uc := newUseCase(repo, jwt.NewService("secret"))

		values, err := url.ParseQuery(signedInitData(t, tgUser, fixedNow))
		require.NoError(t, err)
		values.Set("user", `{"id":1,"first_name":"Mallory"}`)

		_, _, err = uc.LoginWithTelegram(values.Encode())
		assert.ErrorIs(t, err, ErrInvalidInitData)
		assert.ErrorIs(t, err, telegram.ErrInvalidHash)
		repo.AssertNotCalled(t, "GetByTelegramID", mock.Anything)
	})

	t.Run("expired", func(t *testing.T) {
		uc := newUseCase(new(MockUserRepository), jwt.NewService("secret"))
		_, _, err := uc.LoginWithTelegram(signedInitData(t, tgUser, fixedNow.Add(-48*time.Hour)))
		assert.ErrorIs(t, err, ErrInvalidInitData)
		assert.ErrorIs(t, err, telegram.ErrExpired)
	})

	t.Run("blocked", func(t *testing.T) {
		repo := new(MockUserRepository)
		uc := newUseCase(repo, jwt.NewService("secret"))
		repo.On("GetByTelegramID", int64(777)).Return(&entity.User{ID: "user-1", TelegramID: 777, FirstName: "Anna", IsBlocked: true}, nil)

		_, token, err := uc.LoginWithTelegram(signedInitData(t, tgUser, fixedNow))
		assert.ErrorIs(t, err, ErrUserBlocked)
		assert.Empty(t, token)
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := new(MockUserRepository)
		uc := newUseCase(repo, jwt.NewService("secret"))
		repo.On("GetByTelegramID", int64(777)).Return(nil, errors.New("connection reset"))

		_, _, err := uc.LoginWithTelegram(signedInitData(t, tgUser, fixedNow))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidInitData)
	})
}
