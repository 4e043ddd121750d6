package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	secretKey := "test-secret-key"
	service := NewService(secretKey)

	assert.NotNil(t, service)
	assert.Equal(t, []byte(secretKey), service.secretKey)
	assert.Equal(t, defaultTTL, service.ttl)
}

func TestGenerateAndValidateToken(t *testing.T) {
	service := NewService("test-secret-key")

	token, err := service.GenerateToken("user-123", "user")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.True(t, time.Now().Before(claims.ExpiresAt.Time))
}

func TestValidateToken_InvalidToken(t *testing.T) {
	service := NewService("test-secret-key")

	_, err := service.ValidateToken("invalid-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.ValidateToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := NewService("secret-key-1").GenerateToken("user-123", "user")
	require.NoError(t, err)

	_, err = NewService("secret-key-2").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	service := NewService("test-secret-key").WithTTL(time.Millisecond)

	token, err := service.GenerateToken("user-123", "user")
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestWithTTL_IgnoresNonPositive(t *testing.T) {
	service := NewService("k").WithTTL(0)
	assert.Equal(t, defaultTTL, service.ttl)

	service.WithTTL(time.Hour)
	assert.Equal(t, time.Hour, service.ttl)
}
