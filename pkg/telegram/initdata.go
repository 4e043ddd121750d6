// Package telegram validates the initData string a mini-app receives from the
// messaging client and extracts the signed-in user from it.
package telegram

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

var (
	ErrMissingHash   = errors.New("init data has no hash")
	ErrInvalidHash   = errors.New("init data hash mismatch")
	ErrExpired       = errors.New("init data expired")
	ErrMissingUser   = errors.New("init data has no user")
	ErrMalformedData = errors.New("malformed init data")
)

type WebAppUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
}

type InitData struct {
	User     WebAppUser
	AuthDate time.Time
	QueryID  string
}

// Sign computes the hash the client would attach to values.
func Sign(values url.Values, botToken string) string {
	payload := make(map[string]string, len(values))
	for k := range values {
		payload[k] = values.Get(k)
	}
	authUnix, _ := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	return initdata.Sign(payload, botToken, time.Unix(authUnix, 0))
}

// Validate checks the signature and age of raw initData. maxAge <= 0 skips the age check.
func Validate(raw, botToken string, maxAge time.Duration, now time.Time) (*InitData, error) {
	// age is checked here against now, the library only knows the wall clock
	if err := initdata.Validate(raw, botToken, 0); err != nil {
		switch {
		case errors.Is(err, initdata.ErrSignMissing):
			return nil, ErrMissingHash
		case errors.Is(err, initdata.ErrSignInvalid):
			return nil, ErrInvalidHash
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
		}
	}

	data, err := initdata.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	if data.AuthDateRaw == 0 {
		return nil, fmt.Errorf("%w: auth_date", ErrMalformedData)
	}
	authDate := time.Unix(int64(data.AuthDateRaw), 0)
	if maxAge > 0 && now.Sub(authDate) > maxAge {
		return nil, ErrExpired
	}

	if data.User.ID == 0 {
		return nil, ErrMissingUser
	}
	return &InitData{
		User: WebAppUser{
			ID:           data.User.ID,
			FirstName:    data.User.FirstName,
			LastName:     data.User.LastName,
			Username:     data.User.Username,
			LanguageCode: data.User.LanguageCode,
			PhotoURL:     data.User.PhotoURL,
		},
		AuthDate: authDate,
		QueryID:  data.QueryID,
	}, nil
}
