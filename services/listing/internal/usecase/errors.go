package usecase

import (
	"errors"
	"time"

	"tg-market/services/listing/internal/repo/persistent"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = persistent.ErrNotFound
	ErrForbidden           = errors.New("forbidden")
	ErrPackageUnavailable  = errors.New("package unavailable")
	ErrImageNotAllowed     = errors.New("package does not include a photo")
	ErrPaymentRequired     = errors.New("payment is required for this package")
	ErrPaymentInvalid      = errors.New("payment does not match this listing")
	ErrPaymentUsed         = persistent.ErrPaymentUsed
	ErrFreePostUnavailable = errors.New("free post not available yet")
)

type FreePostUnavailableError struct {
	NextFreeAt time.Time
}

func (e *FreePostUnavailableError) Error() string {
	return "free post not available until " + e.NextFreeAt.UTC().Format(time.RFC3339)
}

func (e *FreePostUnavailableError) Is(target error) bool {
	return target == ErrFreePostUnavailable
}
