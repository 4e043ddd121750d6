package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"tg-market/pkg/submission"
	"tg-market/services/listing/internal/entity"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 5000
)

var (
	htmlTag   = regexp.MustCompile(`<[^>]+>`)
	nonDigits = regexp.MustCompile(`\D`)
)

func sanitizeText(s string) string {
	return strings.TrimSpace(htmlTag.ReplaceAllString(s, ""))
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// normalize cleans free text in place and checks everything that needs no lookups.
func normalize(in *entity.CreateListingInput) error {
	in.Title = sanitizeText(in.Title)
	in.Description = sanitizeText(in.Description)
	in.Phone = strings.TrimSpace(in.Phone)

	if !in.PostType.Valid() {
		return invalid("unknown post type %q", in.PostType)
	}
	if in.Title == "" {
		return invalid("title is required")
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLength {
		return invalid("title must be at most %d characters", maxTitleLength)
	}
	if in.Description == "" {
		return invalid("description is required")
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLength {
		return invalid("description must be at most %d characters", maxDescriptionLength)
	}
	if in.CityID == "" {
		return invalid("city_id is required")
	}
	if in.CurrencyID == "" {
		return invalid("currency_id is required")
	}
	if in.PackageID == "" {
		return invalid("package_id is required")
	}
	if in.Price.Valid && in.Price.Decimal.IsNegative() {
		return invalid("price must not be negative")
	}
	if in.Phone != "" {
		if digits := len(nonDigits.ReplaceAllString(in.Phone, "")); digits < 10 || digits > 15 {
			return invalid("phone must have 10 to 15 digits")
		}
	}

	if in.PostType == entity.PostTypeService {
		if in.Experience != "" || in.Schedule != "" || in.WorkFormat != "" {
			return invalid("job fields are not allowed on a service listing")
		}
		return nil
	}
	if !submission.Experience(in.Experience).Valid() {
		return invalid("unknown experience %q", in.Experience)
	}
	if !submission.Schedule(in.Schedule).Valid() {
		return invalid("unknown schedule %q", in.Schedule)
	}
	if !submission.WorkFormat(in.WorkFormat).Valid() {
		return invalid("unknown work_format %q", in.WorkFormat)
	}
	return nil
}
