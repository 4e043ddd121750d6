package usecase

import (
	"context"
	"fmt"
	"strings"

	"tg-market/services/billing/internal/entity"
	"tg-market/services/billing/internal/repo/persistent"

	"github.com/shopspring/decimal"
)

const (
	defaultDurationDays     = 30
	defaultPostLifetimeDays = 30
)

type PackageInUseError = persistent.PackageInUseError

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (uc *billingUseCase) AllPackages(ctx context.Context) ([]*entity.Package, error) {
	return uc.billingRepo.AllPackages(ctx)
}

// CreatePackage fills the defaults a new tier starts with: active, priced at
// zero, a 30 day lifetime.
func (uc *billingUseCase) CreatePackage(ctx context.Context, in entity.PackageInput) (*entity.Package, error) {
	if in.NameRU == nil || strings.TrimSpace(*in.NameRU) == "" {
		return nil, invalid("name_ru is required")
	}
	if in.PackageType == nil {
		return nil, invalid("package_type is required")
	}
	if in.CurrencyID == nil || strings.TrimSpace(*in.CurrencyID) == "" {
		return nil, invalid("currency_id is required")
	}
	if err := checkPackageInput(in); err != nil {
		return nil, err
	}

	pkg := &entity.Package{
		NameRU:           strings.TrimSpace(*in.NameRU),
		PackageType:      *in.PackageType,
		Price:            decimal.Zero,
		CurrencyID:       strings.ToUpper(strings.TrimSpace(*in.CurrencyID)),
		DurationDays:     defaultDurationDays,
		PostLifetimeDays: defaultPostLifetimeDays,
		Features:         in.Features,
		IsActive:         true,
	}
	if in.NameUA != nil {
		pkg.NameUA = strings.TrimSpace(*in.NameUA)
	}
	if in.Price != nil {
		pkg.Price = *in.Price
	}
	if in.DurationDays != nil {
		pkg.DurationDays = *in.DurationDays
	}
	if in.PostLifetimeDays != nil {
		pkg.PostLifetimeDays = *in.PostLifetimeDays
	}
	if in.HasPhoto != nil {
		pkg.HasPhoto = *in.HasPhoto
	}
	if in.HasHighlight != nil {
		pkg.HasHighlight = *in.HasHighlight
	}
	if in.HasBoost != nil {
		pkg.HasBoost = *in.HasBoost
	}
	if in.BoostIntervalDays != nil {
		pkg.BoostIntervalDays = *in.BoostIntervalDays
	}
	if in.IsActive != nil {
		pkg.IsActive = *in.IsActive
	}
	if in.SortOrder != nil {
		pkg.SortOrder = *in.SortOrder
	}
	if pkg.HasBoost && pkg.BoostIntervalDays <= 0 {
		return nil, invalid("boost_interval_days must be positive when has_boost is set")
	}
	if pkg.PackageType == entity.PackageTypeFree && !pkg.IsFree() {
		return nil, invalid("a free package cannot have a price")
	}

	if err := uc.billingRepo.CreatePackage(ctx, pkg); err != nil {
		uc.logger.Error("Failed to create package: %v", err)
		return nil, fmt.Errorf("failed to create package: %w", err)
	}
	uc.logger.Info("[PACKAGE] created package=%s type=%s price=%s %s",
		pkg.ID, pkg.PackageType, pkg.Price.StringFixed(2), pkg.CurrencyID)
	return pkg, nil
}

func (uc *billingUseCase) UpdatePackage(ctx context.Context, id string, in entity.PackageInput) (*entity.Package, error) {
	if in.NameRU != nil && strings.TrimSpace(*in.NameRU) == "" {
		return nil, invalid("name_ru must not be blank")
	}
	if in.CurrencyID != nil && strings.TrimSpace(*in.CurrencyID) == "" {
		return nil, invalid("currency_id must not be blank")
	}
	if err := checkPackageInput(in); err != nil {
		return nil, err
	}
	if in.CurrencyID != nil {
		currency := strings.ToUpper(strings.TrimSpace(*in.CurrencyID))
		in.CurrencyID = &currency
	}

	pkg, err := uc.billingRepo.UpdatePackage(ctx, id, in)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("[PACKAGE] updated package=%s active=%t", pkg.ID, pkg.IsActive)
	return pkg, nil
}

func (uc *billingUseCase) DeletePackage(ctx context.Context, id string) error {
	if err := uc.billingRepo.DeletePackage(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("[PACKAGE] deleted package=%s", id)
	return nil
}

// checkPackageInput validates the fields present in in on their own.
func checkPackageInput(in entity.PackageInput) error {
	if in.PackageType != nil && !in.PackageType.Valid() {
		return invalid("unknown package_type %q", *in.PackageType)
	}
	if in.Price != nil && in.Price.IsNegative() {
		return invalid("price must not be negative")
	}
	if in.PostLifetimeDays != nil && *in.PostLifetimeDays <= 0 {
		return invalid("post_lifetime_days must be positive")
	}
	if in.DurationDays != nil && *in.DurationDays < 0 {
		return invalid("duration_days must not be negative")
	}
	if in.BoostIntervalDays != nil && *in.BoostIntervalDays < 0 {
		return invalid("boost_interval_days must not be negative")
	}
	return nil
}
