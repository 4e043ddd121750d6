package persistent

import (
	"context"
	"errors"
	"strings"
	"time"

	"tg-market/pkg/models"
	"tg-market/services/billing/internal/entity"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrPaymentNotPending = errors.New("payment is not pending")
	ErrPackageInUse      = errors.New("package is referenced by payments or listings")
)

// PackageInUseError counts what still points at a package. Deleted listings count too.
type PackageInUseError struct {
	Payments int64
	Listings int64
}

func (e *PackageInUseError) Error() string {
	return ErrPackageInUse.Error()
}

func (e *PackageInUseError) Is(target error) bool {
	return target == ErrPackageInUse
}

type BillingRepository interface {
	ListPackages(ctx context.Context) ([]*entity.Package, error)
	GetPackage(ctx context.Context, id string) (*entity.Package, error)
	CreatePayment(ctx context.Context, payment *entity.Payment) error
	GetPayment(ctx context.Context, id string) (*entity.Payment, error)
	ListPayments(ctx context.Context, userID string, limit, offset int) ([]*entity.Payment, error)
	CompletePayment(ctx context.Context, id string, charge entity.Charge, now time.Time) (*entity.Completion, error)

	AllPackages(ctx context.Context) ([]*entity.Package, error)
	CreatePackage(ctx context.Context, pkg *entity.Package) error
	UpdatePackage(ctx context.Context, id string, in entity.PackageInput) (*entity.Package, error)
	DeletePackage(ctx context.Context, id string) error
}

type billingRepository struct {
	db *gorm.DB
}

func NewBillingRepository(db *gorm.DB) BillingRepository {
	return &billingRepository{db: db}
}

func (r *billingRepository) ListPackages(ctx context.Context) ([]*entity.Package, error) {
	var rows []models.Package
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, price ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	packages := make([]*entity.Package, len(rows))
	for i := range rows {
		packages[i] = ToPackageEntity(&rows[i])
	}
	return packages, nil
}

func (r *billingRepository) GetPackage(ctx context.Context, id string) (*entity.Package, error) {
	var pkg models.Package
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pkg).Error; err != nil {
		return nil, notFound(err)
	}
	return ToPackageEntity(&pkg), nil
}

func (r *billingRepository) CreatePayment(ctx context.Context, payment *entity.Payment) error {
	paymentModel := ToPaymentModel(payment)
	if err := r.db.WithContext(ctx).Create(paymentModel).Error; err != nil {
		return err
	}
	*payment = *ToPaymentEntity(paymentModel)
	return nil
}

func (r *billingRepository) GetPayment(ctx context.Context, id string) (*entity.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, notFound(err)
	}
	return ToPaymentEntity(&payment), nil
}

func (r *billingRepository) ListPayments(ctx context.Context, userID string, limit, offset int) ([]*entity.Payment, error) {
	var rows []models.Payment
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]*entity.Payment, len(rows))
	for i := range rows {
		payments[i] = ToPaymentEntity(&rows[i])
	}
	return payments, nil
}

// CompletePayment settles a pending payment and releases the draft listings
// it paid for into moderation, all in one transaction. Settling an already
// completed payment changes nothing.
func (r *billingRepository) CompletePayment(ctx context.Context, id string, charge entity.Charge, now time.Time) (*entity.Completion, error) {
	var completion entity.Completion

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Where("id = ?", id).First(&payment).Error; err != nil {
			return notFound(err)
		}

		switch payment.Status {
		case models.PaymentCompleted:
			completion.AlreadyCompleted = true
			completion.Payment = ToPaymentEntity(&payment)
			return nil
		case models.PaymentPending:
		default:
			return ErrPaymentNotPending
		}

		result := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", id, models.PaymentPending).
			Updates(map[string]interface{}{
				"status":             models.PaymentCompleted,
				"telegram_charge_id": charge.TelegramChargeID,
				"provider_charge_id": charge.ProviderChargeID,
				"completed_at":       now,
				"updated_at":         now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// settled by a concurrent call
			completion.AlreadyCompleted = true
		}

		if err := tx.Where("id = ?", id).First(&payment).Error; err != nil {
			return err
		}
		completion.Payment = ToPaymentEntity(&payment)
		if completion.AlreadyCompleted {
			return nil
		}

		var drafts []models.Listing
		if err := tx.Where("payment_id = ? AND status = ?", id, models.ListingDraft).Find(&drafts).Error; err != nil {
			return err
		}
		if len(drafts) == 0 {
			return nil
		}

		ids := make([]string, len(drafts))
		for i := range drafts {
			ids[i] = drafts[i].ID
			completion.Released = append(completion.Released, toReleasedListing(&drafts[i]))
		}
		return tx.Model(&models.Listing{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{"status": models.ListingModeration, "updated_at": now}).Error
	})
	if err != nil {
		return nil, err
	}
	return &completion, nil
}

// AllPackages lists every package for the back-office, inactive ones included.
func (r *billingRepository) AllPackages(ctx context.Context) ([]*entity.Package, error) {
	var rows []models.Package
	if err := r.db.WithContext(ctx).Order("sort_order ASC, price ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	packages := make([]*entity.Package, len(rows))
	for i := range rows {
		packages[i] = ToPackageEntity(&rows[i])
	}
	return packages, nil
}

func (r *billingRepository) CreatePackage(ctx context.Context, pkg *entity.Package) error {
	row := ToPackageModel(pkg)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		// is_active defaults to true in the schema
		if !pkg.IsActive {
			if err := tx.Model(row).Update("is_active", false).Error; err != nil {
				return err
			}
		}
		return tx.First(row).Error
	})
	if err != nil {
		return err
	}
	*pkg = *ToPackageEntity(row)
	return nil
}

func (r *billingRepository) UpdatePackage(ctx context.Context, id string, in entity.PackageInput) (*entity.Package, error) {
	fields := map[string]interface{}{}
	if in.NameRU != nil {
		fields["name_ru"] = *in.NameRU
	}
	if in.NameUA != nil {
		fields["name_ua"] = *in.NameUA
	}
	if in.PackageType != nil {
		fields["package_type"] = models.PackageType(*in.PackageType)
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.CurrencyID != nil {
		fields["currency_id"] = *in.CurrencyID
	}
	if in.DurationDays != nil {
		fields["duration_days"] = *in.DurationDays
	}
	if in.PostLifetimeDays != nil {
		fields["post_lifetime_days"] = *in.PostLifetimeDays
	}
	if in.Features != nil {
		fields["features"] = strings.Join(in.Features, "|")
	}
	if in.HasPhoto != nil {
		fields["has_photo"] = *in.HasPhoto
	}
	if in.HasHighlight != nil {
		fields["has_highlight"] = *in.HasHighlight
	}
	if in.HasBoost != nil {
		fields["has_boost"] = *in.HasBoost
	}
	if in.BoostIntervalDays != nil {
		fields["boost_interval_days"] = *in.BoostIntervalDays
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.SortOrder != nil {
		fields["sort_order"] = *in.SortOrder
	}

	var row models.Package
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return notFound(err)
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&row).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return ToPackageEntity(&row), nil
}

// DeletePackage removes a package nothing was ever bought or published under.
// Retiring a used package is done by deactivating it.
func (r *billingRepository) DeletePackage(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inUse PackageInUseError
		if err := tx.Model(&models.Payment{}).Where("package_id = ?", id).Count(&inUse.Payments).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Model(&models.Listing{}).Where("package_id = ?", id).Count(&inUse.Listings).Error; err != nil {
			return err
		}
		if inUse.Payments > 0 || inUse.Listings > 0 {
			return &inUse
		}

		result := tx.Where("id = ?", id).Delete(&models.Package{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
