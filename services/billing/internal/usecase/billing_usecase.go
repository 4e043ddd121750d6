package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tg-market/pkg/cache"
	"tg-market/pkg/logger"
	"tg-market/pkg/queue"
	"tg-market/services/billing/internal/entity"
	"tg-market/services/billing/internal/repo/persistent"
)

var (
	ErrNotFound           = persistent.ErrNotFound
	ErrPackageUnavailable = errors.New("tier unavailable")
	ErrFreePackage        = errors.New("free tier needs no payment")
	ErrForbidden          = errors.New("access denied")
	ErrPaymentNotPending  = persistent.ErrPaymentNotPending
	ErrInvalidInput       = errors.New("invalid input")
	ErrPackageInUse       = persistent.ErrPackageInUse
)

type EventPublisher interface {
	PublishListingEvent(ctx context.Context, event queue.ListingEvent) error
}

type BillingUseCase interface {
	ListPackages(ctx context.Context) ([]*entity.Package, error)
	GetPackage(ctx context.Context, id string) (*entity.Package, error)
	CreatePayment(ctx context.Context, userID, packageID string) (*entity.Payment, error)
	GetPayment(ctx context.Context, userID, paymentID string) (*entity.Payment, error)
	ListPayments(ctx context.Context, userID string, limit, offset int) ([]*entity.Payment, error)
	CompletePayment(ctx context.Context, paymentID string, charge entity.Charge) (*entity.Completion, error)

	AllPackages(ctx context.Context) ([]*entity.Package, error)
	CreatePackage(ctx context.Context, in entity.PackageInput) (*entity.Package, error)
	UpdatePackage(ctx context.Context, id string, in entity.PackageInput) (*entity.Package, error)
	DeletePackage(ctx context.Context, id string) error
}

type billingUseCase struct {
	billingRepo persistent.BillingRepository
	events      EventPublisher
	store       *cache.Store
	now         func() time.Time
	logger      *logger.Logger
}

// NewBillingUseCase builds the billing rules. store holds the listing
// service's cached listings; it may be inert.
func NewBillingUseCase(billingRepo persistent.BillingRepository, events EventPublisher, store *cache.Store, logger *logger.Logger) BillingUseCase {
	return &billingUseCase{
		billingRepo: billingRepo,
		events:      events,
		store:       store,
		now:         time.Now,
		logger:      logger,
	}
}

func (uc *billingUseCase) ListPackages(ctx context.Context) ([]*entity.Package, error) {
	packages, err := uc.billingRepo.ListPackages(ctx)
	if err != nil {
		uc.logger.Error("Failed to list packages: %v", err)
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return packages, nil
}

func (uc *billingUseCase) GetPackage(ctx context.Context, id string) (*entity.Package, error) {
	pkg, err := uc.billingRepo.GetPackage(ctx, id)
	if errors.Is(err, persistent.ErrNotFound) || (err == nil && !pkg.IsActive) {
		return nil, ErrPackageUnavailable
	}
	return pkg, err
}

// CreatePayment opens a pending payment priced from the package. Settlement
// arrives later through CompletePayment.
func (uc *billingUseCase) CreatePayment(ctx context.Context, userID, packageID string) (*entity.Payment, error) {
	pkg, err := uc.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if pkg.IsFree() {
		return nil, ErrFreePackage
	}

	payment := &entity.Payment{
		UserID:     userID,
		PackageID:  pkg.ID,
		Amount:     pkg.Price,
		CurrencyID: pkg.CurrencyID,
		Status:     entity.PaymentPending,
	}
	if err := uc.billingRepo.CreatePayment(ctx, payment); err != nil {
		uc.logger.Error("Failed to create payment: %v", err)
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	uc.logger.Info("[PAYMENT] created payment=%s user=%s package=%s amount=%s %s",
		payment.ID, userID, pkg.ID, payment.Amount.StringFixed(2), payment.CurrencyID)
	return payment, nil
}

func (uc *billingUseCase) GetPayment(ctx context.Context, userID, paymentID string) (*entity.Payment, error) {
	payment, err := uc.billingRepo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, ErrForbidden
	}
	return payment, nil
}

func (uc *billingUseCase) ListPayments(ctx context.Context, userID string, limit, offset int) ([]*entity.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.billingRepo.ListPayments(ctx, userID, limit, offset)
}

func (uc *billingUseCase) CompletePayment(ctx context.Context, paymentID string, charge entity.Charge) (*entity.Completion, error) {
	completion, err := uc.billingRepo.CompletePayment(ctx, paymentID, charge, uc.now())
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrPaymentNotPending) {
			uc.logger.Error("[PAYMENT] failed to complete payment=%s: %v", paymentID, err)
		}
		return nil, err
	}

	if completion.AlreadyCompleted {
		uc.logger.Info("[PAYMENT] payment=%s already completed", paymentID)
		return completion, nil
	}

	uc.logger.Info("[PAYMENT] completed payment=%s, %d listing(s) sent to moderation", paymentID, len(completion.Released))
	if len(completion.Released) > 0 {
		keys := make([]string, len(completion.Released))
		for i, l := range completion.Released {
			keys[i] = cache.ListingKey(l.ID)
		}
		if err := uc.store.Delete(ctx, keys...); err != nil {
			uc.logger.Warn("[PAYMENT] failed to drop cached drafts of payment=%s: %v", paymentID, err)
		}
	}
	for _, l := range completion.Released {
		uc.publish(ctx, l)
	}
	return completion, nil
}

func (uc *billingUseCase) publish(ctx context.Context, l entity.ReleasedListing) {
	if uc.events == nil {
		return
	}
	priority := 1
	if l.IsPremium {
		priority = 5
	}
	event := queue.ListingEvent{
		Type:        queue.EventTypeListingCreated,
		ListingID:   l.ID,
		AuthorID:    l.AuthorID,
		PostType:    l.PostType,
		Title:       l.Title,
		Description: l.Description,
		IsPremium:   l.IsPremium,
		Priority:    priority,
		CreatedAt:   l.CreatedAt,
	}
	if err := uc.events.PublishListingEvent(ctx, event); err != nil {
		uc.logger.Error("[RABBITMQ] failed to publish listing_created for %s: %v", l.ID, err)
	}
}
