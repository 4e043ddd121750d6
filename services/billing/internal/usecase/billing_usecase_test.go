package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"tg-market/pkg/cache"
	"tg-market/pkg/logger"
	"tg-market/pkg/queue"
	"tg-market/services/billing/internal/entity"
	"tg-market/services/billing/internal/repo/persistent"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBillingRepository struct {
	mock.Mock
}

func (m *MockBillingRepository) ListPackages(ctx context.Context) ([]*entity.Package, error) {
	args := m.Called()
	return args.Get(0).([]*entity.Package), args.Error(1)
}

func (m *MockBillingRepository) GetPackage(ctx context.Context, id string) (*entity.Package, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Package), args.Error(1)
}

func (m *MockBillingRepository) CreatePayment(ctx context.Context, payment *entity.Payment) error {
	args := m.Called(payment)
	if args.Error(0) == nil {
		payment.ID = "pay-1"
	}
	return args.Error(0)
}

func (m *MockBillingRepository) GetPayment(ctx context.Context, id string) (*entity.Payment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockBillingRepository) ListPayments(ctx context.Context, userID string, limit, offset int) ([]*entity.Payment, error) {
	args := m.Called(userID, limit, offset)
	return args.Get(0).([]*entity.Payment), args.Error(1)
}

func (m *MockBillingRepository) CompletePayment(ctx context.Context, id string, charge entity.Charge, now time.Time) (*entity.Completion, error) {
	args := m.Called(id, charge, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Completion), args.Error(1)
}

func (m *MockBillingRepository) AllPackages(ctx context.Context) ([]*entity.Package, error) {
	args := m.Called()
	return args.Get(0).([]*entity.Package), args.Error(1)
}

func (m *MockBillingRepository) CreatePackage(ctx context.Context, pkg *entity.Package) error {
	args := m.Called(pkg)
	if args.Error(0) == nil {
		pkg.ID = "pkg-new"
	}
	return args.Error(0)
}

func (m *MockBillingRepository) UpdatePackage(ctx context.Context, id string, in entity.PackageInput) (*entity.Package, error) {
	args := m.Called(id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Package), args.Error(1)
}

func (m *MockBillingRepository) DeletePackage(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishListingEvent(ctx context.Context, event queue.ListingEvent) error {
	return m.Called(event).Error(0)
}

var (
	_ persistent.BillingRepository = (*MockBillingRepository)(nil)
	_ EventPublisher               = (*MockPublisher)(nil)
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

var premium = &entity.Package{ID: "pkg-premium", Price: decimal.NewFromInt(300), CurrencyID: "RUB", IsActive: true}

func newUseCase(repo persistent.BillingRepository, events EventPublisher) *billingUseCase {
	return newUseCaseWithStore(repo, events, cache.NewStore(nil))
}

func newUseCaseWithStore(repo persistent.BillingRepository, events EventPublisher, store *cache.Store) *billingUseCase {
	uc := NewBillingUseCase(repo, events, store, logger.Discard()).(*billingUseCase)
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func TestCreatePayment(t *testing.T) {
	repo := new(MockBillingRepository)
	repo.On("GetPackage", "pkg-premium").Return(premium, nil)
	repo.On("CreatePayment", mock.MatchedBy(func(p *entity.Payment) bool {
		return p.UserID == "user-1" && p.Amount.Equal(decimal.NewFromInt(300)) &&
			p.CurrencyID == "RUB" && p.Status == entity.PaymentPending
	})).Return(nil)

	payment, err := newUseCase(repo, nil).CreatePayment(context.Background(), "user-1", "pkg-premium")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", payment.ID)
	repo.AssertExpectations(t)
}

func TestCreatePayment_Rejections(t *testing.T) {
	repo := new(MockBillingRepository)
	repo.On("GetPackage", "pkg-free").Return(&entity.Package{ID: "pkg-free", IsActive: true}, nil)
	repo.On("GetPackage", "pkg-old").Return(&entity.Package{ID: "pkg-old", Price: decimal.NewFromInt(100)}, nil)
	repo.On("GetPackage", "pkg-none").Return(nil, persistent.ErrNotFound)
	uc := newUseCase(repo, nil)

	_, err := uc.CreatePayment(context.Background(), "user-1", "pkg-free")
	assert.ErrorIs(t, err, ErrFreePackage)

	_, err = uc.CreatePayment(context.Background(), "user-1", "pkg-old")
	assert.ErrorIs(t, err, ErrPackageUnavailable)

	_, err = uc.CreatePayment(context.Background(), "user-1", "pkg-none")
	assert.ErrorIs(t, err, ErrPackageUnavailable)

	repo.AssertNotCalled(t, "CreatePayment", mock.Anything)
}

func TestGetPayment_OwnerOnly(t *testing.T) {
	repo := new(MockBillingRepository)
	repo.On("GetPayment", "pay-1").Return(&entity.Payment{ID: "pay-1", UserID: "user-1"}, nil)
	uc := newUseCase(repo, nil)

	payment, err := uc.GetPayment(context.Background(), "user-1", "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", payment.ID)

	_, err = uc.GetPayment(context.Background(), "user-2", "pay-1")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListPayments_ClampsLimit(t *testing.T) {
	repo := new(MockBillingRepository)
	repo.On("ListPayments", "user-1", 20, 0).Return([]*entity.Payment{}, nil)

	_, err := newUseCase(repo, nil).ListPayments(context.Background(), "user-1", 1000, -5)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCompletePayment_PublishesReleasedListings(t *testing.T) {
	repo := new(MockBillingRepository)
	events := new(MockPublisher)
	charge := entity.Charge{TelegramChargeID: "tg-1"}
	repo.On("CompletePayment", "pay-1", charge, fixedNow).Return(&entity.Completion{
		Payment: &entity.Payment{ID: "pay-1", Status: entity.PaymentCompleted},
		Released: []entity.ReleasedListing{
			{ID: "l-1", AuthorID: "user-1", PostType: "job", Title: "Go developer", IsPremium: true},
		},
	}, nil)
	events.On("PublishListingEvent", mock.MatchedBy(func(ev queue.ListingEvent) bool {
		return ev.Type == queue.EventTypeListingCreated && ev.ListingID == "l-1" && ev.Priority == 5
	})).Return(errors.New("broker down"))

	completion, err := newUseCase(repo, events).CompletePayment(context.Background(), "pay-1", charge)
	require.NoError(t, err, "publish failures are logged, not returned")
	assert.Len(t, completion.Released, 1)
	events.AssertExpectations(t)
}

func TestCompletePayment_DropsCachedDrafts(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := cache.NewStore(client)

	ctx := context.Background()
	for _, id := range []string{"l-1", "l-2"} {
		require.NoError(t, store.SetJSON(ctx, cache.ListingKey(id), map[string]string{"id": id, "status": "draft"}, time.Hour))
	}

	repo := new(MockBillingRepository)
	repo.On("CompletePayment", "pay-1", entity.Charge{}, fixedNow).Return(&entity.Completion{
		Payment:  &entity.Payment{ID: "pay-1", Status: entity.PaymentCompleted},
		Released: []entity.ReleasedListing{{ID: "l-1", AuthorID: "user-1", PostType: "job"}},
	}, nil)

	_, err := newUseCaseWithStore(repo, nil, store).CompletePayment(ctx, "pay-1", entity.Charge{})
	require.NoError(t, err)

	assert.False(t, mr.Exists(cache.ListingKey("l-1")))
	assert.True(t, mr.Exists(cache.ListingKey("l-2")), "listings of other payments stay cached")
}

func TestCompletePayment_AlreadyCompletedPublishesNothing(t *testing.T) {
	repo := new(MockBillingRepository)
	events := new(MockPublisher)
	repo.On("CompletePayment", "pay-1", entity.Charge{}, fixedNow).Return(&entity.Completion{
		Payment:          &entity.Payment{ID: "pay-1", Status: entity.PaymentCompleted},
		AlreadyCompleted: true,
	}, nil)

	completion, err := newUseCase(repo, events).CompletePayment(context.Background(), "pay-1", entity.Charge{})
	require.NoError(t, err)
	assert.True(t, completion.AlreadyCompleted)
	events.AssertNotCalled(t, "PublishListingEvent", mock.Anything)
}

func TestCompletePayment_Errors(t *testing.T) {
	repo := new(MockBillingRepository)
	repo.On("CompletePayment", "missing", entity.Charge{}, fixedNow).Return(nil, persistent.ErrNotFound)
	repo.On("CompletePayment", "failed", entity.Charge{}, fixedNow).Return(nil, persistent.ErrPaymentNotPending)
	uc := newUseCase(repo, nil)

	_, err := uc.CompletePayment(context.Background(), "missing", entity.Charge{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = uc.CompletePayment(context.Background(), "failed", entity.Charge{})
	assert.ErrorIs(t, err, ErrPaymentNotPending)
}
