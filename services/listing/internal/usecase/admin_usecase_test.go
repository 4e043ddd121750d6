package usecase

import (
	"context"
	"testing"
	"time"

	"tg-market/pkg/cache"
	"tg-market/pkg/logger"
	"tg-market/services/listing/internal/entity"
	"tg-market/services/listing/internal/repo/persistent"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) ListListings(filter entity.AdminListingFilter) ([]*entity.Listing, int64, error) {
	args := m.Called(filter)
	return args.Get(0).([]*entity.Listing), args.Get(1).(int64), args.Error(2)
}

func (m *MockAdminRepository) UpdateListing(id string, patch entity.ListingPatch, now time.Time) (*entity.Listing, error) {
	args := m.Called(id, patch, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockAdminRepository) DeleteListing(id string) error {
	return m.Called(id).Error(0)
}

func (m *MockAdminRepository) Stats(since time.Time) (*entity.AdminStats, error) {
	args := m.Called(since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AdminStats), args.Error(1)
}

func (m *MockAdminRepository) ListCategories() ([]*entity.Category, error) {
	args := m.Called()
	return args.Get(0).([]*entity.Category), args.Error(1)
}

func (m *MockAdminRepository) CreateCategory(category *entity.Category) error {
	args := m.Called(category)
	if args.Error(0) == nil {
		category.ID = "cat-1"
	}
	return args.Error(0)
}

func (m *MockAdminRepository) UpdateCategory(id string, in entity.CategoryInput) (*entity.Category, error) {
	args := m.Called(id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockAdminRepository) DeleteCategory(id string) error {
	return m.Called(id).Error(0)
}

func (m *MockAdminRepository) ListCities() ([]*entity.City, error) {
	args := m.Called()
	return args.Get(0).([]*entity.City), args.Error(1)
}

func (m *MockAdminRepository) CreateCity(city *entity.City) error {
	args := m.Called(city)
	if args.Error(0) == nil {
		city.ID = "city-1"
	}
	return args.Error(0)
}

func (m *MockAdminRepository) UpdateCity(id string, in entity.CityInput) (*entity.City, error) {
	args := m.Called(id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.City), args.Error(1)
}

func (m *MockAdminRepository) DeleteCity(id string) error {
	return m.Called(id).Error(0)
}

var _ persistent.AdminRepository = (*MockAdminRepository)(nil)

type adminFixture struct {
	repo  *MockAdminRepository
	refs  *MockReferenceRepository
	redis *miniredis.Miniredis
	store *cache.Store
	uc    *adminUseCase
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &adminFixture{
		repo:  new(MockAdminRepository),
		refs:  new(MockReferenceRepository),
		redis: mr,
		store: cache.NewStore(client),
	}
	f.uc = NewAdminUseCase(f.repo, f.refs, f.store, logger.Discard()).(*adminUseCase)
	f.uc.now = func() time.Time { return fixedNow }
	return f
}

func ptr[T any](v T) *T { return &v }

func TestAdminStats_LooksBackOneWeek(t *testing.T) {
	f := newAdminFixture(t)
	stats := &entity.AdminStats{Overview: entity.StatsOverview{TotalListings: 3}}
	f.repo.On("Stats", fixedNow.Add(-7*24*time.Hour)).Return(stats, nil)

	got, err := f.uc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stats, got)
}

func TestAdminListListings_ClampsPaging(t *testing.T) {
	f := newAdminFixture(t)
	f.repo.On("ListListings", entity.AdminListingFilter{Status: entity.StatusBlocked, Page: 1, Limit: 200}).
		Return([]*entity.Listing{{ID: "l-1"}}, int64(401), nil)

	page, err := f.uc.ListListings(context.Background(), entity.AdminListingFilter{Status: entity.StatusBlocked, Page: -3, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, int64(401), page.Total)

	_, err = f.uc.ListListings(context.Background(), entity.AdminListingFilter{PostType: "car"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdminUpdateListing_DropsCachedCopy(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SetJSON(ctx, cache.ListingKey("l-1"), entity.Listing{ID: "l-1", Title: "Old"}, time.Hour))

	published := entity.StatusPublished
	f.refs.On("CityExists", "city-spb").Return(true, nil)
	f.repo.On("UpdateListing", "l-1", mock.MatchedBy(func(p entity.ListingPatch) bool {
		return *p.Title == "New title" && *p.CityID == "city-spb" && *p.Status == entity.StatusPublished
	}), fixedNow).Return(&entity.Listing{ID: "l-1", Title: "New title", Status: entity.StatusPublished}, nil)

	listing, err := f.uc.UpdateListing(ctx, "l-1", entity.ListingPatch{
		Title:  ptr("  <b>New title</b> "),
		CityID: ptr("city-spb"),
		Status: &published,
	})
	require.NoError(t, err)
	assert.Equal(t, "New title", listing.Title)
	assert.False(t, f.redis.Exists(cache.ListingKey("l-1")))
}

func TestAdminUpdateListing_Rejections(t *testing.T) {
	f := newAdminFixture(t)
	f.refs.On("CategoryExists", "cat-gone").Return(false, nil)
	unknown := entity.ListingStatus(0)

	cases := []struct {
		name  string
		patch entity.ListingPatch
	}{
		{"empty", entity.ListingPatch{}},
		{"blank title", entity.ListingPatch{Title: ptr("<p> </p>")}},
		{"negative price", entity.ListingPatch{Price: ptr(decimal.NewFromInt(-1))}},
		{"unknown status", entity.ListingPatch{Status: &unknown}},
		{"missing category", entity.ListingPatch{CategoryID: ptr("cat-gone")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.UpdateListing(context.Background(), "l-1", tc.patch)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	f.repo.AssertNotCalled(t, "UpdateListing", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminDeleteListing(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SetJSON(ctx, cache.ListingKey("l-1"), entity.Listing{ID: "l-1"}, time.Hour))

	f.repo.On("DeleteListing", "l-1").Return(nil)
	f.repo.On("DeleteListing", "missing").Return(persistent.ErrNotFound)

	require.NoError(t, f.uc.DeleteListing(ctx, "l-1"))
	assert.False(t, f.redis.Exists(cache.ListingKey("l-1")))

	assert.ErrorIs(t, f.uc.DeleteListing(ctx, "missing"), ErrNotFound)
}

func TestAdminCreateCategory(t *testing.T) {
	f := newAdminFixture(t)
	f.repo.On("CreateCategory", &entity.Category{Slug: "job", NameRU: "Работа", IsActive: true, SortOrder: 2}).Return(nil)

	category, err := f.uc.CreateCategory(context.Background(), entity.CategoryInput{
		Slug:      ptr(" job "),
		NameRU:    ptr("Работа"),
		SortOrder: ptr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "cat-1", category.ID)
	assert.True(t, category.IsActive, "active unless told otherwise")

	_, err = f.uc.CreateCategory(context.Background(), entity.CategoryInput{NameRU: ptr("Без слага")})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.uc.CreateCategory(context.Background(), entity.CategoryInput{Slug: ptr("x"), NameRU: ptr("  ")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdminCategoryErrorsPassThrough(t *testing.T) {
	f := newAdminFixture(t)
	f.repo.On("UpdateCategory", "cat-1", entity.CategoryInput{Slug: ptr("service")}).Return(nil, persistent.ErrDuplicate)
	f.repo.On("DeleteCategory", "cat-1").Return(&persistent.InUseError{Listings: 4})

	_, err := f.uc.UpdateCategory(context.Background(), "cat-1", entity.CategoryInput{Slug: ptr("service")})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = f.uc.DeleteCategory(context.Background(), "cat-1")
	assert.ErrorIs(t, err, ErrInUse)
	var inUse *InUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, int64(4), inUse.Listings)

	_, err = f.uc.UpdateCategory(context.Background(), "cat-1", entity.CategoryInput{NameRU: ptr("")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdminCities(t *testing.T) {
	f := newAdminFixture(t)
	inactive := false
	f.repo.On("CreateCity", &entity.City{NameRU: "Москва", NameUA: "Москва", IsActive: false}).Return(nil)
	f.repo.On("UpdateCity", "city-1", entity.CityInput{SortOrder: ptr(3)}).Return(&entity.City{ID: "city-1", SortOrder: 3}, nil)
	f.repo.On("DeleteCity", "city-1").Return(nil)
	f.repo.On("ListCities").Return([]*entity.City{{ID: "city-1"}}, nil)

	city, err := f.uc.CreateCity(context.Background(), entity.CityInput{NameRU: ptr("Москва"), NameUA: ptr(" Москва "), IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "city-1", city.ID)

	_, err = f.uc.CreateCity(context.Background(), entity.CityInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := f.uc.UpdateCity(context.Background(), "city-1", entity.CityInput{SortOrder: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.SortOrder)

	cities, err := f.uc.Cities(context.Background())
	require.NoError(t, err)
	assert.Len(t, cities, 1)

	require.NoError(t, f.uc.DeleteCity(context.Background(), "city-1"))
}
