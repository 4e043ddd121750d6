package persistent

import (
	"testing"
	"time"

	"tg-market/pkg/models"
	"tg-market/services/listing/internal/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestAdminRepository_ListListings(t *testing.T) {
	db := setupTestDB(t)
	listings := NewListingRepository(db)
	repo := NewAdminRepository(db)

	older := newListing("author-1", "Old draft", entity.StatusDraft, base)
	newer := newListing("author-2", "Fresh one", entity.StatusPublished, base.Add(time.Hour))
	service := newListing("author-2", "Plumbing", entity.StatusBlocked, base.Add(2*time.Hour))
	service.PostType = entity.PostTypeService
	for _, l := range []*entity.Listing{older, newer, service} {
		require.NoError(t, listings.Create(l))
	}

	all, total, err := repo.ListListings(entity.AdminListingFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	assert.Equal(t, service.ID, all[0].ID, "newest first")

	drafts, total, err := repo.ListListings(entity.AdminListingFilter{Status: entity.StatusDraft, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, older.ID, drafts[0].ID)

	services, _, err := repo.ListListings(entity.AdminListingFilter{PostType: entity.PostTypeService, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, service.ID, services[0].ID)

	second, total, err := repo.ListListings(entity.AdminListingFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, second, 1)
	assert.Equal(t, older.ID, second[0].ID)
}

func TestAdminRepository_UpdateListing(t *testing.T) {
	db := setupTestDB(t)
	listings := NewListingRepository(db)
	repo := NewAdminRepository(db)

	listing := newListing("author-1", "Go developer", entity.StatusManualReview, base)
	require.NoError(t, listings.Create(listing))

	now := base.Add(24 * time.Hour)
	published := entity.StatusPublished
	price := decimal.NewFromInt(2500)
	updated, err := repo.UpdateListing(listing.ID, entity.ListingPatch{
		Title:  strPtr("Senior Go developer"),
		Price:  &price,
		Status: &published,
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go developer", updated.Title)
	assert.Equal(t, entity.StatusPublished, updated.Status)
	assert.True(t, updated.Price.Decimal.Equal(price))
	assert.Equal(t, "Description of Go developer", updated.Description, "untouched fields stay")
	assert.True(t, updated.UpdatedAt.Equal(now))

	_, err = repo.UpdateListing("missing", entity.ListingPatch{Title: strPtr("x")}, now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminRepository_DeleteListingKeepsFreeCooldown(t *testing.T) {
	db := setupTestDB(t)
	listings := NewListingRepository(db)
	repo := NewAdminRepository(db)

	listing := newListing("author-1", "Free one", entity.StatusPublished, base)
	require.NoError(t, listings.Create(listing))

	require.NoError(t, repo.DeleteListing(listing.ID))
	assert.ErrorIs(t, repo.DeleteListing(listing.ID), ErrNotFound)

	_, err := listings.GetByID(listing.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	last, err := listings.LastFreeListingAt("author-1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(base))
}

func TestAdminRepository_Stats(t *testing.T) {
	db := setupTestDB(t)
	listings := NewListingRepository(db)
	repo := NewAdminRepository(db)

	premium := newListing("author-1", "Premium job", entity.StatusPublished, base)
	premium.IsPremium = true
	service := newListing("author-2", "Service", entity.StatusModeration, base)
	service.PostType = entity.PostTypeService
	review := newListing("author-2", "Needs a look", entity.StatusManualReview, base)
	old := newListing("author-1", "Old", entity.StatusArchived, base.AddDate(0, 0, -30))
	deleted := newListing("author-1", "Gone", entity.StatusPublished, base)
	for _, l := range []*entity.Listing{premium, service, review, old, deleted} {
		require.NoError(t, listings.Create(l))
	}
	require.NoError(t, repo.DeleteListing(deleted.ID))

	require.NoError(t, db.Create(&models.User{TelegramID: 1, CreatedAt: base}).Error)
	require.NoError(t, db.Create(&models.User{TelegramID: 2, CreatedAt: base.AddDate(0, -2, 0)}).Error)

	stats, err := repo.Stats(base.AddDate(0, 0, -7))
	require.NoError(t, err)

	assert.Equal(t, entity.StatsOverview{TotalListings: 4, TotalUsers: 2, ActiveListings: 1, PendingListings: 2}, stats.Overview)
	assert.Equal(t, map[string]int64{"job": 3, "service": 1}, stats.ListingsByType)
	assert.Equal(t, map[string]int64{"published": 1, "moderation": 1, "manual_review": 1, "archived": 1}, stats.ListingsByStatus)
	assert.Equal(t, entity.RecentActivity{ListingsLastWeek: 3, UsersLastWeek: 1}, stats.RecentActivity)
	assert.Equal(t, entity.PremiumBreakdown{Premium: 1, Free: 3}, stats.PremiumBreakdown)
}

func TestAdminRepository_Categories(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAdminRepository(db)

	jobs := &entity.Category{Slug: "job", NameRU: "Работа", IsActive: true, SortOrder: 1}
	require.NoError(t, repo.CreateCategory(jobs))
	assert.NotEmpty(t, jobs.ID)
	assert.True(t, jobs.IsActive)

	hidden := &entity.Category{Slug: "archive", NameRU: "Архив", IsActive: false, SortOrder: 2}
	require.NoError(t, repo.CreateCategory(hidden))
	assert.False(t, hidden.IsActive, "inactive on create survives the column default")

	assert.ErrorIs(t, repo.CreateCategory(&entity.Category{Slug: "job", NameRU: "Дубль", IsActive: true}), ErrDuplicate)

	all, err := repo.ListCategories()
	require.NoError(t, err)
	require.Len(t, all, 2, "inactive entries are listed")
	assert.Equal(t, "job", all[0].Slug)

	active := true
	updated, err := repo.UpdateCategory(hidden.ID, entity.CategoryInput{NameUA: strPtr("Архів"), IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, "Архів", updated.NameUA)
	assert.Equal(t, "Архив", updated.NameRU)
	assert.True(t, updated.IsActive)

	_, err = repo.UpdateCategory(hidden.ID, entity.CategoryInput{Slug: strPtr("job")})
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = repo.UpdateCategory("missing", entity.CategoryInput{NameRU: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminRepository_DeleteRefusedWhileReferenced(t *testing.T) {
	db := setupTestDB(t)
	listings := NewListingRepository(db)
	repo := NewAdminRepository(db)

	category := &entity.Category{Slug: "job", NameRU: "Работа", IsActive: true}
	require.NoError(t, repo.CreateCategory(category))
	city := &entity.City{NameRU: "Москва", IsActive: true}
	require.NoError(t, repo.CreateCity(city))

	listing := newListing("author-1", "Go developer", entity.StatusPublished, base)
	listing.CategoryID = category.ID
	listing.CityID = city.ID
	require.NoError(t, listings.Create(listing))
	require.NoError(t, repo.DeleteListing(listing.ID))

	err := repo.DeleteCategory(category.ID)
	require.ErrorIs(t, err, ErrInUse)
	var inUse *InUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, int64(1), inUse.Listings, "deleted listings still count")

	assert.ErrorIs(t, repo.DeleteCity(city.ID), ErrInUse)

	spare := &entity.City{NameRU: "Киев", IsActive: true}
	require.NoError(t, repo.CreateCity(spare))
	require.NoError(t, repo.DeleteCity(spare.ID))
	assert.ErrorIs(t, repo.DeleteCity(spare.ID), ErrNotFound)

	cities, err := repo.ListCities()
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, city.ID, cities[0].ID)
}

func TestAdminRepository_UpdateCity(t *testing.T) {
	repo := NewAdminRepository(setupTestDB(t))

	city := &entity.City{NameRU: "Одесса", IsActive: true}
	require.NoError(t, repo.CreateCity(city))

	inactive := false
	order := 5
	updated, err := repo.UpdateCity(city.ID, entity.CityInput{IsActive: &inactive, SortOrder: &order})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 5, updated.SortOrder)

	same, err := repo.UpdateCity(city.ID, entity.CityInput{})
	require.NoError(t, err)
	assert.Equal(t, updated.NameRU, same.NameRU)
}
