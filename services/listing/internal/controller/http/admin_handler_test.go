package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tg-market/pkg/logger"
	"tg-market/pkg/middleware"
	"tg-market/services/listing/internal/entity"
	"tg-market/services/listing/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockAdminUseCase struct {
	mock.Mock
}

func (m *MockAdminUseCase) Stats(ctx context.Context) (*entity.AdminStats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AdminStats), args.Error(1)
}

func (m *MockAdminUseCase) ListListings(ctx context.Context, filter entity.AdminListingFilter) (*entity.ListingPage, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ListingPage), args.Error(1)
}

func (m *MockAdminUseCase) UpdateListing(ctx context.Context, id string, patch entity.ListingPatch) (*entity.Listing, error) {
	args := m.Called(id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockAdminUseCase) DeleteListing(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockAdminUseCase) Categories(ctx context.Context) ([]*entity.Category, error) {
	args := m.Called()
	return args.Get(0).([]*entity.Category), args.Error(1)
}

func (m *MockAdminUseCase) CreateCategory(ctx context.Context, in entity.CategoryInput) (*entity.Category, error) {
	args := m.Called(in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockAdminUseCase) UpdateCategory(ctx context.Context, id string, in entity.CategoryInput) (*entity.Category, error) {
	args := m.Called(id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockAdminUseCase) DeleteCategory(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockAdminUseCase) Cities(ctx context.Context) ([]*entity.City, error) {
	args := m.Called()
	return args.Get(0).([]*entity.City), args.Error(1)
}

func (m *MockAdminUseCase) CreateCity(ctx context.Context, in entity.CityInput) (*entity.City, error) {
	args := m.Called(in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.City), args.Error(1)
}

func (m *MockAdminUseCase) UpdateCity(ctx context.Context, id string, in entity.CityInput) (*entity.City, error) {
	args := m.Called(id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.City), args.Error(1)
}

func (m *MockAdminUseCase) DeleteCity(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

var _ usecase.AdminUseCase = (*MockAdminUseCase)(nil)

func setupAdminRouter(admin *MockAdminUseCase, maintenance *MockListingUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := NewAdminHandler(admin, maintenance, logger.Discard())
	r.GET("/admin/stats", h.Stats)
	r.GET("/admin/listings", h.ListListings)
	r.PUT("/admin/listings/:id", h.UpdateListing)
	r.DELETE("/admin/listings/:id", h.DeleteListing)
	r.GET("/admin/categories", h.ListCategories)
	r.POST("/admin/categories", h.CreateCategory)
	r.PUT("/admin/categories/:id", h.UpdateCategory)
	r.DELETE("/admin/categories/:id", h.DeleteCategory)
	r.GET("/admin/cities", h.ListCities)
	r.POST("/admin/cities", h.CreateCity)
	r.PUT("/admin/cities/:id", h.UpdateCity)
	r.DELETE("/admin/cities/:id", h.DeleteCity)
	r.POST("/admin/tasks/expire-listings", h.ExpireListings)
	r.POST("/admin/tasks/boost-listings", h.BoostListings)
	return r
}

func TestAdminRoutesRequireBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	admin := new(MockAdminUseCase)
	admin.On("Stats").Return(&entity.AdminStats{}, nil)
	h := NewAdminHandler(admin, new(MockListingUseCase), logger.Discard())
	r := gin.New()
	r.GET("/admin/stats", middleware.AdminAuthMiddleware("admin", string(hash)), h.Stats)

	w := do(r, "GET", "/admin/stats", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/admin/stats", nil)
	req.SetBasicAuth("admin", "secret")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminStats(t *testing.T) {
	admin := new(MockAdminUseCase)
	admin.On("Stats").Return(&entity.AdminStats{
		Overview:         entity.StatsOverview{TotalListings: 5, PendingListings: 2},
		ListingsByStatus: map[string]int64{"moderation": 2, "published": 3},
	}, nil)

	w := do(setupAdminRouter(admin, new(MockListingUseCase)), "GET", "/admin/stats", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Overview struct {
			TotalListings   int64 `json:"total_listings"`
			PendingListings int64 `json:"pending_listings"`
		} `json:"overview"`
		ListingsByStatus map[string]int64 `json:"listings_by_status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(5), body.Overview.TotalListings)
	assert.Equal(t, int64(2), body.ListingsByStatus["moderation"])
}

func TestAdminListListings_StatusFilter(t *testing.T) {
	admin := new(MockAdminUseCase)
	admin.On("ListListings", entity.AdminListingFilter{Status: entity.StatusBlocked, Page: 2, Limit: 50}).
		Return(&entity.ListingPage{Total: 0, Page: 2, Limit: 50}, nil)
	r := setupAdminRouter(admin, new(MockListingUseCase))

	w := do(r, "GET", "/admin/listings?status=blocked&page=2", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, "GET", "/admin/listings?status=sold", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	admin.AssertNumberOfCalls(t, "ListListings", 1)
}

func TestAdminUpdateListing(t *testing.T) {
	admin := new(MockAdminUseCase)
	admin.On("UpdateListing", "l-1", mock.MatchedBy(func(p entity.ListingPatch) bool {
		return p.Status != nil && *p.Status == entity.StatusArchived && p.Title == nil
	})).Return(&entity.Listing{ID: "l-1", Status: entity.StatusArchived}, nil)
	admin.On("UpdateListing", "missing", mock.Anything).Return(nil, usecase.ErrNotFound)
	r := setupAdminRouter(admin, new(MockListingUseCase))

	w := do(r, "PUT", "/admin/listings/l-1", "", `{"status":"archived"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "archived", body["status"])

	w = do(r, "PUT", "/admin/listings/missing", "", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, "PUT", "/admin/listings/l-1", "", `{"status":4}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "statuses are sent by name")
}

func TestAdminDeleteListing(t *testing.T) {
	admin := new(MockAdminUseCase)
	admin.On("DeleteListing", "l-1").Return(nil)

	w := do(setupAdminRouter(admin, new(MockListingUseCase)), "DELETE", "/admin/listings/l-1", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	admin.AssertExpectations(t)
}

func TestAdminCategories(t *testing.T) {
	admin := new(MockAdminUseCase)
	admin.On("Categories").Return([]*entity.Category{{ID: "cat-1", Slug: "job", IsActive: false}}, nil)
	admin.On("CreateCategory", mock.MatchedBy(func(in entity.CategoryInput) bool {
		return in.Slug != nil && *in.Slug == "job"
	})).Return(&entity.Category{ID: "cat-1", Slug: "job"}, nil)
	admin.On("UpdateCategory", "cat-1", mock.Anything).Return(nil, usecase.ErrDuplicate)
	r := setupAdminRouter(admin, new(MockListingUseCase))

	w := do(r, "GET", "/admin/categories", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, false, list[0]["is_active"])

	w = do(r, "POST", "/admin/categories", "", `{"slug":"job","name_ru":"Работа"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(r, "PUT", "/admin/categories/cat-1", "", `{"slug":"service"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdminDeleteCategory_InUse(t *testing.T) {
	admin := new(MockAdminUseCase)
	admin.On("DeleteCategory", "cat-1").Return(&usecase.InUseError{Listings: 7})

	w := do(setupAdminRouter(admin, new(MockListingUseCase)), "DELETE", "/admin/categories/cat-1", "", "")

	require.Equal(t, http.StatusConflict, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(7), body["listings"])
}

func TestAdminCities_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid", fmt.Errorf("%w: name_ru is required", usecase.ErrInvalidInput), http.StatusBadRequest},
		{"missing", usecase.ErrNotFound, http.StatusNotFound},
		{"in use", &usecase.InUseError{Listings: 1}, http.StatusConflict},
		{"internal", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin := new(MockAdminUseCase)
			admin.On("DeleteCity", "city-1").Return(tt.err)
			w := do(setupAdminRouter(admin, new(MockListingUseCase)), "DELETE", "/admin/cities/city-1", "", "")
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestAdminCreateCity(t *testing.T) {
	admin := new(MockAdminUseCase)
	admin.On("CreateCity", mock.MatchedBy(func(in entity.CityInput) bool {
		return in.NameRU != nil && *in.NameRU == "Киев" && in.IsActive != nil && !*in.IsActive
	})).Return(&entity.City{ID: "city-1", NameRU: "Киев"}, nil)
	admin.On("UpdateCity", "city-1", mock.Anything).Return(&entity.City{ID: "city-1", SortOrder: 2}, nil)
	admin.On("Cities").Return([]*entity.City{}, nil)
	r := setupAdminRouter(admin, new(MockListingUseCase))

	assert.Equal(t, http.StatusCreated, do(r, "POST", "/admin/cities", "", `{"name_ru":"Киев","is_active":false}`).Code)
	assert.Equal(t, http.StatusOK, do(r, "PUT", "/admin/cities/city-1", "", `{"sort_order":2}`).Code)
	assert.Equal(t, http.StatusOK, do(r, "GET", "/admin/cities", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, "POST", "/admin/cities", "", `not json`).Code)
}

func TestAdminTasks(t *testing.T) {
	maintenance := new(MockListingUseCase)
	maintenance.On("ArchiveExpired").Return(int64(3), nil)
	maintenance.On("BoostDue").Return(int64(0), errors.New("db down"))
	r := setupAdminRouter(new(MockAdminUseCase), maintenance)

	w := do(r, "POST", "/admin/tasks/expire-listings", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body["archived"])

	w = do(r, "POST", "/admin/tasks/boost-listings", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
