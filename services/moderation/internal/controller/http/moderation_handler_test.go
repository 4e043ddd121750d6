package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tg-market/pkg/logger"
	"tg-market/pkg/queue"
	"tg-market/services/moderation/internal/entity"
	"tg-market/services/moderation/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockModerationUseCase struct {
	mock.Mock
}

func (m *MockModerationUseCase) HandleListingCreated(ctx context.Context, event queue.ListingEvent) error {
	return m.Called(event).Error(0)
}

func (m *MockModerationUseCase) ScreenBacklog(ctx context.Context) (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *MockModerationUseCase) ListListings(ctx context.Context, status entity.Status, page, limit int) (*entity.ListingPage, error) {
	args := m.Called(status, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ListingPage), args.Error(1)
}

func (m *MockModerationUseCase) Approve(ctx context.Context, listingID string) (*entity.Listing, error) {
	args := m.Called(listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockModerationUseCase) Reject(ctx context.Context, listingID, reason string) (*entity.Listing, error) {
	args := m.Called(listingID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockModerationUseCase) Stats(ctx context.Context) (map[string]int64, error) {
	args := m.Called()
	return args.Get(0).(map[string]int64), args.Error(1)
}

var _ usecase.ModerationUseCase = (*MockModerationUseCase)(nil)

func setupTestRouter(m *MockModerationUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewModerationHandler(m, logger.Discard())
	r.GET("/moderation/listings", h.ListListings)
	r.POST("/moderation/listings/:id/approve", h.Approve)
	r.POST("/moderation/listings/:id/reject", h.Reject)
	r.GET("/moderation/stats", h.Stats)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestListListings_DefaultsToManualReview(t *testing.T) {
	m := new(MockModerationUseCase)
	m.On("ListListings", entity.StatusManualReview, 1, 50).Return(&entity.ListingPage{
		Listings: []*entity.Listing{{ID: "l-1", Status: entity.StatusManualReview}},
		Total:    1, Page: 1, Limit: 50,
	}, nil)

	w := do(setupTestRouter(m), "GET", "/moderation/listings", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Listings []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"listings"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Listings, 1)
	assert.Equal(t, "manual_review", body.Listings[0].Status)
}

func TestListListings_StatusFilter(t *testing.T) {
	m := new(MockModerationUseCase)
	m.On("ListListings", entity.StatusBlocked, 2, 10).Return(&entity.ListingPage{Listings: []*entity.Listing{}}, nil)
	r := setupTestRouter(m)

	assert.Equal(t, http.StatusOK, do(r, "GET", "/moderation/listings?status=blocked&page=2&limit=10", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, "GET", "/moderation/listings?status=whatever", "").Code)
	m.AssertExpectations(t)
}

func TestApprove(t *testing.T) {
	m := new(MockModerationUseCase)
	m.On("Approve", "l-1").Return(&entity.Listing{ID: "l-1", Status: entity.StatusPublished}, nil)
	m.On("Approve", "l-2").Return(nil, fmt.Errorf("%w: listing is blocked", usecase.ErrInvalidTransition))
	m.On("Approve", "l-3").Return(nil, usecase.ErrNotFound)
	m.On("Approve", "l-4").Return(nil, errors.New("db down"))
	r := setupTestRouter(m)

	w := do(r, "POST", "/moderation/listings/l-1/approve", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"published"`)

	assert.Equal(t, http.StatusConflict, do(r, "POST", "/moderation/listings/l-2/approve", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, "POST", "/moderation/listings/l-3/approve", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(r, "POST", "/moderation/listings/l-4/approve", "").Code)
}

func TestReject(t *testing.T) {
	m := new(MockModerationUseCase)
	m.On("Reject", "l-1", "contacts in text").Return(&entity.Listing{ID: "l-1", Status: entity.StatusBlocked}, nil)
	m.On("Reject", "l-2", "").Return(&entity.Listing{ID: "l-2", Status: entity.StatusBlocked}, nil)
	r := setupTestRouter(m)

	assert.Equal(t, http.StatusOK, do(r, "POST", "/moderation/listings/l-1/reject", `{"reason":"contacts in text"}`).Code)
	assert.Equal(t, http.StatusOK, do(r, "POST", "/moderation/listings/l-2/reject", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, "POST", "/moderation/listings/l-2/reject", `{bad`).Code)
	m.AssertExpectations(t)
}

func TestStats(t *testing.T) {
	m := new(MockModerationUseCase)
	m.On("Stats").Return(map[string]int64{"manual_review": 3, "published": 7}, nil)

	w := do(setupTestRouter(m), "GET", "/moderation/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"manual_review":3,"published":7}`, w.Body.String())
}
