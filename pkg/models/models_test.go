package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBeforeCreate_AssignsID(t *testing.T) {
	user := &User{TelegramID: 42}
	assert.NoError(t, user.BeforeCreate(nil))
	assert.NotEmpty(t, user.ID)

	listing := &Listing{Title: "Go developer"}
	assert.NoError(t, listing.BeforeCreate(nil))
	assert.NotEmpty(t, listing.ID)

	payment := &Payment{UserID: "u"}
	assert.NoError(t, payment.BeforeCreate(nil))
	assert.NotEmpty(t, payment.ID)

	pkg := &Package{NameRU: "Free"}
	assert.NoError(t, pkg.BeforeCreate(nil))
	assert.NotEmpty(t, pkg.ID)

	fav := &Favorite{UserID: "u", ListingID: "l"}
	assert.NoError(t, fav.BeforeCreate(nil))
	assert.NotEmpty(t, fav.ID)
}

func TestBeforeCreate_KeepsExistingID(t *testing.T) {
	user := &User{ID: "existing-id-123"}
	assert.NoError(t, user.BeforeCreate(nil))
	assert.Equal(t, "existing-id-123", user.ID)

	city := &City{ID: "city-1"}
	assert.NoError(t, city.BeforeCreate(nil))
	assert.Equal(t, "city-1", city.ID)
}

func TestListingStatus_String(t *testing.T) {
	assert.Equal(t, "draft", ListingDraft.String())
	assert.Equal(t, "moderation", ListingModeration.String())
	assert.Equal(t, "manual_review", ListingManualReview.String())
	assert.Equal(t, "published", ListingPublished.String())
	assert.Equal(t, "blocked", ListingBlocked.String())
	assert.Equal(t, "archived", ListingArchived.String())
	assert.Equal(t, "unknown", ListingStatus(99).String())
}

func TestPackage_FeatureList(t *testing.T) {
	p := &Package{Features: "Photo| Highlight ||Boost every 3 days"}
	assert.Equal(t, []string{"Photo", "Highlight", "Boost every 3 days"}, p.FeatureList())

	empty := &Package{}
	assert.Equal(t, []string{}, empty.FeatureList())
}

func TestPackage_IsFree(t *testing.T) {
	assert.True(t, (&Package{Price: decimal.Zero}).IsFree())
	assert.False(t, (&Package{Price: decimal.NewFromInt(199)}).IsFree())
}
