package submission

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEligibility struct {
	mock.Mock
}

func (m *MockEligibility) CheckFreePost(ctx context.Context, userID string) (Eligibility, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(Eligibility), args.Error(1)
}

type MockPurchases struct {
	mock.Mock
}

func (m *MockPurchases) InitiatePurchase(ctx context.Context, userID, tierID string) (Purchase, error) {
	args := m.Called(ctx, userID, tierID)
	return args.Get(0).(Purchase), args.Error(1)
}

type MockListings struct {
	mock.Mock
}

func (m *MockListings) CreateJobListing(ctx context.Context, p Payload, authorID string) (string, error) {
	args := m.Called(ctx, p, authorID)
	return args.String(0), args.Error(1)
}

func (m *MockListings) CreateServiceListing(ctx context.Context, p Payload, authorID string) (string, error) {
	args := m.Called(ctx, p, authorID)
	return args.String(0), args.Error(1)
}

var (
	_ EligibilityChecker = (*MockEligibility)(nil)
	_ PurchaseInitiator  = (*MockPurchases)(nil)
	_ ListingCreator     = (*MockListings)(nil)
)

func testCatalog() *Catalog {
	return &Catalog{
		Categories: []Category{{ID: "job", Name: "Работа"}, {ID: "service", Name: "Услуги"}},
		Cities:     []City{{ID: "Moscow", Name: "Москва"}, {ID: "Kyiv", Name: "Киев"}},
		Currencies: []Currency{{ID: "RUB", Symbol: "₽"}, {ID: "UAH", Symbol: "₴"}},
		Tiers: []Tier{
			{ID: "free-tier", Name: "Free", Price: decimal.Zero, CurrencyID: "RUB", DurationDays: 30},
			{ID: "premium-tier", Name: "Premium", Price: decimal.NewFromInt(299), CurrencyID: "RUB", DurationDays: 30, AllowsImage: true},
		},
		CategoryByType: map[PostType]string{PostTypeJob: "job", PostTypeService: "service"},
	}
}

type fixture struct {
	eligibility *MockEligibility
	purchases   *MockPurchases
	listings    *MockListings
	workflow    *Workflow
}

func newFixture(t *testing.T, postType PostType) *fixture {
	t.Helper()
	f := &fixture{
		eligibility: new(MockEligibility),
		purchases:   new(MockPurchases),
		listings:    new(MockListings),
	}
	wf, err := New(Config{
		User:        User{ID: "user-1"},
		Catalog:     testCatalog(),
		Eligibility: f.eligibility,
		Purchases:   f.purchases,
		Listings:    f.listings,
	}, postType)
	require.NoError(t, err)
	f.workflow = wf
	return f
}

// fill sets the draft from the end-to-end scenario: a frontend job in Moscow.
func (f *fixture) fill(t *testing.T, tierID string) {
	t.Helper()
	require.NoError(t, f.workflow.UpdateField(FieldTitle, "Frontend developer"))
	require.NoError(t, f.workflow.UpdateField(FieldDescription, "React, 3 years"))
	require.NoError(t, f.workflow.UpdateField(FieldCity, "Moscow"))
	require.NoError(t, f.workflow.UpdateField(FieldCurrency, "RUB"))
	require.NoError(t, f.workflow.UpdateField(FieldTier, tierID))
}

// photo renders a smooth gradient with mild noise, closer to a camera shot than flat color.
func photo(w, h int) image.Image {
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := rng.Intn(24)
			img.Set(x, y, color.RGBA{
				R: uint8((x*255/w + n) % 256),
				G: uint8((y*255/h + n) % 256),
				B: uint8(((x+y)*255/(w+h) + n) % 256),
				A: 255,
			})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
