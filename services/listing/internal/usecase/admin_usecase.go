package usecase

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"tg-market/pkg/cache"
	"tg-market/pkg/logger"
	"tg-market/services/listing/internal/entity"
	"tg-market/services/listing/internal/repo/persistent"
)

const (
	adminPageLimit    = 50
	maxAdminPageLimit = 200
	recentWindow      = 7 * 24 * time.Hour
)

var (
	ErrInUse     = persistent.ErrInUse
	ErrDuplicate = persistent.ErrDuplicate
)

type InUseError = persistent.InUseError

// AdminUseCase is the back-office over listings and the dictionaries they reference.
type AdminUseCase interface {
	Stats(ctx context.Context) (*entity.AdminStats, error)
	ListListings(ctx context.Context, filter entity.AdminListingFilter) (*entity.ListingPage, error)
	UpdateListing(ctx context.Context, id string, patch entity.ListingPatch) (*entity.Listing, error)
	DeleteListing(ctx context.Context, id string) error

	Categories(ctx context.Context) ([]*entity.Category, error)
	CreateCategory(ctx context.Context, in entity.CategoryInput) (*entity.Category, error)
	UpdateCategory(ctx context.Context, id string, in entity.CategoryInput) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	Cities(ctx context.Context) ([]*entity.City, error)
	CreateCity(ctx context.Context, in entity.CityInput) (*entity.City, error)
	UpdateCity(ctx context.Context, id string, in entity.CityInput) (*entity.City, error)
	DeleteCity(ctx context.Context, id string) error
}

type adminUseCase struct {
	adminRepo persistent.AdminRepository
	refRepo   persistent.ReferenceRepository
	store     *cache.Store
	now       func() time.Time
	logger    *logger.Logger
}

func NewAdminUseCase(adminRepo persistent.AdminRepository, refRepo persistent.ReferenceRepository, store *cache.Store, logger *logger.Logger) AdminUseCase {
	return &adminUseCase{
		adminRepo: adminRepo,
		refRepo:   refRepo,
		store:     store,
		now:       time.Now,
		logger:    logger,
	}
}

func (uc *adminUseCase) Stats(ctx context.Context) (*entity.AdminStats, error) {
	return uc.adminRepo.Stats(uc.now().Add(-recentWindow))
}

func (uc *adminUseCase) ListListings(ctx context.Context, filter entity.AdminListingFilter) (*entity.ListingPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = adminPageLimit
	}
	if filter.Limit > maxAdminPageLimit {
		filter.Limit = maxAdminPageLimit
	}
	if filter.PostType != "" && !filter.PostType.Valid() {
		return nil, invalid("unknown post type %q", filter.PostType)
	}

	listings, total, err := uc.adminRepo.ListListings(filter)
	if err != nil {
		return nil, err
	}
	return &entity.ListingPage{
		Listings: listings,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
		Pages:    int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

// UpdateListing applies the same text rules as submission to whatever the
// edit touches. Moving a listing to another category or city requires an
// active target.
func (uc *adminUseCase) UpdateListing(ctx context.Context, id string, patch entity.ListingPatch) (*entity.Listing, error) {
	if patch.Empty() {
		return nil, invalid("nothing to update")
	}
	if err := uc.checkPatch(&patch); err != nil {
		return nil, err
	}

	listing, err := uc.adminRepo.UpdateListing(id, patch, uc.now())
	if err != nil {
		return nil, err
	}
	uc.forget(ctx, id)
	uc.logger.Info("[ADMIN] updated listing=%s status=%s", id, listing.Status)
	return listing, nil
}

func (uc *adminUseCase) checkPatch(patch *entity.ListingPatch) error {
	if patch.Title != nil {
		title := sanitizeText(*patch.Title)
		if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
			return invalid("title must be 1 to %d characters", maxTitleLength)
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		description := sanitizeText(*patch.Description)
		if description == "" || utf8.RuneCountInString(description) > maxDescriptionLength {
			return invalid("description must be 1 to %d characters", maxDescriptionLength)
		}
		patch.Description = &description
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return invalid("price must not be negative")
	}
	if patch.Status != nil && patch.Status.String() == "unknown" {
		return invalid("unknown status")
	}

	refs := []struct {
		name   string
		id     *string
		exists func(string) (bool, error)
	}{
		{"category", patch.CategoryID, uc.refRepo.CategoryExists},
		{"city", patch.CityID, uc.refRepo.CityExists},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		ok, err := ref.exists(*ref.id)
		if err != nil {
			return err
		}
		if !ok {
			return invalid("%s not found", ref.name)
		}
	}
	return nil
}

func (uc *adminUseCase) DeleteListing(ctx context.Context, id string) error {
	if err := uc.adminRepo.DeleteListing(id); err != nil {
		return err
	}
	uc.forget(ctx, id)
	uc.logger.Info("[ADMIN] deleted listing=%s", id)
	return nil
}

func (uc *adminUseCase) forget(ctx context.Context, id string) {
	if err := uc.store.Delete(ctx, cache.ListingKey(id)); err != nil {
		uc.logger.Warn("Failed to drop cached listing %s: %v", id, err)
	}
}

func (uc *adminUseCase) Categories(ctx context.Context) ([]*entity.Category, error) {
	return uc.adminRepo.ListCategories()
}

func (uc *adminUseCase) CreateCategory(ctx context.Context, in entity.CategoryInput) (*entity.Category, error) {
	if err := trimRequired(&in.Slug, "slug"); err != nil {
		return nil, err
	}
	if err := trimRequired(&in.NameRU, "name_ru"); err != nil {
		return nil, err
	}
	category := &entity.Category{
		Slug:      *in.Slug,
		NameRU:    *in.NameRU,
		NameUA:    deref(in.NameUA),
		IsActive:  in.IsActive == nil || *in.IsActive,
		SortOrder: derefInt(in.SortOrder),
	}
	if err := uc.adminRepo.CreateCategory(category); err != nil {
		return nil, err
	}
	uc.logger.Info("[ADMIN] created category=%s slug=%s", category.ID, category.Slug)
	return category, nil
}

func (uc *adminUseCase) UpdateCategory(ctx context.Context, id string, in entity.CategoryInput) (*entity.Category, error) {
	if in.Slug != nil {
		if err := trimRequired(&in.Slug, "slug"); err != nil {
			return nil, err
		}
	}
	if in.NameRU != nil {
		if err := trimRequired(&in.NameRU, "name_ru"); err != nil {
			return nil, err
		}
	}
	return uc.adminRepo.UpdateCategory(id, in)
}

func (uc *adminUseCase) DeleteCategory(ctx context.Context, id string) error {
	if err := uc.adminRepo.DeleteCategory(id); err != nil {
		return err
	}
	uc.logger.Info("[ADMIN] deleted category=%s", id)
	return nil
}

func (uc *adminUseCase) Cities(ctx context.Context) ([]*entity.City, error) {
	return uc.adminRepo.ListCities()
}

func (uc *adminUseCase) CreateCity(ctx context.Context, in entity.CityInput) (*entity.City, error) {
	if err := trimRequired(&in.NameRU, "name_ru"); err != nil {
		return nil, err
	}
	city := &entity.City{
		NameRU:    *in.NameRU,
		NameUA:    deref(in.NameUA),
		IsActive:  in.IsActive == nil || *in.IsActive,
		SortOrder: derefInt(in.SortOrder),
	}
	if err := uc.adminRepo.CreateCity(city); err != nil {
		return nil, err
	}
	uc.logger.Info("[ADMIN] created city=%s", city.ID)
	return city, nil
}

func (uc *adminUseCase) UpdateCity(ctx context.Context, id string, in entity.CityInput) (*entity.City, error) {
	if in.NameRU != nil {
		if err := trimRequired(&in.NameRU, "name_ru"); err != nil {
			return nil, err
		}
	}
	return uc.adminRepo.UpdateCity(id, in)
}

func (uc *adminUseCase) DeleteCity(ctx context.Context, id string) error {
	if err := uc.adminRepo.DeleteCity(id); err != nil {
		return err
	}
	uc.logger.Info("[ADMIN] deleted city=%s", id)
	return nil
}

// trimRequired trims *field in place and rejects it when missing or blank.
func trimRequired(field **string, name string) error {
	if *field == nil {
		return invalid("%s is required", name)
	}
	v := strings.TrimSpace(**field)
	if v == "" {
		return invalid("%s is required", name)
	}
	*field = &v
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
