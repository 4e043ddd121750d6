package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"tg-market/pkg/cache"
	"tg-market/pkg/logger"
	"tg-market/pkg/queue"
	"tg-market/pkg/submission"
	"tg-market/services/listing/internal/entity"
	"tg-market/services/listing/internal/repo/persistent"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 50
	listingCacheTTL  = 10 * time.Minute
	viewDedupeWindow = 24 * time.Hour
)

type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

type EventPublisher interface {
	PublishListingEvent(ctx context.Context, event queue.ListingEvent) error
}

type Options struct {
	FreePostCooldown    time.Duration
	DefaultLifetimeDays int
	// CategoryByType pins a category id per post type. Missing entries fall
	// back to the category whose slug equals the post type.
	CategoryByType map[entity.PostType]string
	MaxImageBytes  int64
}

type ListingUseCase interface {
	Catalog(ctx context.Context) (*entity.Catalog, error)
	CreateListing(ctx context.Context, in entity.CreateListingInput) (*entity.Listing, error)
	FreePostStatus(ctx context.Context, userID string) (*entity.FreePostStatus, error)
	UserStats(ctx context.Context, userID string) (*entity.UserStats, error)
	ListListings(ctx context.Context, filter entity.ListingFilter) (*entity.ListingPage, error)
	GetListing(ctx context.Context, listingID, viewerID string) (*entity.Listing, error)
	AddFavorite(ctx context.Context, userID, listingID string) error
	RemoveFavorite(ctx context.Context, userID, listingID string) error
	ListFavorites(ctx context.Context, userID string) ([]*entity.Listing, error)
	ArchiveExpired(ctx context.Context) (int64, error)
	BoostDue(ctx context.Context) (int64, error)
}

type listingUseCase struct {
	listingRepo persistent.ListingRepository
	refRepo     persistent.ReferenceRepository
	store       *cache.Store
	images      ImageStore
	events      EventPublisher
	opts        Options
	now         func() time.Time
	logger      *logger.Logger
}

func NewListingUseCase(
	listingRepo persistent.ListingRepository,
	refRepo persistent.ReferenceRepository,
	store *cache.Store,
	images ImageStore,
	events EventPublisher,
	opts Options,
	logger *logger.Logger,
) ListingUseCase {
	if opts.FreePostCooldown <= 0 {
		opts.FreePostCooldown = 7 * 24 * time.Hour
	}
	if opts.DefaultLifetimeDays <= 0 {
		opts.DefaultLifetimeDays = 30
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = submission.DefaultMaxImageBytes
	}
	return &listingUseCase{
		listingRepo: listingRepo,
		refRepo:     refRepo,
		store:       store,
		images:      images,
		events:      events,
		opts:        opts,
		now:         time.Now,
		logger:      logger,
	}
}

func (uc *listingUseCase) Catalog(ctx context.Context) (*entity.Catalog, error) {
	categories, err := uc.refRepo.Categories()
	if err != nil {
		return nil, err
	}
	cities, err := uc.refRepo.Cities()
	if err != nil {
		return nil, err
	}
	currencies, err := uc.refRepo.Currencies()
	if err != nil {
		return nil, err
	}

	byType := make(map[entity.PostType]string, 2)
	for _, pt := range []entity.PostType{entity.PostTypeJob, entity.PostTypeService} {
		if id, ok := uc.resolveCategory(pt, categories); ok {
			byType[pt] = id
		}
	}

	return &entity.Catalog{
		Categories:     categories,
		Cities:         cities,
		Currencies:     currencies,
		CategoryByType: byType,
	}, nil
}

func (uc *listingUseCase) resolveCategory(pt entity.PostType, categories []*entity.Category) (string, bool) {
	if id := uc.opts.CategoryByType[pt]; id != "" {
		return id, true
	}
	for _, c := range categories {
		if c.Slug == string(pt) {
			return c.ID, true
		}
	}
	return "", false
}

func (uc *listingUseCase) categoryFor(pt entity.PostType) (string, error) {
	if id, ok := uc.resolveCategory(pt, nil); ok {
		return id, nil
	}
	categories, err := uc.refRepo.Categories()
	if err != nil {
		return "", err
	}
	if id, ok := uc.resolveCategory(pt, categories); ok {
		return id, nil
	}
	return "", invalid("no category configured for %s listings", pt)
}

type decodedImage struct {
	data []byte
	mime *mimetype.MIME
}

func (uc *listingUseCase) decodeImage(raw string) (*decodedImage, error) {
	_, data, err := submission.ParseDataURI(raw)
	if err != nil {
		return nil, invalid("image must be a base64 data URI")
	}
	if int64(len(data)) > uc.opts.MaxImageBytes {
		return nil, invalid("image must be at most %d bytes", uc.opts.MaxImageBytes)
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, invalid("attachment is not an image")
	}
	return &decodedImage{data: data, mime: mime}, nil
}

// CreateListing applies the package rules to a submitted listing: a free
// package consumes the author's free slot, a paid one must bring its own
// payment. Nothing is stored until every check has passed.
func (uc *listingUseCase) CreateListing(ctx context.Context, in entity.CreateListingInput) (*entity.Listing, error) {
	if err := normalize(&in); err != nil {
		return nil, err
	}

	if in.CategoryID == "" {
		id, err := uc.categoryFor(in.PostType)
		if err != nil {
			return nil, err
		}
		in.CategoryID = id
	}
	if err := uc.checkReferences(in); err != nil {
		return nil, err
	}

	pkg, err := uc.refRepo.GetPackage(in.PackageID)
	if errors.Is(err, persistent.ErrNotFound) || (err == nil && !pkg.IsActive) {
		return nil, ErrPackageUnavailable
	}
	if err != nil {
		return nil, err
	}

	var img *decodedImage
	if in.Image != "" {
		if !pkg.HasPhoto {
			return nil, ErrImageNotAllowed
		}
		if img, err = uc.decodeImage(in.Image); err != nil {
			return nil, err
		}
	}

	now := uc.now()
	listing := &entity.Listing{
		AuthorID:          in.AuthorID,
		PostType:          in.PostType,
		CategoryID:        in.CategoryID,
		CityID:            in.CityID,
		CurrencyID:        in.CurrencyID,
		Title:             in.Title,
		Description:       in.Description,
		Price:             in.Price,
		Phone:             in.Phone,
		Experience:        in.Experience,
		Schedule:          in.Schedule,
		WorkFormat:        in.WorkFormat,
		PackageID:         pkg.ID,
		IsPremium:         !pkg.IsFree(),
		HasPhoto:          pkg.HasPhoto,
		HasHighlight:      pkg.HasHighlight,
		HasBoost:          pkg.HasBoost,
		BoostIntervalDays: pkg.BoostIntervalDays,
	}
	lifetime := pkg.PostLifetimeDays
	if lifetime <= 0 {
		lifetime = uc.opts.DefaultLifetimeDays
	}
	expiresAt := now.AddDate(0, 0, lifetime)
	listing.ExpiresAt = &expiresAt

	var release func()
	if pkg.IsFree() {
		if release, err = uc.claimFreeSlot(ctx, in.AuthorID); err != nil {
			return nil, err
		}
		listing.Status = entity.StatusModeration
	} else {
		if listing.Status, err = uc.checkPayment(in, pkg); err != nil {
			return nil, err
		}
		listing.PaymentID = in.PaymentID
	}

	if img != nil {
		key := fmt.Sprintf("listings/%s/%s%s", in.AuthorID, uuid.New().String(), img.mime.Extension())
		url, err := uc.images.Upload(ctx, key, img.data, img.mime.String())
		if err != nil {
			uc.logger.Error("Failed to upload listing image: %v", err)
			if release != nil {
				release()
			}
			return nil, fmt.Errorf("failed to upload image")
		}
		listing.ImageURL = url
	}

	if err := uc.listingRepo.Create(listing); err != nil {
		if release != nil {
			release()
		}
		uc.dropImage(ctx, listing.ImageURL)
		if errors.Is(err, persistent.ErrPaymentUsed) {
			uc.logger.Warn("[LISTING] payment=%s lost the race to another listing", listing.PaymentID)
			return nil, ErrPaymentUsed
		}
		uc.logger.Error("Failed to create listing: %v", err)
		return nil, fmt.Errorf("failed to create listing")
	}

	uc.logger.Info("[LISTING] created %s listing=%s author=%s package=%s status=%s",
		listing.PostType, listing.ID, listing.AuthorID, listing.PackageID, listing.Status)

	if listing.Status == entity.StatusModeration {
		uc.publishCreated(ctx, listing)
	}
	if err := uc.store.SetJSON(ctx, cache.ListingKey(listing.ID), listing, listingCacheTTL); err != nil {
		uc.logger.Warn("Failed to cache listing %s: %v", listing.ID, err)
	}

	return listing, nil
}

func (uc *listingUseCase) checkReferences(in entity.CreateListingInput) error {
	checks := []struct {
		name   string
		id     string
		exists func(string) (bool, error)
	}{
		{"category", in.CategoryID, uc.refRepo.CategoryExists},
		{"city", in.CityID, uc.refRepo.CityExists},
		{"currency", in.CurrencyID, uc.refRepo.CurrencyExists},
	}
	for _, c := range checks {
		ok, err := c.exists(c.id)
		if err != nil {
			return err
		}
		if !ok {
			return invalid("%s not found", c.name)
		}
	}
	return nil
}

// claimFreeSlot checks the durable record first, then takes the Redis
// reservation so two concurrent free submissions cannot both pass.
// The returned func gives the slot back if the listing is not stored.
func (uc *listingUseCase) claimFreeSlot(ctx context.Context, userID string) (func(), error) {
	status, err := uc.FreePostStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !status.Eligible {
		return nil, &FreePostUnavailableError{NextFreeAt: *status.NextEligibleAt}
	}

	key := cache.FreePostKey(userID)
	ok, err := uc.store.Reserve(ctx, key, uc.opts.FreePostCooldown)
	if err != nil {
		uc.logger.Error("[FREE POST] reservation failed for user=%s: %v", userID, err)
		return nil, fmt.Errorf("failed to reserve free post")
	}
	if !ok {
		ttl, _ := uc.store.TTL(ctx, key)
		return nil, &FreePostUnavailableError{NextFreeAt: uc.now().Add(ttl)}
	}

	uc.logger.Info("[FREE POST] slot taken by user=%s for %s", userID, uc.opts.FreePostCooldown)
	return func() {
		if err := uc.store.Delete(context.Background(), key); err != nil {
			uc.logger.Error("[FREE POST] failed to release slot for user=%s: %v", userID, err)
		}
	}, nil
}

func (uc *listingUseCase) checkPayment(in entity.CreateListingInput, pkg *entity.Package) (entity.ListingStatus, error) {
	if in.PaymentID == "" {
		return 0, ErrPaymentRequired
	}

	payment, err := uc.refRepo.GetPayment(in.PaymentID)
	if errors.Is(err, persistent.ErrNotFound) {
		return 0, ErrPaymentInvalid
	}
	if err != nil {
		return 0, err
	}
	if payment.UserID != in.AuthorID || payment.PackageID != pkg.ID {
		return 0, ErrPaymentInvalid
	}

	used, err := uc.listingRepo.PaymentInUse(payment.ID)
	if err != nil {
		return 0, err
	}
	if used {
		return 0, ErrPaymentUsed
	}

	switch payment.Status {
	case entity.PaymentPending:
		return entity.StatusDraft, nil
	case entity.PaymentCompleted:
		return entity.StatusModeration, nil
	}
	return 0, ErrPaymentInvalid
}

func (uc *listingUseCase) publishCreated(ctx context.Context, l *entity.Listing) {
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
		PostType:    string(l.PostType),
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

// forget drops cached copies of listings whose stored state just changed.
func (uc *listingUseCase) forget(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cache.ListingKey(id)
	}
	if err := uc.store.Delete(ctx, keys...); err != nil {
		uc.logger.Warn("Failed to drop %d cached listing(s): %v", len(keys), err)
	}
}

func (uc *listingUseCase) dropImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if key, ok := uc.images.KeyFromURL(url); ok {
		if err := uc.images.Delete(ctx, key); err != nil {
			uc.logger.Warn("Failed to remove orphaned image %s: %v", key, err)
		}
	}
}

func (uc *listingUseCase) FreePostStatus(ctx context.Context, userID string) (*entity.FreePostStatus, error) {
	now := uc.now()
	var next time.Time

	last, err := uc.listingRepo.LastFreeListingAt(userID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		if until := last.Add(uc.opts.FreePostCooldown); until.After(now) {
			next = until
		}
	}

	ttl, err := uc.store.TTL(ctx, cache.FreePostKey(userID))
	if err != nil {
		uc.logger.Warn("[FREE POST] reservation lookup failed for user=%s: %v", userID, err)
	}
	if until := now.Add(ttl); ttl > 0 && until.After(next) {
		next = until
	}

	if next.IsZero() {
		return &entity.FreePostStatus{Eligible: true}, nil
	}
	return &entity.FreePostStatus{Eligible: false, NextEligibleAt: &next}, nil
}

func (uc *listingUseCase) UserStats(ctx context.Context, userID string) (*entity.UserStats, error) {
	activity, err := uc.listingRepo.AuthorActivity(userID)
	if err != nil {
		return nil, fmt.Errorf("author activity: %w", err)
	}

	favorites, err := uc.listingRepo.CountFavorites(userID)
	if err != nil {
		uc.logger.Error("Failed to count favorites of user %s: %v", userID, err)
		favorites = 0
	}

	free, err := uc.FreePostStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int64, len(activity.ByStatus))
	for status, count := range activity.ByStatus {
		byStatus[status.String()] = count
	}

	return &entity.UserStats{
		PostsByStatus:     byStatus,
		TotalViews:        activity.TotalViews,
		FavoritesCount:    favorites,
		FreePostAvailable: free.Eligible,
		NextFreePostAt:    free.NextEligibleAt,
	}, nil
}

func (uc *listingUseCase) ListListings(ctx context.Context, filter entity.ListingFilter) (*entity.ListingPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	if filter.PostType != "" && !filter.PostType.Valid() {
		return nil, invalid("unknown post type %q", filter.PostType)
	}

	listings, total, err := uc.listingRepo.List(filter)
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

// GetListing hides unpublished listings from everyone but their author and
// counts a view at most once per viewer per day.
func (uc *listingUseCase) GetListing(ctx context.Context, listingID, viewerID string) (*entity.Listing, error) {
	var listing entity.Listing
	found, err := uc.store.GetJSON(ctx, cache.ListingKey(listingID), &listing)
	if err != nil {
		uc.logger.Warn("Failed to read cached listing %s: %v", listingID, err)
	}
	if !found {
		fromDB, err := uc.listingRepo.GetByID(listingID)
		if err != nil {
			return nil, err
		}
		listing = *fromDB
		if err := uc.store.SetJSON(ctx, cache.ListingKey(listingID), listing, listingCacheTTL); err != nil {
			uc.logger.Warn("Failed to cache listing %s: %v", listingID, err)
		}
	}

	isAuthor := viewerID != "" && viewerID == listing.AuthorID
	if listing.Status != entity.StatusPublished && !isAuthor {
		return nil, ErrNotFound
	}

	if viewerID != "" && !isAuthor {
		fresh, err := uc.store.Reserve(ctx, cache.ViewKey(listingID, viewerID), viewDedupeWindow)
		if err != nil {
			uc.logger.Warn("View dedupe failed for %s: %v", listingID, err)
		} else if fresh {
			if err := uc.listingRepo.IncrementViews(listingID); err != nil {
				uc.logger.Error("Failed to count view for %s: %v", listingID, err)
			} else {
				listing.Views++
				if err := uc.store.SetJSON(ctx, cache.ListingKey(listingID), listing, listingCacheTTL); err != nil {
					uc.logger.Warn("Failed to cache listing %s: %v", listingID, err)
				}
			}
		}

		fav, err := uc.listingRepo.IsFavorite(viewerID, listingID)
		if err != nil {
			uc.logger.Warn("Failed to load favorite flag for %s: %v", listingID, err)
		}
		listing.IsFavorite = fav
	}

	return &listing, nil
}

func (uc *listingUseCase) AddFavorite(ctx context.Context, userID, listingID string) error {
	listing, err := uc.listingRepo.GetByID(listingID)
	if err != nil {
		return err
	}
	if listing.Status != entity.StatusPublished {
		return ErrNotFound
	}
	return uc.listingRepo.AddFavorite(userID, listingID)
}

func (uc *listingUseCase) RemoveFavorite(ctx context.Context, userID, listingID string) error {
	return uc.listingRepo.RemoveFavorite(userID, listingID)
}

func (uc *listingUseCase) ListFavorites(ctx context.Context, userID string) ([]*entity.Listing, error) {
	return uc.listingRepo.ListFavorites(userID)
}

func (uc *listingUseCase) ArchiveExpired(ctx context.Context) (int64, error) {
	ids, err := uc.listingRepo.ArchiveExpired(uc.now())
	if err != nil {
		return 0, err
	}
	uc.forget(ctx, ids...)
	return int64(len(ids)), nil
}

func (uc *listingUseCase) BoostDue(ctx context.Context) (int64, error) {
	return uc.listingRepo.BoostDue(uc.now())
}
