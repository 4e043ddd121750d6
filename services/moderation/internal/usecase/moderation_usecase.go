package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tg-market/pkg/cache"
	"tg-market/pkg/logger"
	"tg-market/pkg/queue"
	"tg-market/services/moderation/internal/entity"
	"tg-market/services/moderation/internal/repo/persistent"
)

var (
	ErrNotFound          = persistent.ErrNotFound
	ErrInvalidTransition = errors.New("listing is not in a reviewable status")
)

type ModerationUseCase interface {
	// HandleListingCreated screens a freshly submitted listing. Returning an
	// error asks the broker to redeliver the event.
	HandleListingCreated(ctx context.Context, event queue.ListingEvent) error
	// ScreenBacklog screens listings still awaiting screening, e.g. ones whose
	// event was lost while the broker was unreachable.
	ScreenBacklog(ctx context.Context) (int, error)
	ListListings(ctx context.Context, status entity.Status, page, limit int) (*entity.ListingPage, error)
	Approve(ctx context.Context, listingID string) (*entity.Listing, error)
	Reject(ctx context.Context, listingID, reason string) (*entity.Listing, error)
	Stats(ctx context.Context) (map[string]int64, error)
}

type moderationUseCase struct {
	moderationRepo persistent.ModerationRepository
	screener       *Screener
	store          *cache.Store
	now            func() time.Time
	logger         *logger.Logger
}

func NewModerationUseCase(moderationRepo persistent.ModerationRepository, screener *Screener, store *cache.Store, logger *logger.Logger) ModerationUseCase {
	return &moderationUseCase{
		moderationRepo: moderationRepo,
		screener:       screener,
		store:          store,
		now:            time.Now,
		logger:         logger,
	}
}

func (uc *moderationUseCase) HandleListingCreated(ctx context.Context, event queue.ListingEvent) error {
	_, err := uc.screen(ctx, &entity.Listing{
		ID:          event.ListingID,
		AuthorID:    event.AuthorID,
		Title:       event.Title,
		Description: event.Description,
		IsPremium:   event.IsPremium,
	})
	return err
}

const backlogBatch = 100

func (uc *moderationUseCase) ScreenBacklog(ctx context.Context) (int, error) {
	pending, _, err := uc.moderationRepo.ListByStatus(ctx, entity.StatusModeration, backlogBatch, 0)
	if err != nil {
		return 0, err
	}

	screened := 0
	for _, listing := range pending {
		changed, err := uc.screen(ctx, listing)
		if err != nil {
			return screened, err
		}
		if changed {
			screened++
		}
	}
	return screened, nil
}

func (uc *moderationUseCase) screen(ctx context.Context, listing *entity.Listing) (bool, error) {
	verdict := uc.screener.Screen(listing.Title, listing.Description)

	to, note := entity.StatusManualReview, ""
	if verdict.Blocked {
		to = entity.StatusBlocked
		note = "banned words: " + strings.Join(verdict.Matches, ", ")
	}

	changed, err := uc.moderationRepo.Transition(ctx, listing.ID,
		[]entity.Status{entity.StatusModeration}, to, note, uc.now())
	if err != nil {
		return false, fmt.Errorf("screen listing %s: %w", listing.ID, err)
	}
	if !changed {
		// redelivered or already handled
		uc.logger.Warn("[MODERATION] listing=%s is no longer awaiting screening, skipping", listing.ID)
		return false, nil
	}

	uc.invalidate(ctx, listing.ID)
	if verdict.Blocked {
		uc.logger.Info("[MODERATION] blocked listing=%s author=%s (%s)", listing.ID, listing.AuthorID, note)
		return true, nil
	}

	uc.logger.Info("[MODERATION] listing=%s queued for manual review (premium=%v)", listing.ID, listing.IsPremium)
	uc.notify(ctx, entity.ReviewNotice{
		Type:      entity.NoticeReviewRequested,
		ListingID: listing.ID,
		AuthorID:  listing.AuthorID,
		Title:     listing.Title,
		Status:    to,
		IsPremium: listing.IsPremium,
	})
	return true, nil
}

func (uc *moderationUseCase) ListListings(ctx context.Context, status entity.Status, page, limit int) (*entity.ListingPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	listings, total, err := uc.moderationRepo.ListByStatus(ctx, status, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return &entity.ListingPage{Listings: listings, Total: total, Page: page, Limit: limit}, nil
}

func (uc *moderationUseCase) Approve(ctx context.Context, listingID string) (*entity.Listing, error) {
	return uc.decide(ctx, listingID,
		[]entity.Status{entity.StatusModeration, entity.StatusManualReview},
		entity.StatusPublished, "")
}

func (uc *moderationUseCase) Reject(ctx context.Context, listingID, reason string) (*entity.Listing, error) {
	return uc.decide(ctx, listingID,
		[]entity.Status{entity.StatusModeration, entity.StatusManualReview, entity.StatusPublished},
		entity.StatusBlocked, reason)
}

func (uc *moderationUseCase) decide(ctx context.Context, listingID string, from []entity.Status, to entity.Status, note string) (*entity.Listing, error) {
	changed, err := uc.moderationRepo.Transition(ctx, listingID, from, to, note, uc.now())
	if err != nil {
		uc.logger.Error("Failed to move listing %s to %s: %v", listingID, to, err)
		return nil, err
	}

	listing, err := uc.moderationRepo.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: listing is %s", ErrInvalidTransition, listing.Status)
	}

	uc.invalidate(ctx, listingID)
	uc.logger.Info("[MODERATION] listing=%s -> %s", listingID, to)
	uc.notify(ctx, entity.ReviewNotice{
		Type:      entity.NoticeDecided,
		ListingID: listing.ID,
		AuthorID:  listing.AuthorID,
		Title:     listing.Title,
		Status:    listing.Status,
		Note:      listing.ModerationNote,
		IsPremium: listing.IsPremium,
	})
	return listing, nil
}

func (uc *moderationUseCase) Stats(ctx context.Context) (map[string]int64, error) {
	counts, err := uc.moderationRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := make(map[string]int64, len(entity.Statuses))
	for _, s := range entity.Statuses {
		stats[s.String()] = counts[s]
	}
	return stats, nil
}

// invalidate drops the listing service's cached copy so readers see the new status.
func (uc *moderationUseCase) invalidate(ctx context.Context, listingID string) {
	if err := uc.store.Delete(ctx, cache.ListingKey(listingID)); err != nil {
		uc.logger.Warn("Failed to invalidate cached listing %s: %v", listingID, err)
	}
}

func (uc *moderationUseCase) notify(ctx context.Context, notice entity.ReviewNotice) {
	notice.At = uc.now().UTC()
	if err := uc.store.PublishJSON(ctx, cache.ReviewChannel, notice); err != nil {
		uc.logger.Warn("Failed to publish review notice for listing %s: %v", notice.ListingID, err)
	}
}
