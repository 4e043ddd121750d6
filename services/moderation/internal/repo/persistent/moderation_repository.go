package persistent

import (
	"context"
	"errors"
	"time"

	"tg-market/pkg/models"
	"tg-market/services/moderation/internal/entity"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("listing not found")

type ModerationRepository interface {
	GetListing(ctx context.Context, id string) (*entity.Listing, error)
	ListByStatus(ctx context.Context, status entity.Status, limit, offset int) ([]*entity.Listing, int64, error)
	// Transition moves a listing to status `to` only if it is currently in
	// one of `from`. It reports whether the row changed.
	Transition(ctx context.Context, id string, from []entity.Status, to entity.Status, note string, now time.Time) (bool, error)
	CountByStatus(ctx context.Context) (map[entity.Status]int64, error)
}

type moderationRepository struct {
	db *gorm.DB
}

func NewModerationRepository(db *gorm.DB) ModerationRepository {
	return &moderationRepository{db: db}
}

func (r *moderationRepository) GetListing(ctx context.Context, id string) (*entity.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ToListingEntity(&listing), nil
}

// ListByStatus returns the review queue oldest first, premium listings ahead.
func (r *moderationRepository) ListByStatus(ctx context.Context, status entity.Status, limit, offset int) ([]*entity.Listing, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Listing{}).Where("status = ?", models.ListingStatus(status))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Listing
	err := query.Order("is_premium DESC, created_at ASC").Limit(limit).Offset(offset).Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	listings := make([]*entity.Listing, len(rows))
	for i := range rows {
		listings[i] = ToListingEntity(&rows[i])
	}
	return listings, total, nil
}

func (r *moderationRepository) Transition(ctx context.Context, id string, from []entity.Status, to entity.Status, note string, now time.Time) (bool, error) {
	allowed := make([]models.ListingStatus, len(from))
	for i, s := range from {
		allowed[i] = models.ListingStatus(s)
	}

	res := r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ? AND status IN ?", id, allowed).
		Updates(map[string]interface{}{
			"status":          models.ListingStatus(to),
			"moderation_note": note,
			"updated_at":      now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *moderationRepository) CountByStatus(ctx context.Context) (map[entity.Status]int64, error) {
	var rows []struct {
		Status int
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Listing{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.Status]int64, len(rows))
	for _, row := range rows {
		counts[entity.Status(row.Status)] = row.Count
	}
	return counts, nil
}
