package persistent

import (
	"errors"
	"strings"
	"time"

	"tg-market/pkg/models"
	"tg-market/services/listing/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrPaymentUsed = errors.New("payment already used by another listing")
)

type ListingRepository interface {
	Create(listing *entity.Listing) error
	GetByID(id string) (*entity.Listing, error)
	List(filter entity.ListingFilter) ([]*entity.Listing, int64, error)
	LastFreeListingAt(authorID string) (*time.Time, error)
	PaymentInUse(paymentID string) (bool, error)
	IncrementViews(id string) error
	ArchiveExpired(now time.Time) ([]string, error)
	BoostDue(now time.Time) (int64, error)
	AuthorActivity(authorID string) (*entity.AuthorActivity, error)

	AddFavorite(userID, listingID string) error
	RemoveFavorite(userID, listingID string) error
	IsFavorite(userID, listingID string) (bool, error)
	ListFavorites(userID string) ([]*entity.Listing, error)
	CountFavorites(userID string) (int64, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(listing *entity.Listing) error {
	listingModel := ToListingModel(listing)
	if err := r.db.Create(listingModel).Error; err != nil {
		// the only unique column besides the key is payment_id
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrPaymentUsed
		}
		return err
	}
	*listing = *ToListingEntity(listingModel)
	return nil
}

func (r *listingRepository) GetByID(id string) (*entity.Listing, error) {
	var listingModel models.Listing
	if err := r.db.Where("id = ?", id).First(&listingModel).Error; err != nil {
		return nil, notFound(err)
	}
	return ToListingEntity(&listingModel), nil
}

// List pages through listings. Only published ones are visible unless the
// viewer is asking for their own listings.
func (r *listingRepository) List(filter entity.ListingFilter) ([]*entity.Listing, int64, error) {
	query := r.db.Model(&models.Listing{})

	if filter.AuthorID != "" {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if filter.AuthorID == "" || filter.AuthorID != filter.ViewerID {
		query = query.Where("status = ?", models.ListingPublished)
	}
	if filter.PostType != "" {
		query = query.Where("post_type = ?", filter.PostType)
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.CityID != "" {
		query = query.Where("city_id = ?", filter.CityID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var listingModels []models.Listing
	err := query.
		Order("COALESCE(boosted_at, created_at) DESC").
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&listingModels).Error
	if err != nil {
		return nil, 0, err
	}

	return ToListingEntities(listingModels), total, nil
}

// LastFreeListingAt counts deleted listings too, so removing a free post does not reset the cooldown.
func (r *listingRepository) LastFreeListingAt(authorID string) (*time.Time, error) {
	var listingModel models.Listing
	err := r.db.Unscoped().
		Where("author_id = ? AND payment_id IS NULL", authorID).
		Order("created_at DESC").
		First(&listingModel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listingModel.CreatedAt, nil
}

func (r *listingRepository) PaymentInUse(paymentID string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.Listing{}).Where("payment_id = ?", paymentID).Count(&count).Error
	return count > 0, err
}

func (r *listingRepository) IncrementViews(id string) error {
	return r.db.Model(&models.Listing{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// ArchiveExpired archives published listings past their expiry and returns their ids.
func (r *listingRepository) ArchiveExpired(now time.Time) ([]string, error) {
	var ids []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Listing{}).
			Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.ListingPublished, now).
			Pluck("id", &ids).Error
		if err != nil || len(ids) == 0 {
			return err
		}
		return tx.Model(&models.Listing{}).
			Where("id IN ? AND status = ?", ids, models.ListingPublished).
			Updates(map[string]interface{}{"status": models.ListingArchived, "updated_at": now}).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// BoostDue lifts every published boosted listing whose interval has elapsed since
// its last boost (or creation) back to the top of the feed.
func (r *listingRepository) BoostDue(now time.Time) (int64, error) {
	var due []models.Listing
	err := r.db.
		Where("status = ? AND has_boost = ? AND boost_interval_days > 0", models.ListingPublished, true).
		Find(&due).Error
	if err != nil {
		return 0, err
	}

	var ids []string
	for _, l := range due {
		last := l.CreatedAt
		if l.BoostedAt != nil {
			last = *l.BoostedAt
		}
		if !now.Before(last.AddDate(0, 0, l.BoostIntervalDays)) {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.Model(&models.Listing{}).Where("id IN ?", ids).Update("boosted_at", now)
	return result.RowsAffected, result.Error
}

func (r *listingRepository) AuthorActivity(authorID string) (*entity.AuthorActivity, error) {
	var rows []struct {
		Status int
		Count  int64
		Views  int64
	}
	err := r.db.Model(&models.Listing{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(views), 0) AS views").
		Where("author_id = ?", authorID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	activity := &entity.AuthorActivity{ByStatus: make(map[entity.ListingStatus]int64, len(rows))}
	for _, row := range rows {
		activity.ByStatus[entity.ListingStatus(row.Status)] = row.Count
		activity.TotalViews += row.Views
	}
	return activity, nil
}

func (r *listingRepository) AddFavorite(userID, listingID string) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Favorite{UserID: userID, ListingID: listingID}).Error
}

func (r *listingRepository) RemoveFavorite(userID, listingID string) error {
	return r.db.Where("user_id = ? AND listing_id = ?", userID, listingID).Delete(&models.Favorite{}).Error
}

func (r *listingRepository) IsFavorite(userID, listingID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Favorite{}).Where("user_id = ? AND listing_id = ?", userID, listingID).Count(&count).Error
	return count > 0, err
}

func (r *listingRepository) ListFavorites(userID string) ([]*entity.Listing, error) {
	var listingModels []models.Listing
	err := r.db.
		Joins("JOIN favorites ON favorites.listing_id = listings.id").
		Where("favorites.user_id = ? AND listings.status = ?", userID, models.ListingPublished).
		Order("favorites.created_at DESC").
		Find(&listingModels).Error
	if err != nil {
		return nil, err
	}
	listings := ToListingEntities(listingModels)
	for _, l := range listings {
		l.IsFavorite = true
	}
	return listings, nil
}

func (r *listingRepository) CountFavorites(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Favorite{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
