package persistent

import (
	"errors"
	"time"

	"tg-market/pkg/models"
	"tg-market/services/listing/internal/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrDuplicate = errors.New("already exists")
	ErrInUse     = errors.New("still referenced by listings")
)

// InUseError reports how many listings, deleted ones included, still point
// at a dictionary entry.
type InUseError struct {
	Listings int64
}

func (e *InUseError) Error() string {
	return ErrInUse.Error()
}

func (e *InUseError) Is(target error) bool {
	return target == ErrInUse
}

// AdminRepository backs the back-office: every listing regardless of owner
// or status, the dictionaries including inactive entries, and the dashboard.
type AdminRepository interface {
	ListListings(filter entity.AdminListingFilter) ([]*entity.Listing, int64, error)
	UpdateListing(id string, patch entity.ListingPatch, now time.Time) (*entity.Listing, error)
	DeleteListing(id string) error
	Stats(since time.Time) (*entity.AdminStats, error)

	ListCategories() ([]*entity.Category, error)
	CreateCategory(category *entity.Category) error
	UpdateCategory(id string, in entity.CategoryInput) (*entity.Category, error)
	DeleteCategory(id string) error

	ListCities() ([]*entity.City, error)
	CreateCity(city *entity.City) error
	UpdateCity(id string, in entity.CityInput) (*entity.City, error)
	DeleteCity(id string) error
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) ListListings(filter entity.AdminListingFilter) ([]*entity.Listing, int64, error) {
	query := r.db.Model(&models.Listing{})
	if filter.Status != 0 {
		query = query.Where("status = ?", models.ListingStatus(filter.Status))
	}
	if filter.PostType != "" {
		query = query.Where("post_type = ?", filter.PostType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Listing
	err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return ToListingEntities(rows), total, nil
}

func (r *adminRepository) UpdateListing(id string, patch entity.ListingPatch, now time.Time) (*entity.Listing, error) {
	fields := map[string]interface{}{"updated_at": now}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Price != nil {
		fields["price"] = decimal.NewNullDecimal(*patch.Price)
	}
	if patch.Phone != nil {
		fields["phone"] = *patch.Phone
	}
	if patch.CategoryID != nil {
		fields["category_id"] = *patch.CategoryID
	}
	if patch.CityID != nil {
		fields["city_id"] = *patch.CityID
	}
	if patch.Status != nil {
		fields["status"] = models.ListingStatus(*patch.Status)
	}
	if patch.ExpiresAt != nil {
		fields["expires_at"] = *patch.ExpiresAt
	}

	var row models.Listing
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Listing{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", id).First(&row).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return ToListingEntity(&row), nil
}

// DeleteListing soft-deletes, so the row keeps counting toward the free post cooldown.
func (r *adminRepository) DeleteListing(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Listing{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *adminRepository) Stats(since time.Time) (*entity.AdminStats, error) {
	stats := &entity.AdminStats{
		ListingsByType:   map[string]int64{},
		ListingsByStatus: map[string]int64{},
	}

	var byStatus []struct {
		Status int
		Count  int64
	}
	if err := r.db.Model(&models.Listing{}).Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		status := entity.ListingStatus(row.Status)
		stats.ListingsByStatus[status.String()] = row.Count
		stats.Overview.TotalListings += row.Count
		switch status {
		case entity.StatusPublished:
			stats.Overview.ActiveListings += row.Count
		case entity.StatusModeration, entity.StatusManualReview:
			stats.Overview.PendingListings += row.Count
		}
	}

	var byType []struct {
		PostType string
		Count    int64
	}
	if err := r.db.Model(&models.Listing{}).Select("post_type, COUNT(*) AS count").Group("post_type").Scan(&byType).Error; err != nil {
		return nil, err
	}
	for _, row := range byType {
		stats.ListingsByType[row.PostType] = row.Count
	}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.Overview.TotalUsers, r.db.Model(&models.User{})},
		{&stats.RecentActivity.UsersLastWeek, r.db.Model(&models.User{}).Where("created_at >= ?", since)},
		{&stats.RecentActivity.ListingsLastWeek, r.db.Model(&models.Listing{}).Where("created_at >= ?", since)},
		{&stats.PremiumBreakdown.Premium, r.db.Model(&models.Listing{}).Where("is_premium = ?", true)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	stats.PremiumBreakdown.Free = stats.Overview.TotalListings - stats.PremiumBreakdown.Premium

	return stats, nil
}

func (r *adminRepository) ListCategories() ([]*entity.Category, error) {
	var rows []models.Category
	if err := r.db.Order("sort_order, name_ru").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Category, len(rows))
	for i := range rows {
		out[i] = ToCategoryEntity(&rows[i])
	}
	return out, nil
}

func (r *adminRepository) CreateCategory(category *entity.Category) error {
	row := &models.Category{
		ID:        category.ID,
		Slug:      category.Slug,
		NameRU:    category.NameRU,
		NameUA:    category.NameUA,
		IsActive:  category.IsActive,
		SortOrder: category.SortOrder,
	}
	if err := r.create(row, category.IsActive); err != nil {
		return err
	}
	*category = *ToCategoryEntity(row)
	return nil
}

func (r *adminRepository) UpdateCategory(id string, in entity.CategoryInput) (*entity.Category, error) {
	fields := map[string]interface{}{}
	if in.Slug != nil {
		fields["slug"] = *in.Slug
	}
	if in.NameRU != nil {
		fields["name_ru"] = *in.NameRU
	}
	if in.NameUA != nil {
		fields["name_ua"] = *in.NameUA
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.SortOrder != nil {
		fields["sort_order"] = *in.SortOrder
	}

	var row models.Category
	if err := r.update(&row, id, fields); err != nil {
		return nil, err
	}
	return ToCategoryEntity(&row), nil
}

func (r *adminRepository) DeleteCategory(id string) error {
	return r.deleteUnused(&models.Category{}, "category_id", id)
}

func (r *adminRepository) ListCities() ([]*entity.City, error) {
	var rows []models.City
	if err := r.db.Order("sort_order, name_ru").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.City, len(rows))
	for i := range rows {
		out[i] = ToCityEntity(&rows[i])
	}
	return out, nil
}

func (r *adminRepository) CreateCity(city *entity.City) error {
	row := &models.City{
		ID:        city.ID,
		NameRU:    city.NameRU,
		NameUA:    city.NameUA,
		IsActive:  city.IsActive,
		SortOrder: city.SortOrder,
	}
	if err := r.create(row, city.IsActive); err != nil {
		return err
	}
	*city = *ToCityEntity(row)
	return nil
}

func (r *adminRepository) UpdateCity(id string, in entity.CityInput) (*entity.City, error) {
	fields := map[string]interface{}{}
	if in.NameRU != nil {
		fields["name_ru"] = *in.NameRU
	}
	if in.NameUA != nil {
		fields["name_ua"] = *in.NameUA
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.SortOrder != nil {
		fields["sort_order"] = *in.SortOrder
	}

	var row models.City
	if err := r.update(&row, id, fields); err != nil {
		return nil, err
	}
	return ToCityEntity(&row), nil
}

func (r *adminRepository) DeleteCity(id string) error {
	return r.deleteUnused(&models.City{}, "city_id", id)
}

// create inserts a dictionary row and reloads it. is_active defaults to true
// in the schema, so an inactive entry needs a second write.
func (r *adminRepository) create(row interface{}, active bool) error {
	return duplicate(r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		if !active {
			if err := tx.Model(row).Update("is_active", false).Error; err != nil {
				return err
			}
		}
		return tx.First(row).Error
	}))
}

// update applies fields to the row with the given id and reloads it into row.
func (r *adminRepository) update(row interface{}, id string, fields map[string]interface{}) error {
	return duplicate(r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(row).Error; err != nil {
			return notFound(err)
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(row).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(row).Error
	}))
}

// deleteUnused removes a dictionary row unless any listing, deleted or not,
// still points at it through column.
func (r *adminRepository) deleteUnused(model interface{}, column, id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var used int64
		if err := tx.Unscoped().Model(&models.Listing{}).Where(column+" = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return &InUseError{Listings: used}
		}
		result := tx.Where("id = ?", id).Delete(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
