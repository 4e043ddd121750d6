package persistent

import (
	"tg-market/pkg/models"
	"tg-market/services/listing/internal/entity"

	"gorm.io/gorm"
)

// ReferenceRepository reads the tables the listing service does not own:
// dictionaries, billing packages and payments.
type ReferenceRepository interface {
	Categories() ([]*entity.Category, error)
	Cities() ([]*entity.City, error)
	Currencies() ([]*entity.Currency, error)
	CategoryExists(id string) (bool, error)
	CityExists(id string) (bool, error)
	CurrencyExists(id string) (bool, error)
	GetPackage(id string) (*entity.Package, error)
	GetPayment(id string) (*entity.Payment, error)
}

type referenceRepository struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) Categories() ([]*entity.Category, error) {
	var rows []models.Category
	if err := r.db.Where("is_active = ?", true).Order("sort_order, name_ru").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Category, len(rows))
	for i := range rows {
		out[i] = ToCategoryEntity(&rows[i])
	}
	return out, nil
}

func (r *referenceRepository) Cities() ([]*entity.City, error) {
	var rows []models.City
	if err := r.db.Where("is_active = ?", true).Order("sort_order, name_ru").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.City, len(rows))
	for i := range rows {
		out[i] = ToCityEntity(&rows[i])
	}
	return out, nil
}

func (r *referenceRepository) Currencies() ([]*entity.Currency, error) {
	var rows []models.Currency
	if err := r.db.Where("is_active = ?", true).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Currency, len(rows))
	for i := range rows {
		out[i] = ToCurrencyEntity(&rows[i])
	}
	return out, nil
}

func (r *referenceRepository) CategoryExists(id string) (bool, error) {
	return r.activeExists(&models.Category{}, id)
}

func (r *referenceRepository) CityExists(id string) (bool, error) {
	return r.activeExists(&models.City{}, id)
}

func (r *referenceRepository) CurrencyExists(id string) (bool, error) {
	return r.activeExists(&models.Currency{}, id)
}

func (r *referenceRepository) activeExists(model interface{}, id string) (bool, error) {
	var count int64
	err := r.db.Model(model).Where("id = ? AND is_active = ?", id, true).Count(&count).Error
	return count > 0, err
}

func (r *referenceRepository) GetPackage(id string) (*entity.Package, error) {
	var pkg models.Package
	if err := r.db.Where("id = ?", id).First(&pkg).Error; err != nil {
		return nil, notFound(err)
	}
	return ToPackageEntity(&pkg), nil
}

func (r *referenceRepository) GetPayment(id string) (*entity.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, notFound(err)
	}
	return ToPaymentEntity(&payment), nil
}
