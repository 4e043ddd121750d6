package main

import (
	"errors"
	"flag"
	"fmt"

	"tg-market/pkg/config"
	"tg-market/pkg/database"
	"tg-market/pkg/logger"
	"tg-market/pkg/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	migrate := flag.Bool("automigrate", false, "create missing tables with gorm before seeding (local development)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	if *migrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			log.Error("Failed to migrate database: %v", err)
			panic(err)
		}
	}

	if err := seedDatabase(db, log); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

var currencies = []models.Currency{
	{ID: "RUB", Symbol: "₽", Name: "Российский рубль"},
	{ID: "UAH", Symbol: "₴", Name: "Українська гривня"},
	{ID: "USD", Symbol: "$", Name: "US Dollar"},
	{ID: "EUR", Symbol: "€", Name: "Euro"},
}

var categories = []models.Category{
	{Slug: string(models.PostTypeJob), NameRU: "Работа", NameUA: "Робота", SortOrder: 1},
	{Slug: string(models.PostTypeService), NameRU: "Услуги", NameUA: "Послуги", SortOrder: 2},
}

var cities = []models.City{
	{NameRU: "Москва", NameUA: "Москва", SortOrder: 1},
	{NameRU: "Санкт-Петербург", NameUA: "Санкт-Петербург", SortOrder: 2},
	{NameRU: "Киев", NameUA: "Київ", SortOrder: 3},
	{NameRU: "Харьков", NameUA: "Харків", SortOrder: 4},
	{NameRU: "Одесса", NameUA: "Одеса", SortOrder: 5},
	{NameRU: "Минск", NameUA: "Мінск", SortOrder: 6},
}

var packages = []models.Package{
	{
		NameRU: "Бесплатный", NameUA: "Безкоштовний", PackageType: models.PackageTypeFree,
		Price: decimal.Zero, CurrencyID: "RUB", DurationDays: 7, PostLifetimeDays: 30,
		Features: "1 объявление в неделю|Базовое размещение", SortOrder: 1,
	},
	{
		NameRU: "Стандарт", NameUA: "Стандарт", PackageType: models.PackageTypeStandard,
		Price: decimal.NewFromInt(100), CurrencyID: "RUB", DurationDays: 30, PostLifetimeDays: 30,
		Features: "Стандартное размещение|30 дней активности", SortOrder: 2,
	},
	{
		NameRU: "С фото", NameUA: "З фото", PackageType: models.PackageTypeStandard,
		Price: decimal.NewFromInt(150), CurrencyID: "RUB", DurationDays: 30, PostLifetimeDays: 30,
		Features: "Возможность добавить фото|30 дней активности", HasPhoto: true, SortOrder: 3,
	},
	{
		NameRU: "Премиум", NameUA: "Преміум", PackageType: models.PackageTypePremium,
		Price: decimal.NewFromInt(300), CurrencyID: "RUB", DurationDays: 30, PostLifetimeDays: 30,
		Features: "Фото|Выделение цветом|Поднятие каждые 3 дня", HasPhoto: true, HasHighlight: true,
		HasBoost: true, BoostIntervalDays: 3, SortOrder: 4,
	},
}

// seedDatabase inserts the reference data and tiers that are missing.
// Rows that already exist are left untouched, so it is safe to rerun.
func seedDatabase(db *gorm.DB, log *logger.Logger) error {
	for i := range currencies {
		c := currencies[i]
		if err := ensure(db, log, &c, "currency "+c.ID, "id = ?", c.ID); err != nil {
			return err
		}
	}

	for i := range categories {
		c := categories[i]
		if err := ensure(db, log, &c, "category "+c.Slug, "slug = ?", c.Slug); err != nil {
			return err
		}
	}

	for i := range cities {
		c := cities[i]
		if err := ensure(db, log, &c, "city "+c.NameRU, "name_ru = ?", c.NameRU); err != nil {
			return err
		}
	}

	for i := range packages {
		p := packages[i]
		if err := ensure(db, log, &p, "package "+p.NameRU, "name_ru = ? AND package_type = ?", p.NameRU, p.PackageType); err != nil {
			return err
		}
	}

	return nil
}

func ensure(db *gorm.DB, log *logger.Logger, row interface{}, label string, query string, args ...interface{}) error {
	var count int64
	if err := db.Model(row).Where(query, args...).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up %s: %w", label, err)
	}
	if count > 0 {
		log.Info("%s already exists, skipping", label)
		return nil
	}

	if err := db.Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to create %s: %w", label, err)
	}
	log.Info("Created %s", label)
	return nil
}
