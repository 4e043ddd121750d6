package main

import (
	"testing"

	"tg-market/pkg/logger"
	"tg-market/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestSeedDatabase_Idempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	require.NoError(t, seedDatabase(db, logger.Discard()))
	require.NoError(t, seedDatabase(db, logger.Discard()))

	count := func(model interface{}) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(len(currencies)), count(&models.Currency{}))
	assert.Equal(t, int64(len(categories)), count(&models.Category{}))
	assert.Equal(t, int64(len(cities)), count(&models.City{}))
	assert.Equal(t, int64(len(packages)), count(&models.Package{}))

	var free models.Package
	require.NoError(t, db.Where("package_type = ?", models.PackageTypeFree).First(&free).Error)
	assert.True(t, free.IsFree())
	assert.True(t, free.IsActive)

	var job models.Category
	require.NoError(t, db.Where("slug = ?", "job").First(&job).Error)
	assert.Equal(t, "Работа", job.NameRU)
}
