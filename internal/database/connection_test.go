package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/config"
	"github.com/NEBULA-33/nebula-1/internal/models"
)

func openMigrated(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })
	require.NoError(t, RunMigrations(db))
	return db
}

func TestRunMigrationsCreatesEveryTable(t *testing.T) {
	h := openMigrated(t)
	for _, name := range TableNames() {
		assert.True(t, h.Migrator().HasTable(name), name)
	}
	assert.Equal(t, DriverSQLite, Driver(h))
}

func TestSeedInitialData(t *testing.T) {
	h := openMigrated(t)
	cfg := config.SeedConfig{ShopName: "Merkez", ManagerEmail: "boss@shop.test", ManagerPassword: "password123"}

	require.NoError(t, SeedInitialData(h, cfg))
	// Seeding twice changes nothing.
	require.NoError(t, SeedInitialData(h, cfg))

	var channels []models.SalesChannel
	require.NoError(t, h.Find(&channels).Error)
	require.Len(t, channels, 1)
	assert.Equal(t, models.DefaultSalesChannel, channels[0].Name)

	var reasons int64
	h.Model(&models.WastageReason{}).Count(&reasons)
	assert.EqualValues(t, len(defaultWastageReasons), reasons)

	var manager models.Profile
	require.NoError(t, h.Where("email = ?", cfg.ManagerEmail).First(&manager).Error)
	assert.Equal(t, "manager", manager.Role)
	assert.NoError(t, manager.CheckPassword("password123"))

	var shops int64
	h.Model(&models.Shop{}).Count(&shops)
	assert.EqualValues(t, 1, shops)
}

func TestWithTransactionRollsBack(t *testing.T) {
	h := openMigrated(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithTransaction(ctx, h, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&models.Shop{Name: "rolled back"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	h.Model(&models.Shop{}).Count(&count)
	assert.Zero(t, count)

	require.NoError(t, WithTransaction(ctx, h, func(tx *gorm.DB) error {
		return tx.Create(&models.Shop{Name: "kept"}).Error
	}))
	h.Model(&models.Shop{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestLookupTable(t *testing.T) {
	table, ok := LookupTable("wastage_reasons")
	require.True(t, ok)
	assert.True(t, table.Global)

	_, ok = LookupTable("users")
	assert.False(t, ok)
}

func TestEveryShopTableIsScoped(t *testing.T) {
	db := openMigrated(t)
	for _, table := range Tables {
		if table.Global {
			assert.Empty(t, table.ScopeColumn, table.Name)
			continue
		}
		require.NotEmpty(t, table.ScopeColumn, table.Name)
		assert.True(t, db.Migrator().HasColumn(table.Model, table.ScopeColumn), table.Name)
	}

	profiles, ok := LookupTable("profiles")
	require.True(t, ok)
	assert.True(t, profiles.IsSecret("password_hash"))
	assert.True(t, profiles.Identity)
}
