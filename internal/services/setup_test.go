package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/cart"
	"github.com/NEBULA-33/nebula-1/internal/config"
	"github.com/NEBULA-33/nebula-1/internal/database"
	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
)

type testEnv struct {
	ctx     context.Context
	db      *gorm.DB
	cfg     *config.Config
	shop    models.Shop
	manager permissions.Actor
	cashier permissions.Actor

	recorder   *Recorder
	catalog    *CatalogService
	mutator    *StockMutator
	settings   *SettingsService
	carts      *CartService
	auth       *AuthService
	products   *ProductService
	sales      *SalesService
	stock      *StockService
	butchering *ButcheringService
	debts      *DebtService
	purchases  *PurchaseService
	notes      *NoteService
	admin      *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	require.NoError(t, database.RunMigrations(db))
	require.NoError(t, database.SeedInitialData(db, config.SeedConfig{}))

	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1, RefreshTokenTTL: 24},
	}

	env := &testEnv{ctx: context.Background(), db: db, cfg: cfg}
	env.shop = models.Shop{Name: "Kasap Ali"}
	require.NoError(t, db.Create(&env.shop).Error)
	env.manager = env.createProfile(t, "yonetici@example.com", string(models.RoleManagerTurkish))
	env.cashier = env.createProfile(t, "kasiyer@example.com", string(models.RoleCashier))

	env.recorder = NewRecorder(db)
	env.catalog = NewCatalogService(db)
	env.mutator = NewStockMutator()
	env.settings = NewSettingsService(db)
	env.carts = NewCartService(db, cart.NewMemoryStore(), env.catalog)
	env.auth = NewAuthService(db, cfg, env.recorder)
	env.products = NewProductService(db, env.catalog, env.mutator, env.recorder)
	env.sales = NewSalesService(db, env.carts, env.mutator, env.recorder, env.settings)
	env.stock = NewStockService(db, env.carts, env.catalog, env.mutator, env.recorder, env.settings)
	env.butchering = NewButcheringService(db, env.catalog, env.mutator, env.recorder)
	env.debts = NewDebtService(db, env.carts, env.mutator, env.recorder)
	env.purchases = NewPurchaseService(db, env.carts, env.catalog, env.mutator, env.recorder)
	env.notes = NewNoteService(db)
	env.admin = NewAdminService(db)
	return env
}

func (e *testEnv) createProfile(t *testing.T, email, role string) permissions.Actor {
	t.Helper()
	p := &models.Profile{ShopID: e.shop.ID, Email: email, Role: role}
	require.NoError(t, p.SetPassword("password123"))
	require.NoError(t, e.db.Create(p).Error)
	return permissions.Actor{UserID: p.ID, ShopID: e.shop.ID, Role: role}
}

func (e *testEnv) addProduct(t *testing.T, name string, mutate func(p *models.Product)) models.Product {
	t.Helper()
	p := models.Product{
		ShopID:        e.shop.ID,
		Name:          name,
		PurchasePrice: dec("5"),
		SellingPrice:  dec("10"),
		VATRate:       dec("1"),
		Stock:         dec("10"),
	}
	if mutate != nil {
		mutate(&p)
	}
	require.NoError(t, e.db.Create(&p).Error)
	return p
}

func (e *testEnv) stockOf(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var p models.Product
	require.NoError(t, e.db.First(&p, "id = ?", id).Error)
	return p.Stock
}

func (e *testEnv) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func (e *testEnv) auditActions(t *testing.T) []string {
	t.Helper()
	var logs []models.AuditLog
	require.NoError(t, e.db.Order("created_at ASC").Find(&logs).Error)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.ActionType)
	}
	return actions
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
