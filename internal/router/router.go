// internal/router/router.go
package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/cart"
	"github.com/NEBULA-33/nebula-1/internal/config"
	"github.com/NEBULA-33/nebula-1/internal/handlers"
	"github.com/NEBULA-33/nebula-1/internal/middleware"
	"github.com/NEBULA-33/nebula-1/internal/services"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

// Initialize wires services and routes. redisClient may be nil, in which
// case carts and rate limits stay in process memory. ctx bounds the
// background cleanup of in-memory limiters.
func Initialize(ctx context.Context, db *gorm.DB, cfg *config.Config, redisClient *redis.Client) (*gin.Engine, error) {
	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	var cartStore cart.Store
	if redisClient != nil {
		cartStore = cart.NewRedisStore(redisClient, time.Duration(cfg.Redis.CartTTL)*time.Minute)
	} else {
		cartStore = cart.NewMemoryStore()
	}

	recorder := services.NewRecorder(db)
	catalog := services.NewCatalogService(db)
	mutator := services.NewStockMutator()
	settingsService := services.NewSettingsService(db)
	cartService := services.NewCartService(db, cartStore, catalog)

	authService := services.NewAuthService(db, cfg, recorder)
	productService := services.NewProductService(db, catalog, mutator, recorder)
	salesService := services.NewSalesService(db, cartService, mutator, recorder, settingsService)
	stockService := services.NewStockService(db, cartService, catalog, mutator, recorder, settingsService)
	butcheringService := services.NewButcheringService(db, catalog, mutator, recorder)
	debtService := services.NewDebtService(db, cartService, mutator, recorder)
	purchaseService := services.NewPurchaseService(db, cartService, catalog, mutator, recorder)
	noteService := services.NewNoteService(db)
	adminService := services.NewAdminService(db)
	backupService := services.NewBackupService(db, storageService, recorder)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	posHandler := handlers.NewPOSHandler(cartService, salesService)
	stockHandler := handlers.NewStockHandler(stockService)
	butcheringHandler := handlers.NewButcheringHandler(butcheringService)
	debtHandler := handlers.NewDebtHandler(debtService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	settingsHandler := handlers.NewSettingsHandler(settingsService, noteService)
	adminHandler := handlers.NewAdminHandler(adminService, backupService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	generalLimit, loginLimit := limiters(ctx, cfg.RateLimit, redisClient)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.RateLimit(generalLimit))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "healthy", "database": "ok"}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(loginLimit), authHandler.Login)
			auth.POST("/refresh", middleware.RateLimit(loginLimit), authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
			auth.GET("/permissions", middleware.AuthRequired(), authHandler.Permissions)
		}

		// Everything below needs a signed-in profile
		api := v1.Group("")
		api.Use(middleware.AuthRequired())

		products := api.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/resolve", productHandler.ResolveCode)
			products.GET("/:id", productHandler.GetProduct)
			products.POST("", productHandler.CreateProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
			products.DELETE("/:id", productHandler.DeleteProduct)
		}

		carts := api.Group("/cart/:kind")
		{
			carts.GET("", posHandler.GetCart)
			carts.DELETE("", posHandler.ClearCart)
			carts.POST("/scan", posHandler.Scan)
			carts.POST("/items", posHandler.AddItem)
			carts.PATCH("/items/:line_id", posHandler.UpdateItem)
			carts.DELETE("/items/:line_id", posHandler.RemoveItem)
		}

		api.POST("/sales/complete", posHandler.CompleteSale)

		stock := api.Group("/stock")
		{
			stock.POST("/in/confirm", stockHandler.ConfirmStockIn)
			stock.POST("/wastage", stockHandler.RecordWastage)
			stock.POST("/returns", stockHandler.RecordReturn)
			stock.GET("/history/:kind", stockHandler.History)
		}

		butchering := api.Group("/butchering")
		{
			butchering.GET("/recipes", butcheringHandler.ListRecipes)
			butchering.GET("/recipes/:id", butcheringHandler.GetRecipe)
			butchering.POST("/recipes", butcheringHandler.CreateRecipe)
			butchering.PUT("/recipes/:id", butcheringHandler.UpdateRecipe)
			butchering.DELETE("/recipes/:id", butcheringHandler.DeleteRecipe)
			butchering.GET("/preview", butcheringHandler.Preview)
			butchering.POST("/execute", butcheringHandler.Execute)
		}

		debts := api.Group("/debts")
		{
			debts.GET("/persons", debtHandler.ListPersons)
			debts.GET("/persons/:id", debtHandler.GetPerson)
			debts.DELETE("/persons/:id", debtHandler.DeletePerson)
			debts.POST("/transactions", debtHandler.RecordTransaction)
			debts.POST("/sale/confirm", debtHandler.ConfirmSale)
		}

		purchases := api.Group("/purchases")
		{
			purchases.GET("/suppliers", purchaseHandler.ListSuppliers)
			purchases.POST("/suppliers", purchaseHandler.CreateSupplier)
			purchases.PUT("/suppliers/:id", purchaseHandler.UpdateSupplier)
			purchases.DELETE("/suppliers/:id", purchaseHandler.DeleteSupplier)
			purchases.GET("/last-price/:product_id", purchaseHandler.LastPrice)
			purchases.GET("/invoices", purchaseHandler.ListInvoices)
			purchases.POST("/invoices/confirm", purchaseHandler.ConfirmInvoice)
		}

		notes := api.Group("/notes")
		{
			notes.GET("", settingsHandler.ListNotes)
			notes.POST("", settingsHandler.CreateNote)
			notes.DELETE("/:id", settingsHandler.DeleteNote)
		}

		settings := api.Group("/settings")
		{
			settings.GET("/wastage-reasons", settingsHandler.ListWastageReasons)
			settings.POST("/wastage-reasons", settingsHandler.AddWastageReason)
			settings.DELETE("/wastage-reasons/:id", settingsHandler.DeleteWastageReason)
			settings.GET("/sales-channels", settingsHandler.ListSalesChannels)
			settings.POST("/sales-channels", settingsHandler.AddSalesChannel)
			settings.DELETE("/sales-channels/:id", settingsHandler.DeleteSalesChannel)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.ManagerRequired())
		{
			admin.GET("/export", adminHandler.Export)
			admin.POST("/import", adminHandler.Import)
			admin.GET("/backups", adminHandler.ListArchives)
			admin.POST("/backups", adminHandler.Archive)
			admin.POST("/backups/restore", adminHandler.RestoreArchive)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
			admin.GET("/shops", adminHandler.ListShops)
			admin.PUT("/shop", adminHandler.RenameShop)
			admin.GET("/profiles", authHandler.ListProfiles)
			admin.POST("/profiles", authHandler.CreateProfile)
		}
	}

	return r, nil
}

func limiters(ctx context.Context, cfg config.RateLimitConfig, redisClient *redis.Client) (general, login middleware.Limiter) {
	if redisClient != nil {
		return middleware.NewRedisWindowLimiter(redisClient, "api", cfg.RequestsPerSecond, time.Second),
			middleware.NewRedisWindowLimiter(redisClient, "login", cfg.LoginPerMinute, time.Minute)
	}

	generalLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	loginLimiter := middleware.NewRateLimiter(rate.Every(time.Minute/time.Duration(max(cfg.LoginPerMinute, 1))), max(cfg.LoginPerMinute, 1))
	go generalLimiter.Cleanup(ctx)
	go loginLimiter.Cleanup(ctx)
	return generalLimiter, loginLimiter
}
