package database

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/config"
	"github.com/NEBULA-33/nebula-1/internal/models"
)

var defaultWastageReasons = []string{
	"Bozulma",
	"Son Kullanma Tarihi",
	"Kırılma / Hasar",
	"Kesim Firesi",
}

// SeedInitialData creates the default sales channel and wastage reasons, and
// on an empty database the first shop with its manager.
func SeedInitialData(db *gorm.DB, cfg config.SeedConfig) error {
	logrus.Info("Seeding initial data")

	if err := db.Where(models.SalesChannel{Name: models.DefaultSalesChannel}).
		FirstOrCreate(&models.SalesChannel{Name: models.DefaultSalesChannel}).Error; err != nil {
		return fmt.Errorf("failed to seed sales channel: %w", err)
	}

	var reasonCount int64
	if err := db.Model(&models.WastageReason{}).Count(&reasonCount).Error; err != nil {
		return fmt.Errorf("failed to count wastage reasons: %w", err)
	}
	if reasonCount == 0 {
		for _, name := range defaultWastageReasons {
			if err := db.Create(&models.WastageReason{Name: name}).Error; err != nil {
				logrus.WithError(err).WithField("reason", name).Warn("Failed to seed wastage reason")
			}
		}
	}

	if cfg.ManagerEmail == "" {
		return nil
	}

	var existing models.Profile
	err := db.Where("email = ?", cfg.ManagerEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up manager: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		shop := &models.Shop{Name: cfg.ShopName}
		if err := tx.Create(shop).Error; err != nil {
			return fmt.Errorf("failed to create shop: %w", err)
		}

		manager := &models.Profile{
			ShopID:   shop.ID,
			Email:    cfg.ManagerEmail,
			FullName: "Yönetici",
			Role:     string(models.RoleManager),
		}
		if err := manager.SetPassword(cfg.ManagerPassword); err != nil {
			return fmt.Errorf("failed to set manager password: %w", err)
		}
		if err := tx.Create(manager).Error; err != nil {
			return fmt.Errorf("failed to create manager: %w", err)
		}

		logrus.WithFields(logrus.Fields{"shop": shop.Name, "email": manager.Email}).Info("Seeded first shop and manager")
		return nil
	})
}
