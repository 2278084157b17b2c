package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
)

// SettingsService manages the wastage reasons and sales channels. Both lists
// are shared by every shop.
type SettingsService struct {
	db *gorm.DB
}

type SettingRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

func (s *SettingsService) ListWastageReasons(ctx context.Context) ([]models.WastageReason, error) {
	var reasons []models.WastageReason
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&reasons).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return reasons, nil
}

func (s *SettingsService) AddWastageReason(ctx context.Context, actor permissions.Actor, req *SettingRequest) (*models.WastageReason, error) {
	if !actor.IsManager() {
		return nil, ErrManagerOnly
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	reason := &models.WastageReason{Name: strings.TrimSpace(req.Name)}
	if err := s.create(ctx, reason, &models.WastageReason{}, reason.Name); err != nil {
		return nil, err
	}
	return reason, nil
}

func (s *SettingsService) DeleteWastageReason(ctx context.Context, actor permissions.Actor, id uuid.UUID) error {
	if !actor.IsManager() {
		return ErrManagerOnly
	}
	return s.delete(ctx, &models.WastageReason{}, id)
}

func (s *SettingsService) ListSalesChannels(ctx context.Context) ([]models.SalesChannel, error) {
	var channels []models.SalesChannel
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return channels, nil
}

func (s *SettingsService) AddSalesChannel(ctx context.Context, actor permissions.Actor, req *SettingRequest) (*models.SalesChannel, error) {
	if !actor.IsManager() {
		return nil, ErrManagerOnly
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	channel := &models.SalesChannel{Name: strings.TrimSpace(req.Name)}
	if err := s.create(ctx, channel, &models.SalesChannel{}, channel.Name); err != nil {
		return nil, err
	}
	return channel, nil
}

func (s *SettingsService) DeleteSalesChannel(ctx context.Context, actor permissions.Actor, id uuid.UUID) error {
	if !actor.IsManager() {
		return ErrManagerOnly
	}
	var channel models.SalesChannel
	if err := s.db.WithContext(ctx).First(&channel, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSettingNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}
	if channel.Name == models.DefaultSalesChannel {
		return ErrDefaultChannelLocked
	}
	return s.delete(ctx, &models.SalesChannel{}, id)
}

// ResolveChannel maps an empty name to the default channel and rejects
// names that are not configured.
func (s *SettingsService) ResolveChannel(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.DefaultSalesChannel, nil
	}
	ok, err := s.exists(ctx, &models.SalesChannel{}, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChannel, name)
	}
	return name, nil
}

// CheckWastageReason fails unless name is a configured wastage reason.
func (s *SettingsService) CheckWastageReason(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	ok, err := s.exists(ctx, &models.WastageReason{}, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownReason, name)
	}
	return name, nil
}

func (s *SettingsService) exists(ctx context.Context, model interface{}, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return count > 0, nil
}

func (s *SettingsService) create(ctx context.Context, row, model interface{}, name string) error {
	ok, err := s.exists(ctx, model, name)
	if err != nil {
		return err
	}
	if ok {
		return ErrDuplicateSetting
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateSetting
		}
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}

func (s *SettingsService) delete(ctx context.Context, model interface{}, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return fmt.Errorf("failed to delete setting: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSettingNotFound
	}
	return nil
}
