// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

// AdminService serves the manager-only views: the audit trail and the shop
// list.
type AdminService struct {
	db *gorm.DB
}

type AuditLogFilter struct {
	utils.PaginationParams
	ActionType string     `json:"action_type,omitempty"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
}

type ShopUpdateRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) GetAuditLogs(ctx context.Context, actor permissions.Actor, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	if !actor.IsManager() {
		return nil, 0, ErrManagerOnly
	}
	query := s.db.WithContext(ctx).Model(&models.AuditLog{}).Where("shop_id = ?", actor.ShopID)

	// Apply filters
	if filter.ActionType != "" {
		query = query.Where("action_type = ?", strings.ToUpper(filter.ActionType))
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	query = utils.ApplyDateRange(query, filter.PaginationParams, "created_at")

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	// Apply sorting and pagination
	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "action_type"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}
	return logs, total, nil
}

func (s *AdminService) ListShops(ctx context.Context, actor permissions.Actor) ([]models.Shop, error) {
	if !actor.IsManager() {
		return nil, ErrManagerOnly
	}
	var shops []models.Shop
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&shops).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch shops: %w", err)
	}
	return shops, nil
}

// RenameShop changes the display name of the manager's own shop.
func (s *AdminService) RenameShop(ctx context.Context, actor permissions.Actor, req *ShopUpdateRequest) (*models.Shop, error) {
	if !actor.IsManager() {
		return nil, ErrManagerOnly
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Model(&models.Shop{}).
		Where("id = ?", actor.ShopID).
		Update("name", strings.TrimSpace(req.Name))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to rename shop: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrShopNotFound
	}

	var shop models.Shop
	if err := s.db.WithContext(ctx).First(&shop, "id = ?", actor.ShopID).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &shop, nil
}
