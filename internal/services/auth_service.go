// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/config"
	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	recorder *Recorder
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreateProfileRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"max=255"`
	Role     string `json:"role" validate:"required,max=50"`
}

type AuthResponse struct {
	Profile      *models.Profile           `json:"profile"`
	Shop         *models.Shop              `json:"shop"`
	Permissions  permissions.UIPermissions `json:"permissions"`
	AccessToken  string                    `json:"access_token"`
	RefreshToken string                    `json:"refresh_token"`
	TokenType    string                    `json:"token_type"`
	ExpiresIn    int                       `json:"expires_in"` // in seconds
}

// ProfileResponse is the session payload the browser renders from.
type ProfileResponse struct {
	Profile     *models.Profile           `json:"profile"`
	Shop        *models.Shop              `json:"shop"`
	Permissions permissions.UIPermissions `json:"permissions"`
}

func NewAuthService(db *gorm.DB, cfg *config.Config, recorder *Recorder) *AuthService {
	return &AuthService{
		db:       db,
		cfg:      cfg,
		recorder: recorder,
	}
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(req.Email)).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := profile.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	profile.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(&profile).UpdateColumn("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	resp, err := s.issueTokens(ctx, &profile)
	if err != nil {
		return nil, err
	}

	s.recorder.Audit(ctx, actorOf(&profile), models.ActionLogin, models.JSONB{"email": profile.Email})
	return resp, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	userID, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	profile, err := s.findProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return s.issueTokens(ctx, profile)
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileResponse, error) {
	profile, err := s.findProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	shop, err := s.findShop(ctx, profile.ShopID)
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{
		Profile:     profile,
		Shop:        shop,
		Permissions: permissions.ForRole(profile.Role),
	}, nil
}

// CreateProfile adds a login to the manager's own shop.
func (s *AuthService) CreateProfile(ctx context.Context, actor permissions.Actor, req *CreateProfileRequest) (*models.Profile, error) {
	if !actor.IsManager() {
		return nil, ErrManagerOnly
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	profile := &models.Profile{
		ShopID:   actor.ShopID,
		Email:    normalizeEmail(req.Email),
		FullName: strings.TrimSpace(req.FullName),
		Role:     strings.TrimSpace(req.Role),
	}
	if err := profile.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

func (s *AuthService) ListProfiles(ctx context.Context, actor permissions.Actor) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := s.db.WithContext(ctx).
		Where("shop_id = ?", actor.ShopID).
		Order("email ASC").
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return profiles, nil
}

func (s *AuthService) issueTokens(ctx context.Context, profile *models.Profile) (*AuthResponse, error) {
	shop, err := s.findShop(ctx, profile.ShopID)
	if err != nil {
		return nil, err
	}

	accessToken, err := utils.GenerateJWT(profile.ID, profile.ShopID, profile.Email, profile.Role, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(profile.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		Profile:      profile,
		Shop:         shop,
		Permissions:  permissions.ForRole(profile.Role),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}

func (s *AuthService) findProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &profile, nil
}

func (s *AuthService) findShop(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	if err := s.db.WithContext(ctx).First(&shop, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &shop, nil
}

func actorOf(p *models.Profile) permissions.Actor {
	return permissions.Actor{UserID: p.ID, ShopID: p.ShopID, Role: p.Role}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
