package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	utils.SetJWTSecret(env.cfg.JWT.SecretKey)

	_, err := env.auth.Login(env.ctx, &LoginRequest{Email: "kasiyer@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login(env.ctx, &LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := env.auth.Login(env.ctx, &LoginRequest{Email: "Kasiyer@Example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, env.shop.ID, resp.Shop.ID)
	assert.False(t, resp.Permissions.CanEditPrices)
	assert.Equal(t, 3600, resp.ExpiresIn)

	claims, err := utils.ValidateJWT(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, env.cashier.UserID.String(), claims.UserID)
	assert.Equal(t, env.shop.ID.String(), claims.ShopID)

	refreshed, err := env.auth.RefreshToken(env.ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	_, err = env.auth.RefreshToken(env.ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "access tokens cannot refresh")

	assert.Contains(t, env.auditActions(t), models.ActionLogin)
}

func TestCreateProfile(t *testing.T) {
	env := newTestEnv(t)

	req := &CreateProfileRequest{Email: "yeni@example.com", Password: "password123", Role: "cashier"}
	_, err := env.auth.CreateProfile(env.ctx, env.cashier, req)
	assert.ErrorIs(t, err, ErrManagerOnly)

	profile, err := env.auth.CreateProfile(env.ctx, env.manager, req)
	require.NoError(t, err)
	assert.Equal(t, env.shop.ID, profile.ShopID)

	_, err = env.auth.CreateProfile(env.ctx, env.manager, req)
	assert.ErrorIs(t, err, ErrEmailTaken)

	profiles, err := env.auth.ListProfiles(env.ctx, env.manager)
	require.NoError(t, err)
	assert.Len(t, profiles, 3)

	view, err := env.auth.GetProfile(env.ctx, env.manager.UserID)
	require.NoError(t, err)
	assert.True(t, view.Permissions.CanEditPrices)
}

func TestAdminService(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(t, "Ekmek", nil)
	_, err := env.stock.RecordWastage(env.ctx, env.cashier, &WastageRequest{ProductID: p.ID, Quantity: dec("1"), Reason: "Bozulma"})
	require.NoError(t, err)

	_, _, err = env.admin.GetAuditLogs(env.ctx, env.cashier, AuditLogFilter{})
	assert.ErrorIs(t, err, ErrManagerOnly)

	logs, total, err := env.admin.GetAuditLogs(env.ctx, env.manager, AuditLogFilter{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 10, Sort: "created_at", Order: "desc"},
		ActionType:       "wastage",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, models.ActionWastage, logs[0].ActionType)

	shop, err := env.admin.RenameShop(env.ctx, env.manager, &ShopUpdateRequest{Name: "Kasap Ali Şube 2"})
	require.NoError(t, err)
	assert.Equal(t, "Kasap Ali Şube 2", shop.Name)
}
