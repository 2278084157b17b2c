// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/NEBULA-33/nebula-1/internal/i18n"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
	"github.com/NEBULA-33/nebula-1/internal/services"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":       i18n.T(lang, i18n.KeyAuthLoginSuccess),
		"profile":       authResponse.Profile,
		"shop":          authResponse.Shop,
		"permissions":   authResponse.Permissions,
		"token":         authResponse.AccessToken,
		"refresh_token": authResponse.RefreshToken,
		"token_type":    authResponse.TokenType,
		"expires_in":    authResponse.ExpiresIn,
	})
}

// POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req services.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	authResponse, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.UnauthorizedResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthInvalidToken))
		return
	}

	utils.SuccessResponse(c, gin.H{
		"profile":       authResponse.Profile,
		"shop":          authResponse.Shop,
		"permissions":   authResponse.Permissions,
		"token":         authResponse.AccessToken,
		"refresh_token": authResponse.RefreshToken,
		"token_type":    authResponse.TokenType,
		"expires_in":    authResponse.ExpiresIn,
	})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	profile, err := h.authService.GetProfile(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, profile)
}

// GET /auth/permissions
func (h *AuthHandler) Permissions(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	utils.SuccessResponse(c, permissions.ForRole(actor.Role))
}

// GET /admin/profiles
func (h *AuthHandler) ListProfiles(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	profiles, err := h.authService.ListProfiles(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, profiles)
}

// POST /admin/profiles
func (h *AuthHandler) CreateProfile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.authService.CreateProfile(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProfileCreated),
		"profile": profile,
	})
}
