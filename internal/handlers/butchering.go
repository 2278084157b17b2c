// internal/handlers/butchering.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/NEBULA-33/nebula-1/internal/i18n"
	"github.com/NEBULA-33/nebula-1/internal/services"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

type ButcheringHandler struct {
	butcheringService *services.ButcheringService
}

func NewButcheringHandler(butcheringService *services.ButcheringService) *ButcheringHandler {
	return &ButcheringHandler{butcheringService: butcheringService}
}

// GET /butchering/recipes?source_product_id=
func (h *ButcheringHandler) ListRecipes(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var source *uuid.UUID
	if raw := c.Query("source_product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "source_product_id"), nil)
			return
		}
		source = &id
	}

	recipes, err := h.butcheringService.ListRecipes(c.Request.Context(), actor.ShopID, source)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, recipes)
}

// GET /butchering/recipes/:id
func (h *ButcheringHandler) GetRecipe(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	recipe, err := h.butcheringService.GetRecipe(c.Request.Context(), actor.ShopID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, recipe)
}

// POST /butchering/recipes
func (h *ButcheringHandler) CreateRecipe(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.butcheringService.CreateRecipe(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyRecipeSaved),
		"recipe":  recipe,
	})
}

// PUT /butchering/recipes/:id
func (h *ButcheringHandler) UpdateRecipe(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.butcheringService.UpdateRecipe(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyRecipeSaved),
		"recipe":  recipe,
	})
}

// DELETE /butchering/recipes/:id
func (h *ButcheringHandler) DeleteRecipe(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.butcheringService.DeleteRecipe(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyRecipeDeleted),
	})
}

// GET /butchering/preview?code=
func (h *ButcheringHandler) Preview(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	code := c.Query("code")
	if code == "" {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "code"), nil)
		return
	}

	preview, err := h.butcheringService.Preview(c.Request.Context(), actor.ShopID, code)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, preview)
}

// POST /butchering/execute
func (h *ButcheringHandler) Execute(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.ButcheringRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.butcheringService.Execute(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyButcheringExecuted),
		"result":  result,
	})
}
