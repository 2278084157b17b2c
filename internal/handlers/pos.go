// internal/handlers/pos.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/NEBULA-33/nebula-1/internal/cart"
	"github.com/NEBULA-33/nebula-1/internal/i18n"
	"github.com/NEBULA-33/nebula-1/internal/services"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

// POSHandler serves the till: the four scan carts and sale completion.
type POSHandler struct {
	cartService  *services.CartService
	salesService *services.SalesService
}

func NewPOSHandler(cartService *services.CartService, salesService *services.SalesService) *POSHandler {
	return &POSHandler{
		cartService:  cartService,
		salesService: salesService,
	}
}

func cartKind(c *gin.Context) (cart.Kind, bool) {
	kind, ok := cart.ParseKind(c.Param("kind"))
	if !ok {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "cart"), nil)
		return "", false
	}
	return kind, true
}

// GET /cart/:kind?paid=
func (h *POSHandler) GetCart(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	kind, ok := cartKind(c)
	if !ok {
		return
	}

	var paid *decimal.Decimal
	if raw := c.Query("paid"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "paid"), err.Error())
			return
		}
		paid = &amount
	}

	view, err := h.cartService.GetCart(c.Request.Context(), actor, kind, paid)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, view)
}

// POST /cart/:kind/scan
func (h *POSHandler) Scan(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	kind, ok := cartKind(c)
	if !ok {
		return
	}

	var req services.ScanRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.cartService.Scan(c.Request.Context(), actor, kind, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, result)
}

// POST /cart/:kind/items
func (h *POSHandler) AddItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	kind, ok := cartKind(c)
	if !ok {
		return
	}

	var req services.AddItemRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.cartService.AddProduct(c.Request.Context(), actor, kind, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, result)
}

// PATCH /cart/:kind/items/:line_id
func (h *POSHandler) UpdateItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	kind, ok := cartKind(c)
	if !ok {
		return
	}
	lineID, ok := uuidParam(c, "line_id")
	if !ok {
		return
	}

	var req services.AdjustItemRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.cartService.UpdateLine(c.Request.Context(), actor, kind, lineID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, view)
}

// DELETE /cart/:kind/items/:line_id
func (h *POSHandler) RemoveItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	kind, ok := cartKind(c)
	if !ok {
		return
	}
	lineID, ok := uuidParam(c, "line_id")
	if !ok {
		return
	}

	view, err := h.cartService.RemoveLine(c.Request.Context(), actor, kind, lineID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, view)
}

// DELETE /cart/:kind
func (h *POSHandler) ClearCart(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	kind, ok := cartKind(c)
	if !ok {
		return
	}

	if err := h.cartService.Clear(c.Request.Context(), actor, kind); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyCartCleared),
	})
}

// POST /sales/complete
func (h *POSHandler) CompleteSale(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CompleteSaleRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	receipt, err := h.salesService.CompleteSale(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeySaleCompleted),
		"receipt": receipt,
	})
}
