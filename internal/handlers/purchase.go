// internal/handlers/purchase.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/NEBULA-33/nebula-1/internal/i18n"
	"github.com/NEBULA-33/nebula-1/internal/services"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

type PurchaseHandler struct {
	purchaseService *services.PurchaseService
}

func NewPurchaseHandler(purchaseService *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// GET /purchases/suppliers
func (h *PurchaseHandler) ListSuppliers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	suppliers, err := h.purchaseService.ListSuppliers(c.Request.Context(), actor.ShopID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, suppliers)
}

// POST /purchases/suppliers
func (h *PurchaseHandler) CreateSupplier(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.SupplierRequest
	if !bindJSON(c, &req) {
		return
	}

	supplier, err := h.purchaseService.CreateSupplier(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(utils.GetLangFromContext(c), i18n.KeySupplierSaved),
		"supplier": supplier,
	})
}

// PUT /purchases/suppliers/:id
func (h *PurchaseHandler) UpdateSupplier(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.SupplierRequest
	if !bindJSON(c, &req) {
		return
	}

	supplier, err := h.purchaseService.UpdateSupplier(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(utils.GetLangFromContext(c), i18n.KeySupplierSaved),
		"supplier": supplier,
	})
}

// DELETE /purchases/suppliers/:id
func (h *PurchaseHandler) DeleteSupplier(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.purchaseService.DeleteSupplier(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"deleted": id})
}

// GET /purchases/last-price/:product_id
func (h *PurchaseHandler) LastPrice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}

	price, err := h.purchaseService.LastPurchasePrice(c.Request.Context(), actor.ShopID, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, price)
}

// GET /purchases/invoices
func (h *PurchaseHandler) ListInvoices(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	invoices, total, err := h.purchaseService.ListInvoices(c.Request.Context(), actor.ShopID, params)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(invoices, total, params))
}

// POST /purchases/invoices/confirm
func (h *PurchaseHandler) ConfirmInvoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.ConfirmInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.purchaseService.ConfirmInvoice(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyInvoiceConfirmed),
		"invoice": invoice,
	})
}
