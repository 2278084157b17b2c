// internal/handlers/debt.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/NEBULA-33/nebula-1/internal/i18n"
	"github.com/NEBULA-33/nebula-1/internal/services"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

type DebtHandler struct {
	debtService *services.DebtService
}

func NewDebtHandler(debtService *services.DebtService) *DebtHandler {
	return &DebtHandler{debtService: debtService}
}

// GET /debts/persons?search=
func (h *DebtHandler) ListPersons(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	persons, err := h.debtService.ListPersons(c.Request.Context(), actor.ShopID, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, persons)
}

// GET /debts/persons/:id
func (h *DebtHandler) GetPerson(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	person, err := h.debtService.GetPerson(c.Request.Context(), actor.ShopID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, person)
}

// POST /debts/transactions
func (h *DebtHandler) RecordTransaction(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.DebtTransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	person, err := h.debtService.RecordTransaction(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyDebtRecorded),
		"person":  person,
	})
}

// DELETE /debts/persons/:id
func (h *DebtHandler) DeletePerson(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.debtService.DeletePerson(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyDebtPersonDeleted),
	})
}

// POST /debts/sale/confirm
func (h *DebtHandler) ConfirmSale(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.DebtSaleRequest
	if !bindJSON(c, &req) {
		return
	}

	person, err := h.debtService.ConfirmDebtSale(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyDebtSaleConfirmed),
		"person":  person,
	})
}
