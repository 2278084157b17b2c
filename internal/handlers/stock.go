// internal/handlers/stock.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/NEBULA-33/nebula-1/internal/i18n"
	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/services"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

type StockHandler struct {
	stockService *services.StockService
}

func NewStockHandler(stockService *services.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// POST /stock/in/confirm
func (h *StockHandler) ConfirmStockIn(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	result, err := h.stockService.ConfirmStockIn(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyStockInConfirmed),
		"result":  result,
	})
}

// POST /stock/wastage
func (h *StockHandler) RecordWastage(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.WastageRequest
	if !bindJSON(c, &req) {
		return
	}

	movement, err := h.stockService.RecordWastage(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(utils.GetLangFromContext(c), i18n.KeyWastageRecorded),
		"movement": movement,
	})
}

// POST /stock/returns
func (h *StockHandler) RecordReturn(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.ReturnRequest
	if !bindJSON(c, &req) {
		return
	}

	movement, err := h.stockService.RecordReturn(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(utils.GetLangFromContext(c), i18n.KeyReturnRecorded),
		"movement": movement,
	})
}

// GET /stock/history/:kind
func (h *StockHandler) History(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	rows, total, err := h.stockService.History(c.Request.Context(), actor.ShopID, models.HistoryKind(c.Param("kind")), params)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(rows, total, params))
}
