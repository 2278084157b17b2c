// internal/handlers/admin.go
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/NEBULA-33/nebula-1/internal/i18n"
	"github.com/NEBULA-33/nebula-1/internal/services"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

const maxBackupSize = 64 << 20

type AdminHandler struct {
	adminService  *services.AdminService
	backupService *services.BackupService
}

func NewAdminHandler(adminService *services.AdminService, backupService *services.BackupService) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		backupService: backupService,
	}
}

// GET /admin/export
func (h *AdminHandler) Export(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	data, err := h.backupService.Export(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("backup_%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// POST /admin/import
//
// Takes either a raw JSON body or a multipart upload in the "file" field.
func (h *AdminHandler) Import(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	lang := utils.GetLangFromContext(c)

	raw, err := readBackupBody(c)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyBackupInvalid), err.Error())
		return
	}
	data, err := services.ParseBackup(raw)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.backupService.Import(c.Request.Context(), actor, data)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBackupImported),
		"result":  result,
	})
}

func readBackupBody(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, err
		}
		if header.Size > maxBackupSize {
			return nil, fmt.Errorf("file larger than %d bytes", maxBackupSize)
		}
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBackupSize))
}

// POST /admin/backups
func (h *AdminHandler) Archive(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	archive, err := h.backupService.ArchiveToS3(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyBackupArchived),
		"archive": archive,
	})
}

// GET /admin/backups
func (h *AdminHandler) ListArchives(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	archives, err := h.backupService.ListArchives(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, archives)
}

// POST /admin/backups/restore
func (h *AdminHandler) RestoreArchive(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req struct {
		Key string `json:"key" validate:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.backupService.RestoreFromS3(c.Request.Context(), actor, req.Key)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyBackupImported),
		"result":  result,
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	filter := services.AuditLogFilter{
		PaginationParams: params,
		ActionType:       c.Query("action_type"),
	}
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		if userID, err := uuid.Parse(userIDStr); err == nil {
			filter.UserID = &userID
		}
	}

	logs, total, err := h.adminService.GetAuditLogs(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, params))
}

// GET /admin/shops
func (h *AdminHandler) ListShops(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	shops, err := h.adminService.ListShops(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, shops)
}

// PUT /admin/shop
func (h *AdminHandler) RenameShop(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.ShopUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	shop, err := h.adminService.RenameShop(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyShopUpdated),
		"shop":    shop,
	})
}
