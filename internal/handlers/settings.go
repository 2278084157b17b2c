// internal/handlers/settings.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/NEBULA-33/nebula-1/internal/services"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

// SettingsHandler serves the shared lookup lists and the personal notes.
type SettingsHandler struct {
	settingsService *services.SettingsService
	noteService     *services.NoteService
}

func NewSettingsHandler(settingsService *services.SettingsService, noteService *services.NoteService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		noteService:     noteService,
	}
}

// GET /settings/wastage-reasons
func (h *SettingsHandler) ListWastageReasons(c *gin.Context) {
	reasons, err := h.settingsService.ListWastageReasons(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, reasons)
}

// POST /settings/wastage-reasons
func (h *SettingsHandler) AddWastageReason(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.SettingRequest
	if !bindJSON(c, &req) {
		return
	}

	reason, err := h.settingsService.AddWastageReason(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, reason)
}

// DELETE /settings/wastage-reasons/:id
func (h *SettingsHandler) DeleteWastageReason(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.settingsService.DeleteWastageReason(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"deleted": id})
}

// GET /settings/sales-channels
func (h *SettingsHandler) ListSalesChannels(c *gin.Context) {
	channels, err := h.settingsService.ListSalesChannels(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, channels)
}

// POST /settings/sales-channels
func (h *SettingsHandler) AddSalesChannel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.SettingRequest
	if !bindJSON(c, &req) {
		return
	}

	channel, err := h.settingsService.AddSalesChannel(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, channel)
}

// DELETE /settings/sales-channels/:id
func (h *SettingsHandler) DeleteSalesChannel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.settingsService.DeleteSalesChannel(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"deleted": id})
}

// GET /notes
func (h *SettingsHandler) ListNotes(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	notes, err := h.noteService.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, notes)
}

// POST /notes
func (h *SettingsHandler) CreateNote(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.NoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := h.noteService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, note)
}

// DELETE /notes/:id
func (h *SettingsHandler) DeleteNote(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.noteService.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"deleted": id})
}
