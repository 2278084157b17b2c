// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/NEBULA-33/nebula-1/internal/cart"
	"github.com/NEBULA-33/nebula-1/internal/i18n"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
	"github.com/NEBULA-33/nebula-1/internal/services"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

type errorMapping struct {
	err    error
	status int
	code   string
	key    string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", i18n.KeyAuthInvalidCredentials},
	{services.ErrManagerOnly, http.StatusForbidden, "MANAGER_ONLY", i18n.KeyAuthManagerOnly},
	{services.ErrForbiddenField, http.StatusForbidden, "FORBIDDEN_FIELD", i18n.KeyProductForbiddenField},

	{services.ErrProfileNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyProfileNotFound},
	{services.ErrProductNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyProductNotFound},
	{services.ErrRecipeNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyRecipeNotFound},
	{services.ErrPersonNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyDebtPersonNotFound},
	{services.ErrSupplierNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeySupplierNotFound},
	{services.ErrNoteNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyNoteNotFound},
	{services.ErrShopNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyShopNotFound},
	{services.ErrSettingNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeySettingsNotFound},
	{services.ErrBackupArchiveNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyBackupArchiveNotFound},
	{cart.ErrLineNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyCartLineNotFound},
	{services.ErrCodeUnresolved, http.StatusNotFound, "UNRESOLVED", i18n.KeyScanUnresolved},

	{services.ErrEmailTaken, http.StatusConflict, "CONFLICT", i18n.KeyProfileEmailTaken},
	{services.ErrDuplicateSetting, http.StatusConflict, "CONFLICT", i18n.KeySettingsDuplicate},
	{services.ErrDefaultChannelLocked, http.StatusConflict, "CONFLICT", i18n.KeyChannelDefaultLocked},
	{services.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK", i18n.KeyStockInsufficient},
	{services.ErrProductInRecipe, http.StatusConflict, "PRODUCT_IN_RECIPE", i18n.KeyProductInRecipe},

	{services.ErrInvalidPLU, http.StatusBadRequest, "INVALID_PLU", i18n.KeyProductInvalidPLU},
	{services.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY", i18n.KeyQuantityInvalid},
	{services.ErrCartEmpty, http.StatusBadRequest, "CART_EMPTY", i18n.KeyCartEmpty},
	{services.ErrWrongCartKind, http.StatusBadRequest, "WRONG_CART", i18n.KeyCartWrongKind},
	{services.ErrUnknownReason, http.StatusBadRequest, "UNKNOWN_REASON", i18n.KeyReasonUnknown},
	{services.ErrUnknownChannel, http.StatusBadRequest, "UNKNOWN_CHANNEL", i18n.KeyChannelUnknown},
	{services.ErrInvalidBackup, http.StatusBadRequest, "INVALID_BACKUP", i18n.KeyBackupInvalid},
	{services.ErrBackupDisabled, http.StatusServiceUnavailable, "BACKUP_DISABLED", i18n.KeyBackupDisabled},
}

// respondError turns a service error into the matching API error. Unknown
// errors are logged and reported as 500 without their text.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			utils.ErrorResponse(c, m.status, m.code, i18n.T(lang, m.key), err.Error())
			return
		}
	}

	if errors.Is(err, services.ErrValidation) {
		if fields := utils.GetValidationErrors(err); len(fields) > 0 {
			utils.ValidationErrorResponse(c, fields)
			return
		}
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"path":       c.Request.URL.Path,
		"request_id": c.GetString("request_id"),
	}).Error("Request failed")
	utils.InternalErrorResponse(c, "")
}

// bindJSON decodes the body and answers 400 itself when it cannot.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

// requireActor answers 401 when the auth middleware did not run.
func requireActor(c *gin.Context) (permissions.Actor, bool) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return permissions.Actor{}, false
	}
	return actor, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, ok := utils.ParseUUIDParam(c, name)
	if !ok {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return uuid.Nil, false
	}
	return id, true
}
