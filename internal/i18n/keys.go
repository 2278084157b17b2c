// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess           = "success"
	KeyInternalError     = "error.internal"
	KeyValidationInvalid = "validation.invalid"
	KeyRateLimited       = "error.rate_limited"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthManagerOnly        = "auth.manager_only"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyProfileNotFound        = "profile.not_found"
	KeyProfileEmailTaken      = "profile.email_taken"
	KeyProfileCreated         = "profile.created"
	KeyShopNotFound           = "shop.not_found"
	KeyShopUpdated            = "shop.updated"

	// Products
	KeyProductNotFound       = "product.not_found"
	KeyProductCreated        = "product.created"
	KeyProductUpdated        = "product.updated"
	KeyProductDeleted        = "product.deleted"
	KeyProductStockMerged    = "product.stock_merged"
	KeyProductForbiddenField = "product.forbidden_field"
	KeyProductInvalidPLU     = "product.invalid_plu"
	KeyProductInRecipe       = "product.in_recipe"

	// Scanning and carts
	KeyScanUnresolved    = "scan.unresolved"
	KeyCartEmpty         = "cart.empty"
	KeyCartLineNotFound  = "cart.line_not_found"
	KeyCartNotAdjustable = "cart.not_adjustable"
	KeyCartWrongKind     = "cart.wrong_kind"
	KeyCartCleared       = "cart.cleared"
	KeyQuantityInvalid   = "quantity.invalid"
	KeyPriceInvalid      = "price.invalid"

	// Stock
	KeyStockInsufficient = "stock.insufficient"
	KeyStockInConfirmed  = "stock.in_confirmed"
	KeyWastageRecorded   = "wastage.recorded"
	KeyReturnRecorded    = "return.recorded"
	KeySaleCompleted     = "sale.completed"

	// Butchering
	KeyRecipeNotFound      = "recipe.not_found"
	KeyRecipeInvalid       = "recipe.invalid"
	KeyRecipeSaved         = "recipe.saved"
	KeyRecipeDeleted       = "recipe.deleted"
	KeyRecipeMismatch      = "recipe.mismatch"
	KeyButcheringExecuted  = "butchering.executed"
	KeyButcheringNoSource  = "butchering.source_not_found"
	KeyButcheringNoRecipes = "butchering.no_recipes"

	// Debts
	KeyDebtPersonNotFound = "debt.person_not_found"
	KeyDebtRecorded       = "debt.recorded"
	KeyDebtPersonDeleted  = "debt.person_deleted"
	KeyDebtSaleConfirmed  = "debt.sale_confirmed"

	// Purchases
	KeySupplierNotFound = "supplier.not_found"
	KeySupplierSaved    = "supplier.saved"
	KeyInvoiceConfirmed = "invoice.confirmed"

	// Settings
	KeySettingsDuplicate     = "settings.duplicate"
	KeySettingsNotFound      = "settings.not_found"
	KeyReasonUnknown         = "wastage.reason_unknown"
	KeyChannelUnknown        = "sales_channel.unknown"
	KeyChannelDefaultLocked  = "sales_channel.default_locked"
	KeyNoteNotFound          = "note.not_found"
	KeyBackupDisabled        = "backup.disabled"
	KeyBackupInvalid         = "backup.invalid"
	KeyBackupImported        = "backup.imported"
	KeyBackupArchived        = "backup.archived"
	KeyBackupArchiveNotFound = "backup.not_found"
)
