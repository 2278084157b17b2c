// Package permissions decides what a profile role may see and change.
package permissions

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	TabReports  = "reports"
	TabSettings = "settings"
)

var (
	fold        = cases.Fold()
	turkishLow  = cases.Lower(language.Turkish)
	managerName = fold.String("manager")
	managerTR   = "yönetici"
)

// IsManager reports whether role names a manager. Matching ignores case and
// surrounding space, and lowers "YÖNETİCİ" with Turkish rules so the dotted
// capital I maps to a plain i.
func IsManager(role string) bool {
	role = strings.TrimSpace(role)
	if role == "" {
		return false
	}
	if fold.String(role) == managerName {
		return true
	}
	return turkishLow.String(role) == managerTR || fold.String(role) == fold.String(managerTR)
}

// Actor is the authenticated profile a request runs as.
type Actor struct {
	UserID uuid.UUID
	ShopID uuid.UUID
	Role   string
}

func (a Actor) IsManager() bool {
	return IsManager(a.Role)
}

// UIPermissions is sent to the browser so it can hide controls. The server
// enforces the same rules on every request.
type UIPermissions struct {
	Role              string   `json:"role"`
	IsManager         bool     `json:"is_manager"`
	ShowManagerOnly   bool     `json:"show_manager_only"`
	HiddenTabs        []string `json:"hidden_tabs"`
	CanEditPrices     bool     `json:"can_edit_prices"`
	CanEditStock      bool     `json:"can_edit_stock"`
	CanDeleteProducts bool     `json:"can_delete_products"`
	CanManageRecipes  bool     `json:"can_manage_recipes"`
	CanExportImport   bool     `json:"can_export_import"`
}

func ForRole(role string) UIPermissions {
	manager := IsManager(role)
	p := UIPermissions{
		Role:              role,
		IsManager:         manager,
		ShowManagerOnly:   manager,
		HiddenTabs:        []string{},
		CanEditPrices:     manager,
		CanEditStock:      manager,
		CanDeleteProducts: manager,
		CanManageRecipes:  manager,
		CanExportImport:   manager,
	}
	if !manager {
		p.HiddenTabs = []string{TabReports, TabSettings}
	}
	return p
}
