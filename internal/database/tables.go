package database

import "github.com/NEBULA-33/nebula-1/internal/models"

type Table struct {
	Name  string
	Model interface{}
	// Global tables are shared by every shop and have no shop_id column.
	Global bool
	// ScopeColumn holds the owning shop's id: shop_id, or id for the shops
	// table itself. Empty for global tables.
	ScopeColumn string
	// Secret columns are never exported.
	Secret []string
	// Identity tables are exported for reference but never replaced by an
	// import. Accounts and the shop row have their own endpoints.
	Identity bool
}

const shopScope = "shop_id"

// Tables lists every table parents first. Imports insert in this order and
// clear in the reverse.
var Tables = []Table{
	{Name: "shops", Model: &models.Shop{}, ScopeColumn: "id", Identity: true},
	{Name: "profiles", Model: &models.Profile{}, ScopeColumn: shopScope, Secret: []string{"password_hash"}, Identity: true},
	{Name: "products", Model: &models.Product{}, ScopeColumn: shopScope},
	{Name: "sales_channels", Model: &models.SalesChannel{}, Global: true},
	{Name: "wastage_reasons", Model: &models.WastageReason{}, Global: true},
	{Name: "butchering_recipes", Model: &models.ButcheringRecipe{}, ScopeColumn: shopScope},
	{Name: "debt_persons", Model: &models.DebtPerson{}, ScopeColumn: shopScope},
	{Name: "suppliers", Model: &models.Supplier{}, ScopeColumn: shopScope},
	{Name: "purchase_invoices", Model: &models.PurchaseInvoice{}, ScopeColumn: shopScope},
	{Name: "purchase_invoice_items", Model: &models.PurchaseInvoiceItem{}, ScopeColumn: shopScope},
	{Name: "personal_notes", Model: &models.PersonalNote{}, ScopeColumn: shopScope},
	{Name: "sales", Model: &models.Sale{}, ScopeColumn: shopScope},
	{Name: "debt_transactions", Model: &models.DebtTransaction{}, ScopeColumn: shopScope},
	{Name: "audit_log", Model: &models.AuditLog{}, ScopeColumn: shopScope},
	{Name: "stock_in_history", Model: &models.StockInHistory{}, ScopeColumn: shopScope},
	{Name: "wastage_history", Model: &models.WastageHistory{}, ScopeColumn: shopScope},
	{Name: "return_history", Model: &models.ReturnHistory{}, ScopeColumn: shopScope},
	{Name: "butchering_history", Model: &models.ButcheringHistory{}, ScopeColumn: shopScope},
}

func (t Table) IsSecret(column string) bool {
	for _, c := range t.Secret {
		if c == column {
			return true
		}
	}
	return false
}

func TableNames() []string {
	names := make([]string, len(Tables))
	for i, t := range Tables {
		names[i] = t.Name
	}
	return names
}

func LookupTable(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
