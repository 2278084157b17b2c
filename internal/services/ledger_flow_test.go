package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NEBULA-33/nebula-1/internal/cart"
	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

func TestButcheringExecute(t *testing.T) {
	env := newTestEnv(t)
	carcass := env.addProduct(t, "Dana Karkas", func(p *models.Product) {
		p.IsWeighable = true
		p.PLUCodes = models.PLUCodes{{PLU: "50000"}}
		p.PurchasePrice = dec("200")
		p.Stock = dec("100")
	})
	mince := env.addProduct(t, "Kıyma", func(p *models.Product) { p.Stock = dec("0"); p.SellingPrice = dec("400") })
	steak := env.addProduct(t, "Biftek", func(p *models.Product) { p.Stock = dec("1"); p.SellingPrice = dec("600") })

	recipeReq := &RecipeRequest{
		Name:            "Karkas Parçalama",
		SourceProductID: carcass.ID,
		Outputs: models.RecipeOutputs{
			{ProductID: mince.ID, Percentage: dec("60")},
			{ProductID: steak.ID, Percentage: dec("25")},
		},
	}
	_, err := env.butchering.CreateRecipe(env.ctx, env.cashier, recipeReq)
	assert.ErrorIs(t, err, ErrManagerOnly)
	recipe, err := env.butchering.CreateRecipe(env.ctx, env.manager, recipeReq)
	require.NoError(t, err)

	preview, err := env.butchering.Preview(env.ctx, env.shop.ID, "2850000200000")
	require.NoError(t, err)
	assert.Equal(t, carcass.ID, preview.Source.ID)
	assert.True(t, preview.SuggestedQuantity.Equal(dec("20")))
	require.Len(t, preview.Recipes, 1)

	result, err := env.butchering.Execute(env.ctx, env.cashier, &ButcheringRequest{
		Code:     "2850000200000",
		RecipeID: recipe.ID,
		Quantity: dec("20"),
	})
	require.NoError(t, err)
	assert.True(t, result.History.SourceProductCost.Equal(dec("4000")))
	// 12 kg mince at 400 and 5 kg steak at 600.
	assert.True(t, result.Revenue.Equal(dec("7800")), "revenue %s", result.Revenue)

	assert.True(t, env.stockOf(t, carcass.ID).Equal(dec("80")))
	assert.True(t, env.stockOf(t, mince.ID).Equal(dec("12")))
	assert.True(t, env.stockOf(t, steak.ID).Equal(dec("6")))
	assert.EqualValues(t, 1, env.count(t, &models.ButcheringHistory{}))

	_, err = env.butchering.Execute(env.ctx, env.cashier, &ButcheringRequest{
		Code:     "2850000200000",
		RecipeID: recipe.ID,
		Quantity: dec("81"),
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, env.stockOf(t, carcass.ID).Equal(dec("80")))
}

func TestDeletingProductsKeepsRecipesWhole(t *testing.T) {
	env := newTestEnv(t)
	lamb := env.addProduct(t, "Kuzu", func(p *models.Product) { p.Barcode = "2000000000024"; p.Stock = dec("10") })
	chops := env.addProduct(t, "Pirzola", nil)
	shank := env.addProduct(t, "İncik", nil)

	recipe, err := env.butchering.CreateRecipe(env.ctx, env.manager, &RecipeRequest{
		Name:            "Kuzu",
		SourceProductID: lamb.ID,
		Outputs: models.RecipeOutputs{
			{ProductID: chops.ID, Percentage: dec("60")},
			{ProductID: shank.ID, Percentage: dec("40")},
		},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, env.products.DeleteProduct(env.ctx, env.manager, chops.ID), ErrProductInRecipe)
	_, err = env.products.GetProduct(env.ctx, env.shop.ID, chops.ID)
	require.NoError(t, err)

	// A recipe whose output vanished without the check cannot cut anything.
	require.NoError(t, env.db.Delete(&models.Product{}, "id = ?", shank.ID).Error)
	_, err = env.butchering.Execute(env.ctx, env.cashier, &ButcheringRequest{
		Code:     "2000000000024",
		RecipeID: recipe.ID,
		Quantity: dec("5"),
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.True(t, env.stockOf(t, lamb.ID).Equal(dec("10")))
	assert.True(t, env.stockOf(t, chops.ID).Equal(dec("10")))

	// Deleting the source takes its recipes with it.
	require.NoError(t, env.products.DeleteProduct(env.ctx, env.manager, lamb.ID))
	_, err = env.butchering.GetRecipe(env.ctx, env.shop.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
	require.NoError(t, env.products.DeleteProduct(env.ctx, env.manager, chops.ID))
}

func TestButcheringRecipeValidation(t *testing.T) {
	env := newTestEnv(t)
	source := env.addProduct(t, "Kuzu", nil)
	out := env.addProduct(t, "Pirzola", func(p *models.Product) { p.Barcode = "2000000000017" })
	other := env.addProduct(t, "Kol", nil)

	_, err := env.butchering.CreateRecipe(env.ctx, env.manager, &RecipeRequest{
		Name:            "Fazla",
		SourceProductID: source.ID,
		Outputs: models.RecipeOutputs{
			{ProductID: out.ID, Percentage: dec("70")},
			{ProductID: other.ID, Percentage: dec("40")},
		},
	})
	assert.ErrorIs(t, err, ErrValidation)

	recipe, err := env.butchering.CreateRecipe(env.ctx, env.manager, &RecipeRequest{
		Name:            "Kuzu",
		SourceProductID: source.ID,
		Outputs:         models.RecipeOutputs{{ProductID: out.ID, Percentage: dec("50")}},
	})
	require.NoError(t, err)

	// The recipe starts from Kuzu, so scanning Pirzola cannot use it.
	_, err = env.butchering.Execute(env.ctx, env.cashier, &ButcheringRequest{
		Code:     "2000000000017",
		RecipeID: recipe.ID,
		Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.butchering.Execute(env.ctx, env.cashier, &ButcheringRequest{
		Code:     "4000000000000",
		RecipeID: recipe.ID,
		Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, ErrCodeUnresolved)

	require.NoError(t, env.butchering.DeleteRecipe(env.ctx, env.manager, recipe.ID))
	_, err = env.butchering.GetRecipe(env.ctx, env.shop.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestDebtLedger(t *testing.T) {
	env := newTestEnv(t)

	person, err := env.debts.RecordTransaction(env.ctx, env.cashier, &DebtTransactionRequest{
		PersonName:  "Ahmet Yılmaz",
		Phone:       "05551112233",
		Amount:      dec("150"),
		Description: "Eski borç",
	})
	require.NoError(t, err)
	assert.True(t, person.Balance.Equal(dec("150")))

	person, err = env.debts.RecordTransaction(env.ctx, env.cashier, &DebtTransactionRequest{
		PersonID:    &person.ID,
		PersonName:  "Ahmet Yılmaz",
		Amount:      dec("-100"),
		Description: "Ödeme",
	})
	require.NoError(t, err)
	assert.True(t, person.Balance.Equal(dec("50")))
	assert.Len(t, person.Transactions, 2)

	_, err = env.debts.RecordTransaction(env.ctx, env.cashier, &DebtTransactionRequest{
		PersonName:  "Sıfır",
		Amount:      dec("0"),
		Description: "Geçersiz",
	})
	assert.ErrorIs(t, err, ErrValidation)

	persons, err := env.debts.ListPersons(env.ctx, env.shop.ID, "ahmet")
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.True(t, persons[0].Balance.Equal(dec("50")))

	require.NoError(t, env.debts.DeletePerson(env.ctx, env.cashier, person.ID))
	assert.EqualValues(t, 0, env.count(t, &models.DebtTransaction{}))
	_, err = env.debts.GetPerson(env.ctx, env.shop.ID, person.ID)
	assert.ErrorIs(t, err, ErrPersonNotFound)
}

func TestConfirmDebtSale(t *testing.T) {
	env := newTestEnv(t)
	bread := env.addProduct(t, "Ekmek", func(p *models.Product) { p.Barcode = "8690000000002" })
	person, err := env.debts.RecordTransaction(env.ctx, env.cashier, &DebtTransactionRequest{
		PersonName:  "Ayşe",
		Amount:      dec("10"),
		Description: "Açılış",
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := env.carts.Scan(env.ctx, env.cashier, cart.KindDebtSale, &ScanRequest{Code: "8690000000002"})
		require.NoError(t, err)
	}

	updated, err := env.debts.ConfirmDebtSale(env.ctx, env.cashier, &DebtSaleRequest{PersonID: person.ID})
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(dec("40")))
	assert.Equal(t, "Alışveriş: Ekmek", updated.Transactions[0].Description)
	assert.True(t, env.stockOf(t, bread.ID).Equal(dec("7")))
	assert.EqualValues(t, 0, env.count(t, &models.Sale{}), "credit sales do not write sales rows")

	_, err = env.debts.ConfirmDebtSale(env.ctx, env.cashier, &DebtSaleRequest{PersonID: person.ID})
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestPurchaseInvoice(t *testing.T) {
	env := newTestEnv(t)
	cola := env.addProduct(t, "Kola", func(p *models.Product) { p.Barcode = "8690000000001" })

	supplier, err := env.purchases.CreateSupplier(env.ctx, env.cashier, &SupplierRequest{Name: "Toptancı Mehmet"})
	require.NoError(t, err)

	last, err := env.purchases.LastPurchasePrice(env.ctx, env.shop.ID, cola.ID)
	require.NoError(t, err)
	assert.False(t, last.FromInvoice)
	assert.True(t, last.PurchasePrice.Equal(dec("5")))

	res, err := env.carts.AddProduct(env.ctx, env.cashier, cart.KindPurchase, &AddItemRequest{ProductID: cola.ID, Quantity: dec("24")})
	require.NoError(t, err)
	_, err = env.carts.UpdateLine(env.ctx, env.cashier, cart.KindPurchase, res.Line.ID, &AdjustItemRequest{PurchasePrice: decPtr("4.25")})
	require.NoError(t, err)

	_, err = env.purchases.ConfirmInvoice(env.ctx, env.cashier, &ConfirmInvoiceRequest{SupplierID: supplier.ID, InvoiceDate: "dün"})
	assert.ErrorIs(t, err, ErrValidation)

	invoice, err := env.purchases.ConfirmInvoice(env.ctx, env.cashier, &ConfirmInvoiceRequest{
		SupplierID:  supplier.ID,
		InvoiceDate: time.Now().Format("2006-01-02"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
	assert.True(t, invoice.TotalAmount.Equal(dec("102")))
	require.Len(t, invoice.Items, 1)

	assert.True(t, env.stockOf(t, cola.ID).Equal(dec("34")))
	product, err := env.products.GetProduct(env.ctx, env.shop.ID, cola.ID)
	require.NoError(t, err)
	assert.True(t, product.PurchasePrice.Equal(dec("4.25")))

	last, err = env.purchases.LastPurchasePrice(env.ctx, env.shop.ID, cola.ID)
	require.NoError(t, err)
	assert.True(t, last.FromInvoice)
	assert.True(t, last.PurchasePrice.Equal(dec("4.25")))

	invoices, total, err := env.purchases.ListInvoices(env.ctx, env.shop.ID, utils.PaginationParams{Page: 1, Limit: 10, Sort: "invoice_date", Order: "desc"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, invoices[0].Items, 1)

	assert.ErrorIs(t, env.purchases.DeleteSupplier(env.ctx, env.manager, supplier.ID), ErrValidation)
}

func TestSettingsAndNotes(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.settings.AddWastageReason(env.ctx, env.cashier, &SettingRequest{Name: "Fare"})
	assert.ErrorIs(t, err, ErrManagerOnly)
	_, err = env.settings.AddWastageReason(env.ctx, env.manager, &SettingRequest{Name: "Bozulma"})
	assert.ErrorIs(t, err, ErrDuplicateSetting)

	channels, err := env.settings.ListSalesChannels(env.ctx)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.ErrorIs(t, env.settings.DeleteSalesChannel(env.ctx, env.manager, channels[0].ID), ErrDefaultChannelLocked)

	note, err := env.notes.Create(env.ctx, env.cashier, &NoteRequest{Content: "  Yarın kuzu gelecek  "})
	require.NoError(t, err)
	assert.Equal(t, "Yarın kuzu gelecek", note.Content)

	others, err := env.notes.List(env.ctx, env.manager)
	require.NoError(t, err)
	assert.Empty(t, others, "notes are private")
	assert.ErrorIs(t, env.notes.Delete(env.ctx, env.manager, note.ID), ErrNoteNotFound)
	require.NoError(t, env.notes.Delete(env.ctx, env.cashier, note.ID))
}
