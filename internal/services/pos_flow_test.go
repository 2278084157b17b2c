package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NEBULA-33/nebula-1/internal/cart"
	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

func TestScanRefusesMoreThanTheShelfHolds(t *testing.T) {
	env := newTestEnv(t)
	cola := env.addProduct(t, "Kola", func(p *models.Product) {
		p.Barcode = "8690000000001"
		p.PackagingOptions = models.PackagingOptions{{Barcode: "8690000000999", Quantity: dec("6")}}
		p.Stock = dec("8")
	})

	res, err := env.carts.Scan(env.ctx, env.cashier, cart.KindSale, &ScanRequest{Code: "8690000000999"})
	require.NoError(t, err)
	assert.True(t, res.Line.Quantity.Equal(dec("6")))

	res, err = env.carts.Scan(env.ctx, env.cashier, cart.KindSale, &ScanRequest{Code: "8690000000001"})
	require.NoError(t, err)
	assert.True(t, res.Cart.Summary.Total.Equal(dec("70")), "total %s", res.Cart.Summary.Total)

	_, err = env.carts.Scan(env.ctx, env.cashier, cart.KindSale, &ScanRequest{Code: "8690000000999"})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Stock-in carts are not limited by the shelf.
	_, err = env.carts.Scan(env.ctx, env.cashier, cart.KindStockIn, &ScanRequest{Code: "8690000000999"})
	require.NoError(t, err)
	_, err = env.carts.Scan(env.ctx, env.cashier, cart.KindStockIn, &ScanRequest{Code: "8690000000999"})
	require.NoError(t, err)

	view, err := env.carts.GetCart(env.ctx, env.cashier, cart.KindSale, decPtr("100"))
	require.NoError(t, err)
	require.NotNil(t, view.Change)
	assert.True(t, view.Change.Equal(dec("30")))
	assert.True(t, env.stockOf(t, cola.ID).Equal(dec("8")), "scanning does not touch stock")

	before, err := env.carts.GetCart(env.ctx, env.cashier, cart.KindSale, nil)
	require.NoError(t, err)
	for _, code := range []string{"9999", "2899999010000"} {
		_, err = env.carts.Scan(env.ctx, env.cashier, cart.KindSale, &ScanRequest{Code: code})
		assert.ErrorIs(t, err, ErrCodeUnresolved, code)
	}
	after, err := env.carts.GetCart(env.ctx, env.cashier, cart.KindSale, nil)
	require.NoError(t, err)
	assert.Equal(t, before.Lines, after.Lines, "an unknown code leaves the cart alone")
	assert.True(t, env.stockOf(t, cola.ID).Equal(dec("8")))
}

func TestPLUOnUnitProductMergesAndAdjusts(t *testing.T) {
	env := newTestEnv(t)
	bread := env.addProduct(t, "Ekmek", func(p *models.Product) {
		p.PLUCodes = models.PLUCodes{{PLU: "777"}}
	})

	var res *ScanResult
	var err error
	for i := 0; i < 2; i++ {
		res, err = env.carts.Scan(env.ctx, env.cashier, cart.KindSale, &ScanRequest{Code: "777"})
		require.NoError(t, err)
	}
	assert.False(t, res.Resolution.IsWeighable)
	require.Len(t, res.Cart.Lines, 1, "repeated unit scans share a line")
	assert.True(t, res.Cart.Lines[0].Quantity.Equal(dec("2")))

	res, err = env.carts.Scan(env.ctx, env.cashier, cart.KindStockIn, &ScanRequest{Code: "777"})
	require.NoError(t, err)
	view, err := env.carts.UpdateLine(env.ctx, env.cashier, cart.KindStockIn, res.Line.ID, &AdjustItemRequest{Delta: decPtr("1")})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.True(t, view.Lines[0].Quantity.Equal(dec("2")))
	assert.True(t, env.stockOf(t, bread.ID).Equal(dec("10")))
}

func TestCartsArePerCashier(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(t, "Ekmek", func(p *models.Product) { p.Barcode = "8690000000002" })

	_, err := env.carts.Scan(env.ctx, env.cashier, cart.KindSale, &ScanRequest{Code: "8690000000002"})
	require.NoError(t, err)

	mine, err := env.carts.GetCart(env.ctx, env.cashier, cart.KindSale, nil)
	require.NoError(t, err)
	assert.Len(t, mine.Lines, 1)
	theirs, err := env.carts.GetCart(env.ctx, env.manager, cart.KindSale, nil)
	require.NoError(t, err)
	assert.Empty(t, theirs.Lines)

	lineID := mine.Lines[0].ID
	view, err := env.carts.UpdateLine(env.ctx, env.cashier, cart.KindSale, lineID, &AdjustItemRequest{Delta: decPtr("2")})
	require.NoError(t, err)
	assert.True(t, view.Lines[0].Quantity.Equal(dec("3")))

	_, err = env.carts.UpdateLine(env.ctx, env.cashier, cart.KindSale, lineID, &AdjustItemRequest{PurchasePrice: decPtr("1")})
	assert.ErrorIs(t, err, ErrWrongCartKind)

	_, err = env.carts.UpdateLine(env.ctx, env.cashier, cart.KindSale, lineID, &AdjustItemRequest{Delta: decPtr("20")})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	view, err = env.carts.RemoveLine(env.ctx, env.cashier, cart.KindSale, lineID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, env.stockOf(t, p.ID).Equal(dec("10")))
}

func TestCompleteSale(t *testing.T) {
	env := newTestEnv(t)
	mince := env.addProduct(t, "Kıyma", func(p *models.Product) {
		p.IsWeighable = true
		p.PLUCodes = models.PLUCodes{{PLU: "10100"}}
		p.SellingPrice = dec("400")
	})
	bread := env.addProduct(t, "Ekmek", func(p *models.Product) {
		p.PLUCodes = models.PLUCodes{{PLU: "777"}}
	})

	for _, code := range []string{"2810100025000", "2810100010000", "777", "777"} {
		_, err := env.carts.Scan(env.ctx, env.cashier, cart.KindSale, &ScanRequest{Code: code})
		require.NoError(t, err, code)
	}

	receipt, err := env.sales.CompleteSale(env.ctx, env.cashier, &CompleteSaleRequest{AmountPaid: decPtr("1500")})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSalesChannel, receipt.Channel)
	// 3.5 kg at 400 plus two loaves at 10.
	assert.True(t, receipt.Total.Equal(dec("1420")), "total %s", receipt.Total)
	assert.True(t, receipt.Change.Equal(dec("80")))
	assert.Len(t, receipt.Sales, 3, "weighed scans stay separate lines")

	assert.True(t, env.stockOf(t, mince.ID).Equal(dec("6.5")))
	assert.True(t, env.stockOf(t, bread.ID).Equal(dec("8")))
	assert.EqualValues(t, 3, env.count(t, &models.Sale{}))
	assert.Contains(t, env.auditActions(t), models.ActionSaleCompleted)

	_, err = env.sales.CompleteSale(env.ctx, env.cashier, &CompleteSaleRequest{})
	assert.ErrorIs(t, err, ErrCartEmpty, "the cart is cleared after a sale")
}

func TestCompleteSaleWritesNothingWhenShort(t *testing.T) {
	env := newTestEnv(t)
	a := env.addProduct(t, "Sucuk", func(p *models.Product) { p.Barcode = "1000000000001" })
	b := env.addProduct(t, "Pastırma", func(p *models.Product) { p.Barcode = "1000000000002" })

	_, err := env.carts.AddProduct(env.ctx, env.cashier, cart.KindSale, &AddItemRequest{ProductID: a.ID, Quantity: dec("2")})
	require.NoError(t, err)
	_, err = env.carts.AddProduct(env.ctx, env.cashier, cart.KindSale, &AddItemRequest{ProductID: b.ID, Quantity: dec("2")})
	require.NoError(t, err)

	// Someone else sold most of b in the meantime.
	require.NoError(t, env.db.Model(&models.Product{}).Where("id = ?", b.ID).Update("stock", dec("1")).Error)

	_, err = env.sales.CompleteSale(env.ctx, env.cashier, &CompleteSaleRequest{})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, env.stockOf(t, a.ID).Equal(dec("10")))
	assert.EqualValues(t, 0, env.count(t, &models.Sale{}))

	view, err := env.carts.GetCart(env.ctx, env.cashier, cart.KindSale, nil)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2, "a failed sale keeps the cart")
}

func TestCompleteSaleChannel(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(t, "Ekmek", nil)

	_, err := env.carts.AddProduct(env.ctx, env.cashier, cart.KindSale, &AddItemRequest{ProductID: p.ID, Quantity: dec("1")})
	require.NoError(t, err)
	_, err = env.sales.CompleteSale(env.ctx, env.cashier, &CompleteSaleRequest{Channel: "Trendyol"})
	assert.ErrorIs(t, err, ErrUnknownChannel)

	_, err = env.settings.AddSalesChannel(env.ctx, env.manager, &SettingRequest{Name: "Trendyol"})
	require.NoError(t, err)
	receipt, err := env.sales.CompleteSale(env.ctx, env.cashier, &CompleteSaleRequest{Channel: "Trendyol"})
	require.NoError(t, err)
	assert.Equal(t, "Trendyol", receipt.Channel)
}

func TestConfirmStockIn(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(t, "Kola", func(p *models.Product) { p.Barcode = "8690000000001" })

	first, err := env.carts.Scan(env.ctx, env.cashier, cart.KindStockIn, &ScanRequest{Code: "8690000000001"})
	require.NoError(t, err)
	_, err = env.carts.Scan(env.ctx, env.cashier, cart.KindStockIn, &ScanRequest{Code: "8690000000001"})
	require.NoError(t, err)
	_, err = env.carts.UpdateLine(env.ctx, env.cashier, cart.KindStockIn, first.Line.ID, &AdjustItemRequest{PurchasePrice: decPtr("4.5")})
	require.NoError(t, err)

	result, err := env.stock.ConfirmStockIn(env.ctx, env.cashier)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Lines)
	assert.Equal(t, 1, result.Products)
	assert.True(t, result.Levels[p.ID].Equal(dec("12")))
	assert.True(t, env.stockOf(t, p.ID).Equal(dec("12")))

	var history []models.StockInHistory
	require.NoError(t, env.db.Order("purchase_price ASC").Find(&history).Error)
	require.Len(t, history, 2)
	assert.True(t, history[0].PurchasePrice.Equal(dec("4.5")))

	_, err = env.stock.ConfirmStockIn(env.ctx, env.cashier)
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestRecordWastage(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(t, "Kıyma", func(p *models.Product) { p.PurchasePrice = dec("300") })

	_, err := env.stock.RecordWastage(env.ctx, env.cashier, &WastageRequest{ProductID: p.ID, Quantity: dec("1"), Reason: "Uzaylılar"})
	assert.ErrorIs(t, err, ErrUnknownReason)

	_, err = env.stock.RecordWastage(env.ctx, env.cashier, &WastageRequest{ProductID: p.ID, Quantity: dec("11"), Reason: "Bozulma"})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	movement, err := env.stock.RecordWastage(env.ctx, env.cashier, &WastageRequest{ProductID: p.ID, Quantity: dec("0.5"), Reason: "Bozulma"})
	require.NoError(t, err)
	assert.True(t, movement.Stock.Equal(dec("9.5")))
	row, ok := movement.Record.(models.WastageHistory)
	require.True(t, ok)
	assert.True(t, row.Cost.Equal(dec("150")))
}

func TestRecordReturnBooksNegativeSale(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(t, "Sucuk", func(p *models.Product) { p.SellingPrice = dec("25") })

	movement, err := env.stock.RecordReturn(env.ctx, env.cashier, &ReturnRequest{ProductID: p.ID, Quantity: dec("2"), Reason: "Müşteri iadesi"})
	require.NoError(t, err)
	assert.True(t, movement.Stock.Equal(dec("12")))

	var sales []models.Sale
	require.NoError(t, env.db.Find(&sales).Error)
	require.Len(t, sales, 1)
	assert.True(t, sales[0].Quantity.Equal(dec("-2")))
	assert.True(t, sales[0].TotalRevenue.Equal(dec("-50")))
	assert.EqualValues(t, 1, env.count(t, &models.ReturnHistory{}))

	rows, total, err := env.stock.History(env.ctx, env.shop.ID, models.HistoryKindReturn,
		utils.PaginationParams{Page: 1, Limit: 10, Sort: "created_at", Order: "desc"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, *rows.(*[]models.ReturnHistory), 1)

	_, _, err = env.stock.History(env.ctx, env.shop.ID, "bogus", utils.PaginationParams{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, ErrValidation)
}
