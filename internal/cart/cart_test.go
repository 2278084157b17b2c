package cart

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NEBULA-33/nebula-1/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testProduct(name, price, vat string) models.Product {
	p := models.Product{
		Name:          name,
		SellingPrice:  dec(price),
		PurchasePrice: dec(price).Div(decimal.NewFromInt(2)),
		VATRate:       dec(vat),
	}
	p.ID = uuid.New()
	return p
}

func TestAddMergesUnitLines(t *testing.T) {
	c := New(KindSale)
	cola := testProduct("Kola", "30", "0.20")

	_, err := c.Add(cola, dec("1"), false)
	require.NoError(t, err)
	line, err := c.Add(cola, dec("12"), false)
	require.NoError(t, err)

	require.Len(t, c.Lines, 1)
	assert.True(t, line.Quantity.Equal(dec("13")))
}

func TestAddKeepsWeighedScansSeparate(t *testing.T) {
	c := New(KindSale)
	mince := testProduct("Kıyma", "400", "0.01")

	_, err := c.Add(mince, dec("0.5"), true)
	require.NoError(t, err)
	_, err = c.Add(mince, dec("0.75"), true)
	require.NoError(t, err)

	require.Len(t, c.Lines, 2)
	assert.True(t, c.QuantityOf(mince.ID).Equal(dec("1.25")))
}

func TestStockInNeverMerges(t *testing.T) {
	c := New(KindStockIn)
	cola := testProduct("Kola", "30", "0.20")

	_, _ = c.Add(cola, dec("1"), false)
	_, _ = c.Add(cola, dec("1"), false)

	require.Len(t, c.Lines, 2)

	grouped := c.GroupByProduct()
	require.Len(t, grouped, 1)
	assert.True(t, grouped[0].Quantity.Equal(dec("2")))
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	c := New(KindSale)
	_, err := c.Add(testProduct("x", "1", "0"), decimal.Zero, false)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.True(t, c.IsEmpty())
}

func TestAdjust(t *testing.T) {
	c := New(KindStockIn)
	cola := testProduct("Kola", "30", "0.20")
	line, _ := c.Add(cola, dec("2"), false)

	updated, kept, err := c.Adjust(line.ID, dec("1"))
	require.NoError(t, err)
	assert.True(t, kept)
	assert.True(t, updated.Quantity.Equal(dec("3")))

	_, kept, err = c.Adjust(line.ID, dec("-3"))
	require.NoError(t, err)
	assert.False(t, kept)
	assert.True(t, c.IsEmpty())

	_, _, err = c.Adjust(line.ID, dec("1"))
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestAdjustRefusesWeighedLine(t *testing.T) {
	c := New(KindStockIn)
	line, _ := c.Add(testProduct("Kıyma", "400", "0.01"), dec("1.2"), true)

	_, _, err := c.Adjust(line.ID, dec("1"))
	assert.ErrorIs(t, err, ErrNotAdjustable)
}

func TestRemoveAndClear(t *testing.T) {
	c := New(KindSale)
	a, _ := c.Add(testProduct("a", "1", "0"), dec("1"), false)
	_, _ = c.Add(testProduct("b", "1", "0"), dec("1"), false)

	require.NoError(t, c.Remove(a.ID))
	assert.Len(t, c.Lines, 1)
	assert.ErrorIs(t, c.Remove(a.ID), ErrLineNotFound)

	c.Clear()
	assert.True(t, c.IsEmpty())
}

func TestTotalsAndChange(t *testing.T) {
	c := New(KindSale)
	_, _ = c.Add(testProduct("Ekmek", "10", "0.01"), dec("2"), false)
	_, _ = c.Add(testProduct("Kola", "60", "0.20"), dec("1"), false)

	assert.True(t, c.Total().Equal(dec("80")))
	assert.True(t, c.Change(dec("100")).Equal(dec("20")))
	assert.True(t, c.Change(dec("50")).IsZero())

	vat := c.VATBreakdown()
	require.Len(t, vat, 2)
	assert.True(t, vat[0].Rate.Equal(dec("0.01")))
	assert.True(t, vat[0].Amount.Equal(dec("0.2")), vat[0].Amount.String())
	assert.True(t, vat[1].Amount.Equal(dec("10")), vat[1].Amount.String())

	s := c.Summary()
	assert.Equal(t, 2, s.ItemCount)
	assert.True(t, s.Subtotal.Equal(dec("69.8")), s.Subtotal.String())
}

func TestSetPurchasePrice(t *testing.T) {
	c := New(KindPurchase)
	line, _ := c.Add(testProduct("Kola", "30", "0.20"), dec("10"), false)

	updated, err := c.SetPurchasePrice(line.ID, dec("12.5"))
	require.NoError(t, err)
	assert.True(t, updated.PurchasePrice.Equal(dec("12.5")))
	assert.True(t, c.PurchaseTotal().Equal(dec("125")))

	_, err = c.SetPurchasePrice(line.ID, dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("debt_sale")
	assert.True(t, ok)
	assert.True(t, k.Outgoing())

	_, ok = ParseKind("layaway")
	assert.False(t, ok)
}

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	key := Key{ShopID: uuid.New(), UserID: uuid.New(), Kind: KindSale}

	empty, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, KindSale, empty.Kind)

	c := New(KindSale)
	line, _ := c.Add(testProduct("Kola", "30", "0.20"), dec("2"), false)
	require.NoError(t, store.Save(ctx, key, c))

	// Mutating after save must not leak into the store.
	c.Clear()

	loaded, err := store.Load(ctx, key)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, line.ID, loaded.Lines[0].ID)
	assert.True(t, loaded.Lines[0].Quantity.Equal(dec("2")))

	require.NoError(t, store.Delete(ctx, key))
	loaded, err = store.Load(ctx, key)
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}

	exerciseStore(t, NewRedisStore(client, time.Minute))
}
