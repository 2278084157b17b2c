package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	userID, shopID := uuid.New(), uuid.New()

	token, err := GenerateJWT(userID, shopID, "kasa@shop.test", "kasiyer", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, shopID.String(), claims.ShopID)
	assert.Equal(t, "kasiyer", claims.Role)

	_, err = ValidateRefreshToken(token)
	assert.Error(t, err, "access token is not a refresh token")
}

func TestRefreshToken(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	token, err := GenerateRefreshToken(userID, 1)
	require.NoError(t, err)

	got, err := ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = ValidateJWT(token)
	assert.Error(t, err, "refresh token cannot authenticate requests")
}

func TestValidateJWTRejectsOtherSecret(t *testing.T) {
	SetJWTSecret("one")
	token, err := GenerateJWT(uuid.New(), uuid.New(), "a@b.test", "manager", 1)
	require.NoError(t, err)

	SetJWTSecret("two")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

type sampleRequest struct {
	PLU      string          `validate:"required,plu"`
	Quantity decimal.Decimal `validate:"decimal_positive"`
	Price    decimal.Decimal `validate:"decimal_non_negative"`
}

func TestCustomValidations(t *testing.T) {
	ok := sampleRequest{PLU: "10100", Quantity: decimal.RequireFromString("0.25"), Price: decimal.Zero}
	assert.NoError(t, ValidateStruct(&ok))

	bad := sampleRequest{PLU: "1010A", Quantity: decimal.Zero, Price: decimal.NewFromInt(-1)}
	errs := GetValidationErrors(ValidateStruct(&bad))
	require.Len(t, errs, 3)

	tags := []string{errs[0].Tag, errs[1].Tag, errs[2].Tag}
	assert.ElementsMatch(t, []string{"plu", "decimal_positive", "decimal_non_negative"}, tags)
}

func TestValidPLU(t *testing.T) {
	assert.True(t, ValidPLU("1"))
	assert.True(t, ValidPLU("10100"))
	assert.False(t, ValidPLU("101000"))
	assert.False(t, ValidPLU(""))
}

func TestPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?page=0&limit=1000&order=sideways&from=2026-01-02&to=2026-01-03", nil)

	params := GetPaginationParams(c)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 50, params.Limit)
	assert.Equal(t, "desc", params.Order)
	require.NotNil(t, params.From)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), *params.From)

	result := CreatePaginationResult([]int{}, 101, params)
	assert.Equal(t, 3, result.TotalPages)
}

func TestActorFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetActorFromContext(c)
	assert.False(t, ok)

	userID, shopID := uuid.New(), uuid.New()
	c.Set("user_id", userID.String())
	c.Set("shop_id", shopID)
	c.Set("role", "Yönetici")

	actor, ok := GetActorFromContext(c)
	require.True(t, ok)
	assert.Equal(t, userID, actor.UserID)
	assert.Equal(t, shopID, actor.ShopID)
	assert.True(t, actor.IsManager())
}

func TestChecksum(t *testing.T) {
	sum := Checksum([]byte("abc"))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)
	assert.True(t, VerifyChecksum([]byte("abc"), sum))
	assert.False(t, VerifyChecksum([]byte("abd"), sum))
}
