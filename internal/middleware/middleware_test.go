package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/NEBULA-33/nebula-1/internal/i18n"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		accept string
		want   string
	}{
		{"tr-TR,tr;q=0.9", "tr"},
		{"en-US,en;q=0.8", "en"},
		{"de-DE", "fallback"},
		{"en;q=0.3, tr;q=0.9", "tr"},
		{";;;", "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			assert.Equal(t, tt.want, matchLanguage(tt.accept, "fallback"))
		})
	}
}

func TestI18nQueryWinsOverHeader(t *testing.T) {
	require.NoError(t, i18n.Initialize("tr"))

	r := gin.New()
	r.Use(I18nMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, utils.GetLangFromContext(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "tr")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "en", w.Body.String())
}

func TestRequestIDReusesValidHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", id)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestRateLimitRejectsBurst(t *testing.T) {
	require.NoError(t, i18n.Initialize("tr"))

	limiter := NewRateLimiter(rate.Limit(0.001), 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go limiter.Cleanup(ctx)

	r := gin.New()
	r.Use(RateLimit(limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestManagerRequired(t *testing.T) {
	require.NoError(t, i18n.Initialize("tr"))
	utils.SetJWTSecret("middleware-test")

	r := gin.New()
	r.Use(AuthRequired(), ManagerRequired())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(role string) int {
		token, err := utils.GenerateJWT(uuid.New(), uuid.New(), "a@example.com", role, 1)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, call("manager"))
	assert.Equal(t, http.StatusNoContent, call("Yönetici"))
	assert.Equal(t, http.StatusForbidden, call("cashier"))
}
