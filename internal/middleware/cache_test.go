package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sporthub/venue-booking/internal/config"
)

func cacheCtx(target string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/locations/provinces")
	return c
}

func TestCacheKeyIgnoresIdentity(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "sporthub:cache", KeyStrategy: "route_query"}

	a := cacheCtx("/v1/locations/provinces?page=1")
	a.Request().Header.Set("Authorization", "Bearer someone")
	b := cacheCtx("/v1/locations/provinces?page=1")

	// Same route and query must share one entry regardless of who asks.
	assert.Equal(t, cacheKey(cfg, a), cacheKey(cfg, b))
}

func TestCacheKeyVariesByQueryAndStrategy(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "sporthub:cache", KeyStrategy: "route_query"}

	p1 := cacheKey(cfg, cacheCtx("/v1/locations/provinces?page=1"))
	p2 := cacheKey(cfg, cacheCtx("/v1/locations/provinces?page=2"))
	assert.NotEqual(t, p1, p2)

	cfg.KeyStrategy = "route"
	r1 := cacheKey(cfg, cacheCtx("/v1/locations/provinces?page=1"))
	r2 := cacheKey(cfg, cacheCtx("/v1/locations/provinces?page=2"))
	assert.Equal(t, r1, r2)
}

func TestNewRedisCacheWithoutClientIsPassThrough(t *testing.T) {
	mw := NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil)

	c := cacheCtx("/v1/locations/provinces")
	var called bool
	err := mw(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	})(c)

	require.NoError(t, err)
	assert.True(t, called)
	assert.Empty(t, c.Response().Header().Get("X-Cache"))
}

func TestBodyRecorderLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	br := &bodyRecorder{ResponseWriter: rec, status: http.StatusOK, limit: 8}

	_, err := br.Write([]byte("0123456789"))
	require.NoError(t, err)

	// The client still gets the full body; the over-limit copy is only
	// flagged so it never lands in Redis.
	assert.Equal(t, "0123456789", rec.Body.String())
	assert.True(t, br.oversize)
}
