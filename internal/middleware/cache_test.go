package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lan-echo-server/internal/config"
)

func newCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "test",
		MaxBodyBytes: 16,
	}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// countingEcho registers h on GET /x behind the cache and counts its calls.
func countingEcho(cfg config.CacheConfig, rdb redis.Cmdable, h echo.HandlerFunc) (*echo.Echo, *int) {
	calls := 0
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { calls++; return h(c) }, NewRedisCache(cfg, rdb))
	return e, &calls
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestCacheHitReplaysResponse(t *testing.T) {
	_, rdb := newRedis(t)
	e, calls := countingEcho(newCacheConfig(), rdb, func(c echo.Context) error {
		c.Response().Header().Set("X-Custom", "kept")
		return c.String(http.StatusOK, "hello")
	})

	miss := get(e, "/x")
	assert.Equal(t, "MISS", miss.Header().Get(HeaderXCache))
	hit := get(e, "/x")
	assert.Equal(t, "HIT", hit.Header().Get(HeaderXCache))
	assert.Equal(t, http.StatusOK, hit.Code)
	assert.Equal(t, "hello", hit.Body.String())
	assert.Equal(t, "kept", hit.Header().Get("X-Custom"))
	assert.Equal(t, []string{"HIT"}, hit.Header().Values(HeaderXCache))
	assert.Equal(t, 1, *calls)
}

func TestCacheKeyIncludesQuery(t *testing.T) {
	mr, rdb := newRedis(t)
	e, calls := countingEcho(newCacheConfig(), rdb, func(c echo.Context) error {
		return c.String(http.StatusOK, c.QueryParam("v"))
	})

	assert.Equal(t, "a", get(e, "/x?v=a").Body.String())
	assert.Equal(t, "b", get(e, "/x?v=b").Body.String())
	assert.Equal(t, 2, *calls)
	assert.Len(t, mr.Keys(), 2)
}

func TestCacheSkipsErrorsAndOversizedBodies(t *testing.T) {
	mr, rdb := newRedis(t)
	e := echo.New()
	mw := NewRedisCache(newCacheConfig(), rdb)
	e.GET("/fail", func(c echo.Context) error { return c.String(http.StatusTeapot, "no") }, mw)
	e.GET("/big", func(c echo.Context) error { return c.String(http.StatusOK, strings.Repeat("z", 64)) }, mw)

	assert.Equal(t, http.StatusTeapot, get(e, "/fail").Code)
	big := get(e, "/big")
	assert.Equal(t, http.StatusOK, big.Code)
	assert.Len(t, big.Body.String(), 64)
	assert.Empty(t, mr.Keys())
}

func TestCacheIgnoresUnlistedMethods(t *testing.T) {
	mr, rdb := newRedis(t)
	e := echo.New()
	e.POST("/x", func(c echo.Context) error { return c.String(http.StatusOK, "posted") }, NewRedisCache(newCacheConfig(), rdb))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, "posted", rec.Body.String())
	assert.Empty(t, rec.Header().Get(HeaderXCache))
	assert.Empty(t, mr.Keys())
}

func TestCacheDisabledPassesThrough(t *testing.T) {
	cfg := newCacheConfig()
	cfg.Enabled = false
	_, rdb := newRedis(t)

	for _, tc := range []struct {
		name string
		cfg  config.CacheConfig
		rdb  redis.Cmdable
	}{
		{"disabled", cfg, rdb},
		{"no client", newCacheConfig(), nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e, calls := countingEcho(tc.cfg, tc.rdb, func(c echo.Context) error { return c.String(http.StatusOK, "x") })
			get(e, "/x")
			rec := get(e, "/x")
			assert.Empty(t, rec.Header().Get(HeaderXCache))
			assert.Equal(t, 2, *calls)
		})
	}
}

func TestCacheSurvivesRedisOutage(t *testing.T) {
	mr, rdb := newRedis(t)
	e, calls := countingEcho(newCacheConfig(), rdb, func(c echo.Context) error { return c.String(http.StatusOK, "up") })
	mr.Close()

	rec := get(e, "/x")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "up", rec.Body.String())
	assert.Equal(t, 1, *calls)
}

func TestCacheDropsMalformedEntry(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := newCacheConfig()
	e, calls := countingEcho(cfg, rdb, func(c echo.Context) error { return c.String(http.StatusOK, "fresh") })

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), httptest.NewRecorder())
	c.SetPath("/x")
	require.NoError(t, rdb.Set(context.Background(), cacheKey(cfg, c), "bad", 0).Err())

	rec := get(e, "/x")
	assert.Equal(t, "fresh", rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get(HeaderXCache))
	assert.Equal(t, 1, *calls)
}

func TestEntryRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"text/plain"}}
	bs, err := encodeEntry(http.StatusOK, hdr, []byte("body"))
	require.NoError(t, err)

	status, got, body, err := decodeEntry(bs)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, "body", string(body))

	_, _, _, err = decodeEntry(bs[:6])
	assert.ErrorIs(t, err, errBadEntry)
	_, _, _, err = decodeEntry([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.ErrorIs(t, err, errBadEntry)
}
