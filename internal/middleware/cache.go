package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/lan-echo-server/internal/config"
)

// Header reporting whether a response came from the cache.
const (
	HeaderXCache = "X-Cache"
	cacheHit     = "HIT"
	cacheMiss    = "MISS"
)

// captureWriter copies up to limit bytes of the response body while
// forwarding everything to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
	if remain := cw.limit - int64(cw.buf.Len()); cw.limit <= 0 || remain > 0 {
		chunk := b
		if cw.limit > 0 && int64(len(chunk)) > remain {
			chunk = chunk[:remain]
		}
		cw.buf.Write(chunk)
	}
	return cw.ResponseWriter.Write(b)
}

// truncated reports whether the response outgrew the capture buffer.
func (cw *captureWriter) truncated(total int64) bool {
	return cw.limit > 0 && total > int64(cw.buf.Len())
}

// cacheKey hashes the request parts selected by the strategy under the prefix.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", c.Path()}
	case "method_route":
		parts = []string{"method", r.Method, "route", c.Path()}
	case "method_route_query":
		parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
	default: // "route_query"
		parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodeEntry packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodeEntry(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

var errBadEntry = errors.New("malformed cache entry")

func decodeEntry(bs []byte) (status int, header http.Header, body []byte, err error) {
	if len(bs) < 8 {
		return 0, nil, nil, errBadEntry
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, errBadEntry
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, fmt.Errorf("%w: %v", errBadEntry, err)
		}
	}
	return status, header, bs[8+hlen:], nil
}

// NewRedisCache replays successful responses from Redis, headers included,
// so a hit is byte-for-byte what the handler produced.  It passes requests
// straight through when the cache is disabled or rdb is nil.  Redis errors
// are logged and never fail the request.
func NewRedisCache(cfg config.CacheConfig, rdb redis.Cmdable) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg, c)

			bs, err := rdb.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				status, hdr, body, derr := decodeEntry(bs)
				if derr == nil {
					return replay(c, status, hdr, body)
				}
				c.Logger().Warnf("[cache] dropping key=%s: %v", key, derr)
			case !errors.Is(err, redis.Nil):
				c.Logger().Warnf("[cache] redis get key=%s: %v", key, err)
			}

			res := c.Response()
			cw := &captureWriter{ResponseWriter: res.Writer, status: http.StatusOK, limit: maxBody}
			res.Writer = cw
			res.Header().Set(HeaderXCache, cacheMiss)

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.truncated(res.Size) {
				return nil
			}
			hdr := res.Header().Clone()
			hdr.Del(HeaderXCache)
			hdr.Del(echo.HeaderContentLength)
			payload, err := encodeEntry(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			// The request context may already be done once the body is sent.
			if err := rdb.SetEx(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
				c.Logger().Warnf("[cache] redis set key=%s: %v", key, err)
			}
			return nil
		}
	}
}

func replay(c echo.Context, status int, hdr http.Header, body []byte) error {
	h := c.Response().Header()
	for k, vals := range hdr {
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set(HeaderXCache, cacheHit)
	c.Response().WriteHeader(status)
	if len(body) > 0 {
		_, err := c.Response().Write(body)
		return err
	}
	return nil
}
