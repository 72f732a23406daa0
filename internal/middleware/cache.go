package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/restaurant-reservation/internal/config"
)

// captureWriter forwards the response while keeping up to limit bytes of
// the body for the cache.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 {
        cw.buf.Write(b)
    } else if remain := cw.limit - cw.size; remain > 0 {
        if int64(len(b)) > remain {
            cw.buf.Write(b[:remain])
        } else {
            cw.buf.Write(b)
        }
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// ResponseCache stores whole GET responses in Redis.  Keys are
// "<prefix>:<route>:<sha1>" so one route can be purged after a write.
type ResponseCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
}

func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
    if cfg.TTL <= 0 {
        cfg.TTL = 15 * time.Second
    }
    return &ResponseCache{cfg: cfg, rdb: rdb}
}

func (rc *ResponseCache) enabled() bool { return rc != nil && rc.cfg.Enabled && rc.rdb != nil }

func (rc *ResponseCache) key(c echo.Context) string {
    r := c.Request()
    var tail string
    switch strings.ToLower(rc.cfg.KeyStrategy) {
    case "route":
        tail = ""
    case "method_route":
        tail = r.Method
    case "method_route_query":
        tail = r.Method + "?" + r.URL.RawQuery
    default: // route_query
        tail = r.URL.RawQuery
    }
    // role is part of the key so a staff view is never served to a guest
    role, _ := c.Get(KeyRole).(string)
    sum := sha1.Sum([]byte(role + "|" + tail))
    return fmt.Sprintf("%s:%s:%x", rc.cfg.Prefix, c.Path(), sum[:])
}

// Middleware serves hits and stores 200 responses on a miss.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
    if !rc.enabled() {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    maxBody := int64(rc.cfg.MaxBodyBytes)
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !rc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := rc.key(c)

            if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, "X-Cache") {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, _ = c.Response().Write(body)
                    return nil
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            // truncated bodies are not cached
            if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
                return nil
            }
            hdr := c.Response().Header().Clone()
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                _ = rc.rdb.Set(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err()
            }
            return nil
        }
    }
}

// Purge drops every cached response of the given routes.
func (rc *ResponseCache) Purge(ctx context.Context, routes ...string) error {
    if !rc.enabled() {
        return nil
    }
    for _, route := range routes {
        iter := rc.rdb.Scan(ctx, 0, rc.cfg.Prefix+":"+route+":*", 100).Iterator()
        var keys []string
        for iter.Next(ctx) {
            keys = append(keys, iter.Val())
        }
        if err := iter.Err(); err != nil {
            return err
        }
        if len(keys) > 0 {
            if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
                return err
            }
        }
    }
    return nil
}

// PurgeOnWrite purges routes after every successful non-GET request it
// wraps.
func (rc *ResponseCache) PurgeOnWrite(routes ...string) echo.MiddlewareFunc {
    if !rc.enabled() {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            if err == nil && c.Request().Method != http.MethodGet && c.Response().Status < 400 {
                if perr := rc.Purge(context.WithoutCancel(c.Request().Context()), routes...); perr != nil {
                    c.Logger().Warnf("[cache] purge failed: %v", perr)
                }
            }
            return err
        }
    }
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
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

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, bs[8+hlen:], true
}
