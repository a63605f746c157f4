package middleware

import (
	"fmt"
	"messbook/shared"
	"messbook/shared/constant"
	"messbook/transport/http/response"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/mssola/user_agent"
	"github.com/rs/zerolog/log"
)

const (
	cacheKeyRateLimit = "limiter"
	unknownUserAgent  = "unknown"
)

// RateLimit counts requests per client in a fixed window stored in redis.
// Requests pass through when the cache is unavailable.
func (a *appMiddleware) RateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.config.App.RateLimiter.Enable {
				next.ServeHTTP(w, r)

				return
			}

			maxReqs := a.config.App.RateLimiter.MaxRequests
			windowSecs := a.config.App.RateLimiter.WindowSeconds

			cacheKey := shared.BuildCacheKey(cacheKeyRateLimit, clientIP(r), parseUserAgent(r).key())

			count, err := a.cache.Increment(r.Context(), cacheKey, windowSecs)
			if err != nil {
				log.Warn().Err(err).Str("key", cacheKey).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)

				return
			}

			w.Header().Set(constant.RequestHeaderRateLimit, strconv.Itoa(maxReqs))
			w.Header().Set(constant.RequestHeaderRateLimitRemaining, strconv.Itoa(max(0, maxReqs-int(count))))
			w.Header().Set(constant.RequestHeaderRateLimitWindow, strconv.Itoa(windowSecs))

			if count > int64(maxReqs) {
				response.WithRequestLimitExceeded(w)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type userAgent struct {
	raw     string
	browser string
	os      string
}

// key collapses minor version noise so one client keeps one counter.
func (ua userAgent) key() string {
	if ua.raw == unknownUserAgent {
		return unknownUserAgent
	}

	return fmt.Sprintf("%s/%s", ua.os, ua.browser)
}

func parseUserAgent(r *http.Request) userAgent {
	raw := r.Header.Get(constant.RequestHeaderUserAgent)
	if raw == "" {
		return userAgent{raw: unknownUserAgent, browser: unknownUserAgent, os: unknownUserAgent}
	}

	parsed := user_agent.New(raw)
	name, _ := parsed.Browser()

	os := parsed.OS()
	if os == "" {
		os = unknownUserAgent
	}

	if name == "" {
		name = unknownUserAgent
	}

	return userAgent{raw: raw, browser: name, os: os}
}

func clientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, the first one is the client
	if xff := r.Header.Get(constant.RequestHeaderForwardedFor); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found {
			return strings.TrimSpace(first)
		}

		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get(constant.RequestHeaderRealIP); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}
