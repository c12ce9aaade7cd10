package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openai-api-blueprint/blueprint/internal/config"
	"github.com/openai-api-blueprint/blueprint/pkg/httpext"
	"github.com/openai-api-blueprint/blueprint/pkg/ratelimit"
	"github.com/rs/zerolog/hlog"
)

// RateLimit allows limiter.MaxHits requests per window for each client IP.
// Store failures let the request through.
func RateLimit(limitKey string, limiter *ratelimit.Limiter, cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r, cfg.TrustProxyHeaders)
			allowed, retry, err := limiter.AllowContext(r.Context(), limitKey+":"+ip)
			if err != nil {
				hlog.FromRequest(r).Error().Err(err).Str("limit_key", limitKey).Msg("Rate limit store failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				hlog.FromRequest(r).Warn().
					Str("client_ip", ip).
					Str("limit_key", limitKey).
					Dur("retry_after", retry).
					Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(retry)))
				httpext.JsonError(w, httpext.RateLimited())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of the remote address. With trustProxy set
// the first X-Forwarded-For entry wins when present.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(retry time.Duration) int {
	secs := int(math.Ceil(retry.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
