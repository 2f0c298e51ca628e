package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Nareshthota-64/Sales-CRM/pkg/cache"
	"github.com/Nareshthota-64/Sales-CRM/pkg/config"
	"github.com/Nareshthota-64/Sales-CRM/pkg/httputil"
	"github.com/Nareshthota-64/Sales-CRM/pkg/observability"
)

// Limiter implements fixed-window rate limiting backed by the shared Redis
// cache, so limits hold across all gateway instances.
//
// Each client and route bucket gets a counter keyed by the current window's
// start time. Because the window start is part of the key, a new window
// simply means a new key; nothing is ever reset in place. The increment is
// a single atomic INCR, so concurrent requests across instances admit
// exactly the configured number.
type Limiter struct {
	cache   *cache.Client
	def     config.RouteLimit
	buckets []routeBucket
	logger  *observability.Logger
	metrics *observability.Metrics

	// now is replaceable in tests to step across window boundaries
	now func() time.Time
}

type routeBucket struct {
	prefix string
	limit  config.RouteLimit
}

// NewLimiter creates a limiter with the default quota and per-route
// overrides from configuration
func NewLimiter(c *cache.Client, cfg config.RateLimitConfig, logger *observability.Logger, metrics *observability.Metrics) *Limiter {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	// Longest prefix first, so the most specific override wins
	buckets := make([]routeBucket, 0, len(cfg.RouteLimits))
	for prefix, limit := range cfg.RouteLimits {
		buckets = append(buckets, routeBucket{prefix: prefix, limit: limit})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return len(buckets[i].prefix) > len(buckets[j].prefix)
	})

	return &Limiter{
		cache:   c,
		def:     config.RouteLimit{Requests: cfg.Requests, Window: cfg.Window},
		buckets: buckets,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Decision is the outcome of a rate limit check
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int

	// Reset is the unix second at which the current window ends
	Reset int64

	// RetryAfter is the whole seconds until the window ends
	RetryAfter int

	// Degraded means the cache was unreachable and the request was
	// admitted without counting
	Degraded bool
}

// resolve picks the quota and bucket name for a request path
func (l *Limiter) resolve(path string) (config.RouteLimit, string) {
	for _, b := range l.buckets {
		if path == b.prefix || strings.HasPrefix(path, b.prefix) {
			return b.limit, b.prefix
		}
	}
	return l.def, "default"
}

// Check counts a request against its window and decides admission.
// Cache failures fail open: the request is admitted without counting,
// because losing rate limiting is better than losing the service.
func (l *Limiter) Check(ctx context.Context, clientKey, path string) Decision {
	limit, bucket := l.resolve(path)

	now := l.now().Unix()
	windowSecs := int64(limit.Window / time.Second)
	windowStart := now - (now % windowSecs)
	reset := windowStart + windowSecs

	key := cache.RateWindowKey(clientKey, bucket, windowStart)

	count, err := l.cache.Incr(ctx, key)
	if err != nil {
		l.logger.WithError(err).WithField("client", clientKey).Warn("rate limit check failed, admitting request")
		return Decision{Allowed: true, Limit: limit.Requests, Remaining: limit.Requests, Reset: reset, Degraded: true}
	}

	// First hit in the window owns setting the expiry
	if count == 1 {
		if err := l.cache.Expire(ctx, key, limit.Window); err != nil {
			l.logger.WithError(err).WithField("key", key).Warn("failed to set rate window expiry")
		}
	}

	remaining := limit.Requests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	d := Decision{
		Allowed:    count <= int64(limit.Requests),
		Limit:      limit.Requests,
		Remaining:  remaining,
		Reset:      reset,
		RetryAfter: int(reset - now),
	}

	if l.metrics != nil {
		if d.Allowed {
			l.metrics.RecordRateLimitAllowed(bucket)
		} else {
			l.metrics.RecordRateLimitDenied(bucket)
		}
	}

	return d
}

// ClientKey derives the rate limit identity for a request. An
// authenticated subject is preferred; anonymous clients are keyed by the
// originating IP, trusting the first X-Forwarded-For entry when present.
func ClientKey(r *http.Request) string {
	if ident := GetIdentity(r); ident != nil {
		return "user:" + ident.Subject
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit wraps a handler with fixed-window rate limiting. Public paths
// and preflight requests pass through uncounted.
func RateLimit(l *Limiter, public *PublicPaths) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || public.Contains(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			d := l.Check(r.Context(), ClientKey(r), r.URL.Path)

			// Degraded decisions carry the full quota as Remaining, so the
			// headers stay present even when the cache is down
			setRateLimitHeaders(w, d)

			if !d.Allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", d.RetryAfter))
				httputil.WriteTooManyRequests(w, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, d Decision) {
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", d.Limit))
	w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", d.Remaining))
	w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", d.Reset))
}
