package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/phrazzld/dogadopt-api/internal/api"
	"github.com/phrazzld/dogadopt-api/internal/api/shared"
	"github.com/phrazzld/dogadopt-api/internal/platform/logger"
	"github.com/phrazzld/dogadopt-api/internal/ratelimit"
	"github.com/phrazzld/dogadopt-api/internal/redact"
)

// Limiter decides whether a client may make another request.
// *ratelimit.Limiter satisfies it.
type Limiter interface {
	Allow(ctx context.Context, identifier string) (ratelimit.Result, error)
}

// RateLimitRecorder counts rejected requests. *metrics.Metrics satisfies it.
type RateLimitRecorder interface {
	RateLimited()
}

// RateLimit enforces limiter per client address as resolved by clients. A nil
// resolver keys on the socket address. Store failures let the request through.
func RateLimit(
	limiter Limiter,
	clients *ClientIPResolver,
	recorder RateLimitRecorder,
	base *slog.Logger,
) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	base = base.With(slog.String("component", "rate_limit"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clients.ClientIP(r)
			res, err := limiter.Allow(r.Context(), client)
			if err != nil {
				logger.FromContextOrDefault(r.Context(), base).Warn("rate limit check failed",
					slog.String("client", client),
					redact.ErrorAttr(err))
				next.ServeHTTP(w, r)
				return
			}

			applyRateLimitHeaders(w, res)
			if !res.Allowed {
				if recorder != nil {
					recorder.RateLimited()
				}
				shared.RespondWithError(w, r, http.StatusTooManyRequests, api.MsgTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func applyRateLimitHeaders(w http.ResponseWriter, res ratelimit.Result) {
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))
	if !res.Allowed {
		seconds := max(int(math.Ceil(res.RetryAfter.Seconds())), 0)
		headers.Set("Retry-After", strconv.Itoa(seconds))
	}
}
