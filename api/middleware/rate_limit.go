package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/auroralife/aurora-backend/api/responses"
	pkgerrors "github.com/auroralife/aurora-backend/pkg/errors"
	"github.com/auroralife/aurora-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy defines the fixed-window throttling parameters for a
// traffic surface.
type RateLimitPolicy struct {
	scope  string
	limit  int64
	window time.Duration
}

// NewRateLimitPolicy builds a policy with the supplied window and limit.
func NewRateLimitPolicy(scope string, limit int64, window time.Duration) RateLimitPolicy {
	return RateLimitPolicy{
		scope:  strings.ToLower(strings.TrimSpace(scope)),
		limit:  limit,
		window: window,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.scope != "" && p.limit > 0 && p.window > 0
}

// RateLimit caps how many requests the wrapped routes accept per window.
// A disabled policy or a missing store leaves the routes unthrottled.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			allowed, count, err := store.FixedWindowAllow(ctx, policy.scope, policy.limit, policy.window)
			if err != nil {
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					fields := map[string]any{
						"scope":          policy.scope,
						"attempts":       count,
						"limit":          policy.limit,
						"window_seconds": int(policy.window.Seconds()),
					}
					logg.Warn(logg.WithFields(ctx, fields), "rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
