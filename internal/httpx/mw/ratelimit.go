package mw

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/romangarms/WhereHaveIBeen/internal/httpx/kit"
	"github.com/romangarms/WhereHaveIBeen/internal/logx"
)

var mwLogger = logx.GetScope("mw")

const msgRateLimited = "Too many requests. Try again later."

// Counter counts hits of key in a fixed window shared between instances.
// *redisx.WindowCounter satisfies it.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

func rateKey(c *fiber.Ctx) string {
	return fmt.Sprintf("ip:%s|path:%s", c.IP(), c.Path())
}

// RateLimit limits requests per client address and path. Without a
// counter the limit is kept in process memory. A failing counter lets
// requests through.
func RateLimit(counter Counter, windowSec int, limit int) fiber.Handler {
	window := time.Duration(windowSec) * time.Second
	if counter == nil {
		return limiter.New(limiter.Config{
			Max:          limit,
			Expiration:   window,
			KeyGenerator: rateKey,
			LimitReached: func(c *fiber.Ctx) error {
				c.Set(fiber.HeaderRetryAfter, fmt.Sprint(windowSec))
				return kit.TooManyRequests(msgRateLimited)
			},
		})
	}
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 200*time.Millisecond)
		defer cancel()
		n, err := counter.Incr(ctx, rateKey(c), window)
		if err != nil {
			mwLogger.Warn("rate limit counter unavailable", zap.Error(err))
			return c.Next()
		}
		c.Set("X-RateLimit-Limit", fmt.Sprint(limit))
		c.Set("X-RateLimit-Remaining", fmt.Sprint(lo.Max([]int64{0, int64(limit) - n})))
		if n > int64(limit) {
			c.Set(fiber.HeaderRetryAfter, fmt.Sprint(windowSec))
			return kit.TooManyRequests(msgRateLimited)
		}
		return c.Next()
	}
}
