package httpx

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/romangarms/WhereHaveIBeen/internal/httpx/kit"
	"github.com/romangarms/WhereHaveIBeen/internal/logx"
	"github.com/romangarms/WhereHaveIBeen/internal/metrics"
	"github.com/romangarms/WhereHaveIBeen/pkg"
)

var httpxLogger = logx.GetScope("httpx")

// RegisterCommonMiddlewares registers common middlewares, a structured
// access log and request metrics.
func RegisterCommonMiddlewares(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())

	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		// the error handler has not run yet; take its status from err
		status := c.Response().StatusCode()
		if err != nil {
			status = kit.StatusOf(err)
		}
		metrics.ObserveHTTP(c.Method(), c.Route().Path, status, latency)
		httpxLogger.Info("access",
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.Int("status", status),
			zap.String("latency", pkg.SmartDurationFormat(latency)),
			zap.String("ip", c.IP()),
			zap.String("ua", c.Get(fiber.HeaderUserAgent)),
			zap.String("request_id", kit.RequestID(c)),
		)
		return err
	})
}
