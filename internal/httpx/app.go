// Package httpx builds the fiber application: common middleware, the
// session layer and every route the browser talks to.
package httpx

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/romangarms/WhereHaveIBeen/internal/config"
	"github.com/romangarms/WhereHaveIBeen/internal/httpx/kit"
)

// NewApp creates the fiber app with the unified error handler and goccy
// JSON. Server.Concurrency caps concurrent connections.
func NewApp(cfg *config.Config) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "WhereHaveIBeen",
		ErrorHandler:          kit.ErrorHandler(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		Concurrency:           cfg.Server.Concurrency,
		DisableStartupMessage: true,
	})
}
