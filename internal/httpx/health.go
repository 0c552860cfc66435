package httpx

import (
	"github.com/gofiber/fiber/v2"

	"github.com/romangarms/WhereHaveIBeen/internal/httpx/kit"
)

// HealthHandler reports liveness. It never calls a backend.
//
//	@Summary		Health check
//	@Description	Report that the gateway is serving
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}	"healthy"
//	@Router			/health [get]
func HealthHandler(c *fiber.Ctx) error {
	return kit.OK(c, fiber.Map{"status": "ok"})
}
