package kit

import (
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// RequestID extracts request id from headers
func RequestID(c *fiber.Ctx) string {
	rid := c.GetRespHeader(fiber.HeaderXRequestID)
	return lo.Ternary(rid != "", rid, c.Get(fiber.HeaderXRequestID))
}

func envelope(status int, code, msg string, data any, c *fiber.Ctx) error {
	return c.Status(status).JSON(fiber.Map{
		"code":       code,
		"message":    msg,
		"data":       data,
		"request_id": RequestID(c),
	})
}

// OK sends a 200 OK response with data
func OK(c *fiber.Ctx, data any) error {
	return envelope(fiber.StatusOK, "OK", "success", data, c)
}

// Message sends {"message": msg} with status.
func Message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

// Raw sends an already-encoded JSON body with status.
func Raw(c *fiber.Ctx, status int, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).Send(body)
}
