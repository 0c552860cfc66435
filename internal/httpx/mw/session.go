// Package mw contains HTTP middleware for session guards and rate limiting.
package mw

import (
	"github.com/gofiber/fiber/v2"

	"github.com/romangarms/WhereHaveIBeen/internal/account"
	"github.com/romangarms/WhereHaveIBeen/internal/httpx/kit"
	"github.com/romangarms/WhereHaveIBeen/internal/session"
)

// RequireCredentials rejects requests whose session holds no backend
// credentials. It must run after the session middleware.
func RequireCredentials() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := session.FromCtx(c).Credentials(); !ok {
			return kit.Unauthorized(account.MsgNotLoggedIn)
		}
		return c.Next()
	}
}
