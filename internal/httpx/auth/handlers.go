// Package auth serves the account endpoints: form login, registration,
// account deletion and sign out.
package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/romangarms/WhereHaveIBeen/internal/account"
	"github.com/romangarms/WhereHaveIBeen/internal/httpx/kit"
	"github.com/romangarms/WhereHaveIBeen/internal/session"
)

const (
	loginErrorKey = "login_error"
	msgLoginInput = "Username and password are required."
	msgBadBody    = "Request body must be a JSON object."
)

func meta(c *fiber.Ctx) account.Meta {
	return account.Meta{RemoteIP: c.IP(), RequestID: kit.RequestID(c)}
}

// LoginHandler checks form credentials against the location backend and
// signs the browser in.
//
//	@Summary      Login
//	@Description  Validate credentials against OwnTracks and store them in the session cookie
//	@Tags         auth
//	@Accept       x-www-form-urlencoded
//	@Produce      json
//	@Param        username  formData  string  true  "OwnTracks username"
//	@Param        password  formData  string  true  "OwnTracks password"
//	@Success      302   {string}  string  "redirect to /"
//	@Failure      400   {object}  auth.LoginError
//	@Failure      401   {object}  auth.LoginError
//	@Failure      429   {object}  map[string]interface{}
//	@Failure      500   {object}  auth.LoginError
//	@Header       429   {string}  Retry-After  "Seconds to wait"
//	@Router       /login [post]
func LoginHandler(svc *account.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := c.FormValue("username")
		password := c.FormValue("password")
		if username == "" || password == "" {
			return kit.BadRequest(msgLoginInput).WithKey(loginErrorKey)
		}

		err := svc.Login(c.Context(), session.FromCtx(c), meta(c), username, password)
		switch {
		case err == nil:
			return c.Redirect("/", http.StatusFound)
		case errors.Is(err, account.ErrRejected):
			return kit.Unauthorized(account.MsgInvalidCredentials).WithKey(loginErrorKey)
		default:
			return &kit.APIError{
				HTTPStatus: http.StatusInternalServerError,
				Code:       "E_INTERNAL",
				Message:    account.MsgUnreachable,
				Key:        loginErrorKey,
				Cause:      err,
			}
		}
	}
}

// RegisterHandler creates an account on the location backend.
//
//	@Summary      Register
//	@Description  Check the credential policy, then relay the backend's answer unchanged
//	@Tags         auth
//	@Accept       json
//	@Produce      json
//	@Param        body  body   auth.RegisterRequest  true  "new account"
//	@Success      201   {object}  map[string]interface{}
//	@Failure      400   {object}  map[string]interface{}
//	@Failure      429   {object}  map[string]interface{}
//	@Failure      500   {object}  map[string]interface{}
//	@Router       /register [post]
func RegisterHandler(svc *account.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return kit.BadRequest(msgBadBody)
		}

		pt, err := svc.Register(c.Context(), session.FromCtx(c), meta(c), req.Username, req.Password)
		if err != nil {
			return accountError(err)
		}
		return kit.Raw(c, pt.Status, pt.Body)
	}
}

// DeleteAccountHandler deletes the signed-in user's backend account.
//
//	@Summary      Delete account
//	@Description  Delete the session user's account; the password must be re-entered
//	@Tags         auth
//	@Accept       json
//	@Produce      json
//	@Param        body  body   auth.DeleteAccountRequest  true  "confirmation"
//	@Success      200   {object}  map[string]interface{}
//	@Failure      400   {object}  map[string]interface{}
//	@Failure      401   {object}  map[string]interface{}
//	@Failure      429   {object}  map[string]interface{}
//	@Failure      500   {object}  map[string]interface{}
//	@Router       /delete-account [post]
func DeleteAccountHandler(svc *account.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := session.FromCtx(c)
		if sess.Username() == "" {
			return kit.Unauthorized(account.MsgNotLoggedIn)
		}

		var req DeleteAccountRequest
		if err := c.BodyParser(&req); err != nil {
			return kit.BadRequest(msgBadBody)
		}

		pt, err := svc.DeleteAccount(c.Context(), sess, meta(c), req.Password)
		if err != nil {
			return accountError(err)
		}
		return kit.Raw(c, pt.Status, pt.Body)
	}
}

// SignOutHandler forgets the session and sends the browser home.
//
//	@Summary      Sign out
//	@Tags         auth
//	@Success      302   {string}  string  "redirect to /"
//	@Router       /sign_out [get]
func SignOutHandler(svc *account.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.SignOut(c.Context(), session.FromCtx(c), meta(c))
		return c.Redirect("/", http.StatusFound)
	}
}

func accountError(err error) error {
	var ve *account.ValidationError
	switch {
	case errors.As(err, &ve):
		return kit.BadRequest(ve.Message)
	case errors.Is(err, account.ErrNotAuthenticated):
		return kit.Unauthorized(account.MsgNotLoggedIn)
	case errors.Is(err, account.ErrMissingPassword):
		return kit.BadRequest(account.MsgPasswordRequired)
	default:
		return kit.Internal(err)
	}
}
