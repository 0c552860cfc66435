// Package settings stores map preferences in the session cookie. Neither
// endpoint needs a signed-in user.
package settings

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/romangarms/WhereHaveIBeen/internal/httpx/kit"
	"github.com/romangarms/WhereHaveIBeen/internal/session"
)

const msgSaved = "Settings saved successfully"

var jsonNull = json.RawMessage("null")

// Settings are the map preferences. Values are kept as sent; an absent or
// null field is unset.
// swagger:model Settings
type Settings struct {
	CircleSize json.RawMessage `json:"circleSize" swaggertype:"number" example:"50"`
	OSRMURL    json.RawMessage `json:"osrmURL" swaggertype:"string" example:"http://router.project-osrm.org"`
}

// SaveHandler overwrites both preferences.
//
//	@Summary      Save settings
//	@Description  Store circle size and routing server in the session; fields left out are cleared
//	@Tags         settings
//	@Accept       json
//	@Produce      json
//	@Param        body  body   settings.Settings  true  "preferences"
//	@Success      200   {object}  map[string]string
//	@Failure      400   {object}  map[string]interface{}
//	@Router       /save_settings [post]
func SaveHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req Settings
		if err := c.BodyParser(&req); err != nil {
			return kit.BadRequest("Request body must be a JSON object.")
		}
		sess := session.FromCtx(c)
		sess.SetPreference(session.CircleSize, req.CircleSize)
		sess.SetPreference(session.OSRMURL, req.OSRMURL)
		return kit.Message(c, http.StatusOK, msgSaved)
	}
}

// GetHandler returns the stored preferences.
//
//	@Summary      Get settings
//	@Tags         settings
//	@Produce      json
//	@Success      200   {object}  settings.Settings
//	@Router       /get_settings [get]
func GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		prefs := session.FromCtx(c).Preferences()
		return c.JSON(Settings{
			CircleSize: orNull(prefs.CircleSize),
			OSRMURL:    orNull(prefs.OSRMURL),
		})
	}
}

func orNull(v json.RawMessage) json.RawMessage {
	if len(v) == 0 {
		return jsonNull
	}
	return v
}
