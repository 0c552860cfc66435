// Package maps serves the data the map page draws: location history, the
// user's devices and OSRM routes.
package maps

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/romangarms/WhereHaveIBeen/internal/account"
	"github.com/romangarms/WhereHaveIBeen/internal/httpx/kit"
	"github.com/romangarms/WhereHaveIBeen/internal/locations"
	"github.com/romangarms/WhereHaveIBeen/internal/routing"
	"github.com/romangarms/WhereHaveIBeen/internal/session"
	"github.com/romangarms/WhereHaveIBeen/pkg"
)

// LocationsHandler returns the user's location history as GeoJSON.
//
//	@Summary      Location history
//	@Description  Zone-less bounds are read in the server's zone and sent to OwnTracks in UTC
//	@Tags         maps
//	@Produce      json
//	@Param        startdate  query  string  false  "range start, e.g. 2024-03-01T08:00"
//	@Param        enddate    query  string  false  "range end"
//	@Param        device     query  string  false  "device name"
//	@Success      200   {object}  map[string]interface{}
//	@Failure      400   {object}  map[string]interface{}
//	@Failure      401   {object}  map[string]interface{}
//	@Failure      500   {object}  map[string]interface{}
//	@Router       /locations [get]
func LocationsHandler(tr *locations.Translator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := tr.History(c.Context(), session.FromCtx(c), locations.RangeParams{
			StartDate: c.Query("startdate"),
			EndDate:   c.Query("enddate"),
			Device:    c.Query("device"),
		})
		if err != nil {
			return readError(err)
		}
		return kit.Raw(c, http.StatusOK, body)
	}
}

// DevicesHandler returns the last position of each device the user owns.
//
//	@Summary      User devices
//	@Tags         maps
//	@Produce      json
//	@Success      200   {array}   map[string]interface{}
//	@Failure      401   {object}  map[string]interface{}
//	@Failure      500   {object}  map[string]interface{}
//	@Router       /usersdevices [get]
func DevicesHandler(tr *locations.Translator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries, err := tr.Devices(c.Context(), session.FromCtx(c))
		if err != nil {
			return readError(err)
		}
		return c.JSON(entries)
	}
}

// ProxyHandler forwards a route request to an HTTP-only OSRM server.
//
//	@Summary      Route proxy
//	@Description  The first character of coords is dropped; osrmURL overrides the saved and default servers
//	@Tags         maps
//	@Produce      json
//	@Param        coords   query  string  true   "separator-prefixed OSRM coordinates"
//	@Param        osrmURL  query  string  false  "routing server base URL"
//	@Success      200   {object}  map[string]interface{}
//	@Failure      400   {object}  map[string]interface{}
//	@Failure      500   {object}  map[string]interface{}
//	@Router       /proxy [get]
func ProxyHandler(p *routing.Proxy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := p.Route(c.Context(), routing.Request{
			Override:   c.Query("osrmURL"),
			SessionURL: session.FromCtx(c).OSRMBaseURL(),
			Coords:     c.Query("coords"),
			HasCoords:  c.Context().QueryArgs().Has("coords"),
		})
		switch {
		case err == nil:
			return kit.Raw(c, http.StatusOK, body)
		case errors.Is(err, routing.ErrMissingCoords):
			return kit.BadRequest("coords parameter is required.")
		default:
			return kit.Internal(err)
		}
	}
}

func readError(err error) error {
	switch {
	case errors.Is(err, locations.ErrNotAuthenticated):
		return kit.Unauthorized(account.MsgNotLoggedIn)
	case errors.Is(err, pkg.ErrInvalidTimestamp):
		return kit.BadRequest(err.Error())
	default:
		return kit.Internal(err)
	}
}
