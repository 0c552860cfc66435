package httpx

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	"github.com/romangarms/WhereHaveIBeen/internal/account"
	"github.com/romangarms/WhereHaveIBeen/internal/config"
	"github.com/romangarms/WhereHaveIBeen/internal/httpx/auth"
	"github.com/romangarms/WhereHaveIBeen/internal/httpx/maps"
	"github.com/romangarms/WhereHaveIBeen/internal/httpx/mw"
	"github.com/romangarms/WhereHaveIBeen/internal/httpx/settings"
	"github.com/romangarms/WhereHaveIBeen/internal/locations"
	"github.com/romangarms/WhereHaveIBeen/internal/routing"
	"github.com/romangarms/WhereHaveIBeen/internal/session"
)

// Deps are the services the routes are served by.
type Deps struct {
	Config    *config.Config
	Sessions  *session.Manager
	Accounts  *account.Service
	Locations *locations.Translator
	Routing   *routing.Proxy
	// RateCounter shares rate limits between instances; nil keeps them in memory.
	RateCounter mw.Counter
}

var pages = map[string]string{
	"/about": "about.html",
	"/setup": "setup.html",
}

// Register mounts every route. Operational endpoints are mounted ahead of
// the cookie middleware and never read or write the session.
func Register(app *fiber.App, d Deps) {
	app.Get("/health", HealthHandler)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	// encryptcookie wraps the session middleware: it decrypts before the
	// session is read and encrypts after it is written.
	app.Use(encryptcookie.New(encryptcookie.Config{Key: d.Sessions.EncryptionKey()}))
	app.Use(d.Sessions.Middleware())

	limit := mw.RateLimit(d.RateCounter, d.Config.RateLimit.WindowSec, d.Config.RateLimit.Max)
	app.Post("/login", limit, auth.LoginHandler(d.Accounts))
	app.Post("/register", limit, auth.RegisterHandler(d.Accounts))
	app.Post("/delete-account", limit, auth.DeleteAccountHandler(d.Accounts))
	app.Get("/sign_out", auth.SignOutHandler(d.Accounts))

	app.Post("/save_settings", settings.SaveHandler())
	app.Get("/get_settings", settings.GetHandler())

	signedIn := mw.RequireCredentials()
	app.Get("/locations", signedIn, maps.LocationsHandler(d.Locations))
	app.Get("/usersdevices", signedIn, maps.DevicesHandler(d.Locations))
	app.Get("/proxy", maps.ProxyHandler(d.Routing))

	if dir := d.Config.Server.StaticDir; dir != "" {
		for route, file := range pages {
			path := filepath.Join(dir, file)
			app.Get(route, func(c *fiber.Ctx) error { return c.SendFile(path) })
		}
		app.Static("/", dir, fiber.Static{Index: "index.html"})
	}
}
