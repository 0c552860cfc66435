package settings

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	testutil "github.com/romangarms/WhereHaveIBeen/internal/httpx/kit/testutil"
	"github.com/romangarms/WhereHaveIBeen/internal/session"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	mgr, err := session.NewManager("test-secret", session.Options{TTL: time.Hour})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return testutil.NewApp(
		func(app *fiber.App) { app.Use(mgr.Middleware()) },
		func(app *fiber.App) { app.Post("/save_settings", SaveHandler()) },
		func(app *fiber.App) { app.Get("/get_settings", GetHandler()) },
	)
}

func call(t *testing.T, app *fiber.App, jar *testutil.Jar, req *http.Request) (int, string) {
	t.Helper()
	jar.Attach(req)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	jar.Store(res)
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

func save(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/save_settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func get() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/get_settings", nil)
}

func TestGetSettings_Unset(t *testing.T) {
	app := newTestApp(t)
	status, body := call(t, app, testutil.NewJar(), get())
	if status != http.StatusOK {
		t.Fatalf("status=%d", status)
	}
	if body != `{"circleSize":null,"osrmURL":null}` {
		t.Fatalf("body=%s", body)
	}
}

func TestSaveThenGet_RoundTrips(t *testing.T) {
	app := newTestApp(t)
	jar := testutil.NewJar()

	status, body := call(t, app, jar, save(`{"circleSize": 50, "osrmURL": "http://x"}`))
	if status != http.StatusOK || body != `{"message":"Settings saved successfully"}` {
		t.Fatalf("save: %d %s", status, body)
	}

	status, body = call(t, app, jar, get())
	if status != http.StatusOK {
		t.Fatalf("status=%d", status)
	}
	if body != `{"circleSize":50,"osrmURL":"http://x"}` {
		t.Fatalf("body=%s", body)
	}
}

func TestSave_OmittedFieldIsCleared(t *testing.T) {
	app := newTestApp(t)
	jar := testutil.NewJar()

	call(t, app, jar, save(`{"circleSize": 50, "osrmURL": "http://x"}`))
	call(t, app, jar, save(`{"circleSize": 75}`))

	_, body := call(t, app, jar, get())
	if body != `{"circleSize":75,"osrmURL":null}` {
		t.Fatalf("body=%s", body)
	}
}

func TestSave_MalformedBody(t *testing.T) {
	app := newTestApp(t)
	status, _ := call(t, app, testutil.NewJar(), save(`{"circleSize":`))
	if status != http.StatusBadRequest {
		t.Fatalf("status=%d", status)
	}
}
