package auth

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/romangarms/WhereHaveIBeen/internal/account"
	testutil "github.com/romangarms/WhereHaveIBeen/internal/httpx/kit/testutil"
	"github.com/romangarms/WhereHaveIBeen/internal/owntracks"
	"github.com/romangarms/WhereHaveIBeen/internal/session"
)

const cookieName = "session"

func newTestApp(t *testing.T, ot *testutil.OwnTracks) *fiber.App {
	t.Helper()
	mgr, err := session.NewManager("test-secret", session.Options{CookieName: cookieName, TTL: time.Hour})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	client := owntracks.NewClient(owntracks.Config{BaseURL: ot.URL, AuthTimeout: 2 * time.Second}, ot.Client())
	svc := account.NewService(client, nil)
	return testutil.NewApp(
		func(app *fiber.App) { app.Use(mgr.Middleware()) },
		func(app *fiber.App) { app.Post("/login", LoginHandler(svc)) },
		func(app *fiber.App) { app.Post("/register", RegisterHandler(svc)) },
		func(app *fiber.App) { app.Post("/delete-account", DeleteAccountHandler(svc)) },
		func(app *fiber.App) { app.Get("/sign_out", SignOutHandler(svc)) },
	)
}

func formLogin(username, password string) *http.Request {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(path string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func do(t *testing.T, app *fiber.App, jar *testutil.Jar, req *http.Request) *http.Response {
	t.Helper()
	jar.Attach(req)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	jar.Store(res)
	return res
}

func TestLogin_AcceptedRedirectsAndSetsCookie(t *testing.T) {
	ot := testutil.NewOwnTracks(t, map[string]string{"alice": "CorrectHorse42"})
	app := newTestApp(t, ot)
	jar := testutil.NewJar()

	res := do(t, app, jar, formLogin("alice", "CorrectHorse42"))
	if res.StatusCode != http.StatusFound {
		t.Fatalf("status=%d", res.StatusCode)
	}
	if loc := res.Header.Get("Location"); loc != "/" {
		t.Fatalf("location=%q", loc)
	}
	if !jar.Has(cookieName) {
		t.Fatalf("expected session cookie")
	}
}

func TestLogin_RejectedIs401WithoutCookie(t *testing.T) {
	ot := testutil.NewOwnTracks(t, map[string]string{"alice": "CorrectHorse42"})
	ot.DenyStatus = http.StatusForbidden
	app := newTestApp(t, ot)
	jar := testutil.NewJar()

	res := do(t, app, jar, formLogin("alice", "wrong"))
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d", res.StatusCode)
	}
	body := decode(t, res)
	if body["login_error"] != account.MsgInvalidCredentials {
		t.Fatalf("body=%v", body)
	}
	if jar.Has(cookieName) {
		t.Fatalf("rejected login must not set a session")
	}
}

func TestLogin_UnreachableIs500(t *testing.T) {
	ot := testutil.NewOwnTracks(t, nil)
	app := newTestApp(t, ot)
	ot.Close()

	res := do(t, app, testutil.NewJar(), formLogin("alice", "pw"))
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status=%d", res.StatusCode)
	}
	body := decode(t, res)
	if body["login_error"] != account.MsgUnreachable {
		t.Fatalf("body=%v", body)
	}
}

func TestLogin_MissingFieldIs400(t *testing.T) {
	ot := testutil.NewOwnTracks(t, nil)
	app := newTestApp(t, ot)

	res := do(t, app, testutil.NewJar(), formLogin("alice", ""))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d", res.StatusCode)
	}
}

func TestRegister_ValidationAndPassThrough(t *testing.T) {
	ot := testutil.NewOwnTracks(t, map[string]string{"taken": "CorrectHorse42"})
	app := newTestApp(t, ot)

	res := do(t, app, testutil.NewJar(), jsonRequest("/register", RegisterRequest{Username: "ab cd", Password: "ValidPass123"}))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d", res.StatusCode)
	}
	if body := decode(t, res); body["error"] != account.MsgInvalidUsername {
		t.Fatalf("body=%v", body)
	}

	res = do(t, app, testutil.NewJar(), jsonRequest("/register", RegisterRequest{Username: "taken", Password: "ValidPass123"}))
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status=%d", res.StatusCode)
	}
	if body := decode(t, res); body["error"] != "User already exists" {
		t.Fatalf("backend body not relayed: %v", body)
	}

	jar := testutil.NewJar()
	res = do(t, app, jar, jsonRequest("/register", RegisterRequest{Username: "  ab_cd-12 ", Password: "ValidPass123"}))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status=%d", res.StatusCode)
	}
	if !ot.HasAccount("ab_cd-12") {
		t.Fatalf("username should reach the backend trimmed")
	}
	if !jar.Has(cookieName) {
		t.Fatalf("registration should sign the user in")
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	ot := testutil.NewOwnTracks(t, nil)
	app := newTestApp(t, ot)

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	res := do(t, app, testutil.NewJar(), req)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d", res.StatusCode)
	}
}

func TestDeleteAccount_RequiresSession(t *testing.T) {
	ot := testutil.NewOwnTracks(t, map[string]string{"alice": "CorrectHorse42"})
	app := newTestApp(t, ot)

	for _, body := range []any{DeleteAccountRequest{Password: "CorrectHorse42"}, map[string]any{}} {
		res := do(t, app, testutil.NewJar(), jsonRequest("/delete-account", body))
		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status=%d", res.StatusCode)
		}
		if b := decode(t, res); b["error"] != account.MsgNotLoggedIn {
			t.Fatalf("body=%v", b)
		}
	}
	if !ot.HasAccount("alice") {
		t.Fatalf("account must survive")
	}
}

func TestDeleteAccount_Flow(t *testing.T) {
	ot := testutil.NewOwnTracks(t, map[string]string{"alice": "CorrectHorse42"})
	app := newTestApp(t, ot)
	jar := testutil.NewJar()

	if res := do(t, app, jar, formLogin("alice", "CorrectHorse42")); res.StatusCode != http.StatusFound {
		t.Fatalf("login status=%d", res.StatusCode)
	}

	res := do(t, app, jar, jsonRequest("/delete-account", map[string]any{}))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing password status=%d", res.StatusCode)
	}
	if b := decode(t, res); b["error"] != account.MsgPasswordRequired {
		t.Fatalf("body=%v", b)
	}

	res = do(t, app, jar, jsonRequest("/delete-account", DeleteAccountRequest{Password: "nope"}))
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password status=%d", res.StatusCode)
	}
	if !jar.Has(cookieName) {
		t.Fatalf("failed deletion must keep the session")
	}

	res = do(t, app, jar, jsonRequest("/delete-account", DeleteAccountRequest{Password: "CorrectHorse42"}))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", res.StatusCode)
	}
	if ot.HasAccount("alice") {
		t.Fatalf("account should be gone")
	}
	if jar.Has(cookieName) {
		t.Fatalf("session should be cleared")
	}
}

func TestSignOut_ClearsSession(t *testing.T) {
	ot := testutil.NewOwnTracks(t, map[string]string{"alice": "CorrectHorse42"})
	app := newTestApp(t, ot)
	jar := testutil.NewJar()

	do(t, app, jar, formLogin("alice", "CorrectHorse42"))
	res := do(t, app, jar, httptest.NewRequest(http.MethodGet, "/sign_out", nil))
	if res.StatusCode != http.StatusFound || res.Header.Get("Location") != "/" {
		t.Fatalf("status=%d location=%q", res.StatusCode, res.Header.Get("Location"))
	}
	if jar.Has(cookieName) {
		t.Fatalf("session should be cleared")
	}
}
