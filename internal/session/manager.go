package session

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/romangarms/WhereHaveIBeen/internal/logx"
)

var log = logx.GetScope("session")

const localsKey = "whib.session"

// Options configure the session cookie.
type Options struct {
	CookieName         string
	TTL                time.Duration
	Secure             bool
	RefreshEachRequest bool
}

// claims is the signed cookie payload.
type claims struct {
	Username   string          `json:"usr,omitempty"`
	Password   string          `json:"pwd,omitempty"`
	CircleSize json.RawMessage `json:"csz,omitempty"`
	OSRMURL    json.RawMessage `json:"osrm,omitempty"`
	Permanent  bool            `json:"perm,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs, verifies and (re)issues session cookies.
type Manager struct {
	keys   *keys
	opts   Options
	now    func() time.Time
	parser *jwt.Parser
}

// NewManager derives the session keys from secret.
func NewManager(secret string, opts Options) (*Manager, error) {
	k, err := deriveKeys(secret)
	if err != nil {
		return nil, err
	}
	if opts.CookieName == "" {
		opts.CookieName = "session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * 24 * time.Hour
	}
	m := &Manager{keys: k, opts: opts, now: time.Now}
	m.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	return m, nil
}

// CookieName is the name of the session cookie.
func (m *Manager) CookieName() string { return m.opts.CookieName }

// EncryptionKey is the base64 key for fiber's encryptcookie middleware.
func (m *Manager) EncryptionKey() string { return m.keys.encodedEncryptionKey() }

// Encode signs s with a fresh issue time and expiry.
func (m *Manager) Encode(s *Session) (string, error) {
	now := m.now().UTC()
	c := &claims{
		Username:   s.username,
		Password:   s.password,
		CircleSize: s.prefs.CircleSize,
		OSRMURL:    s.prefs.OSRMURL,
		Permanent:  s.permanent,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.opts.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.keys.sign)
}

// Decode verifies token and returns the session it carries. Callers treat
// any error as an anonymous session.
func (m *Manager) Decode(token string) (*Session, error) {
	if token == "" {
		return New(), nil
	}
	c := &claims{}
	tok, err := m.parser.ParseWithClaims(token, c, func(_ *jwt.Token) (interface{}, error) {
		return m.keys.sign, nil
	})
	if err != nil {
		return New(), err
	}
	if !tok.Valid {
		return New(), errors.New("session: invalid token")
	}

	s := &Session{
		prefs:     Preferences{CircleSize: c.CircleSize, OSRMURL: c.OSRMURL},
		permanent: c.Permanent,
		loaded:    true,
	}
	// a half pair is never trusted as credentials
	if c.Username != "" && c.Password != "" {
		s.username, s.password = c.Username, c.Password
	}
	return s, nil
}

// Middleware decodes the cookie into the request and writes it back after
// the handler chain when it changed, was cleared, or needs refreshing.
// It must run after the encryptcookie middleware.
func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := m.Decode(c.Cookies(m.opts.CookieName))
		if err != nil {
			log.Debug("discarding session cookie", zap.Error(err), zap.String("ip", c.IP()))
		}
		c.Locals(localsKey, s)

		chainErr := c.Next()
		m.persist(c, s)
		return chainErr
	}
}

func (m *Manager) persist(c *fiber.Ctx, s *Session) {
	switch {
	case s.cleared, s.dirty && s.Empty():
		m.expire(c)
	case s.dirty:
		m.write(c, s)
	case s.loaded && s.permanent && m.opts.RefreshEachRequest && !s.Empty():
		m.write(c, s)
	}
}

func (m *Manager) write(c *fiber.Ctx, s *Session) {
	token, err := m.Encode(s)
	if err != nil {
		log.Error("encode session", zap.Error(err))
		return
	}
	ck := &fiber.Cookie{
		Name:     m.opts.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   m.opts.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if s.permanent {
		ck.MaxAge = int(m.opts.TTL / time.Second)
	} else {
		ck.SessionOnly = true
	}
	c.Cookie(ck)
}

func (m *Manager) expire(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   m.opts.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Unix(0, 0),
	})
}

// FromCtx returns the request's session. Without the middleware a fresh
// anonymous session is returned and changes to it are not persisted.
func FromCtx(c *fiber.Ctx) *Session {
	if s, ok := c.Locals(localsKey).(*Session); ok && s != nil {
		return s
	}
	return New()
}
