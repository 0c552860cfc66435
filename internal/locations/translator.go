package locations

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/romangarms/WhereHaveIBeen/internal/logx"
	"github.com/romangarms/WhereHaveIBeen/internal/owntracks"
)

var log = logx.GetScope("locations")

// ErrNotAuthenticated is returned when the session holds no credentials.
var ErrNotAuthenticated = errors.New("locations: no session credentials")

// Backend is the part of the location backend reads go through.
type Backend interface {
	Locations(ctx context.Context, creds owntracks.Credentials, query url.Values) (json.RawMessage, error)
	LastPositions(ctx context.Context, creds owntracks.Credentials) ([]json.RawMessage, error)
}

// CredentialSource yields the signed-in user's backend credentials.
// *session.Session satisfies it.
type CredentialSource interface {
	Credentials() (owntracks.Credentials, bool)
}

type Translator struct {
	backend Backend
	loc     *time.Location
}

// NewTranslator reads zone-less client timestamps in loc.
func NewTranslator(backend Backend, loc *time.Location) *Translator {
	if loc == nil {
		loc = time.Local
	}
	return &Translator{backend: backend, loc: loc}
}

// History returns the backend's GeoJSON for the requested range verbatim.
func (t *Translator) History(ctx context.Context, src CredentialSource, p RangeParams) (json.RawMessage, error) {
	creds, ok := src.Credentials()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	q, err := BuildQuery(creds, p, t.loc)
	if err != nil {
		return nil, err
	}
	body, err := t.backend.Locations(ctx, creds, q.Values())
	if err != nil {
		log.Error("locations: backend read failed",
			zap.String("user", creds.Username),
			zap.String("from", q.From),
			zap.String("to", q.To),
			zap.Error(err))
		return nil, err
	}
	return body, nil
}

// Devices returns the last known positions belonging to the session user,
// in backend order.
func (t *Translator) Devices(ctx context.Context, src CredentialSource) ([]json.RawMessage, error) {
	creds, ok := src.Credentials()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	entries, err := t.backend.LastPositions(ctx, creds)
	if err != nil {
		log.Error("usersdevices: backend read failed", zap.String("user", creds.Username), zap.Error(err))
		return nil, err
	}

	log.Info("usersdevices: backend entries",
		zap.Int("count", len(entries)),
		zap.String("user", creds.Username))
	if ce := log.Zap().Check(zap.DebugLevel, "usersdevices: usernames in response"); ce != nil {
		ce.Write(zap.Strings("usernames", lo.Map(entries, func(e json.RawMessage, _ int) string {
			name, _ := entryUsername(e)
			return name
		})))
	}

	filtered := FilterDevices(entries, creds.Username)
	log.Info("usersdevices: entries after filtering", zap.Int("count", len(filtered)))
	return filtered, nil
}

// FilterDevices keeps entries whose username case-insensitively equals
// username. Relative order is preserved; the result is never nil.
func FilterDevices(entries []json.RawMessage, username string) []json.RawMessage {
	want := strings.ToLower(username)
	out := lo.Filter(entries, func(e json.RawMessage, _ int) bool {
		name, ok := entryUsername(e)
		return ok && strings.ToLower(name) == want
	})
	if out == nil {
		return []json.RawMessage{}
	}
	return out
}

// entryUsername reads the username field; non-string values do not count.
func entryUsername(e json.RawMessage) (string, bool) {
	var probe struct {
		Username json.RawMessage `json:"username"`
	}
	if err := json.Unmarshal(e, &probe); err != nil || len(probe.Username) == 0 {
		return "", false
	}
	var name string
	if err := json.Unmarshal(probe.Username, &name); err != nil {
		return "", false
	}
	return name, true
}
