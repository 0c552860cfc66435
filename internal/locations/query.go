// Package locations turns browser location queries into backend requests
// and scopes device lists to the signed-in user.
package locations

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/romangarms/WhereHaveIBeen/internal/owntracks"
	"github.com/romangarms/WhereHaveIBeen/pkg"
)

// Range bounds used when the client leaves one open.
const (
	DefaultFrom = "2015-01-01T01:00:00.000Z"
	DefaultTo   = "2099-12-31T23:59:59.000Z"
)

const formatGeoJSON = "geojson"

// RangeParams are the raw browser query parameters.
type RangeParams struct {
	StartDate string
	EndDate   string
	Device    string
}

// Query is a location-history request in backend wire form. From and To
// are always WireLayout UTC instants.
type Query struct {
	From   string
	To     string
	User   string
	Device string
	Format string
}

// BuildQuery normalizes the supplied bounds into UTC, reading zone-less
// values in loc. Empty bounds keep their defaults.
func BuildQuery(creds owntracks.Credentials, p RangeParams, loc *time.Location) (Query, error) {
	q := Query{
		From:   DefaultFrom,
		To:     DefaultTo,
		User:   strings.ToLower(creds.Username),
		Device: p.Device,
		Format: formatGeoJSON,
	}
	if p.StartDate != "" {
		from, err := pkg.NormalizeTimestamp(p.StartDate, loc)
		if err != nil {
			return Query{}, fmt.Errorf("startdate: %w", err)
		}
		q.From = from
	}
	if p.EndDate != "" {
		to, err := pkg.NormalizeTimestamp(p.EndDate, loc)
		if err != nil {
			return Query{}, fmt.Errorf("enddate: %w", err)
		}
		q.To = to
	}
	return q, nil
}

// Values renders q as backend query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("from", q.From)
	v.Set("to", q.To)
	v.Set("format", q.Format)
	v.Set("user", q.User)
	if q.Device != "" {
		v.Set("device", q.Device)
	}
	return v
}
