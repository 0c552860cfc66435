package testutil

import (
	"net/http"
	"time"
)

// Cookie returns the named cookie a response set, or nil.
func Cookie(res *http.Response, name string) *http.Cookie {
	for _, ck := range res.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// Jar carries cookies between app.Test calls the way a browser would.
type Jar struct {
	cookies map[string]*http.Cookie
}

func NewJar() *Jar { return &Jar{cookies: map[string]*http.Cookie{}} }

// Store keeps cookies set by res, dropping the ones it expired.
func (j *Jar) Store(res *http.Response) {
	for _, ck := range res.Cookies() {
		expired := !ck.Expires.IsZero() && ck.Expires.Before(time.Now())
		if ck.Value == "" || ck.MaxAge < 0 || expired {
			delete(j.cookies, ck.Name)
			continue
		}
		j.cookies[ck.Name] = ck
	}
}

// Attach adds the stored cookies to req.
func (j *Jar) Attach(req *http.Request) {
	for _, ck := range j.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
}

// Has reports whether a cookie named name is held.
func (j *Jar) Has(name string) bool {
	_, ok := j.cookies[name]
	return ok
}
