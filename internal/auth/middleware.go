package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"spm-client/internal/analytics"
	"spm-client/internal/httpx"
)

type ctxKey string

const employeeKey ctxKey = "employee"

// CookieName holds the session token for browser navigation.
const CookieName = "spm_session"

type Middleware struct {
	secret []byte
}

func New(secret []byte) Middleware {
	return Middleware{secret: secret}
}

func (m Middleware) authenticate(r *http.Request) (*http.Request, bool) {
	tokenString := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		tokenString = strings.TrimPrefix(h, "Bearer ")
	} else if c, err := r.Cookie(CookieName); err == nil {
		tokenString = c.Value
	}
	if tokenString == "" {
		return r, false
	}

	e, err := ParseToken(m.secret, tokenString)
	if err != nil {
		return r, false
	}

	ctx := context.WithValue(r.Context(), employeeKey, e)
	ctx = analytics.WithEmployeeID(ctx, e.EmployeeID)
	ctx = httpx.WithCaller(ctx, httpx.Caller{EmployeeID: e.EmployeeID, Cookies: upstreamCookies(r)})
	return r.WithContext(ctx), true
}

// upstreamCookies is what the browser sent minus our own session cookie.
func upstreamCookies(r *http.Request) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range r.Cookies() {
		if c.Name != CookieName {
			out = append(out, c)
		}
	}
	return out
}

// Wrap guards API routes: no valid session means 401.
func (m Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r, ok := m.authenticate(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// Guard protects view routes: no valid session redirects to loginPath,
// remembering where the user was going.
func (m Middleware) Guard(loginPath string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r, ok := m.authenticate(r)
		if !ok {
			target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next(w, r)
	}
}

// Optional attaches the employee when a session is present and never blocks.
func (m Middleware) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r, _ = m.authenticate(r)
		next(w, r)
	}
}

func EmployeeFromContext(ctx context.Context) (Employee, bool) {
	e, ok := ctx.Value(employeeKey).(Employee)
	return e, ok
}
