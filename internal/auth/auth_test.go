package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spm-client/internal/analytics"
	"spm-client/internal/httpx"
)

var secret = []byte("test-secret")

func loginService(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	hc, err := httpx.New(httpx.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return NewClient(hc)
}

func fakeLogin(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	switch {
	case r.URL.Path == "/register" && body["email"] == "taken@corp.com":
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Employee already exists"}`))
	case r.URL.Path == "/register":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"employee_id":31,"role":"Staff"}`))
	case body["email"] == "ghost@corp.com":
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Employee does not exist"}`))
	case body["password"] != "pw":
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Incorrect password"}`))
	default:
		_, _ = w.Write([]byte(`{"employee_id":12,"role":"Manager"}`))
	}
}

func TestToken(t *testing.T) {
	t.Run("Should round trip the employee", func(t *testing.T) {
		tok, err := GenerateToken(secret, Employee{EmployeeID: 12, Role: "Manager"}, time.Hour)
		require.NoError(t, err)

		e, err := ParseToken(secret, tok)
		require.NoError(t, err)
		assert.Equal(t, Employee{EmployeeID: 12, Role: "Manager"}, e)
	})

	t.Run("Should reject a wrong secret", func(t *testing.T) {
		tok, err := GenerateToken(secret, Employee{EmployeeID: 12}, time.Hour)
		require.NoError(t, err)
		_, err = ParseToken([]byte("other"), tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should reject expired tokens", func(t *testing.T) {
		tok, err := GenerateToken(secret, Employee{EmployeeID: 12}, -time.Minute)
		require.NoError(t, err)
		_, err = ParseToken(secret, tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should reject tokens without employee", func(t *testing.T) {
		tok, err := GenerateToken(secret, Employee{}, time.Hour)
		require.NoError(t, err)
		_, err = ParseToken(secret, tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClient_Login(t *testing.T) {
	c := loginService(t, fakeLogin)

	e, err := c.Login(t.Context(), " boss@corp.com ", "pw")
	require.NoError(t, err)
	assert.Equal(t, Employee{EmployeeID: 12, Role: "Manager"}, e)

	_, err = c.Login(t.Context(), "boss@corp.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidLogin)

	_, err = c.Login(t.Context(), "ghost@corp.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidLogin)

	_, err = c.Login(t.Context(), "", "pw")
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestClient_Register(t *testing.T) {
	c := loginService(t, fakeLogin)

	e, err := c.Register(t.Context(), RegisterInput{Email: "new@corp.com", Password: "pw", Role: "Staff"})
	require.NoError(t, err)
	assert.Equal(t, 31, e.EmployeeID)

	_, err = c.Register(t.Context(), RegisterInput{Email: "taken@corp.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrEmployeeExists)
}

func TestMiddleware(t *testing.T) {
	m := New(secret)
	tok, err := GenerateToken(secret, Employee{EmployeeID: 12, Role: "Staff"}, time.Hour)
	require.NoError(t, err)

	ok := func(w http.ResponseWriter, r *http.Request) {
		e, found := EmployeeFromContext(r.Context())
		require.True(t, found)
		id, _ := analytics.EmployeeIDFromContext(r.Context())
		assert.Equal(t, e.EmployeeID, id)
		w.WriteHeader(http.StatusNoContent)
	}

	t.Run("Should accept bearer tokens", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		m.Wrap(ok)(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Should accept the session cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		r.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
		w := httptest.NewRecorder()
		m.Guard("/login", ok)(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Should hand the caller to upstream calls without our cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		r.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
		r.AddCookie(&http.Cookie{Name: "sid", Value: "upstream"})
		w := httptest.NewRecorder()
		m.Wrap(func(w http.ResponseWriter, r *http.Request) {
			caller, found := httpx.CallerFromContext(r.Context())
			require.True(t, found)
			assert.Equal(t, 12, caller.EmployeeID)
			require.Len(t, caller.Cookies, 1)
			assert.Equal(t, "sid", caller.Cookies[0].Name)
			w.WriteHeader(http.StatusNoContent)
		})(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Should answer 401 on API routes without session", func(t *testing.T) {
		w := httptest.NewRecorder()
		m.Wrap(ok)(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should redirect views to login without session", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/reports?range=q3", nil)
		r.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
		w := httptest.NewRecorder()
		m.Guard("/login", ok)(w, r)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login?next=%2Freports%3Frange%3Dq3", w.Header().Get("Location"))
	})

	t.Run("Should pass through when optional", func(t *testing.T) {
		called := false
		w := httptest.NewRecorder()
		m.Optional(func(w http.ResponseWriter, r *http.Request) {
			called = true
			_, found := EmployeeFromContext(r.Context())
			assert.False(t, found)
		})(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, called)
	})
}

func TestLoginHandler(t *testing.T) {
	c := loginService(t, fakeLogin)
	rec := analytics.NewRecorder(prometheus.NewRegistry(), nil)
	h := LoginHandler(c, secret, time.Hour, rec)

	t.Run("Should set the session cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"boss@corp.com","password":"pw"}`)))

		require.Equal(t, http.StatusOK, w.Code)
		var resp sessionResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 12, resp.EmployeeID)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, CookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)

		e, err := ParseToken(secret, cookies[0].Value)
		require.NoError(t, err)
		assert.Equal(t, "Manager", e.Role)
	})

	t.Run("Should answer 401 on bad credentials", func(t *testing.T) {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"boss@corp.com","password":"x"}`)))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("Should answer 400 on bad json", func(t *testing.T) {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRegisterHandler(t *testing.T) {
	c := loginService(t, fakeLogin)
	h := RegisterHandler(c, secret, time.Hour)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"email":"taken@corp.com","password":"pw"}`)))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"email":"new@corp.com","password":"pw"}`)))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestLogoutAndMe(t *testing.T) {
	rec := analytics.NewRecorder(prometheus.NewRegistry(), nil)

	w := httptest.NewRecorder()
	LogoutHandler(rec)(w, httptest.NewRequest(http.MethodPost, "/api/logout", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)

	w = httptest.NewRecorder()
	MeHandler()(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
