package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"spm-client/internal/analytics"
	"spm-client/internal/httpx"
	"spm-client/internal/logger"
)

type sessionResponse struct {
	EmployeeID int    `json:"employee_id"`
	Role       string `json:"role"`
	Token      string `json:"token"`
}

func startSession(w http.ResponseWriter, r *http.Request, secret []byte, ttl time.Duration, e Employee) (string, error) {
	token, err := GenerateToken(secret, e, ttl)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

func LoginHandler(c *Client, secret []byte, ttl time.Duration, rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		e, err := c.Login(r.Context(), body.Email, body.Password)
		if errors.Is(err, ErrInvalidLogin) {
			http.Error(w, "invalid login", http.StatusUnauthorized)
			return
		}
		if err != nil {
			logger.FromContext(r.Context()).Warn("login failed", "err", err)
			httpx.RelayError(w, err)
			return
		}

		token, err := startSession(w, r, secret, ttl, e)
		if err != nil {
			http.Error(w, "session error", http.StatusInternalServerError)
			return
		}

		env := analytics.FromRequest(r)
		env.EmployeeID = e.EmployeeID
		rec.Log(r.Context(), env, "login", map[string]any{"role": e.Role})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sessionResponse{EmployeeID: e.EmployeeID, Role: e.Role, Token: token})
	}
}

func RegisterHandler(c *Client, secret []byte, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body RegisterInput
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.Email == "" || body.Password == "" {
			http.Error(w, "email & password required", http.StatusBadRequest)
			return
		}

		e, err := c.Register(r.Context(), body)
		if errors.Is(err, ErrEmployeeExists) {
			http.Error(w, "employee already exists", http.StatusConflict)
			return
		}
		if err != nil {
			httpx.RelayError(w, err)
			return
		}

		token, err := startSession(w, r, secret, ttl, e)
		if err != nil {
			http.Error(w, "session error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(sessionResponse{EmployeeID: e.EmployeeID, Role: e.Role, Token: token})
	}
}

func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := EmployeeFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(e)
	}
}
