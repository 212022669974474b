package auth

import (
	"encoding/json"
	"net/http"

	"spm-client/internal/analytics"
)

func LogoutHandler(rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// tokens are stateless: logging out only drops the cookie
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		if e, ok := EmployeeFromContext(r.Context()); ok {
			env := analytics.FromRequest(r)
			env.EmployeeID = e.EmployeeID
			rec.Log(r.Context(), env, "logout", nil)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
		})
	}
}
