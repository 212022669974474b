package analytics

import (
	"encoding/json"
	"net/http"
	"strings"
)

var knownViews = map[string]bool{"home": true, "tasks": true, "reports": true, "login": true}

// ViewOpenedHandler records view_opened when the page switches views without a full load.
func ViewOpenedHandler(rec *Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			View string `json:"view"`
			From string `json:"from"` // link/back/reload/unknown
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		view := strings.ToLower(strings.TrimSpace(body.View))
		if !knownViews[view] {
			http.Error(w, "unknown view", http.StatusBadRequest)
			return
		}
		from := body.From
		if from == "" {
			from = "unknown"
		}

		rec.Log(r.Context(), FromRequest(r), "view_opened", map[string]any{
			"view": view,
			"from": from,
		})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
