package web

import (
	_ "embed"
	"html/template"
	"net/http"

	"spm-client/internal/auth"
)

//go:embed static/index.html
var shellHTML string

var shell = template.Must(template.New("shell").Parse(shellHTML))

type view struct {
	Name  string
	Path  string
	Title string
	// Public views render without a session.
	Public bool
}

var views = []view{
	{Name: "home", Path: "/{$}", Title: "Home"},
	{Name: "tasks", Path: "/tasks", Title: "Tasks"},
	{Name: "reports", Path: "/reports", Title: "Reports"},
	{Name: "login", Path: "/login", Title: "Login", Public: true},
}

func viewHandler(v view) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := struct {
			View       string
			Title      string
			EmployeeID int
		}{View: v.Name, Title: v.Title}
		if e, ok := auth.EmployeeFromContext(r.Context()); ok {
			data.EmployeeID = e.EmployeeID
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := shell.Execute(w, data); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}
