package projects

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spm-client/internal/httpx"
)

const projectJSON = `{"id":4,"name":"Website","owner":"Alice","status":"Active","tasksDone":3,"tasksTotal":12,"updatedAt":"2026-10-01T09:30:00.000Z"}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	hc, err := httpx.New(httpx.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return NewClient(hc)
}

func TestClient_List(t *testing.T) {
	t.Run("Should decode projects", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/projects", r.URL.Path)
			_, _ = w.Write([]byte(`[` + projectJSON + `]`))
		})

		got, err := c.List(t.Context())
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Website", got[0].Name)
		assert.Equal(t, 2026, got[0].UpdatedAt.Year())
		assert.InDelta(t, 0.25, got[0].Progress(), 1e-9)
	})

	t.Run("Should return the upstream text on error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("maintenance"))
		})

		_, err := c.List(t.Context())
		require.Error(t, err)
		assert.Equal(t, "maintenance", err.Error())
		assert.Equal(t, http.StatusServiceUnavailable, httpx.StatusCode(err))
	})
}

func TestClient_Create(t *testing.T) {
	t.Run("Should omit unset fields so service defaults apply", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{"name": "Website"}, body)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(projectJSON))
		})

		p, err := c.Create(t.Context(), CreateProjectInput{Name: "Website"})
		require.NoError(t, err)
		assert.Equal(t, 4, p.ID)
	})

	t.Run("Should reject inconsistent counters", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})

		_, err := c.Create(t.Context(), CreateProjectInput{TasksDone: 5, TasksTotal: 2})
		assert.Error(t, err)
		_, err = c.Create(t.Context(), CreateProjectInput{Status: "Deleted"})
		assert.Error(t, err)
	})
}

func TestClient_Archive(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/projects/4/archive", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":4,"name":"Website","status":"Archived","updatedAt":"2026-10-02T09:30:00.000Z"}`))
	})

	p, err := c.Archive(t.Context(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Archived", p.Status)
}

func TestProject_Progress(t *testing.T) {
	assert.Zero(t, Project{}.Progress())
	assert.InDelta(t, 1.0, Project{TasksDone: 2, TasksTotal: 2}.Progress(), 1e-9)
}
