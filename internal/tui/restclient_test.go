package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/algrv/codelab/internal/workspace"
)

// fake workspace API recording what the client sent
func newFakeAPI(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()

	var calls []string

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/workspaces", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(workspaceResponse{ //nolint:errcheck
			Workspace: workspace.View{ID: "ws-1", State: workspace.StateBooting, PreviewURL: "loading.html"},
			Token:     "secret",
		})
	})

	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer secret" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"workspace token required"}`)) //nolint:errcheck
				return
			}
			calls = append(calls, r.Method+" "+r.URL.Path)
			h(w, r)
		}
	}

	mux.HandleFunc("GET /api/v1/workspaces/ws-1", authed(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(workspace.View{ID: "ws-1", State: workspace.StateReady}) //nolint:errcheck
	}))

	mux.HandleFunc("PUT /api/v1/workspaces/ws-1/language", authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
		if body["language"] != "python" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"bad_request","message":"unknown language","details":"cobol"}`)) //nolint:errcheck
			return
		}
		w.Write([]byte(`{}`)) //nolint:errcheck
	}))

	mux.HandleFunc("POST /api/v1/workspaces/ws-1/run", authed(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"appended":[{"role":"assistant","content":"{}"}],"artifacts":[{"language":"typescript","code":"x","description":"d","fileName":"src/App.tsx"}],"model":"gpt-4o","transcript_length":1}`)) //nolint:errcheck
	}))

	mux.HandleFunc("POST /api/v1/workspaces/ws-1/apply", authed(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"written":["src/App.tsx"],"code":"x"}`)) //nolint:errcheck
	}))

	mux.HandleFunc("GET /api/v1/workspaces/ws-1/export", authed(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("PK-archive")) //nolint:errcheck
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, &calls
}

func TestClientWorkspaceFlow(t *testing.T) {
	srv, calls := newFakeAPI(t)
	client := NewClientWithEndpoint(srv.URL + "/")
	ctx := t.Context()

	created, err := client.CreateWorkspace(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ws-1", created.Workspace.ID)

	view, err := client.GetWorkspace(ctx)
	require.NoError(t, err)
	assert.Equal(t, workspace.StateReady, view.State)

	require.NoError(t, client.SetLanguage(ctx, "python"))

	result, err := client.Run(ctx)
	require.NoError(t, err)
	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, "src/App.tsx", result.Artifacts[0].FileName)
	assert.Equal(t, 1, result.TranscriptLength)

	applied, err := client.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/App.tsx"}, applied.Written)

	path := filepath.Join(t.TempDir(), "sandbox.zip")
	require.NoError(t, client.Download(ctx, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK-archive", string(data))

	assert.Equal(t, []string{
		"GET /api/v1/workspaces/ws-1",
		"PUT /api/v1/workspaces/ws-1/language",
		"POST /api/v1/workspaces/ws-1/run",
		"POST /api/v1/workspaces/ws-1/apply",
		"GET /api/v1/workspaces/ws-1/export",
	}, *calls)
}

func TestClientDecodesErrors(t *testing.T) {
	srv, _ := newFakeAPI(t)
	client := NewClientWithEndpoint(srv.URL)
	client.workspaceID = "ws-1"

	_, err := client.GetWorkspace(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")

	_, err = client.CreateWorkspace(t.Context())
	require.NoError(t, err)

	err = client.SetLanguage(t.Context(), "cobol")
	require.Error(t, err)
	assert.Equal(t, "bad_request: unknown language (cobol)", err.Error())
}

func TestClientEventsURL(t *testing.T) {
	client := NewClientWithEndpoint("https://codelab.example")
	client.workspaceID = "ws-1"
	client.token = "a b"

	assert.Equal(t, "wss://codelab.example/api/v1/workspaces/ws-1/ws?token=a+b", client.EventsURL())

	client = NewClientWithEndpoint("http://localhost:8080")
	client.workspaceID = "ws-1"
	client.token = "t"

	assert.Equal(t, "ws://localhost:8080/api/v1/workspaces/ws-1/ws?token=t", client.EventsURL())
}

func TestCreateWorkspaceCmd(t *testing.T) {
	srv, _ := newFakeAPI(t)
	client := NewClientWithEndpoint(srv.URL)

	msg := client.CreateWorkspaceCmd()()

	created, ok := msg.(WorkspaceCreatedMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "ws-1", created.view.ID)
	assert.Equal(t, "secret", created.token)
}
