package workspaces

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/algrv/codelab/internal/auth"
	"codeberg.org/algrv/codelab/internal/sandbox"
	"codeberg.org/algrv/codelab/internal/sandbox/sandboxtest"
	"codeberg.org/algrv/codelab/internal/workspace"
)

type closedRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *closedRecorder) CloseWorkspace(id, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func scaffoldEntry(dir string) {
	_ = os.MkdirAll(filepath.Join(dir, "src"), 0o755)
	_ = os.WriteFile(filepath.Join(dir, "src", "App.tsx"), []byte("export default function App() {}\n"), 0o644)
}

func okScripts() map[string]sandboxtest.Script {
	return map[string]sandboxtest.Script{
		"scaffold":    {Effect: scaffoldEntry},
		"pnpm i":      {Output: []string{"done\n"}},
		"npm run dev": {Output: []string{"VITE ready\n"}, Block: true},
	}
}

type testServer struct {
	router  *gin.Engine
	manager *workspace.Manager
	closer  *closedRecorder
}

func newTestServer(t *testing.T, scripts map[string]sandboxtest.Script) *testServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	require.NoError(t, auth.Initialize("test-jwt-secret", "test-session-secret-32-bytes-long", false))

	m := workspace.NewManager(workspace.ManagerConfig{
		Sandbox: sandbox.Options{
			Root:     t.TempDir(),
			Executor: sandboxtest.NewExecutor(scripts),
		},
		Commands: workspace.Commands{
			Scaffold:  []string{"scaffold"},
			Install:   []string{"pnpm", "i"},
			Start:     []string{"npm", "run", "dev"},
			EntryFile: "/src/App.tsx",
		},
		CleanupInterval: time.Hour,
	})
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	closer := &closedRecorder{}

	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), m, closer)

	return &testServer{router: r, manager: m, closer: closer}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	return rec
}

func (s *testServer) create(t *testing.T) WorkspaceResponse {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/v1/workspaces", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp WorkspaceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	return resp
}

func (s *testServer) waitState(t *testing.T, id string, state workspace.State) {
	t.Helper()

	w, ok := s.manager.Get(id)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		return w.State() == state
	}, 5*time.Second, 20*time.Millisecond)
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return resp.Error
}

func TestCreateWorkspace(t *testing.T) {
	s := newTestServer(t, okScripts())

	rec := s.do(t, http.MethodPost, "/api/v1/workspaces", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp WorkspaceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "javascript", resp.Workspace.Selection.Language)
	assert.Equal(t, "react", resp.Workspace.Selection.Framework)
	assert.Equal(t, workspace.LoadingPreview, resp.Workspace.PreviewURL)
	assert.NotEmpty(t, rec.Result().Cookies())

	s.waitState(t, resp.Workspace.ID, workspace.StateReady)
}

func TestWorkspaceRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, okScripts())
	a := s.create(t)
	b := s.create(t)
	s.waitState(t, a.Workspace.ID, workspace.StateReady)
	s.waitState(t, b.Workspace.ID, workspace.StateReady)

	rec := s.do(t, http.MethodGet, "/api/v1/workspaces/"+a.Workspace.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/workspaces/"+a.Workspace.ID, b.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetWorkspace_AfterBootstrap(t *testing.T) {
	s := newTestServer(t, okScripts())
	ws := s.create(t)
	s.waitState(t, ws.Workspace.ID, workspace.StateReady)

	rec := s.do(t, http.MethodGet, "/api/v1/workspaces/"+ws.Workspace.ID, ws.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view workspace.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, workspace.StateReady, view.State)
	assert.True(t, view.CanExecute)
	assert.True(t, view.CanDownload)
	assert.Equal(t, "export default function App() {}\n", view.Code)
}

func TestSelection(t *testing.T) {
	s := newTestServer(t, okScripts())
	ws := s.create(t)
	s.waitState(t, ws.Workspace.ID, workspace.StateReady)
	base := "/api/v1/workspaces/" + ws.Workspace.ID

	rec := s.do(t, http.MethodPut, base+"/language", ws.Token, SetLanguageRequest{Language: "php"})
	require.Equal(t, http.StatusOK, rec.Code)

	var sel SelectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sel))
	assert.Equal(t, "php", sel.Selection.Language)
	assert.Empty(t, sel.Selection.Framework)
	assert.Equal(t, []string{"laravel", "symfony", "wordpress"}, sel.Options)

	rec = s.do(t, http.MethodPut, base+"/framework", ws.Token, SetFrameworkRequest{Framework: "laravel"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, base+"/framework", ws.Token, SetFrameworkRequest{Framework: "react"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, base+"/language", ws.Token, SetLanguageRequest{Language: "cobol"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, base+"/language", ws.Token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))
}

func TestFiles(t *testing.T) {
	s := newTestServer(t, okScripts())
	ws := s.create(t)
	s.waitState(t, ws.Workspace.ID, workspace.StateReady)
	base := "/api/v1/workspaces/" + ws.Workspace.ID

	rec := s.do(t, http.MethodPut, base+"/files", ws.Token, WriteFileRequest{Path: "/src/App.tsx", Content: "export const x = 1\n"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, base+"/files?path=/src/App.tsx", ws.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var file FileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &file))
	assert.Equal(t, "export const x = 1\n", file.Content)

	w, _ := s.manager.Get(ws.Workspace.ID)
	assert.Equal(t, "export const x = 1\n", w.Code())

	rec = s.do(t, http.MethodGet, base+"/dir?path=/src", ws.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dir DirResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dir))
	require.Len(t, dir.Entries, 1)
	assert.Equal(t, "App.tsx", dir.Entries[0].Name)

	rec = s.do(t, http.MethodGet, base+"/files?path=/missing.ts", ws.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, base+"/files?path=../../etc/passwd", ws.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, base+"/files", ws.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, base+"/files", ws.Token, WriteFileRequest{Path: "big.txt", Content: strings.Repeat("a", maxFileSize+1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecute(t *testing.T) {
	s := newTestServer(t, okScripts())
	ws := s.create(t)
	s.waitState(t, ws.Workspace.ID, workspace.StateReady)

	rec := s.do(t, http.MethodPost, "/api/v1/workspaces/"+ws.Workspace.ID+"/execute", ws.Token, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, workspace.StateRunning, resp.State)
	assert.Equal(t, workspace.LoadingPreview, resp.PreviewURL)
}

func TestExecuteAndExport_InstallFailed(t *testing.T) {
	scripts := okScripts()
	scripts["pnpm i"] = sandboxtest.Script{Output: []string{"ERR_PNPM_FETCH_404\n"}, ExitCode: 1}

	s := newTestServer(t, scripts)
	ws := s.create(t)
	s.waitState(t, ws.Workspace.ID, workspace.StateFailed)
	base := "/api/v1/workspaces/" + ws.Workspace.ID

	rec := s.do(t, http.MethodPost, base+"/execute", ws.Token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "sandbox_not_ready", errorCode(t, rec))

	rec = s.do(t, http.MethodGet, base+"/export", ws.Token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExport(t *testing.T) {
	scripts := okScripts()
	scripts["pnpm i"] = sandboxtest.Script{Effect: func(dir string) {
		_ = os.MkdirAll(filepath.Join(dir, "node_modules", "react"), 0o755)
		_ = os.WriteFile(filepath.Join(dir, "node_modules", "react", "index.js"), []byte("x"), 0o644)
	}}

	s := newTestServer(t, scripts)
	ws := s.create(t)
	s.waitState(t, ws.Workspace.ID, workspace.StateReady)

	rec := s.do(t, http.MethodGet, "/api/v1/workspaces/"+ws.Workspace.ID+"/export?token="+ws.Token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sandbox.zip")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	assert.Contains(t, names, "src/App.tsx")
	for _, n := range names {
		assert.NotContains(t, n, "node_modules")
	}
}

func TestExport_Tar(t *testing.T) {
	scripts := okScripts()
	scripts["pnpm i"] = sandboxtest.Script{Effect: func(dir string) {
		_ = os.MkdirAll(filepath.Join(dir, "node_modules", "react"), 0o755)
		_ = os.WriteFile(filepath.Join(dir, "node_modules", "react", "index.js"), []byte("x"), 0o644)
	}}

	s := newTestServer(t, scripts)
	ws := s.create(t)
	s.waitState(t, ws.Workspace.ID, workspace.StateReady)
	base := "/api/v1/workspaces/" + ws.Workspace.ID + "/export"

	rec := s.do(t, http.MethodGet, base+"?format=tar", ws.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/gzip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sandbox.tar.gz")

	gz, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)

	tr := tar.NewReader(gz)

	var names []string
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}

	assert.Contains(t, names, "src/App.tsx")
	for _, n := range names {
		assert.NotContains(t, n, "node_modules/react", n)
	}

	rec = s.do(t, http.MethodGet, base+"?format=rar", ws.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))

	rec = s.do(t, http.MethodGet, base+"?format=zip", ws.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sandbox.zip")
}

func TestDeleteWorkspace(t *testing.T) {
	s := newTestServer(t, okScripts())
	ws := s.create(t)
	s.waitState(t, ws.Workspace.ID, workspace.StateReady)
	path := "/api/v1/workspaces/" + ws.Workspace.ID

	rec := s.do(t, http.MethodDelete, path, ws.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{ws.Workspace.ID}, s.closer.ids)

	rec = s.do(t, http.MethodGet, path, ws.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, path, ws.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSession_ResumesWorkspace(t *testing.T) {
	s := newTestServer(t, okScripts())

	rec := s.do(t, http.MethodGet, "/api/v1/session", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var first WorkspaceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var second WorkspaceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, first.Workspace.ID, second.Workspace.ID)
	assert.Equal(t, first.Token, second.Token)

	s.waitState(t, first.Workspace.ID, workspace.StateReady)
}

func TestSession_ExpiredWorkspaceIsReplaced(t *testing.T) {
	s := newTestServer(t, okScripts())

	rec := s.do(t, http.MethodGet, "/api/v1/session", "", nil)
	var first WorkspaceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	s.waitState(t, first.Workspace.ID, workspace.StateReady)

	require.NoError(t, s.manager.Delete(context.Background(), first.Workspace.ID))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var second WorkspaceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.NotEqual(t, first.Workspace.ID, second.Workspace.ID)

	s.waitState(t, second.Workspace.ID, workspace.StateReady)
}
