package sandbox

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProject(t *testing.T, s *Sandbox) {
	t.Helper()

	for p, content := range map[string]string{
		"package.json":                  `{"name":"app"}`,
		"src/App.tsx":                   "export default function App() {}",
		"node_modules/react/index.js":   "module.exports = {}",
		"node_modules/.bin/vite":        "#!/bin/sh",
		"src/node_modules_notes.md":     "kept",
		"packages/ui/node_modules/x.js": "nested",
	} {
		require.NoError(t, s.WriteFile(p, []byte(content)))
	}
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)

	return names
}

func TestExportZip_ExcludesNodeModules(t *testing.T) {
	s := newTestSandbox(t)
	seedProject(t, s)

	var buf bytes.Buffer
	err := s.Export(context.Background(), &buf, ".", ExportOptions{
		Format:   FormatZip,
		Excludes: []string{"node_modules"},
	})
	require.NoError(t, err)

	names := zipNames(t, buf.Bytes())

	assert.Contains(t, names, "package.json")
	assert.Contains(t, names, "src/App.tsx")
	assert.Contains(t, names, "src/node_modules_notes.md")
	for _, n := range names {
		assert.NotContains(t, n, "node_modules/react", n)
		assert.NotEqual(t, "node_modules/", n)
	}
}

func TestExportZip_RecursiveGlob(t *testing.T) {
	s := newTestSandbox(t)
	seedProject(t, s)

	var buf bytes.Buffer
	err := s.Export(context.Background(), &buf, "/", ExportOptions{Excludes: []string{"**/node_modules"}})
	require.NoError(t, err)

	for _, n := range zipNames(t, buf.Bytes()) {
		assert.NotContains(t, n, "node_modules/", n)
	}
}

func TestExportZip_FileContents(t *testing.T) {
	s := newTestSandbox(t)
	require.NoError(t, s.WriteFile("src/App.tsx", []byte("hello")))

	var buf bytes.Buffer
	require.NoError(t, s.Export(context.Background(), &buf, "src", ExportOptions{Format: FormatZip}))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "App.tsx", zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestExportTar(t *testing.T) {
	s := newTestSandbox(t)
	seedProject(t, s)

	var buf bytes.Buffer
	err := s.Export(context.Background(), &buf, ".", ExportOptions{
		Format:   FormatTar,
		Excludes: []string{"node_modules"},
	})
	require.NoError(t, err)

	gz, err := gzip.NewReader(&buf)
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

	assert.Contains(t, names, "package.json")
	assert.Contains(t, names, "src/App.tsx")
	for _, n := range names {
		assert.NotContains(t, n, "node_modules/react", n)
	}
}

func TestExport_Errors(t *testing.T) {
	s := newTestSandbox(t)
	require.NoError(t, s.WriteFile("a.txt", []byte("a")))

	var buf bytes.Buffer

	assert.ErrorIs(t, s.Export(context.Background(), &buf, "../", ExportOptions{}), ErrPathOutsideRoot)
	assert.Error(t, s.Export(context.Background(), &buf, "a.txt", ExportOptions{}))
	assert.Error(t, s.Export(context.Background(), &buf, ".", ExportOptions{Format: "rar"}))
	assert.Error(t, s.Export(context.Background(), &buf, ".", ExportOptions{Excludes: []string{"[a"}}))
}

func TestExcluded(t *testing.T) {
	assert.True(t, excluded("node_modules", []string{"node_modules"}))
	assert.True(t, excluded("node_modules/react/index.js", []string{"node_modules"}))
	assert.False(t, excluded("src/node_modules_notes.md", []string{"node_modules"}))
	assert.True(t, excluded("a/b/node_modules/x", []string{"**/node_modules"}))
	assert.False(t, excluded("anything", nil))
}

func TestArchiveName(t *testing.T) {
	assert.Equal(t, "sandbox.zip", ArchiveName(FormatZip))
	assert.Equal(t, "sandbox.tar.gz", ArchiveName(FormatTar))
}
