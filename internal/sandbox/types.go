// Package sandbox runs generated projects in an isolated directory: a file
// system rooted at one host directory, processes whose output is streamed
// as it arrives, and detection of dev servers those processes start.
package sandbox

import (
	"context"
	"errors"
	"io"
	"sync"
)

var (
	ErrPathOutsideRoot = errors.New("path escapes sandbox root")
	ErrTornDown        = errors.New("sandbox has been torn down")
	ErrEmptyCommand    = errors.New("empty command")
)

const (
	RuntimeLocal  = "local"
	RuntimeDocker = "docker"
)

// FileSystemTree describes files to mount. Each entry is either a file with
// contents or a directory holding a nested tree.
type FileSystemTree map[string]Node

type Node struct {
	File      *FileNode      `json:"file,omitempty"`
	Directory FileSystemTree `json:"directory,omitempty"`
}

type FileNode struct {
	Contents string `json:"contents"`
}

type DirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

// emitted when a spawned process starts accepting connections on a port
type ServerReady struct {
	Port int    `json:"port"`
	URL  string `json:"url"`
}

type Options struct {
	ID      string
	Root    string // parent directory; the sandbox lives in Root/ID
	Runtime string
	Image   string // docker runtime only
	// template for preview URLs; {port} and {id} are substituted.
	// empty means http://localhost:{port}
	PreviewHost string
	// overrides Runtime when set
	Executor Executor
}

// Executor starts processes inside a sandbox directory.
type Executor interface {
	Start(ctx context.Context, dir string, argv []string) (Execution, error)
	Close(ctx context.Context) error
}

// Execution is one running process as seen by an Executor.
type Execution interface {
	// combined stdout and stderr, EOF once the process has exited
	Output() io.Reader
	Wait() (int, error)
	Kill() error
}

type Sandbox struct {
	id          string
	root        string
	executor    Executor
	previewHost string

	mu          sync.Mutex
	processes   map[string]*Process
	subscribers map[int]func(ServerReady)
	nextSubID   int
	tornDown    bool
}

type Process struct {
	ID      string
	Command []string

	sandbox   *Sandbox
	execution Execution
	output    chan []byte
	done      chan struct{}
	exitCode  int
	err       error

	portsMu sync.Mutex
	ports   map[int]bool
}

type ExportFormat string

const (
	FormatZip ExportFormat = "zip"
	FormatTar ExportFormat = "tar"
)

type ExportOptions struct {
	Format ExportFormat
	// glob patterns matched against slash-separated paths relative to the
	// exported directory; a match on any ancestor excludes the path
	Excludes []string
}
