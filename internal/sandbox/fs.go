package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// cleans p into a slash-separated path relative to the root. "/" and ""
// are the root ("."); leading slashes are ignored.
func (s *Sandbox) relative(p string) (string, error) {
	rel := strings.TrimLeft(filepath.ToSlash(p), "/")
	if rel == "" {
		return ".", nil
	}

	cleaned := path.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRoot, p)
	}

	return cleaned, nil
}

// maps a sandbox path to a host path that stays inside the root once
// symlinks are followed
func (s *Sandbox) resolve(p string) (string, error) {
	rel, err := s.relative(p)
	if err != nil {
		return "", err
	}

	full := s.root
	if rel != "." {
		full = filepath.Join(s.root, filepath.FromSlash(rel))
	}

	if err := s.contain(full, p); err != nil {
		return "", err
	}

	return full, nil
}

// rejects full when its deepest existing ancestor resolves outside the
// root. dangling links are left to os.Root, which refuses to follow them
// out of the root.
func (s *Sandbox) contain(full, p string) error {
	realRoot, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		return fmt.Errorf("failed to resolve sandbox root: %w", err)
	}

	for cur := full; ; cur = filepath.Dir(cur) {
		if _, err := os.Lstat(cur); err == nil {
			if real, err := filepath.EvalSymlinks(cur); err == nil {
				if real != realRoot && !strings.HasPrefix(real, realRoot+string(filepath.Separator)) {
					return fmt.Errorf("%w: %s", ErrPathOutsideRoot, p)
				}

				return nil
			}
		}

		if len(cur) <= len(s.root) {
			return nil
		}
	}
}

// resolves p and opens the root for I/O through it
func (s *Sandbox) open(p string) (*os.Root, string, error) {
	if _, err := s.resolve(p); err != nil {
		return nil, "", err
	}

	rel, err := s.relative(p)
	if err != nil {
		return nil, "", err
	}

	root, err := os.OpenRoot(s.root)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open sandbox root: %w", err)
	}

	return root, rel, nil
}

// creates dir and its parents one level at a time inside root
func mkdirAll(root *os.Root, dir string) error {
	if dir == "." {
		return nil
	}

	cur := ""

	for _, part := range strings.Split(dir, "/") {
		cur = path.Join(cur, part)

		if err := root.Mkdir(cur, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
			return err
		}
	}

	return nil
}

func (s *Sandbox) ReadFile(p string) ([]byte, error) {
	root, rel, err := s.open(p)
	if err != nil {
		return nil, err
	}
	defer root.Close() //nolint:errcheck

	f, err := root.Open(rel)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	defer f.Close() //nolint:errcheck

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}

	return data, nil
}

// WriteFile writes data, creating parent directories as needed.
func (s *Sandbox) WriteFile(p string, data []byte) error {
	root, rel, err := s.open(p)
	if err != nil {
		return err
	}
	defer root.Close() //nolint:errcheck

	if rel == "." {
		return fmt.Errorf("cannot write to sandbox root")
	}

	if err := mkdirAll(root, path.Dir(rel)); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", p, err)
	}

	f, err := root.OpenFile(rel, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close() //nolint:errcheck,gosec
		return fmt.Errorf("failed to write %s: %w", p, err)
	}

	return f.Close()
}

// lists a directory sorted by name
func (s *Sandbox) ReadDir(p string) ([]DirEntry, error) {
	root, rel, err := s.open(p)
	if err != nil {
		return nil, err
	}
	defer root.Close() //nolint:errcheck

	dir, err := root.Open(rel)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
	}
	defer dir.Close() //nolint:errcheck

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
	}

	out := make([]DirEntry, 0, len(entries))

	for _, e := range entries {
		entry := DirEntry{Name: e.Name(), IsDir: e.IsDir()}

		if info, err := e.Info(); err == nil && !e.IsDir() {
			entry.Size = info.Size()
		}

		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (s *Sandbox) Mkdir(p string) error {
	root, rel, err := s.open(p)
	if err != nil {
		return err
	}
	defer root.Close() //nolint:errcheck

	if err := mkdirAll(root, rel); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p, err)
	}

	return nil
}

// Mount writes tree into the sandbox root.
func (s *Sandbox) Mount(ctx context.Context, tree FileSystemTree) error {
	return s.mountAt(ctx, "", tree)
}

func (s *Sandbox) mountAt(ctx context.Context, dir string, tree FileSystemTree) error {
	for name, node := range tree {
		if err := ctx.Err(); err != nil {
			return err
		}

		if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fmt.Errorf("invalid tree entry name %q", name)
		}

		p := path.Join(dir, name)

		switch {
		case node.File != nil:
			if err := s.WriteFile(p, []byte(node.File.Contents)); err != nil {
				return err
			}
		case node.Directory != nil:
			if err := s.Mkdir(p); err != nil {
				return err
			}

			if err := s.mountAt(ctx, p, node.Directory); err != nil {
				return err
			}
		default:
			return fmt.Errorf("tree entry %q is neither file nor directory", p)
		}
	}

	return nil
}
