package sandbox

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	archive "github.com/moby/go-archive"
	"github.com/moby/go-archive/compression"
)

// Export writes an archive of the directory at p to w.
func (s *Sandbox) Export(ctx context.Context, w io.Writer, p string, opts ExportOptions) error {
	dir, err := s.resolve(p)
	if err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", p, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", p)
	}

	for _, pattern := range opts.Excludes {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	switch opts.Format {
	case FormatZip, "":
		return exportZip(ctx, w, dir, opts.Excludes)
	case FormatTar:
		return exportTar(w, dir, opts.Excludes)
	default:
		return fmt.Errorf("unsupported export format %q", opts.Format)
	}
}

func exportZip(ctx context.Context, w io.Writer, dir string, excludes []string) error {
	zw := zip.NewWriter(w)

	err := filepath.WalkDir(dir, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, full)
		if err != nil {
			return err
		}

		if rel == "." {
			return nil
		}

		rel = filepath.ToSlash(rel)

		if excluded(rel, excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// symlinks and devices are not exported
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}

		header.Name = rel

		if d.IsDir() {
			header.Name += "/"
			_, err := zw.CreateHeader(header)
			return err
		}

		header.Method = zip.Deflate

		dst, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		f, err := os.Open(full)
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck

		_, err = io.Copy(dst, f)
		return err
	})
	if err != nil {
		_ = zw.Close()
		return fmt.Errorf("failed to build zip: %w", err)
	}

	return zw.Close()
}

func exportTar(w io.Writer, dir string, excludes []string) error {
	rc, err := archive.TarWithOptions(dir, &archive.TarOptions{
		Compression:     compression.Gzip,
		ExcludePatterns: excludes,
	})
	if err != nil {
		return fmt.Errorf("failed to build tar: %w", err)
	}
	defer rc.Close() //nolint:errcheck

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("failed to stream tar: %w", err)
	}

	return nil
}

// reports whether rel or one of its ancestors matches a pattern
func excluded(rel string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	parts := strings.Split(rel, "/")

	for i := range parts {
		prefix := strings.Join(parts[:i+1], "/")

		for _, pattern := range patterns {
			if ok, _ := doublestar.Match(pattern, prefix); ok {
				return true
			}
		}
	}

	return false
}

// archive file name for a format
func ArchiveName(format ExportFormat) string {
	if format == FormatTar {
		return "sandbox.tar.gz"
	}

	return "sandbox.zip"
}
