package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// WriteCategory classifies generated artifacts.
type WriteCategory string

const (
	CategoryFeed     WriteCategory = "feed"
	CategorySitemap  WriteCategory = "sitemap"
	CategoryRobots   WriteCategory = "robots"
	CategoryIndex    WriteCategory = "index"
	CategoryManifest WriteCategory = "manifest"
)

// WriteRequest describes a file write routed through an ArtifactWriter.
// Path is relative to the writer's root and always uses forward slashes.
type WriteRequest struct {
	Path        string
	Content     io.Reader
	Size        int64
	Category    WriteCategory
	ContentType string
	Checksum    string
}

// ArtifactWriter abstracts where generated files end up. ReadFile returns an
// error matching fs.ErrNotExist for missing files.
type ArtifactWriter interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req WriteRequest) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// NewFSWriter returns a writer storing artifacts below root on the local disk.
func NewFSWriter(root string) ArtifactWriter {
	return &fsWriter{root: root}
}

// NewNoopWriter returns a writer that discards every artifact, used for dry
// runs.
func NewNoopWriter() ArtifactWriter {
	return noopWriter{}
}

type fsWriter struct {
	root string
}

func (w *fsWriter) resolve(rel string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(rel))
	if clean == "/" {
		return "", errors.New("generator: path is required")
	}
	return filepath.Join(w.root, filepath.FromSlash(clean[1:])), nil
}

func (w *fsWriter) EnsureDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(dir) == "" || dir == "." {
		return os.MkdirAll(w.root, 0o755)
	}
	target, err := w.resolve(dir)
	if err != nil {
		return err
	}
	return os.MkdirAll(target, 0o755)
}

func (w *fsWriter) WriteFile(ctx context.Context, req WriteRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	target, err := w.resolve(req.Path)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(req.Content)
	if err != nil {
		return fmt.Errorf("generator: read %s content: %w", req.Path, err)
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("generator: write %s: %w", req.Path, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("generator: rename %s: %w", req.Path, err)
	}
	return nil
}

func (w *fsWriter) ReadFile(ctx context.Context, rel string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := w.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(target)
}

type noopWriter struct{}

func (noopWriter) EnsureDir(context.Context, string) error { return nil }

func (noopWriter) WriteFile(context.Context, WriteRequest) error { return nil }

func (noopWriter) ReadFile(context.Context, string) ([]byte, error) { return nil, fs.ErrNotExist }
