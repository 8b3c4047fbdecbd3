package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctfer-io/scenario-editor/global"
	"go.uber.org/zap"
)

// Filesystem implements Store using the local filesystem.
// Objects live at `<root>/<container>/<name>`, writes go through a temporary
// file renamed into place so a reader never sees a partial object.
type Filesystem struct {
	root string
}

var _ Store = (*Filesystem)(nil)

// NewFilesystem returns a filesystem-backed blob store rooted at path, creating it if needed.
func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		root = "./blobdata"
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, err
	}
	return &Filesystem{root: root}, nil
}

func (s *Filesystem) Driver() Driver { return DriverFilesystem }

func (s *Filesystem) Fetch(_ context.Context, container, name string) ([]byte, error) {
	path, err := s.pathFor(container, name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path) //nolint:gosec // path is sanitized
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", container, name, ErrNotExist)
	}
	return b, err
}

func (s *Filesystem) Store(_ context.Context, container, name string, data []byte) error {
	path, err := s.pathFor(container, name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			global.Log().Sub.Warn("removing temporary blob file", zap.Error(err))
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Filesystem) pathFor(container, name string) (string, error) {
	c, err := sanitize(container)
	if err != nil {
		return "", err
	}
	n, err := sanitize(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, c, n), nil
}

// sanitize ensures a path element doesn't escape root: no traversal, no
// absolute path.
func sanitize(elem string) (string, error) {
	if strings.TrimSpace(elem) == "" {
		return "", fmt.Errorf("empty blob path element")
	}
	if strings.HasPrefix(elem, "/") || filepath.IsAbs(elem) {
		return "", fmt.Errorf("invalid absolute blob path %q", elem)
	}
	clean := filepath.ToSlash(filepath.Clean(elem))
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(elem, "..") {
		return "", fmt.Errorf("invalid blob path %q", elem)
	}
	return clean, nil
}
