package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkeye/cowork/internal/core"
	"github.com/spf13/afero"
)

// FSStore writes one file per resource under dir.
type FSStore struct {
	fs  afero.Fs
	dir string
}

func NewFSStore(fs afero.Fs, dir string) *FSStore {
	return &FSStore{fs: fs, dir: dir}
}

func (s *FSStore) path(resourceID string) (string, error) {
	name, err := objectName(resourceID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

func (s *FSStore) Save(ctx context.Context, resourceID, content string) (core.SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return core.SaveResult{}, err
	}
	p, err := s.path(resourceID)
	if err != nil {
		return core.SaveResult{}, err
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return core.SaveResult{}, fmt.Errorf("mkdir %s: %w", s.dir, err)
	}
	if err := afero.WriteFile(s.fs, p, []byte(content), 0o644); err != nil {
		return core.SaveResult{}, fmt.Errorf("write %s: %w", p, err)
	}
	return core.SaveResult{Path: p, UpdatedAt: time.Now().UTC()}, nil
}

// Delete removes the file of resourceID; a missing file is not an error.
func (s *FSStore) Delete(ctx context.Context, resourceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(resourceID)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}
