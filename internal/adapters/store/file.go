package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/dawgbowl/internal/domain/model"
)

const fileExt = ".json"

// FileStore keeps one JSON document per lineup in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

// Write replaces the file via a temp file and rename so readers never see a
// partial document.
func (s *FileStore) Write(ctx context.Context, lineup model.SubmittedLineup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(lineup)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+lineup.Key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), s.path(lineup.Key)); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) (model.SubmittedLineup, error) {
	if err := ctx.Err(); err != nil {
		return model.SubmittedLineup{}, err
	}
	if err := checkKey(key); err != nil {
		return model.SubmittedLineup{}, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return model.SubmittedLineup{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return model.SubmittedLineup{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return decode(key, data)
}

func (s *FileStore) ListAll(ctx context.Context) (Listing, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return Listing{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	var out Listing
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return Listing{}, err
		}
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key := strings.TrimSuffix(name, fileExt)
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			out.addCorrupt(key, fmt.Errorf("%w: %w", ErrCorruptRecord, err))
			continue
		}
		l, err := decode(key, data)
		if err != nil {
			out.addCorrupt(key, err)
			continue
		}
		out.Lineups = append(out.Lineups, l)
	}
	out.sort()
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}
