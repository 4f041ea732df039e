package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON file per entry at
// {root}/{provider}/{model}/{hash}.json. No locking: a key's bytes are
// fully determined by the key, so the worst a concurrent writer can do is
// rewrite identical content, and readers treat a torn file as a miss.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) entryPath(provider, model, hash string) string {
	return filepath.Join(s.root, provider, model, hash+".json")
}

func (s *FileStore) Get(ctx context.Context, provider, model, hash string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.entryPath(provider, model, hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache file: %w", err)
	}
	return data, true, nil
}

func (s *FileStore) Put(ctx context.Context, provider, model, hash string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(s.root, provider, model)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, hash+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, provider, model string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.root
	switch {
	case provider != "" && model != "":
		target = filepath.Join(s.root, provider, model)
	case provider != "":
		target = filepath.Join(s.root, provider)
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("failed to delete cache entries: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
