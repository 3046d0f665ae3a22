package photostore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/ADRPUR/event-driven-marketplace/internal/filex"
)

// LocalStore writes photos under a directory on the API host. The HTTP
// layer serves that directory under publicPrefix.
type LocalStore struct {
	dir          string
	publicPrefix string
}

func NewLocalStore(dir, publicPrefix string) (*LocalStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalStore{dir: abs, publicPrefix: publicPrefix}, nil
}

// Dir returns the absolute storage directory, for static file serving.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(ctx context.Context, key string, data []byte) (string, error) {
	full := filepath.Join(s.dir, filepath.FromSlash(key))

	if _, err := filex.EnsureDir(filepath.Dir(full)); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o660); err != nil {
		return "", fmt.Errorf("write photo %s: %w", key, err)
	}

	return path.Join(s.publicPrefix, key), nil
}
