package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store persists binary evidence (clock-in/out photos) and returns a
// stable reference URL.
type Store interface {
	Save(ctx context.Context, data []byte, pathHint string) (string, error)
}

type fsStore struct {
	baseDir string
	baseURL string
}

// NewFSStore writes blobs under baseDir and returns URLs rooted at baseURL.
func NewFSStore(baseDir, baseURL string) Store {
	return &fsStore{baseDir: baseDir, baseURL: baseURL}
}

func (s *fsStore) Save(ctx context.Context, data []byte, pathHint string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("blob: empty payload")
	}

	name := fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102T150405"), uuid.NewString())
	rel := filepath.Join(pathHint, name)
	abs := filepath.Join(s.baseDir, rel)

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("blob: create dir: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", fmt.Errorf("blob: write: %w", err)
	}

	return s.baseURL + "/" + filepath.ToSlash(rel), nil
}
