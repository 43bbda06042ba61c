package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// appName prefixes every saved artifact filename.
const appName = "photobooth"

// FileStore saves generated artifacts onto the local filesystem. It is the Go
// stand-in for the browser's download trigger: given bytes and a naming
// context it produces a file the user keeps.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// SaveArtifact writes data under the booth naming convention
// <app>-<sanitized-mode>-<id-prefix>.<ext> and returns the full path.
func (s *FileStore) SaveArtifact(ctx context.Context, modeKey string, id uuid.UUID, ext string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := ArtifactName(modeKey, id, ext)
	fullPath := filepath.Join(s.basePath, name)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return fullPath, nil
}

// ArtifactName derives the download filename for an artifact: the mode key is
// lowercased with every non-alphanumeric rune replaced by an underscore, the
// photo id contributes its first six characters.
func ArtifactName(modeKey string, id uuid.UUID, ext string) string {
	return fmt.Sprintf("%s-%s-%s.%s", appName, sanitizeName(modeKey), id.String()[:6], strings.TrimPrefix(ext, "."))
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
