package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS stores artifacts on the local filesystem. URLs are relative paths
// served by the web server's download route.
type FS struct {
	dir       string
	urlPrefix string
}

func NewFS(dir, urlPrefix string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}
	return &FS{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}, nil
}

func (s *FS) Put(_ context.Context, name string, data []byte) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid artifact name: %q", name)
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	return s.urlPrefix + "/" + name, nil
}

// Dir returns the directory artifacts are written to, for the route
// that serves them back.
func (s *FS) Dir() string {
	return s.dir
}
