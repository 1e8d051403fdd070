package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const DriverLocal = "local"

// Local keeps objects under Root.
type Local struct {
	Root string
}

func (s *Local) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.Root, clean), nil
}

func (s *Local) Put(ctx context.Context, key string, r io.Reader) (Info, error) {
	if key == "" {
		key = DatedKey("", "")
	}
	full, err := s.path(key)
	if err != nil {
		return Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Info{}, err
	}
	f, err := os.Create(full)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if err != nil {
		return Info{}, err
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(full)
		return Info{}, err
	}
	return Info{Key: key, Size: n, SHA256: hex.EncodeToString(h.Sum(nil)), Driver: DriverLocal}, nil
}

func (s *Local) Delete(_ context.Context, key string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

// Path returns the file backing key.
func (s *Local) Path(key string) (string, error) {
	return s.path(key)
}
