// Package blob stores dataset exports on local disk or in an S3-compatible
// bucket.
package blob

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"time"
)

// Info describes a stored object.
type Info struct {
	Key    string `json:"key"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
	Driver string `json:"driver"`
}

type Store interface {
	Put(ctx context.Context, key string, r io.Reader) (Info, error)
	Delete(ctx context.Context, key string) error
}

// DatedKey builds "<prefix>/YYYY/MM/<random>" with the given extension.
func DatedKey(prefix, ext string) string {
	now := time.Now().UTC()
	return path.Join(prefix, fmt.Sprintf("%04d/%02d", now.Year(), int(now.Month())), randomHex(16)+ext)
}

// randomHex returns 2*n hex characters.
func randomHex(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
