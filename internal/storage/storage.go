package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
)

// ErrNotFound is returned when a requested object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// ReceiptStore holds uploaded payment receipts addressed by a relative path.
type ReceiptStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
}

// cleanKey rejects absolute paths and parent references.
func cleanKey(key string) (string, error) {
	cleaned := path.Clean(strings.TrimPrefix(key, "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return cleaned, nil
}

func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
