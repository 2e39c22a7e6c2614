package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "order-1/1700000000000.png", []byte("png-bytes"), "image/png"))

	data, ct, err := store.Get(ctx, "order-1/1700000000000.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", ct)

	require.NoError(t, store.Delete(ctx, "order-1/1700000000000.png"))
	_, _, err = store.Get(ctx, "order-1/1700000000000.png")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, store.Put(ctx, "../escape.png", []byte("x"), "image/png"))
}

func TestBucketStore(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	objects := map[string][]byte{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer service-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mu.Lock()
		defer mu.Unlock()

		switch r.Method {
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			objects[r.URL.Path] = body
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			body, ok := objects[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(body)
		case http.MethodDelete:
			delete(objects, r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	store := NewBucketStore(srv.URL, "receipts", "service-key")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "o/1.jpg", []byte("jpeg"), "image/jpeg"))
	mu.Lock()
	assert.Contains(t, objects, "/storage/v1/object/receipts/o/1.jpg")
	mu.Unlock()

	data, ct, err := store.Get(ctx, "o/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
	assert.Equal(t, "image/jpeg", ct)

	require.NoError(t, store.Delete(ctx, "o/1.jpg"))
	_, _, err = store.Get(ctx, "o/1.jpg")
	assert.ErrorIs(t, err, ErrNotFound)

	unauthorized := NewBucketStore(srv.URL, "receipts", "wrong")
	assert.Error(t, unauthorized.Put(ctx, "o/2.jpg", []byte("x"), "image/jpeg"))
}
