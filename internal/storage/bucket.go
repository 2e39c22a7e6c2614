package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BucketStore talks to an S3-like object store exposing
// /storage/v1/object/<bucket>/<key> for upload, download and delete.
type BucketStore struct {
	baseURL    string
	bucket     string
	apiKey     string
	httpClient *http.Client
}

func NewBucketStore(baseURL, bucket, apiKey string) *BucketStore {
	return &BucketStore{
		baseURL:    baseURL,
		bucket:     bucket,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *BucketStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	req, err := s.newRequest(ctx, http.MethodPost, key, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("storage upload: status %d, body: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (s *BucketStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	req, err := s.newRequest(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("storage download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		return nil, "", ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("storage download: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFor(key)
	}
	return data, contentType, nil
}

func (s *BucketStore) Delete(ctx context.Context, key string) error {
	req, err := s.newRequest(ctx, http.MethodDelete, key, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage delete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("storage delete: status %d", resp.StatusCode)
	}
	return nil
}

func (s *BucketStore) newRequest(ctx context.Context, method, key string, body io.Reader) (*http.Request, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, cleaned)
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		req.Header.Set("apikey", s.apiKey)
	}
	return req, nil
}
