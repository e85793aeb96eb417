package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	storagego "github.com/supabase-community/storage-go"
)

// SupabaseConfig configures the Supabase Storage client.
type SupabaseConfig struct {
	ProjectURL string
	ServiceKey string
	Bucket     string
}

// SupabaseStore uploads objects to a public Supabase Storage bucket.
type SupabaseStore struct {
	bucket string
	client *storagego.Client

	// the client keeps upload options in shared headers
	mu sync.Mutex
}

func NewSupabaseStore(cfg SupabaseConfig) (*SupabaseStore, error) {
	if cfg.ProjectURL == "" {
		return nil, fmt.Errorf("storage: project URL is required")
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("storage: service key is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}
	if _, err := url.Parse(cfg.ProjectURL); err != nil {
		return nil, fmt.Errorf("storage: invalid project URL: %w", err)
	}

	endpoint := strings.TrimRight(cfg.ProjectURL, "/") + "/storage/v1"
	return &SupabaseStore{
		bucket: cfg.Bucket,
		client: storagego.NewClient(endpoint, cfg.ServiceKey, map[string]string{"apikey": cfg.ServiceKey}),
	}, nil
}

func (s *SupabaseStore) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	p, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	upsert := false
	s.mu.Lock()
	_, err = s.client.UploadFile(s.bucket, p, bytes.NewReader(data), storagego.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", p, err)
	}

	return s.PublicURL(p), nil
}

// PublicURL returns the URL of an object in a public bucket.
func (s *SupabaseStore) PublicURL(path string) string {
	return s.client.GetPublicUrl(s.bucket, strings.TrimLeft(path, "/")).SignedURL
}
