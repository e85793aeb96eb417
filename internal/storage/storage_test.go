package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	storagego "github.com/supabase-community/storage-go"
)

func TestDiskStore_Upload(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir, "http://localhost:8080/assets/")

	url, err := s.Upload(context.Background(), "generated-images/org-1/42.png", "image/png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/assets/generated-images/org-1/42.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "generated-images", "org-1", "42.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestDiskStore_RejectsTraversal(t *testing.T) {
	s := NewDiskStore(t.TempDir(), "http://localhost")

	_, err := s.Upload(context.Background(), "../etc/passwd", "text/plain", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = s.Upload(context.Background(), "", "text/plain", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestSupabaseStore_Upload(t *testing.T) {
	var gotMethod, gotPath, gotAuth, gotKey, gotUpsert, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		gotUpsert = r.Header.Get("x-upsert")
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"Key":"assets/generated-images/org-1/42.png"}`))
	}))
	defer srv.Close()

	s, err := NewSupabaseStore(SupabaseConfig{ProjectURL: srv.URL + "/", ServiceKey: "service-key", Bucket: "assets"})
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), "generated-images/org-1/42.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/storage/v1/object/assets/generated-images/org-1/42.png", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "service-key", gotKey)
	assert.Equal(t, "false", gotUpsert)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "png-bytes", gotBody)
	assert.Equal(t, srv.URL+"/storage/v1/object/public/assets/generated-images/org-1/42.png", url)
}

func TestSupabaseStore_UploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"statusCode":"403","error":"Unauthorized","message":"new row violates row-level security policy"}`))
	}))
	defer srv.Close()

	s, err := NewSupabaseStore(SupabaseConfig{ProjectURL: srv.URL, ServiceKey: "k", Bucket: "assets"})
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), "a.png", "image/png", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row-level security")

	var storageErr *storagego.StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestSupabaseStore_UploadRejectsBadInput(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewSupabaseStore(SupabaseConfig{ProjectURL: srv.URL, ServiceKey: "k", Bucket: "assets"})
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), "../secrets.png", "image/png", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Upload(ctx, "a.png", "image/png", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestNewSupabaseStore_RequiresConfig(t *testing.T) {
	_, err := NewSupabaseStore(SupabaseConfig{ServiceKey: "k", Bucket: "b"})
	assert.Error(t, err)
	_, err = NewSupabaseStore(SupabaseConfig{ProjectURL: "https://x.supabase.co", Bucket: "b"})
	assert.Error(t, err)
	_, err = NewSupabaseStore(SupabaseConfig{ProjectURL: "https://x.supabase.co", ServiceKey: "k"})
	assert.Error(t, err)
}
