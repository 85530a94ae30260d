package s3

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosslantern/usagecsv/internal/config"
	"github.com/mosslantern/usagecsv/internal/observability"
)

// fakeS3 is a minimal path-style S3 endpoint backed by a map.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodGet:
		body, ok := f.objects[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(body)
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		f.objects[path] = body
	case http.MethodDelete:
		f.deleted = append(f.deleted, path)
		delete(f.objects, path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) object(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[path]
	return body, ok
}

func newTestClient(t *testing.T, store *fakeS3) *Client {
	t.Helper()

	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := &config.Config{
		AWSRegion:        "us-east-1",
		S3Endpoint:       srv.URL,
		S3ForcePathStyle: true,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := NewClient(cfg, logger, observability.NewMetricsForTesting())
	require.NoError(t, err)
	return client
}

func TestClientDownload(t *testing.T) {
	store := newFakeS3()
	store.objects["uploads/export.zip"] = []byte("archive bytes")
	client := newTestClient(t, store)

	dest := filepath.Join(t.TempDir(), "export.zip")
	err := client.Download(context.Background(), "uploads", "export.zip", dest)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("archive bytes"), got)
}

func TestClientDownloadMissingObject(t *testing.T) {
	client := newTestClient(t, newFakeS3())

	dest := filepath.Join(t.TempDir(), "missing.zip")
	err := client.Download(context.Background(), "uploads", "missing.zip", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://uploads/missing.zip")

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no local file should be left behind")
}

func TestClientUpload(t *testing.T) {
	store := newFakeS3()
	client := newTestClient(t, store)

	src := filepath.Join(t.TempDir(), "electricity_20241201_20241231.csv")
	require.NoError(t, os.WriteFile(src, []byte("start,end,usage_kwh\n"), 0o644))

	err := client.Upload(context.Background(), "converted", "electricity_20241201_20241231.csv", src)
	require.NoError(t, err)

	body, ok := store.object("converted/electricity_20241201_20241231.csv")
	require.True(t, ok)
	assert.Equal(t, []byte("start,end,usage_kwh\n"), body)
}

func TestClientUploadMissingFile(t *testing.T) {
	client := newTestClient(t, newFakeS3())

	err := client.Upload(context.Background(), "converted", "out.csv", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}

func TestClientDelete(t *testing.T) {
	store := newFakeS3()
	store.objects["uploads/export.zip"] = []byte("archive bytes")
	client := newTestClient(t, store)

	err := client.Delete(context.Background(), "uploads", "export.zip")
	require.NoError(t, err)

	_, ok := store.object("uploads/export.zip")
	assert.False(t, ok)
	assert.Equal(t, []string{"uploads/export.zip"}, store.deleted)
}
