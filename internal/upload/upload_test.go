package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockt/mockt/internal/store"
)

func TestObjectKey(t *testing.T) {
	rec := store.Recording{SessionID: "abc", QuestionID: 3, Path: "/data/rec/abc/q3-1700.OGG"}
	assert.Equal(t, "abc/q3.ogg", ObjectKey("", rec))
	assert.Equal(t, "answers/abc/q3.ogg", ObjectKey("/answers/", rec))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "audio/ogg", contentType("x.ogg"))
	assert.Equal(t, "audio/webm", contentType("x.webm"))
	assert.Equal(t, "application/octet-stream", contentType("x"))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(Config{Endpoint: "localhost:9000"}, nil)
	assert.Error(t, err)
	assert.False(t, Config{Bucket: "b"}.Enabled())
	assert.True(t, Config{Endpoint: "e", Bucket: "b"}.Enabled())
}

type fakeS3 struct {
	mu      sync.Mutex
	puts    map[string][]byte
	heads   []string
	headers map[string]http.Header
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodHead:
		f.heads = append(f.heads, r.URL.Path)
		if strings.Trim(r.URL.Path, "/") != "interviews" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.puts[r.URL.Path] = body
		f.headers[r.URL.Path] = r.Header.Clone()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestUpload(t *testing.T) {
	fake := &fakeS3{puts: map[string][]byte{}, headers: map[string]http.Header{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	u, err := New(Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "interviews",
		Prefix:    "answers",
	}, nil)
	require.NoError(t, err)

	require.NoError(t, u.CheckBucket(context.Background()))

	path := filepath.Join(t.TempDir(), "q2-1.ogg")
	require.NoError(t, os.WriteFile(path, []byte("OggS voice"), 0o644))

	key, err := u.Upload(context.Background(), store.Recording{SessionID: "s1", QuestionID: 2, Path: path})
	require.NoError(t, err)
	assert.Equal(t, "answers/s1/q2.ogg", key)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	body, ok := fake.puts["/interviews/answers/s1/q2.ogg"]
	require.True(t, ok, "puts: %v", fake.puts)
	// Plain HTTP uploads use chunked payload signing, so the file is framed.
	assert.Contains(t, string(body), "OggS voice")
	assert.Equal(t, "audio/ogg", fake.headers["/interviews/answers/s1/q2.ogg"].Get("Content-Type"))
}

func TestUploadMissingFile(t *testing.T) {
	u, err := New(Config{Endpoint: "127.0.0.1:1", Bucket: "b"}, nil)
	require.NoError(t, err)
	_, err = u.Upload(context.Background(), store.Recording{SessionID: "s", QuestionID: 1, Path: "/does/not/exist.ogg"})
	assert.Error(t, err)
}
