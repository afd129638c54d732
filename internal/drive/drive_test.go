package drive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/analytics-infra/chrunner/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler, chunkSize int64) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(config.DriveConfig{
		BaseURL:   srv.URL,
		Token:     "test-token",
		ChunkSize: chunkSize,
	}, slog.Default())
	return client, srv
}

func TestGetMetadata(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/abc123" {
			t.Errorf("path = %q, want /files/abc123", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		fmt.Fprint(w, `{"name": "ember_monthly.csv"}`)
	}), 64)

	meta, err := client.GetMetadata(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if meta.Name != "ember_monthly.csv" {
		t.Errorf("meta.Name = %q, want %q", meta.Name, "ember_monthly.csv")
	}
}

func TestGetMetadata_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}), 64)

	if _, err := client.GetMetadata(context.Background(), "missing"); err == nil {
		t.Error("GetMetadata() on 404 succeeded, want error")
	}
}

// rangeHandler serves content honoring Range requests like a Drive media
// endpoint would.
func rangeHandler(t *testing.T, content []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHdr := r.Header.Get("Range")
		if rangeHdr == "" {
			w.Write(content)
			return
		}

		var start, end int64
		if _, err := fmt.Sscanf(rangeHdr, "bytes=%d-%d", &start, &end); err != nil {
			t.Errorf("malformed Range header %q", rangeHdr)
		}
		if end >= int64(len(content)) {
			end = int64(len(content)) - 1
		}

		w.Header().Set("Content-Range",
			fmt.Sprintf("bytes %d-%d/%d", start, end, len(content)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(content[start : end+1])
	})
}

func TestDownloadMedia_Chunked(t *testing.T) {
	content := []byte(strings.Repeat("0123456789", 10)) // 100 bytes
	client, _ := newTestClient(t, rangeHandler(t, content), 32)

	got, err := client.DownloadMedia(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("DownloadMedia() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("DownloadMedia() returned %d bytes, want %d identical bytes", len(got), len(content))
	}
}

func TestDownloadMedia_FullBodyResponse(t *testing.T) {
	content := []byte("id,name\n1,alpha\n")
	// Server ignores Range and answers 200 with everything.
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}), 4)

	got, err := client.DownloadMedia(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("DownloadMedia() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("DownloadMedia() = %q, want %q", got, content)
	}
}

func TestDownloadMedia_ServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}), 32)

	if _, err := client.DownloadMedia(context.Background(), "abc123"); err == nil {
		t.Error("DownloadMedia() on 500 succeeded, want error")
	}
}

func TestParseTotalSize(t *testing.T) {
	tests := []struct {
		header string
		want   int64
	}{
		{"bytes 0-31/100", 100},
		{"bytes 0-31/*", -1},
		{"", -1},
		{"bytes 0-31/notanumber", -1},
	}
	for _, tt := range tests {
		if got := parseTotalSize(tt.header); got != tt.want {
			t.Errorf("parseTotalSize(%q) = %d, want %d", tt.header, got, tt.want)
		}
	}
	// Round-trip with a real formatted header
	hdr := fmt.Sprintf("bytes 0-9/%s", strconv.Itoa(42))
	if got := parseTotalSize(hdr); got != 42 {
		t.Errorf("parseTotalSize(%q) = %d, want 42", hdr, got)
	}
}
