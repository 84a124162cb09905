package httpfile

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"context"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/danzo-hls/internal/httpclient"
)

func fullContent() string {
	var b strings.Builder
	for i := 0; i < 5000; i++ {
		fmt.Fprintf(&b, "%05d", i)
	}
	return b.String()
}

func TestDownloadPlainFile(t *testing.T) {
	content := fullContent()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(content))
	}))
	defer srv.Close()

	client, err := httpclient.New(httpclient.Config{})
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "out.bin")
	err = Download(context.Background(), client, srv.URL, outPath, nil, nil)
	require.NoError(t, err)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestDownloadResumesFromPartialFile(t *testing.T) {
	content := fullContent()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" {
			w.Header().Set("Accept-Ranges", "bytes")
			w.Write([]byte(content))
			return
		}
		var start int
		fmt.Sscanf(rangeHeader, "bytes=%d-", &start)
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, len(content)-1, len(content)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte(content[start:]))
	}))
	defer srv.Close()

	client, err := httpclient.New(httpclient.Config{})
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "out.bin")
	partPath := outPath + ".part"
	splitAt := len(content) / 2
	require.NoError(t, os.WriteFile(partPath, []byte(content[:splitAt]), 0o644))

	var lastDownloaded, lastTotal int64
	progress := func(downloaded, total int64) {
		lastDownloaded = downloaded
		lastTotal = total
	}

	err = Download(context.Background(), client, srv.URL, outPath, nil, progress)
	require.NoError(t, err)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
	assert.Equal(t, int64(len(content)), lastDownloaded)
	assert.Equal(t, int64(len(content)), lastTotal)

	_, err = os.Stat(partPath)
	assert.True(t, os.IsNotExist(err))
}

// TestDownloadResumesAfterMidStreamReadError simulates a connection that
// drops partway through the first response (the server promises more bytes
// than it delivers before closing the raw TCP connection) and verifies the
// download resumes via a Range request rather than failing outright.
func TestDownloadResumesAfterMidStreamReadError(t *testing.T) {
	content := fullContent()
	var requests int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		if n == 1 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, buf, err := hj.Hijack()
			require.NoError(t, err)
			defer conn.Close()
			half := len(content) / 2
			fmt.Fprintf(buf, "HTTP/1.1 200 OK\r\nContent-Length: %d\r\n\r\n", len(content))
			buf.WriteString(content[:half])
			buf.Flush()
			return
		}

		rangeHeader := r.Header.Get("Range")
		var start int
		fmt.Sscanf(rangeHeader, "bytes=%d-", &start)
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, len(content)-1, len(content)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte(content[start:]))
	}))
	defer srv.Close()

	client, err := httpclient.New(httpclient.Config{})
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "out.bin")
	err = Download(context.Background(), client, srv.URL, outPath, nil, nil)
	require.NoError(t, err)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&requests), int32(2))
}

func TestDownloadRestartsWhenServerIgnoresRange(t *testing.T) {
	content := fullContent()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ignores Range entirely and always returns 200 with the full body.
		w.Write([]byte(content))
	}))
	defer srv.Close()

	client, err := httpclient.New(httpclient.Config{})
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "out.bin")
	partPath := outPath + ".part"
	require.NoError(t, os.WriteFile(partPath, []byte(strconv.Itoa(12345)), 0o644))

	err = Download(context.Background(), client, srv.URL, outPath, nil, nil)
	require.NoError(t, err)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}
