package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/wikiracer/internal/proxy"
	"github.com/user/wikiracer/internal/repository"
)

func newTestFetcher(t *testing.T, timeout time.Duration, maxBytes int64) *Fetcher {
	t.Helper()
	pm, err := proxy.NewManager(nil, []string{"racer-test/1.0"})
	require.NoError(t, err)
	return NewFetcher(pm, timeout, maxBytes)
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "racer-test/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	body, err := newTestFetcher(t, time.Second, 0).Fetch(context.Background(), srv.URL+"/wiki/A")
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", string(body))
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t, time.Second, 0).Fetch(context.Background(), srv.URL+"/wiki/Missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "404")
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := newTestFetcher(t, 50*time.Millisecond, 0).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrFetchTimeout)
}

func TestFetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newTestFetcher(t, time.Second, 0).Fetch(context.Background(), addr)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrFetchFailed)
}

func TestFetch_BodyIsCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer srv.Close()

	body, err := newTestFetcher(t, time.Second, 100).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, body, 100)
}
