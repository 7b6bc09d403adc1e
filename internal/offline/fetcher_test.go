package offline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherBuffersResponse(t *testing.T) {
	var received http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Set-Cookie", "session=1")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(time.Second)
	resp, err := fetcher.Fetch(context.Background(), Request{
		Method: http.MethodGet,
		URL:    srv.URL + "/json/brosData.json",
		Header: http.Header{"Cookie": {"a=b"}},
	})
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Equal(t, `{"ok":true}`, string(resp.Body))
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.Empty(t, resp.Header.Get("Set-Cookie"))
	require.Equal(t, "dabifac-offline/1", received.Get("User-Agent"))
	require.Empty(t, received.Get("Cookie"))
}

func TestHTTPFetcherReturnsErrorStatuses(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	resp, err := NewHTTPFetcher(time.Second).Fetch(context.Background(), Request{URL: srv.URL + "/missing"})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.Status)
	require.False(t, resp.OK())
}

func TestHTTPFetcherEnforcesBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(time.Second)
	fetcher.MaxBodyBytes = 16
	_, err := fetcher.Fetch(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)
}

func TestHTTPFetcherTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(time.Second).Fetch(context.Background(), Request{URL: url})
	require.Error(t, err)
}
