package offline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxBodyBytes = 32 << 20
	defaultUserAgent    = "dabifac-offline/1"
)

// Request is an intercepted asset request.
type Request struct {
	Method string
	URL    string
	Header http.Header
}

// Response is a fully buffered asset response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Clone returns a deep copy so callers sharing a fetch cannot mutate each other's headers.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	return &Response{
		Status: r.Status,
		Header: r.Header.Clone(),
		Body:   append([]byte(nil), r.Body...),
	}
}

// Fetcher performs live network fetches against the asset origin.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (*Response, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPFetcher fetches assets over HTTP.
type HTTPFetcher struct {
	Client       *http.Client
	UserAgent    string
	MaxBodyBytes int64
}

// NewHTTPFetcher returns a fetcher with a bounded per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPFetcher{
		Client:       &http.Client{Timeout: timeout},
		UserAgent:    defaultUserAgent,
		MaxBodyBytes: defaultMaxBodyBytes,
	}
}

// hop-by-hop and per-client headers are never forwarded or stored.
var skippedHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Set-Cookie":          {},
	"Cookie":              {},
	"Content-Length":      {},
	"Accept-Encoding":     {},
	"Range":               {},
	"Host":                {},
}

// Fetch issues the request and buffers the body. Non-2xx statuses are not errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	client := http.DefaultClient
	if f != nil && f.Client != nil {
		client = f.Client
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	copyHeaders(httpReq.Header, req.Header)
	if f != nil && f.UserAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := int64(defaultMaxBodyBytes)
	if f != nil && f.MaxBodyBytes > 0 {
		limit = f.MaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response body for %s exceeds %d bytes", req.URL, limit)
	}

	header := http.Header{}
	copyHeaders(header, resp.Header)

	return &Response{Status: resp.StatusCode, Header: header, Body: body}, nil
}

func copyHeaders(dst, src http.Header) {
	for name, values := range src {
		if _, skip := skippedHeaders[http.CanonicalHeaderKey(name)]; skip {
			continue
		}
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}
