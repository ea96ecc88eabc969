package httpclient

import (
	"context"
	"io"
	"net/http"
	"time"
)

// HttpClient is a thin wrapper around http.Client with a request timeout, so
// every source fetch returns within a bounded time.
type HttpClient struct {
	client *http.Client
}

func NewHttpClient(timeout time.Duration) *HttpClient {
	return &HttpClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (h *HttpClient) Get(url string) (*http.Response, error) {
	return h.client.Get(url)
}

// GetWithContext issues a GET bound to both the client timeout and the
// caller's context.
func (h *HttpClient) GetWithContext(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return h.client.Do(req)
}

func (h *HttpClient) Post(url string, contentType string, body io.Reader) (*http.Response, error) {
	return h.client.Post(url, contentType, body)
}
