package adapters

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"apms/internal/ports"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	maxRedirects       = 10
)

// HTTPTransportAdapter fetches mirror URLs over HTTP(S).
type HTTPTransportAdapter struct {
	Client    *http.Client
	UserAgent string
}

func NewHTTPTransportAdapter(timeout time.Duration, userAgent string) HTTPTransportAdapter {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return HTTPTransportAdapter{
		Client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		UserAgent: userAgent,
	}
}

func (a HTTPTransportAdapter) Get(ctx context.Context, url string) (ports.FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ports.FetchResponse{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to create mirror request").
			WithCause(err)
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}
	client := a.Client
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return ports.FetchResponse{}, err
	}
	return ports.FetchResponse{
		StatusCode:    resp.StatusCode,
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}

var _ ports.MirrorTransportPort = HTTPTransportAdapter{}
