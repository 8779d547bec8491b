package ports

import (
	"context"
	"io"
)

// FetchResponse is the raw answer of a mirror. Body must always be
// closed by the caller.
type FetchResponse struct {
	StatusCode    int
	ContentLength int64
	Body          io.ReadCloser
}

// MirrorTransportPort issues requests against mirror URLs. A returned
// error means the request never produced a response; HTTP statuses are
// reported through FetchResponse.
type MirrorTransportPort interface {
	Get(ctx context.Context, url string) (FetchResponse, error)
}
