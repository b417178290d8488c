package httpmodules

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/dcshock/sewer/future"
	"github.com/dcshock/sewer/pipeline"
)

// StatusError reports a response outside 2xx.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%q: status %d", e.URL, e.Code)
}

// Option configures the request modules.
type Option func(*options)

type options struct {
	executor future.Executor
}

// WithExecutor runs requests on ex instead of a new goroutine each, e.g. a
// future.Bounded executor to cap concurrent requests.
func WithExecutor(ex future.Executor) Option {
	return func(o *options) { o.executor = ex }
}

func apply(opts []Option) options {
	o := options{executor: future.Goroutine}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Get returns a module that performs an HTTP GET to the fixed url and returns the response body.
// The input is ignored. The pump context is used for the request (timeout and cancellation).
// If client is nil, http.DefaultClient is used.
func Get[I any](client *http.Client, url string, opts ...Option) pipeline.Module[I, []byte] {
	if client == nil {
		client = http.DefaultClient
	}
	o := apply(opts)
	return pipeline.Async(o.executor, func(ctx context.Context, _ I) ([]byte, error) {
		body, err := get(ctx, client, url)
		return body, errors.Wrap(err, "http get")
	})
}

// Fetch returns a module that performs an HTTP GET to the URL it receives and
// returns the response body. If client is nil, http.DefaultClient is used.
func Fetch(client *http.Client, opts ...Option) pipeline.Module[string, []byte] {
	if client == nil {
		client = http.DefaultClient
	}
	o := apply(opts)
	return pipeline.Async(o.executor, func(ctx context.Context, url string) ([]byte, error) {
		body, err := get(ctx, client, url)
		return body, errors.Wrap(err, "http fetch")
	})
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%q", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "%q: read body", url)
	}
	return body, nil
}
