package httpmodules

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcshock/sewer/future"
	"github.com/dcshock/sewer/pipeline"
)

func flow[I, O any](t *testing.T, m pipeline.Module[I, O], in I) (pipeline.Result[O], error) {
	t.Helper()
	return m.Flow(context.Background(), in).Get()
}

func TestGet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	res, err := flow(t, Get[any](nil, ts.URL), nil)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok"}`, string(res.Value()))
}

func TestGet_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := flow(t, Get[int](nil, ts.URL), 0)
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, ts.URL, se.URL)
}

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("body"))
	}))
	defer ts.Close()

	res, err := flow(t, Fetch(nil), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "body", string(res.Value()))
}

func TestFetch_BadURL(t *testing.T) {
	_, err := flow(t, Fetch(nil), "://not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http fetch")
}

func TestFetch_WithExecutor(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer ts.Close()

	var runs atomic.Int32
	ex := future.ExecutorFunc(func(task func()) {
		runs.Add(1)
		go task()
	})
	_, err := flow(t, Fetch(ts.Client(), WithExecutor(ex)), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(1), runs.Load())
}

// A failed request inside a pipe becomes a Failed Result named after the pipe.
func TestFetch_FailedFutureInPipe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	p := pipeline.NewPipe("download", Fetch(nil)).MustBuild()
	res, err := p.Flow(context.Background(), ts.URL).Get()
	require.NoError(t, err)
	require.True(t, res.IsFailed())
	assert.Equal(t, "download", res.Name())
	var se *StatusError
	assert.ErrorAs(t, res.Err(), &se)
}
