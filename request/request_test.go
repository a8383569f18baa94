package request

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/infigaming-com/fxboard/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "corr-1", r.Header.Get("X-Correlation-ID"))
		assert.Equal(t, "fxboard", r.Header.Get("User-Agent"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var recorded *RequestRecordData
	ctx := util.CorrelationIdToCtx(context.Background(), "corr-1")
	statusCode, body, err := Get(ctx, srv.URL,
		WithHttpClient(srv.Client()),
		WithDebugEnabled(true),
		WithQueryParams(map[string]string{"page": "1"}),
		WithRequestHeaders(map[string]string{"User-Agent": "fxboard"}),
		WithRequestRecorder(func(r *RequestRecordData) { recorded = r }),
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, statusCode)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	require.NotNil(t, recorded)
	assert.Equal(t, http.MethodGet, recorded.Method)
	assert.Equal(t, http.StatusOK, recorded.HttpStatusCode)
	assert.Empty(t, recorded.Error)
}

func TestPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"files":["a"]}`, string(body))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	statusCode, _, err := Post(context.Background(), srv.URL, []byte(`{"files":["a"]}`), WithHttpClient(srv.Client()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, statusCode)
}

func TestGetReturnsNon2xxWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	statusCode, _, err := Get(context.Background(), srv.URL, WithHttpClient(srv.Client()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, statusCode)
}

func TestGetTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, _, err := Get(context.Background(), srv.URL,
		WithHttpClient(srv.Client()),
		WithRequestTimeout(50*time.Millisecond),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestTimeout)
	assert.True(t, IsNetworkError(err))
}

func TestGetConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, _, err := Get(context.Background(), url)
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestGetRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	statusCode, body, err := Get(context.Background(), srv.URL,
		WithHttpClient(srv.Client()),
		WithRetry(1),
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, statusCode)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestInvalidOptions(t *testing.T) {
	_, _, err := Get(context.Background(), "http://127.0.0.1", WithSlowRequestThreshold(0))
	assert.ErrorIs(t, err, ErrInvalidSlowRequestThreshold)

	_, _, err = Get(context.Background(), "://bad-url")
	assert.ErrorIs(t, err, ErrFailedToCreateRequest)
	assert.False(t, IsNetworkError(err))
}
