package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/infigaming-com/fxboard/util"
	"go.uber.org/zap"
)

var (
	httpClient *http.Client
	once       sync.Once
)

type requestOption struct {
	lg                   *zap.Logger
	client               *http.Client
	debugEnabled         bool
	queryParams          map[string]string
	requestHeaders       map[string]string
	requestBody          []byte
	recorder             RequestRecorder
	correlationIdKey     string
	correlationId        string
	requestTimeout       time.Duration
	slowRequestThreshold time.Duration
	maxBodyBytes         int64
	maxRetries           int
}

type Option interface {
	apply(option *requestOption) error
}

type optionFunc func(option *requestOption) error

func (f optionFunc) apply(option *requestOption) error {
	return f(option)
}

func defaultRequestOption() *requestOption {
	return &requestOption{
		lg:                   zap.L(),
		queryParams:          map[string]string{},
		requestHeaders:       map[string]string{},
		correlationIdKey:     "X-Correlation-ID",
		requestTimeout:       10 * time.Second,
		slowRequestThreshold: 5 * time.Second,
		maxBodyBytes:         8 << 20,
	}
}

func WithLogger(lg *zap.Logger) Option {
	return optionFunc(func(option *requestOption) error {
		if lg != nil {
			option.lg = lg
		}
		return nil
	})
}

// WithHttpClient replaces the shared client, mostly for tests against httptest servers.
func WithHttpClient(client *http.Client) Option {
	return optionFunc(func(option *requestOption) error {
		option.client = client
		return nil
	})
}

func WithDebugEnabled(debugEnabled bool) Option {
	return optionFunc(func(option *requestOption) error {
		option.debugEnabled = debugEnabled
		return nil
	})
}

func WithQueryParams(queryParams map[string]string) Option {
	return optionFunc(func(option *requestOption) error {
		maps.Copy(option.queryParams, queryParams)
		return nil
	})
}

func WithRequestHeaders(requestHeaders map[string]string) Option {
	return optionFunc(func(option *requestOption) error {
		maps.Copy(option.requestHeaders, requestHeaders)
		return nil
	})
}

// WithRequestBody sends body with the request. Every retry resends the same bytes.
func WithRequestBody(body []byte) Option {
	return optionFunc(func(option *requestOption) error {
		option.requestBody = body
		return nil
	})
}

func WithCorrelationId(correlationIdKey, correlationId string) Option {
	return optionFunc(func(option *requestOption) error {
		option.correlationIdKey = correlationIdKey
		option.correlationId = correlationId
		return nil
	})
}

func WithRequestRecorder(recorder RequestRecorder) Option {
	return optionFunc(func(option *requestOption) error {
		option.recorder = recorder
		return nil
	})
}

func WithRequestTimeout(requestTimeout time.Duration) Option {
	return optionFunc(func(option *requestOption) error {
		if requestTimeout > 0 {
			option.requestTimeout = requestTimeout
		}
		return nil
	})
}

func WithSlowRequestThreshold(slowRequestThreshold time.Duration) Option {
	return optionFunc(func(option *requestOption) error {
		if slowRequestThreshold <= 0 {
			option.lg.Error("[HTTP-REQUEST-ERROR: invalid slow request threshold]",
				zap.Duration("slowRequestThreshold", slowRequestThreshold),
			)
			return ErrInvalidSlowRequestThreshold
		}
		option.slowRequestThreshold = slowRequestThreshold
		return nil
	})
}

// WithMaxBodyBytes caps how much of the response body is read.
func WithMaxBodyBytes(n int64) Option {
	return optionFunc(func(option *requestOption) error {
		if n > 0 {
			option.maxBodyBytes = n
		}
		return nil
	})
}

// WithRetry enables retry with specified max attempts.
// Default is 0 (no retry). Only transport-level failures are retried, never HTTP status codes.
func WithRetry(maxRetries int) Option {
	return optionFunc(func(option *requestOption) error {
		option.maxRetries = max(maxRetries, 0)
		return nil
	})
}

func getHttpClient() *http.Client {
	once.Do(func() {
		httpClient = &http.Client{
			Timeout: 0,
		}
	})
	return httpClient
}

// IsNetworkError reports whether err came from the transport rather than from the request setup.
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrFailedToSendRequest) ||
		errors.Is(err, ErrRequestTimeout) ||
		errors.Is(err, ErrFailedToReadResponseBody)
}

func isRetryableError(err error) bool {
	return errors.Is(err, ErrRequestTimeout) || errors.Is(err, ErrFailedToSendRequest)
}

func Request(ctx context.Context, method string, requestUrl string, options ...Option) (httpStatusCode int, responseBody []byte, err error) {
	start := time.Now()

	option := defaultRequestOption()
	for _, opt := range options {
		if err := opt.apply(option); err != nil {
			return 0, nil, err
		}
	}

	defer func() {
		if option.recorder != nil {
			queryParams, _ := json.Marshal(option.queryParams)
			requestHeaders, _ := json.Marshal(option.requestHeaders)
			errorStr := ""
			if err != nil {
				errorStr = err.Error()
			}
			option.recorder(&RequestRecordData{
				Method:         method,
				Url:            requestUrl,
				QueryParams:    string(queryParams),
				RequestHeaders: string(requestHeaders),
				HttpStatusCode: httpStatusCode,
				ResponseSize:   len(responseBody),
				Error:          errorStr,
				Duration:       time.Since(start).Milliseconds(),
			})
		}

		if err != nil {
			option.lg.Error("[HTTP-REQUEST-ERROR]",
				zap.Error(err),
				zap.String("method", method),
				zap.String("url", requestUrl),
				zap.Any("queryParams", option.queryParams),
				zap.Int("httpStatusCode", httpStatusCode),
				zap.Duration("duration", time.Since(start)),
			)
			return
		}

		if option.debugEnabled {
			option.lg.Debug("[HTTP-REQUEST-DEBUG]",
				zap.String("method", method),
				zap.String("url", requestUrl),
				zap.Any("queryParams", option.queryParams),
				zap.Any("requestHeaders", option.requestHeaders),
				zap.Int("httpStatusCode", httpStatusCode),
				zap.Int("responseSize", len(responseBody)),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}()

	maxAttempts := option.maxRetries + 1
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * time.Second
			option.lg.Info("[HTTP-REQUEST-RETRY]",
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", maxAttempts),
				zap.Duration("backoff", backoff),
				zap.String("method", method),
				zap.String("url", requestUrl),
			)

			select {
			case <-ctx.Done():
				return 0, nil, ErrRequestTimeout.Wrap(ctx.Err())
			case <-time.After(backoff):
			}
		}

		httpStatusCode, responseBody, err = doRequest(ctx, method, requestUrl, option)
		if err == nil {
			return httpStatusCode, responseBody, nil
		}
		if !isRetryableError(err) || attempt == maxAttempts {
			return httpStatusCode, responseBody, err
		}

		option.lg.Warn("[HTTP-REQUEST-RETRYABLE-ERROR]",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts),
			zap.String("method", method),
			zap.String("url", requestUrl),
		)
	}

	return httpStatusCode, responseBody, err
}

// doRequest performs a single HTTP request attempt
func doRequest(ctx context.Context, method string, requestUrl string, option *requestOption) (httpStatusCode int, responseBody []byte, err error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, option.requestTimeout)
	defer cancel()

	var body io.Reader
	if option.requestBody != nil {
		body = bytes.NewReader(option.requestBody)
	}
	req, err := http.NewRequestWithContext(timeoutCtx, method, requestUrl, body)
	if err != nil {
		return 0, nil, ErrFailedToCreateRequest.Wrap(err)
	}

	query := req.URL.Query()
	for k, v := range option.queryParams {
		query.Add(k, v)
	}
	req.URL.RawQuery = query.Encode()

	correlationId := option.correlationId
	if correlationId == "" {
		if fromCtx, ctxErr := util.CorrelationIdFromCtx(ctx); ctxErr == nil {
			correlationId = fromCtx
		} else {
			correlationId = util.NewUUID()
		}
	}
	if option.correlationIdKey != "" {
		req.Header.Set(option.correlationIdKey, correlationId)
	}
	for k, v := range option.requestHeaders {
		req.Header.Set(k, v)
	}

	client := option.client
	if client == nil {
		client = getHttpClient()
	}

	requestStart := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return 0, nil, ErrRequestTimeout.Wrap(err)
		}
		return 0, nil, ErrFailedToSendRequest.Wrap(err)
	}
	defer resp.Body.Close()

	httpStatusCode = resp.StatusCode
	responseBody, err = io.ReadAll(io.LimitReader(resp.Body, option.maxBodyBytes))
	if err != nil {
		return httpStatusCode, nil, ErrFailedToReadResponseBody.Wrap(err)
	}

	if requestDuration := time.Since(requestStart); requestDuration > option.slowRequestThreshold {
		option.lg.Warn("[HTTP-REQUEST-SLOW]",
			zap.String("method", method),
			zap.String("url", requestUrl),
			zap.Any("queryParams", option.queryParams),
			zap.Int("httpStatusCode", httpStatusCode),
			zap.Duration("duration", requestDuration),
		)
	}

	return httpStatusCode, responseBody, nil
}

func Get(ctx context.Context, requestUrl string, options ...Option) (httpStatusCode int, responseBody []byte, err error) {
	return Request(ctx, http.MethodGet, requestUrl, options...)
}

func Post(ctx context.Context, requestUrl string, body []byte, options ...Option) (httpStatusCode int, responseBody []byte, err error) {
	return Request(ctx, http.MethodPost, requestUrl, append(options[:len(options):len(options)], WithRequestBody(body))...)
}
