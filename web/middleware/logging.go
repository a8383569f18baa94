package middleware

import (
	"bytes"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/infigaming-com/fxboard/util"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const maxLoggedBody = 1024

type loggingMiddlewareOptions struct {
	lg           *zap.Logger
	debugEnabled bool
	excludePaths []string
}

type LoggingMiddlewareOption func(*loggingMiddlewareOptions)

func WithLogger(lg *zap.Logger) LoggingMiddlewareOption {
	return func(o *loggingMiddlewareOptions) {
		o.lg = lg
	}
}

// WithDebugEnabled additionally logs headers and the first KB of the response body.
func WithDebugEnabled(debugEnabled bool) LoggingMiddlewareOption {
	return func(o *loggingMiddlewareOptions) {
		o.debugEnabled = debugEnabled
	}
}

func WithExcludePaths(excludePaths []string) LoggingMiddlewareOption {
	return func(o *loggingMiddlewareOptions) {
		o.excludePaths = excludePaths
	}
}

func defaultLoggingMiddlewareOptions() *loggingMiddlewareOptions {
	return &loggingMiddlewareOptions{
		lg: zap.L(),
	}
}

func LoggingMiddleware(opts ...LoggingMiddlewareOption) gin.HandlerFunc {
	cfg := defaultLoggingMiddlewareOptions()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if lo.Contains(cfg.excludePaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		correlationId, err := util.CorrelationIdFromCtx(c.Request.Context())
		if err != nil {
			correlationId = ""
		}

		startTime := time.Now()
		var rw *responseWriter
		if cfg.debugEnabled {
			rw = &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}, limit: maxLoggedBody}
			c.Writer = rw
		}

		c.Next()

		fields := []zap.Field{
			zap.String("correlationId", correlationId),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Int("size", c.Writer.Size()),
			zap.Duration("duration", time.Since(startTime)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		cfg.lg.Info("[ACCESS]", fields...)

		if rw != nil {
			cfg.lg.Debug("[Logging]",
				zap.String("correlationId", correlationId),
				zap.Any("requestHeaders", c.Request.Header),
				zap.ByteString("responseBody", rw.body.Bytes()),
			)
		}
	}
}
