package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/invoicedesk/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const RequestIDHeader = "X-Request-Id"

// ErrorClassifier maps a handler error to the (type, code) pair logged with
// the request.
type ErrorClassifier func(err error) (errType string, errCode string)

type MiddlewareOption func(*requestLogger)

// WithErrorClassifier tags failed requests with the classifier's result.
func WithErrorClassifier(fn ErrorClassifier) MiddlewareOption {
	return func(r *requestLogger) { r.classify = fn }
}

// WithQuietPaths demotes the given routes to debug.
func WithQuietPaths(paths ...string) MiddlewareOption {
	return func(r *requestLogger) {
		for _, p := range paths {
			r.quiet[p] = struct{}{}
		}
	}
}

type requestLogger struct {
	log      *zap.Logger
	classify ErrorClassifier
	quiet    map[string]struct{}
}

// GinMiddleware assigns every request an id, echoes it in X-Request-Id and
// writes one access line when the handler chain returns.
func GinMiddleware(log *zap.Logger, opts ...MiddlewareOption) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	rl := &requestLogger{log: log, quiet: map[string]struct{}{}}
	for _, opt := range opts {
		opt(rl)
	}
	return rl.handle
}

func (rl *requestLogger) handle(c *gin.Context) {
	start := time.Now()
	id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(RequestIDHeader, id)
	c.Request = c.Request.WithContext(obscontext.WithRequestID(c.Request.Context(), id))

	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	status := c.Writer.Status()
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("route", route),
		zap.Int("status", status),
		zap.Int("bytes", c.Writer.Size()),
		zap.String("client_ip", c.ClientIP()),
		zap.Duration("latency", time.Since(start)),
	}
	if last := c.Errors.Last(); last != nil && rl.classify != nil {
		errType, errCode := rl.classify(last.Err)
		fields = append(fields, zap.String("error_type", errType), zap.String("error_code", errCode))
	}

	if ce := WithContext(c.Request.Context(), rl.log).Check(rl.level(route, status), "http_request"); ce != nil {
		ce.Write(fields...)
	}
}

func (rl *requestLogger) level(route string, status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	}
	if _, ok := rl.quiet[route]; ok {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
