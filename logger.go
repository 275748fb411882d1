package interact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

type contextKey string

const (
	batchContextKey     contextKey = "batch"
	loggerContextKey    contextKey = "logger"
	startTimeContextKey contextKey = "startTime"
)

// batchInfo names the operation and visitor a request is sent for.
type batchInfo struct {
	operation string
	visitor   string
	commands  int
}

func withBatchInfo(ctx context.Context, info batchInfo) context.Context {
	return context.WithValue(ctx, batchContextKey, info)
}

func batchInfoFrom(ctx context.Context) (batchInfo, bool) {
	info, ok := ctx.Value(batchContextKey).(batchInfo)
	return info, ok
}

// restySlogLogger implements a [resty.Logger] using a [slog.Logger].
type restySlogLogger struct {
	logger *slog.Logger
}

func (s restySlogLogger) Errorf(format string, v ...interface{}) {
	s.logger.Error(fmt.Sprintf(format, v...))
}

func (s restySlogLogger) Warnf(format string, v ...interface{}) {
	s.logger.Warn(fmt.Sprintf(format, v...))
}

func (s restySlogLogger) Debugf(format string, v ...interface{}) {
	s.logger.Debug(fmt.Sprintf(format, v...))
}

// newRestyLogRequestMiddleware logs each outgoing batch with the operation
// it carries and keeps the logger on the request for the response side.
func newRestyLogRequestMiddleware(logger *slog.Logger) resty.RequestMiddleware {
	return func(c *resty.Client, req *resty.Request) error {
		attrs := []any{
			slog.String("method", req.Method),
			slog.String("url", req.URL),
			slog.String("request_id", req.Header.Get(requestIDHeader)),
		}
		if info, ok := batchInfoFrom(req.Context()); ok {
			attrs = append(attrs,
				slog.String("operation", info.operation),
				slog.String("visitor", info.visitor),
				slog.Int("commands", info.commands),
			)
		}
		if req.Header.Get(tokenHeader) != "" {
			attrs = append(attrs, slog.Bool("token", true))
		}
		batchLogger := logger.WithGroup("batch").With(attrs...)
		batchLogger.Debug("sending batch")

		ctx := context.WithValue(req.Context(), loggerContextKey, batchLogger)
		ctx = context.WithValue(ctx, startTimeContextKey, time.Now())
		req.SetContext(ctx)
		return nil
	}
}

func newRestyLogResponseMiddleware(logger *slog.Logger) resty.ResponseMiddleware {
	return func(client *resty.Client, resp *resty.Response) error {
		batchLogger, _ := resp.Request.Context().Value(loggerContextKey).(*slog.Logger)
		startTime, _ := resp.Request.Context().Value(startTimeContextKey).(time.Time)
		if batchLogger == nil {
			batchLogger = logger
		}

		batchLogger = batchLogger.With(
			slog.Int("status", resp.StatusCode()),
			slog.Duration("duration", time.Since(startTime)),
			slog.Int64("content_length", resp.Size()),
			slog.Bool("token_issued", resp.Header().Get(tokenHeader) != ""),
		)
		if resp.IsError() {
			batchLogger.Error("interact server returned an error status")
			return nil
		}
		batchLogger.Debug("batch answered")
		return nil
	}
}
