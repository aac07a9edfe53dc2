package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLogger logs every request once it has been served.
func RequestLogger(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			latency := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			fields := []interface{}{
				"status", status,
				"method", r.Method,
				"path", r.URL.Path,
				"latency_ms", latency.Milliseconds(),
				"request_id", chimw.GetReqID(r.Context()),
			}
			if ww.BytesWritten() > 0 {
				fields = append(fields, "size", ww.BytesWritten())
			}
			if userID, ok := GetUserIDFromContext(r.Context()); ok {
				fields = append(fields, "user_id", userID)
			}

			switch {
			case status >= 500:
				logger.Errorw("HTTP request", fields...)
			case status >= 400:
				logger.Warnw("HTTP request", fields...)
			default:
				logger.Infow("HTTP request", fields...)
			}
		})
	}
}
