package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"invoicer/infrastructure/logger"
)

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", ww.Status()),
				logger.Int("bytes", ww.BytesWritten()),
				logger.Duration("elapsed", time.Since(start)),
			}
			if ww.Status() >= http.StatusInternalServerError {
				logger.Warn(r.Context(), "request", fields...)
				return
			}
			logger.Debug(r.Context(), "request", fields...)
		}()
		next.ServeHTTP(ww, r)
	})
}
