package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/pkg/common"
)

// logScope carries values discovered deeper in the chain, like the
// authenticated user id, back up to the access log line.
type logScope struct {
	userID string
}

type logScopeKey struct{}

// Logger creates the access log middleware. It runs outside the
// authenticated groups, so Authenticate reports the user id back through
// a shared scope rather than the other way around.
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			scope := &logScope{}
			r = r.WithContext(context.WithValue(r.Context(), logScopeKey{}, scope))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			// A gateway-assigned correlation id beats the locally
			// generated one, so Lambda and server logs line up.
			requestID := common.ExtractRequestID(r)
			if requestID == "" {
				requestID = middleware.GetReqID(r.Context())
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", requestID),
				zap.String("remoteAddr", r.RemoteAddr),
				zap.String("userAgent", r.UserAgent()),
			}
			if scope.userID != "" {
				fields = append(fields, zap.String("userID", scope.userID))
			}

			logger.Info("HTTP Request", fields...)
		})
	}
}
