package middleware

import (
	"net/http"
	"runtime/debug"

	"marketplace-bulk-api/internal/logging"
	"marketplace-bulk-api/pkg/apierror"
)

// Recovery is a middleware that recovers from panics.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logging.FromContext(r.Context()).Error("panic recovered",
					"panic", err,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				apierror.InternalError("internal server error").Write(w)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
