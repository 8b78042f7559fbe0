package middleware

import (
	"net/http"
	"strings"
	"time"

	"photosorter/internal/logger"
)

// RequestLogMiddleware logs every API request with its duration. Static
// asset requests are skipped to keep the log readable.
func RequestLogMiddleware(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/static/") ||
			strings.HasPrefix(r.URL.Path, "/css/") ||
			strings.HasPrefix(r.URL.Path, "/js/") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
