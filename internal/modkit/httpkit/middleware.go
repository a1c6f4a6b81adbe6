package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"issuebridge/internal/platform/config"
	"issuebridge/internal/platform/net/middleware"
)

// CommonStack returns the middleware every API route runs through
// cfg is read under its own prefix: CORS_ORIGINS, SLOW_REQUEST, REQUEST_TIMEOUT, MAX_INFLIGHT
func CommonStack(cfg config.Conf) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: cfg.MayDuration("SLOW_REQUEST", 500*time.Millisecond)}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", nil)}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
		middleware.Throttle(cfg.MayInt("MAX_INFLIGHT", 0)),
		middleware.Timeout(cfg.MayDuration("REQUEST_TIMEOUT", 30*time.Second)),
	}
}

// Auth wires p into the auth middleware
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler { return middleware.Auth(p) }
