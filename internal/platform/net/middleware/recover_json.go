package middleware

import (
	"net/http"
	"runtime/debug"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/platform/logger"
	phttp "issuebridge/internal/platform/net/http"
)

// RecoverJSON turns a panic into a 500 envelope and logs the stack
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			phttp.RespondError(w, r, perr.New(perr.ErrorCodePanic, "internal error"))
		}()
		next.ServeHTTP(w, r)
	})
}
