package middleware

import (
	"net/http"

	pnet "issuebridge/internal/platform/net"
	phttp "issuebridge/internal/platform/net/http"
)

// AuthPort authenticates a request and names the caller
type AuthPort interface {
	Parse(r *http.Request) (actor string, err error)
}

// Auth rejects requests p cannot authenticate with the mapped error envelope
// A nil port lets everything through
func Auth(p AuthPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			actor, err := p.Parse(r)
			if err != nil {
				phttp.RespondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithActor(r.Context(), actor)))
		})
	}
}
