package httpkit

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perr "issuebridge/internal/platform/errors"
)

// TokenFunc checks a bearer token and names the caller
type TokenFunc func(token string) (actor string, err error)

// Port implements middleware.AuthPort over the Authorization header
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from fn
func NewPortFunc(fn TokenFunc) *Port { return &Port{parse: fn} }

// AdminToken accepts exactly want and names the caller "admin"
// An empty want refuses every request
func AdminToken(want string) TokenFunc {
	return func(token string) (string, error) {
		if want == "" {
			return "", perr.Forbiddenf("administrative endpoints are disabled")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(want)) != 1 {
			return "", perr.Unauthorizedf("invalid bearer token")
		}
		return "admin", nil
	}
}

// Parse reads "Bearer <token>" and delegates to the TokenFunc
func (p *Port) Parse(r *http.Request) (string, error) {
	s := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer"
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(s[len(prefix):])
	if raw == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	if p.parse == nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	actor, err := p.parse(raw)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeForbidden) {
			return "", err
		}
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	return actor, nil
}
