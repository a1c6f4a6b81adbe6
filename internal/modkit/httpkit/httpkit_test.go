package httpkit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"issuebridge/internal/modkit/httpkit"
	"issuebridge/internal/platform/config"
	perr "issuebridge/internal/platform/errors"
	phttp "issuebridge/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestPortParse(t *testing.T) {
	t.Parallel()
	p := httpkit.NewPortFunc(httpkit.AdminToken("s3cret"))

	cases := []struct {
		header string
		code   perr.ErrorCode
	}{
		{"", perr.ErrorCodeUnauthorized},
		{"Basic abc", perr.ErrorCodeUnauthorized},
		{"Bearer", perr.ErrorCodeUnauthorized},
		{"Bearer wrong", perr.ErrorCodeUnauthorized},
		{"bearer   s3cret ", perr.ErrorCodeUnknown},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		actor, err := p.Parse(r)
		if tc.code == perr.ErrorCodeUnknown {
			if err != nil || actor != "admin" {
				t.Fatalf("%q: %q, %v", tc.header, actor, err)
			}
			continue
		}
		if !perr.IsCode(err, tc.code) {
			t.Fatalf("%q: err = %v", tc.header, err)
		}
	}

	disabled := httpkit.NewPortFunc(httpkit.AdminToken(""))
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Authorization", "Bearer anything")
	if _, err := disabled.Parse(r); !perr.IsCode(err, perr.ErrorCodeForbidden) {
		t.Fatalf("disabled err = %v", err)
	}
}

func TestMountAPIWithGuard(t *testing.T) {
	t.Parallel()
	r := phttp.AdaptChi(chi.NewRouter())
	guard := httpkit.Auth(httpkit.NewPortFunc(httpkit.AdminToken("s3cret")))

	httpkit.MountAPIV1(r, httpkit.CommonStack(config.New().Prefix("TEST_NOPE_")), func(api httpkit.Router) {
		api.Route("/things", func(rr httpkit.Router) {
			httpkit.Get(rr, "/", func(*http.Request) (any, error) { return []string{"a"}, nil })
			httpkit.Guarded(rr, guard, func(g httpkit.Router) {
				httpkit.Post(g, "/{id}/clear", func(req *http.Request) (any, error) {
					return httpkit.Accepted(httpkit.Param(req, "id")), nil
				})
			})
		})
	})

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/things", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/things/7/clear", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unguarded clear = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/things/7/clear", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("guarded clear = %d", rec.Code)
	}
}
