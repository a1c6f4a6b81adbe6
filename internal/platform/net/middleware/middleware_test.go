package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	perr "issuebridge/internal/platform/errors"
	pnet "issuebridge/internal/platform/net"
	phttp "issuebridge/internal/platform/net/http"
	"issuebridge/internal/platform/net/middleware"
)

type portFunc func(*http.Request) (string, error)

func (f portFunc) Parse(r *http.Request) (string, error) { return f(r) }

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestAuth(t *testing.T) {
	t.Parallel()
	var actor string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = pnet.Actor(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	if rec := serve(middleware.Auth(nil)(next), http.MethodGet, "/"); rec.Code != http.StatusOK {
		t.Fatalf("nil port = %d", rec.Code)
	}

	ok := portFunc(func(*http.Request) (string, error) { return "admin", nil })
	if rec := serve(middleware.Auth(ok)(next), http.MethodGet, "/"); rec.Code != http.StatusOK || actor != "admin" {
		t.Fatalf("ok port = %d actor %q", rec.Code, actor)
	}

	deny := portFunc(func(*http.Request) (string, error) { return "", perr.Unauthorizedf("missing bearer token") })
	rec := serve(middleware.Auth(deny)(next), http.MethodGet, "/")
	var env phttp.Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if rec.Code != http.StatusUnauthorized || env.Error != "missing bearer token" {
		t.Fatalf("deny = %d %+v", rec.Code, env)
	}
}

func TestAccessLogPassesThrough(t *testing.T) {
	t.Parallel()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(time.Millisecond)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "hi")
		_, _ = io.WriteString(w, "there")
	})
	rec := serve(middleware.AccessLog(middleware.AccessLogOptions{Slow: time.Nanosecond})(next), http.MethodGet, "/x")
	if rec.Code != http.StatusCreated || rec.Body.String() != "hithere" {
		t.Fatalf("access log = %d %q", rec.Code, rec.Body.String())
	}
}

func TestRecoverJSON(t *testing.T) {
	t.Parallel()
	h := middleware.RequestID()(middleware.RecoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := serve(h, http.MethodGet, "/")
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusInternalServerError || env.Code != perr.ErrorCodePanic || env.RequestID == "" {
		t.Fatalf("recover = %d %+v", rec.Code, env)
	}
	if rec.Header().Get("X-Request-ID") != env.RequestID {
		t.Fatalf("header %q != envelope %q", rec.Header().Get("X-Request-ID"), env.RequestID)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	t.Parallel()
	var seen string
	h := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = pnet.RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("seen %q header %q", seen, rec.Header().Get("X-Request-ID"))
	}
}

func TestThrottleZeroIsPassThrough(t *testing.T) {
	t.Parallel()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
	if rec := serve(middleware.Throttle(0)(next), http.MethodGet, "/"); rec.Code != http.StatusAccepted {
		t.Fatalf("throttle = %d", rec.Code)
	}
}
