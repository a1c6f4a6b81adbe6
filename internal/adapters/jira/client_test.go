package jira

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/platform/testkit"
)

var fastRetry = Retry{Initial: time.Millisecond, MaxElapsed: time.Second, MaxRetries: 3}

func newClient(t *testing.T, h http.Handler, user string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(ClientConfig{URL: srv.URL + "/", Username: user, Token: "tok", Retry: fastRetry})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func TestAddComment(t *testing.T) {
	t.Parallel()
	var got struct{ Body string }
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/api/2/issue/ABC-1/comment" {
			t.Errorf("request %s %s", r.Method, r.URL.Path)
		}
		if u, p, ok := r.BasicAuth(); !ok || u != "bot" || p != "tok" {
			t.Errorf("auth = %q %q %v", u, p, ok)
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		w.WriteHeader(http.StatusCreated)
	}), "bot")

	if err := c.AddComment(context.Background(), "ABC-1", "hello"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if got.Body != "hello" {
		t.Fatalf("body = %q", got.Body)
	}
}

func TestBearerAuth(t *testing.T) {
	t.Parallel()
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("auth = %q", r.Header.Get("Authorization"))
		}
		_, _ = io.WriteString(w, `{"transitions":[{"id":"31","name":"Close","to":{"name":"Done"}}]}`)
	}), "")

	ts, err := c.Transitions(context.Background(), "ABC-1")
	if err != nil {
		t.Fatalf("transitions: %v", err)
	}
	if len(ts) != 1 || ts[0].ID != "31" || ts[0].To.Name != "Done" {
		t.Fatalf("transitions = %+v", ts)
	}
}

func TestRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}), "bot")

	if err := c.DoTransition(context.Background(), "ABC-1", "31"); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestPermanentFailuresAreNotRetried(t *testing.T) {
	t.Parallel()
	cases := map[int]perr.ErrorCode{
		http.StatusNotFound:     perr.ErrorCodeNotFound,
		http.StatusBadRequest:   perr.ErrorCodeInvalidArgument,
		http.StatusUnauthorized: perr.ErrorCodeUnauthorized,
		http.StatusForbidden:    perr.ErrorCodeForbidden,
		http.StatusConflict:     perr.ErrorCodeRemote,
	}
	for status, code := range cases {
		var calls atomic.Int32
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"errorMessages":["nope"]}`)
		}), "bot")

		err := c.AddComment(context.Background(), "ABC-1", "x")
		if !perr.IsCode(err, code) {
			t.Fatalf("%d: err = %v", status, err)
		}
		testkit.MustContain(t, err.Error(), "nope")
		if calls.Load() != 1 {
			t.Fatalf("%d: calls = %d", status, calls.Load())
		}
	}
}

func TestRetriesGiveUp(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}), "bot")

	err := c.AddComment(context.Background(), "ABC-1", "x")
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != int32(fastRetry.MaxRetries)+1 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	t.Parallel()
	if _, err := NewClient(ClientConfig{URL: "jira.example.com"}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}
