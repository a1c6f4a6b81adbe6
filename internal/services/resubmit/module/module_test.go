package module_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"issuebridge/internal/modkit"
	"issuebridge/internal/modkit/httpkit"
	"issuebridge/internal/modkit/module"
	"issuebridge/internal/platform/logger"
	phttp "issuebridge/internal/platform/net/http"
	"issuebridge/internal/platform/store/kv"
	"issuebridge/internal/platform/testkit"

	"issuebridge/internal/services/resubmit/domain"
	resubmitmod "issuebridge/internal/services/resubmit/module"
	tracking "issuebridge/internal/services/tracking/domain"

	"github.com/go-chi/chi/v5"
)

type repos map[string]tracking.Repository

func (r repos) Repository(_ context.Context, id string) (tracking.Repository, bool, error) {
	x, ok := r[id]
	return x, ok, nil
}

type noTrackers struct{}

func (noTrackers) Tracker(context.Context, tracking.Repository, string) (tracking.Tracker, bool, error) {
	return nil, false, nil
}

const token = "s3cret"

func setup(t *testing.T) (phttp.Router, resubmitmod.Exports, *kv.Memory) {
	t.Helper()
	backend := kv.NewMemory()
	deps := modkit.Deps{Log: logger.Nop(), KV: backend}
	opt := resubmitmod.Options{Capacity: 10, Backlog: 4, Interval: time.Hour}

	q := resubmitmod.Queue(deps, opt, nil)
	mod := resubmitmod.New(deps,
		modkit.WithPorts(resubmitmod.Ports{
			Queue:        q,
			Repositories: repos{},
			Trackers:     noTrackers{},
			Options:      &opt,
		}),
		modkit.WithGuard(httpkit.Auth(httpkit.NewPortFunc(httpkit.AdminToken(token)))),
	)
	ex := module.MustPortsOf[resubmitmod.Exports](mod)
	t.Cleanup(func() { _ = ex.Service.Close() })

	for _, key := range []string{"ABC-1", "ABC-2"} {
		if err := q.Enqueue(context.Background(), "repo-gone", "jira", key, "text"); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	r := phttp.AdaptChi(chi.NewRouter())
	mod.MountRoutes(r)
	return r, ex, backend
}

func do(t *testing.T, r phttp.Router, method, path, body string, auth bool) (*httptest.ResponseRecorder, phttp.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, req)
	var env phttp.Envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestRoutesRequireToken(t *testing.T) {
	t.Parallel()
	r, _, _ := setup(t)
	for _, rt := range []struct{ method, path string }{
		{http.MethodGet, "/issue-tracker/resubmits"},
		{http.MethodGet, "/issue-tracker/resubmits/config"},
		{http.MethodPost, "/issue-tracker/resubmits/jira/resubmit"},
		{http.MethodPost, "/issue-tracker/resubmits/jira/clear"},
	} {
		if rec, _ := do(t, r, rt.method, rt.path, "", false); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s = %d", rt.method, rt.path, rec.Code)
		}
	}
}

func TestListAndComments(t *testing.T) {
	t.Parallel()
	r, _, _ := setup(t)

	rec, env := do(t, r, http.MethodGet, "/issue-tracker/resubmits", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	raw, _ := json.Marshal(env.Data)
	var rows []domain.QueueStatus
	if err := json.Unmarshal(raw, &rows); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 1 || rows[0].IssueTracker != "jira" || rows[0].QueueSize != 2 {
		t.Fatalf("rows = %+v", rows)
	}

	rec, env = do(t, r, http.MethodGet, "/issue-tracker/resubmits/jira", "", true)
	raw, _ = json.Marshal(env.Data)
	if rec.Code != http.StatusOK {
		t.Fatalf("comments = %d", rec.Code)
	}
	testkit.MustContain(t, string(raw), `"issue_key":"ABC-2"`)
}

func TestResubmitIsAcceptedAndDrains(t *testing.T) {
	t.Parallel()
	r, ex, _ := setup(t)

	rec, env := do(t, r, http.MethodPost, "/issue-tracker/resubmits/jira/resubmit", "", true)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("resubmit = %d %+v", rec.Code, env)
	}
	raw, _ := json.Marshal(env.Data)
	testkit.MustContain(t, string(raw), `"batch_id"`)

	// repo-gone does not exist, so the batch drops both comments
	testkit.Eventually(t, 2*time.Second, func() bool {
		got, err := ex.Service.Comments(context.Background(), "jira")
		return err == nil && len(got) == 0
	})
}

func TestClear(t *testing.T) {
	t.Parallel()
	r, ex, _ := setup(t)

	if rec, _ := do(t, r, http.MethodPost, "/issue-tracker/resubmits/jira/clear", "", true); rec.Code != http.StatusAccepted {
		t.Fatalf("clear = %d", rec.Code)
	}
	got, _ := ex.Service.Comments(context.Background(), "jira")
	if len(got) != 0 {
		t.Fatalf("comments = %+v", got)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	t.Parallel()
	r, _, _ := setup(t)

	rec, env := do(t, r, http.MethodPut, "/issue-tracker/resubmits/config", `{"addresses":["nope"]}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid put = %d %+v", rec.Code, env)
	}

	if rec, _ := do(t, r, http.MethodPut, "/issue-tracker/resubmits/config", `{"addresses":["ops@example.com"]}`, true); rec.Code != http.StatusNoContent {
		t.Fatalf("put = %d", rec.Code)
	}
	rec, env = do(t, r, http.MethodGet, "/issue-tracker/resubmits/config", "", true)
	raw, _ := json.Marshal(env.Data)
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}
	testkit.MustContain(t, string(raw), "ops@example.com")
}
