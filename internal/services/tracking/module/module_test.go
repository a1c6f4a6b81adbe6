package module_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"issuebridge/internal/core/issuekeys"
	"issuebridge/internal/modkit"
	"issuebridge/internal/modkit/httpkit"
	"issuebridge/internal/modkit/module"
	"issuebridge/internal/platform/logger"
	phttp "issuebridge/internal/platform/net/http"
	"issuebridge/internal/platform/store/kv"
	"issuebridge/internal/platform/testkit"

	"issuebridge/internal/services/tracking/domain"
	trackingmod "issuebridge/internal/services/tracking/module"
	trackingsvc "issuebridge/internal/services/tracking/service"

	"github.com/go-chi/chi/v5"
)

type repos map[string]domain.Repository

func (r repos) Repository(_ context.Context, id string) (domain.Repository, bool, error) {
	x, ok := r[id]
	return x, ok, nil
}

type recorder struct {
	mu       sync.Mutex
	comments []string
}

func (c *recorder) Comment(_ context.Context, key, text string) error {
	c.mu.Lock()
	c.comments = append(c.comments, key+": "+text)
	c.mu.Unlock()
	return nil
}

func (c *recorder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.comments)
}

type plain struct{}

func (plain) CreateLink(key string) string { return "https://tracker.example.com/" + key }

func (plain) RenderReference(key string, obj domain.ReferencingObject) (string, error) {
	return "referenced by " + string(obj.Type) + " " + obj.ID, nil
}

type fixture struct {
	backend  *kv.Memory
	comments *recorder
	router   phttp.Router
	mod      modkit.Module
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{backend: kv.NewMemory(), comments: &recorder{}}

	reg := trackingsvc.NewRegistry()
	reg.Register("fake", func(spec domain.TrackerSpec, b *trackingsvc.Builder) (domain.Provider, error) {
		return trackingsvc.NewSpecProvider(spec, b, func(_ context.Context, repo domain.Repository) (trackingsvc.Config, error) {
			return trackingsvc.Config{
				Name:        spec.Name,
				Repository:  repo,
				Matcher:     issuekeys.Jira(),
				Links:       plain{},
				Mode:        trackingsvc.Commenting,
				Commentator: f.comments,
				References:  plain{},
			}, nil
		}), nil
	})

	f.mod = trackingmod.New(
		modkit.Deps{Log: logger.Nop(), KV: f.backend},
		modkit.WithPorts(trackingmod.Ports{
			Repositories: repos{"repo-1": {ID: "repo-1", Namespace: "hitchhiker", Name: "heart-of-gold"}},
			Specs:        []domain.TrackerSpec{{Name: "jira", Kind: "fake", Repositories: []string{"repo-1"}}},
			Registry:     reg,
		}),
		modkit.WithGuard(httpkit.Auth(httpkit.NewPortFunc(httpkit.AdminToken("s3cret")))),
	)

	f.router = phttp.AdaptChi(chi.NewRouter())
	f.mod.MountRoutes(f.router)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, phttp.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.Mux().ServeHTTP(rec, req)
	var env phttp.Envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

const commit = `{
	"repository_id": "repo-1",
	"type": "changeset",
	"id": "9f2c1e0",
	"author": {"name": "trillian"},
	"content": [{"type": "description", "value": "ABC-42 and NBC-21 and again ABC-42"}]
}`

func TestReferenceCommentsOncePerIssue(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		rec, env := f.do(t, http.MethodPost, "/issue-tracker/references", commit, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d %+v", rec.Code, env)
		}
		raw, _ := json.Marshal(env.Data)
		testkit.MustContain(t, string(raw), `"key":"ABC-42"`)
		testkit.MustContain(t, string(raw), `"link":"https://tracker.example.com/NBC-21"`)
	}
	if got := f.comments.count(); got != 2 {
		t.Fatalf("comments = %d, want 2", got)
	}
}

func TestIssuesHasNoSideEffects(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/issue-tracker/references/issues", commit, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := f.comments.count(); got != 0 {
		t.Fatalf("comments = %d, want 0", got)
	}
}

func TestReferenceUnknownRepository(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	body := strings.Replace(commit, "repo-1", "repo-9", 1)
	rec, env := f.do(t, http.MethodPost, "/issue-tracker/references", body, "")
	if rec.Code != http.StatusNotFound || env.Field != "repository_id" {
		t.Fatalf("status = %d %+v", rec.Code, env)
	}
}

func TestRepositoryDeletedIsGuarded(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	if rec, _ := f.do(t, http.MethodPost, "/issue-tracker/references", commit, ""); rec.Code != http.StatusOK {
		t.Fatalf("reference status = %d", rec.Code)
	}

	if rec, _ := f.do(t, http.MethodDelete, "/issue-tracker/repositories/repo-1", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", rec.Code)
	}
	if rec, _ := f.do(t, http.MethodDelete, "/issue-tracker/repositories/repo-1", "", "s3cret"); rec.Code != http.StatusNoContent {
		t.Fatalf("purge status = %d", rec.Code)
	}

	// marks are gone, so the same commit comments again
	if rec, _ := f.do(t, http.MethodPost, "/issue-tracker/references", commit, ""); rec.Code != http.StatusOK {
		t.Fatalf("reference status = %d", rec.Code)
	}
	if got := f.comments.count(); got != 4 {
		t.Fatalf("comments = %d, want 4", got)
	}
}

func TestExportsArePublished(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	ex := module.MustPortsOf[trackingmod.Exports](f.mod)
	if ex.Service == nil || ex.Factory == nil {
		t.Fatalf("exports = %+v", ex)
	}
	if names := ex.Factory.Names(); len(names) != 1 || names[0] != "jira" {
		t.Fatalf("names = %v", names)
	}
}

func TestUnknownKindPanics(t *testing.T) {
	t.Parallel()
	testkit.MustPanic(t, func() {
		trackingmod.New(
			modkit.Deps{Log: logger.Nop(), KV: kv.NewMemory()},
			modkit.WithPorts(trackingmod.Ports{
				Repositories: repos{},
				Specs:        []domain.TrackerSpec{{Name: "x", Kind: "nope"}},
			}),
		)
	})
}
