package githubcompare

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-github/v68/github"

	"github.com/nathantilsley/changed-dirs/internal/changes/domain"
	"github.com/nathantilsley/changed-dirs/internal/platform/logger"
)

var testRepo = domain.Repository{Owner: "acme", Name: "mono"}

func newTestAdapter(t *testing.T, handler http.Handler) *Adapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient(server.Client())
	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	client.BaseURL = base

	return New(client, logger.New("error"))
}

func TestCompareFiles_Paginates(t *testing.T) {
	var serverURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/mono/compare/b1...h1", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("per_page = %q, want 100", got)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/mono/compare/b1...h1?page=2&per_page=100>; rel="next"`, serverURL))
			fmt.Fprint(w, `{"files":[{"filename":"services/api/main.go","status":"modified"},{"filename":"services/web/a.ts","status":"added"}]}`)
		case "2":
			fmt.Fprint(w, `{"files":[{"filename":"services/worker/job.go","previous_filename":"services/legacy/job.go","status":"renamed"}]}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	serverURL = server.URL

	client := github.NewClient(server.Client())
	client.BaseURL, _ = url.Parse(server.URL + "/")
	a := New(client, logger.New("error"))

	files, err := a.CompareFiles(context.Background(), testRepo, domain.RevisionPair{Base: "b1", Head: "h1"})
	if err != nil {
		t.Fatalf("CompareFiles() error = %v", err)
	}

	want := []string{
		"services/api/main.go",
		"services/web/a.ts",
		"services/worker/job.go",
		"services/legacy/job.go",
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("CompareFiles() = %v, want %v", files, want)
	}
}

func TestCompareFiles_FileLimitReached(t *testing.T) {
	entries := make([]string, maxCompareFiles)
	for i := range entries {
		entries[i] = fmt.Sprintf(`{"filename":"services/svc%d/main.go","status":"modified"}`, i)
	}
	body := `{"files":[` + strings.Join(entries, ",") + `]}`

	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))

	files, err := a.CompareFiles(context.Background(), testRepo, domain.RevisionPair{Base: "b1", Head: "h1"})
	if err == nil {
		t.Fatalf("CompareFiles() = %d files, want error for a possibly truncated list", len(files))
	}
	if !strings.Contains(err.Error(), "truncated") {
		t.Errorf("error = %v, want mention of truncation", err)
	}
}

func TestCompareFiles_APIError(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}))

	_, err := a.CompareFiles(context.Background(), testRepo, domain.RevisionPair{Base: "b", Head: "h"})
	if err == nil {
		t.Fatal("CompareFiles() expected error for 404")
	}
}

func TestCompareFiles_CanceledContext(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"files":[]}`)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.CompareFiles(ctx, testRepo, domain.RevisionPair{Base: "b", Head: "h"}); err == nil {
		t.Fatal("CompareFiles() expected error for canceled context")
	}
}

func TestRecentRevisions(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/mono/commits" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("sha"); got != "abc" {
			t.Errorf("sha = %q, want abc", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "2" {
			t.Errorf("per_page = %q, want 2", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"sha":"abc"},{"sha":"def"},{"sha":"ghi"}]`)
	}))

	revs, err := a.RecentRevisions(context.Background(), testRepo, "abc", 2)
	if err != nil {
		t.Fatalf("RecentRevisions() error = %v", err)
	}
	if want := []string{"abc", "def"}; !reflect.DeepEqual(revs, want) {
		t.Errorf("RecentRevisions() = %v, want %v", revs, want)
	}
}

func TestRecentRevisions_Empty(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))

	revs, err := a.RecentRevisions(context.Background(), testRepo, "", 2)
	if err != nil {
		t.Fatalf("RecentRevisions() error = %v", err)
	}
	if len(revs) != 0 {
		t.Errorf("RecentRevisions() = %v, want empty", revs)
	}
}
