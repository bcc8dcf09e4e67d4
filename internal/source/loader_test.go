package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// collect drains a Load sequence into sources and errors.
func collect(t *testing.T, loader *Loader, descriptor, pattern string) ([]Source, []error) {
	t.Helper()
	var sources []Source
	var errs []error
	for src, err := range loader.Load(context.Background(), descriptor, pattern) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sources = append(sources, src)
	}
	return sources, errs
}

func writeTemplate(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestSplitDescriptors(t *testing.T) {
	got := SplitDescriptors(" a.md , octocat/hello-world ,, ")
	if len(got) != 2 || got[0] != "a.md" || got[1] != "octocat/hello-world" {
		t.Errorf("SplitDescriptors = %v, want [a.md octocat/hello-world]", got)
	}
}

func TestIsRepoSlug(t *testing.T) {
	tests := []struct {
		descriptor string
		want       bool
	}{
		{"octocat/hello-world", true},
		{"octo.cat/hello_world-2", true},
		{"octocat", false},
		{"octocat/hello/extra", false},
		{"https://example.com/x.md", false},
	}
	for _, tt := range tests {
		if got := IsRepoSlug(tt.descriptor); got != tt.want {
			t.Errorf("IsRepoSlug(%q) = %v, want %v", tt.descriptor, got, tt.want)
		}
	}
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "bug.md", "# Bug\n{{summary}}\n")
	writeTemplate(t, dir, "feature.md", "# Feature\n{{details}}\n")
	writeTemplate(t, dir, "notes.txt", "not a template")

	loader := NewLoader(zerolog.Nop())
	sources, errs := collect(t, loader, dir, "")

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2", len(sources))
	}
	for _, src := range sources {
		if src.Origin != OriginDirectory {
			t.Errorf("Origin = %q, want %q", src.Origin, OriginDirectory)
		}
	}
	if sources[0].Name != "bug" || sources[1].Name != "feature" {
		t.Errorf("names = %q, %q; want bug, feature", sources[0].Name, sources[1].Name)
	}
}

func TestLoad_LocalFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "weekly-report.md", "{{content}}\n")

	loader := NewLoader(zerolog.Nop())
	sources, errs := collect(t, loader, path, "")

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(sources) != 1 {
		t.Fatalf("len(sources) = %d, want 1", len(sources))
	}
	src := sources[0]
	if src.Name != "weekly-report" {
		t.Errorf("Name = %q, want weekly-report", src.Name)
	}
	if src.Origin != OriginLocalFile {
		t.Errorf("Origin = %q, want %q", src.Origin, OriginLocalFile)
	}
	if src.Path != path {
		t.Errorf("Path = %q, want %q", src.Path, path)
	}
}

func TestLoad_InvalidSource(t *testing.T) {
	loader := NewLoader(zerolog.Nop())
	sources, errs := collect(t, loader, "/does/not/exist/anywhere", "")

	if len(sources) != 0 {
		t.Fatalf("len(sources) = %d, want 0", len(sources))
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidSource) {
		t.Fatalf("errs = %v, want one ErrInvalidSource", errs)
	}
}

func TestLoad_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "a.md", "{{first}}\n")
	writeTemplate(t, dir, "c.md", "{{third}}\n")
	// b.md is a dangling symlink: it globs but cannot be read.
	if err := os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "b.md")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	loader := NewLoader(zerolog.Nop())
	sources, errs := collect(t, loader, dir, "")

	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2 (first and third)", len(sources))
	}
	if sources[0].Name != "a" || sources[1].Name != "c" {
		t.Errorf("names = %q, %q; want a, c", sources[0].Name, sources[1].Name)
	}
	if len(errs) != 1 {
		t.Errorf("len(errs) = %d, want 1 for the unreadable file", len(errs))
	}
}

func TestLoad_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/templates/bug_report.md" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("# Bug Report\n{{summary}}\n"))
	}))
	defer server.Close()

	loader := NewLoader(zerolog.Nop())
	sources, errs := collect(t, loader, server.URL+"/templates/bug_report.md", "")

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(sources) != 1 {
		t.Fatalf("len(sources) = %d, want 1", len(sources))
	}
	src := sources[0]
	if src.Name != "bug_report" {
		t.Errorf("Name = %q, want bug_report", src.Name)
	}
	if src.Origin != OriginRemoteURL {
		t.Errorf("Origin = %q, want %q", src.Origin, OriginRemoteURL)
	}
}

func TestLoad_URLNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	loader := NewLoader(zerolog.Nop())
	sources, errs := collect(t, loader, server.URL+"/gone.md", "")

	if len(sources) != 0 || len(errs) != 1 {
		t.Fatalf("sources = %d, errs = %d; want 0 sources, 1 error", len(sources), len(errs))
	}
}

func TestLoad_RepoWithPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/octocat/hello-world/main/.github/ISSUE_TEMPLATE/bug.md" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("{{summary}}\n"))
	}))
	defer server.Close()

	loader := NewLoader(zerolog.Nop(), WithBaseURLs(server.URL, server.URL))
	sources, errs := collect(t, loader, "octocat/hello-world:.github/ISSUE_TEMPLATE/bug.md", "")

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(sources) != 1 {
		t.Fatalf("len(sources) = %d, want exactly 1", len(sources))
	}
	src := sources[0]
	if src.Name != "bug" {
		t.Errorf("Name = %q, want bug", src.Name)
	}
	if src.Origin != OriginRepository {
		t.Errorf("Origin = %q, want %q", src.Origin, OriginRepository)
	}
	if src.Path != "octocat/hello-world/.github/ISSUE_TEMPLATE/bug.md" {
		t.Errorf("Path = %q, want owner/repo/path form", src.Path)
	}
}

func TestLoad_RepoListing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world/contents/.github/ISSUE_TEMPLATE", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ref"); got != "main" {
			t.Errorf("ref = %q, want main", got)
		}
		_, _ = w.Write([]byte(`[
			{"name": "bug.md", "path": ".github/ISSUE_TEMPLATE/bug.md", "type": "file"},
			{"name": "config.yml", "path": ".github/ISSUE_TEMPLATE/config.yml", "type": "file"},
			{"name": "nested", "path": ".github/ISSUE_TEMPLATE/nested", "type": "dir"},
			{"name": "feature.md", "path": ".github/ISSUE_TEMPLATE/feature.md", "type": "file"}
		]`))
	})
	mux.HandleFunc("/octocat/hello-world/main/.github/ISSUE_TEMPLATE/bug.md", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{{summary}}\n"))
	})
	mux.HandleFunc("/octocat/hello-world/main/.github/ISSUE_TEMPLATE/feature.md", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{{details}}\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	loader := NewLoader(zerolog.Nop(), WithBaseURLs(server.URL, server.URL))
	sources, errs := collect(t, loader, "octocat/hello-world", "")

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	// Only the markdown files are fetched; config.yml and the dir are not.
	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2", len(sources))
	}
	if sources[0].Name != "bug" || sources[1].Name != "feature" {
		t.Errorf("names = %q, %q; want bug, feature", sources[0].Name, sources[1].Name)
	}
}

func TestLoad_RepoListingNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	loader := NewLoader(zerolog.Nop(), WithBaseURLs(server.URL, server.URL))
	sources, errs := collect(t, loader, "octocat/no-templates", "")

	// A repository without the template directory is empty, not an error.
	if len(sources) != 0 {
		t.Errorf("len(sources) = %d, want 0", len(sources))
	}
	if len(errs) != 0 {
		t.Errorf("errs = %v, want none", errs)
	}
}

func TestLoad_RepoListingFileFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world/contents/.github/ISSUE_TEMPLATE", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"name": "bug.md", "path": ".github/ISSUE_TEMPLATE/bug.md", "type": "file"},
			{"name": "broken.md", "path": ".github/ISSUE_TEMPLATE/broken.md", "type": "file"}
		]`))
	})
	mux.HandleFunc("/octocat/hello-world/main/.github/ISSUE_TEMPLATE/bug.md", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{{summary}}\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	loader := NewLoader(zerolog.Nop(), WithBaseURLs(server.URL, server.URL))
	sources, errs := collect(t, loader, "octocat/hello-world", "")

	if len(sources) != 1 || sources[0].Name != "bug" {
		t.Fatalf("sources = %+v, want just bug", sources)
	}
	if len(errs) != 1 {
		t.Errorf("len(errs) = %d, want 1 for the failed fetch", len(errs))
	}
}

func TestLoad_Branch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/octocat/hello-world/develop/docs/spec.md", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{{body}}\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	loader := NewLoader(zerolog.Nop(), WithBaseURLs(server.URL, server.URL), WithBranch("develop"))
	sources, errs := collect(t, loader, "octocat/hello-world:docs/spec.md", "")

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(sources) != 1 || sources[0].Name != "spec" {
		t.Fatalf("sources = %+v, want spec from develop branch", sources)
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/templates/bug_report.md", "bug_report"},
		{"bug.md", "bug"},
		{".github/ISSUE_TEMPLATE/feature.md", "feature"},
		{"/", "template"},
		{"", "template"},
	}
	for _, tt := range tests {
		if got := stem(tt.path); got != tt.want {
			t.Errorf("stem(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
