// Package source resolves template source descriptors into raw markdown
// payloads. A descriptor is a local path, an http(s) URL, a GitHub
// owner/repo slug, or owner/repo:path/to/file.md. Loading is lazy and
// failure-isolated: one bad source or file never stops the rest.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Origin is the provenance category of a loaded source.
type Origin string

// Origin kinds, matching where the descriptor resolved.
const (
	OriginDirectory  Origin = "directory-entry"
	OriginLocalFile  Origin = "local-file"
	OriginRemoteURL  Origin = "remote-url"
	OriginRepository Origin = "repository-file"
)

// Source is one loaded, provenance-tagged template document.
type Source struct {
	// Name is the stable identifier, derived from the file stem.
	// Never empty; "template" when the path yields no usable stem.
	Name string
	// Content is the raw UTF-8 text.
	Content string
	// Origin is the provenance kind.
	Origin Origin
	// Path is the exact descriptor the content was read from: an
	// absolute path, a URL, or owner/repo/path.
	Path string
}

// ErrInvalidSource marks a descriptor that matches no known source form.
var ErrInvalidSource = errors.New("invalid template source")

// Defaults for loading.
const (
	DefaultPattern = "*.md"
	DefaultBranch  = "main"

	// templatesDir is the conventional issue-template directory listed
	// for bare owner/repo descriptors.
	templatesDir = ".github/ISSUE_TEMPLATE"

	fetchTimeout = 30 * time.Second
)

// repoSlugRe matches owner/repo where each segment is word characters,
// hyphens, and dots.
var repoSlugRe = regexp.MustCompile(`^[\w\-.]+/[\w\-.]+$`)

// Loader resolves descriptors to Sources. The zero value is not usable;
// construct with NewLoader.
type Loader struct {
	client  *http.Client
	branch  string
	rawBase string
	apiBase string
	logger  zerolog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithBranch overrides the repository branch (default "main").
func WithBranch(branch string) Option {
	return func(l *Loader) {
		if branch != "" {
			l.branch = branch
		}
	}
}

// WithHTTPClient overrides the HTTP client used for remote fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) { l.client = client }
}

// WithBaseURLs overrides the GitHub raw-content and API endpoints.
// Used by tests to point at a local server.
func WithBaseURLs(rawBase, apiBase string) Option {
	return func(l *Loader) {
		l.rawBase = rawBase
		l.apiBase = apiBase
	}
}

// NewLoader creates a Loader with a bounded-timeout HTTP client that
// follows redirects.
func NewLoader(logger zerolog.Logger, opts ...Option) *Loader {
	loader := &Loader{
		client:  &http.Client{Timeout: fetchTimeout},
		branch:  DefaultBranch,
		rawBase: "https://raw.githubusercontent.com",
		apiBase: "https://api.github.com",
		logger:  logger,
	}
	for _, opt := range opts {
		opt(loader)
	}
	return loader
}

// IsURL reports whether the descriptor is an http or https URL.
func IsURL(descriptor string) bool {
	parsed, err := url.Parse(descriptor)
	return err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https")
}

// IsRepoSlug reports whether the descriptor has owner/repo shape.
func IsRepoSlug(descriptor string) bool {
	return repoSlugRe.MatchString(descriptor)
}

// SplitDescriptors splits a comma-separated descriptor list, trimming
// whitespace and dropping empty entries.
func SplitDescriptors(descriptors string) []string {
	var result []string
	for part := range strings.SplitSeq(descriptors, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Load resolves one descriptor to a lazy sequence of Sources. Resolution
// order: URL, owner/repo:path, owner/repo, local directory, local file;
// anything else yields ErrInvalidSource. Per-file failures are yielded
// as errors and iteration continues, so a consumer can skip and log.
// An empty pattern means DefaultPattern; the pattern applies only to
// local directories.
func (l *Loader) Load(ctx context.Context, descriptor, pattern string) iter.Seq2[Source, error] {
	if pattern == "" {
		pattern = DefaultPattern
	}

	return func(yield func(Source, error) bool) {
		switch {
		case IsURL(descriptor):
			src, err := l.loadURL(ctx, descriptor)
			yield(src, err)

		case isRepoWithPath(descriptor):
			slug, filePath, _ := strings.Cut(descriptor, ":")
			owner, repo, _ := strings.Cut(slug, "/")
			src, err := l.loadRepoFile(ctx, owner, repo, filePath)
			yield(src, err)

		case IsRepoSlug(descriptor):
			owner, repo, _ := strings.Cut(descriptor, "/")
			l.loadRepoListing(ctx, owner, repo, yield)

		default:
			l.loadLocal(descriptor, pattern, yield)
		}
	}
}

// isRepoWithPath reports whether the descriptor is owner/repo:path form.
func isRepoWithPath(descriptor string) bool {
	slug, _, found := strings.Cut(descriptor, ":")
	return found && IsRepoSlug(slug)
}

// loadURL fetches a single template from an http(s) URL.
func (l *Loader) loadURL(ctx context.Context, rawURL string) (Source, error) {
	content, err := l.fetch(ctx, rawURL)
	if err != nil {
		return Source{}, err
	}

	name := "template"
	if parsed, err := url.Parse(rawURL); err == nil {
		name = stem(parsed.Path)
	}

	return Source{
		Name:    name,
		Content: content,
		Origin:  OriginRemoteURL,
		Path:    rawURL,
	}, nil
}

// loadLocal resolves a filesystem descriptor: a directory is enumerated
// with the glob pattern, a regular file is read directly.
func (l *Loader) loadLocal(descriptor, pattern string, yield func(Source, error) bool) {
	info, err := os.Stat(descriptor)
	if err != nil {
		yield(Source{}, fmt.Errorf("%w: %s (not an existing path, URL, or repository)", ErrInvalidSource, descriptor))
		return
	}

	if !info.IsDir() {
		yield(l.readFile(descriptor, OriginLocalFile))
		return
	}

	matches, err := filepath.Glob(filepath.Join(descriptor, pattern))
	if err != nil {
		yield(Source{}, fmt.Errorf("bad glob pattern %q: %w", pattern, err))
		return
	}

	for _, match := range matches {
		if fileInfo, err := os.Stat(match); err == nil && fileInfo.IsDir() {
			continue
		}
		if !yield(l.readFile(match, OriginDirectory)) {
			return
		}
	}
}

// readFile loads one local file into a Source.
func (l *Loader) readFile(filePath string, origin Origin) (Source, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Source{}, fmt.Errorf("reading template %s: %w", filePath, err)
	}
	return Source{
		Name:    stem(filePath),
		Content: string(data),
		Origin:  origin,
		Path:    filePath,
	}, nil
}

// fetch performs a GET and returns the response body as text. Any
// non-2xx status is an error for that fetch.
func (l *Loader) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", rawURL, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on response body

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("fetching %s: unexpected status %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response from %s: %w", rawURL, err)
	}
	return string(body), nil
}

// stem returns the base filename without extension, falling back to
// "template" when the path yields nothing usable.
func stem(filePath string) string {
	base := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	name := strings.TrimSuffix(base, path.Ext(base))
	if name == "" || name == "." || name == "/" {
		return "template"
	}
	return name
}

// contentsEntry is one item in a GitHub contents-listing response.
type contentsEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// loadRepoFile fetches a single file from a repository at the loader's
// branch via the raw-content endpoint.
func (l *Loader) loadRepoFile(ctx context.Context, owner, repo, filePath string) (Source, error) {
	content, err := l.fetch(ctx, l.rawURL(owner, repo, filePath))
	if err != nil {
		return Source{}, err
	}
	return Source{
		Name:    stem(filePath),
		Content: content,
		Origin:  OriginRepository,
		Path:    fmt.Sprintf("%s/%s/%s", owner, repo, filePath),
	}, nil
}

// loadRepoListing lists the conventional issue-template directory of a
// repository and fetches each markdown file. A 404 on the listing means
// the repository has no templates, which yields nothing rather than an
// error. Individual fetch failures are yielded and loading continues.
func (l *Loader) loadRepoListing(ctx context.Context, owner, repo string, yield func(Source, error) bool) {
	entries, err := l.listTemplates(ctx, owner, repo)
	if err != nil {
		yield(Source{}, err)
		return
	}

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name, ".md") {
			continue
		}
		src, err := l.loadRepoFile(ctx, owner, repo, entry.Path)
		if err != nil {
			l.logger.Warn().Err(err).Str("path", entry.Path).Msg("skipping repository file")
			if !yield(Source{}, err) {
				return
			}
			continue
		}
		if !yield(src, nil) {
			return
		}
	}
}

// listTemplates queries the repository contents API for the template
// directory, filtered to template-shaped files. A missing directory is
// not an error: it returns an empty listing.
func (l *Loader) listTemplates(ctx context.Context, owner, repo string) ([]contentsEntry, error) {
	listURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		l.apiBase, owner, repo, templatesDir, url.QueryEscape(l.branch))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", listURL, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing templates for %s/%s: %w", owner, repo, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on response body

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing templates for %s/%s: unexpected status %s", owner, repo, resp.Status)
	}

	var entries []contentsEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding listing for %s/%s: %w", owner, repo, err)
	}

	filtered := entries[:0]
	for _, entry := range entries {
		if entry.Type != "file" {
			continue
		}
		if hasTemplateExt(entry.Name) {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

// hasTemplateExt reports whether a listing entry looks like a template.
func hasTemplateExt(name string) bool {
	return strings.HasSuffix(name, ".md") ||
		strings.HasSuffix(name, ".yaml") ||
		strings.HasSuffix(name, ".yml")
}

// rawURL builds the raw-content URL for a repository file.
func (l *Loader) rawURL(owner, repo, filePath string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", l.rawBase, owner, repo, l.branch, filePath)
}
