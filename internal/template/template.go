// Package template parses markdown templates into a structured form and
// renders them with variable substitution.
//
// A template is a markdown document with optional YAML frontmatter
// (name/about, GitHub issue-template style), {{placeholder}} substitution
// points, and optional authoring annotations: HTML comments of the form
// <!-- placeholder_name: description. Example: sample value --> that
// document a placeholder without appearing in rendered output.
package template

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ErrNotText indicates content that cannot be processed as UTF-8 text.
var ErrNotText = fmt.Errorf("content is not valid UTF-8 text")

// Variable is a named substitution point extracted from a template.
type Variable struct {
	// Name is the placeholder token, an identifier ([A-Za-z_][A-Za-z0-9_]*).
	Name string
	// Description explains the variable's intent. May be empty.
	Description string
	// Example is an optional sample value. Never used as a default.
	Example string
}

// Template is the structured view of one parsed markdown template.
// It is immutable after parsing; rendering always re-reads RawContent.
type Template struct {
	// Name is the display name: frontmatter name, first heading, or the
	// caller-supplied fallback, in that order.
	Name string
	// About is a short description, empty when the template has none.
	About string
	// Variables are the substitution points in first-appearance order.
	// Duplicate names are collapsed; the first annotation wins.
	Variables []Variable
	// RawContent is the original unmodified text.
	RawContent string
}

// frontmatter holds the metadata fields recognized in the YAML header.
type frontmatter struct {
	Name        string `yaml:"name"`
	About       string `yaml:"about"`
	Description string `yaml:"description"`
}

var (
	placeholderRe = regexp.MustCompile(`\{\{\s*([^{}\s][^{}]*?)\s*\}\}`)
	identRe       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	commentRe     = regexp.MustCompile(`(?s)<!--(.*?)-->`)
	headingRe     = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*$`)
)

// Parse extracts the structured form of a template. It is a pure function
// of its inputs and performs no I/O. Missing metadata degrades to the
// fallbacks described on Template; the only error is content that is not
// valid UTF-8.
func Parse(name, content string) (*Template, error) {
	if !utf8.ValidString(content) {
		return nil, fmt.Errorf("parsing template %q: %w", name, ErrNotText)
	}

	header, body := splitFrontmatter(content)

	var meta frontmatter
	if header != "" {
		// Malformed frontmatter is treated as absent, not fatal.
		_ = yaml.Unmarshal([]byte(header), &meta)
	}

	tmpl := &Template{
		Name:       displayName(meta, body, name),
		About:      about(meta, body),
		Variables:  extractVariables(content),
		RawContent: content,
	}
	return tmpl, nil
}

// displayName picks the template's display name: frontmatter name first,
// then the first markdown heading, then the supplied fallback.
func displayName(meta frontmatter, body, fallback string) string {
	if meta.Name != "" {
		return meta.Name
	}
	// A heading counts as the title only when it opens the body; a
	// section heading further down is not the template's name.
	for raw := range strings.Lines(body) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if m := headingRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
		break
	}
	return fallback
}

// about picks the template description: frontmatter about/description,
// then the leading prose paragraph of the body. Returns "" when neither
// exists; callers synthesize their own default.
func about(meta frontmatter, body string) string {
	if meta.About != "" {
		return meta.About
	}
	if meta.Description != "" {
		return meta.Description
	}
	return leadingParagraph(body)
}

// leadingParagraph returns the first prose paragraph of the body, stopping
// at the first heading, placeholder, annotation, or blank line. A body
// that opens with structure rather than prose yields "".
func leadingParagraph(body string) string {
	var lines []string
	for raw := range strings.Lines(body) {
		line := strings.TrimSpace(raw)
		if line == "" {
			break
		}
		if headingRe.MatchString(line) ||
			placeholderRe.MatchString(line) ||
			strings.HasPrefix(line, "<!--") {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, " ")
}

// extractVariables collects placeholders in first-appearance order and
// attaches adjacent authoring annotations. Placeholders whose token is
// not a valid identifier are skipped; duplicates collapse to the first
// occurrence.
func extractVariables(content string) []Variable {
	annotations := extractAnnotations(content)

	var variables []Variable
	seen := make(map[string]bool)

	for _, match := range placeholderRe.FindAllStringSubmatch(content, -1) {
		token := match[1]
		if !identRe.MatchString(token) {
			continue
		}
		if seen[token] {
			continue
		}
		seen[token] = true

		variable := Variable{Name: token}
		if ann, ok := annotations[token]; ok {
			variable.Description = ann.description
			variable.Example = ann.example
		}
		variables = append(variables, variable)
	}
	return variables
}

type annotation struct {
	description string
	example     string
}

// extractAnnotations finds HTML comments of the form
// <!-- name: description [Example: sample] --> keyed by variable name.
// The first annotation for a name wins.
func extractAnnotations(content string) map[string]annotation {
	annotations := make(map[string]annotation)

	for _, match := range commentRe.FindAllStringSubmatch(content, -1) {
		body := strings.TrimSpace(match[1])

		name, rest, ok := strings.Cut(body, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if !identRe.MatchString(name) {
			continue
		}
		if _, exists := annotations[name]; exists {
			continue
		}

		description, example := splitExample(rest)
		annotations[name] = annotation{description: description, example: example}
	}
	return annotations
}

// splitExample separates an annotation body into description and example
// at the "Example:" marker.
func splitExample(body string) (description, example string) {
	description, example, ok := strings.Cut(body, "Example:")
	if !ok {
		return strings.TrimSpace(body), ""
	}
	return strings.TrimSpace(description), strings.TrimSpace(example)
}

// splitFrontmatter separates a leading YAML frontmatter block, delimited
// by --- lines, from the markdown body.
func splitFrontmatter(raw string) (header, body string) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "---") {
		return "", raw
	}

	rest := trimmed[3:]
	before, after, ok := strings.Cut(rest, "\n---")
	if !ok {
		return "", raw
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}
