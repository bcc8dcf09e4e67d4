package template

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var (
	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
)

// Render substitutes placeholder tokens in content with the supplied
// variable values. Placeholders with no supplied value are left intact;
// an unresolved placeholder is never an error. When removeComments is
// true, every HTML comment block (authoring annotations included) is
// stripped from the output.
//
// Render performs no I/O, never mutates content, and is idempotent for
// identical inputs. The only error is content that is not valid UTF-8.
func Render(content string, variables map[string]string, removeComments bool) (string, error) {
	if !utf8.ValidString(content) {
		return "", fmt.Errorf("rendering template: %w", ErrNotText)
	}

	rendered := placeholderRe.ReplaceAllStringFunc(content, func(match string) string {
		token := placeholderRe.FindStringSubmatch(match)[1]
		if value, ok := variables[token]; ok {
			return value
		}
		return match
	})

	if removeComments {
		rendered = stripComments(rendered)
	}
	return rendered, nil
}

// stripComments removes HTML comment blocks and tidies the whitespace
// they leave behind, so a comment that occupied its own lines does not
// turn into a stray blank gap.
func stripComments(text string) string {
	text = commentRe.ReplaceAllString(text, "")
	text = trailingSpaceRe.ReplaceAllString(text, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return text
}

// VariableNames returns the valid placeholder tokens referenced in
// content, in first-appearance order without duplicates. It is the
// render-side counterpart of parsing and is used to report unresolved
// placeholders without a full Parse.
func VariableNames(content string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, match := range placeholderRe.FindAllStringSubmatch(content, -1) {
		token := match[1]
		if !identRe.MatchString(token) || seen[token] {
			continue
		}
		seen[token] = true
		names = append(names, token)
	}
	return names
}

// DefaultAbout synthesizes the fallback description for a template that
// declares none.
func DefaultAbout(name string) string {
	return fmt.Sprintf("Create content from %s template", name)
}
