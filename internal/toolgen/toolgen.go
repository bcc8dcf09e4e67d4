// Package toolgen synthesizes MCP tools from parsed templates: a
// generated input schema with one required string field per template
// variable, and a handler that renders the template from a validated
// instance of that schema.
package toolgen

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hsiangjenli/mcp-markdown-template/internal/template"
)

// Args is the runtime shape of a generated tool's input: one string
// value per template variable, validated against the generated schema
// before the handler runs.
type Args = map[string]string

// Handler is the callable side of a synthesized tool. Each invocation
// is independent: it re-renders from the captured raw content and
// shares no mutable state with other invocations or tools.
type Handler = mcp.ToolHandlerFor[Args, any]

var (
	nonWordRe  = regexp.MustCompile(`[^\w\s]`)
	spaceRunRe = regexp.MustCompile(`\s+`)
)

// ToolName derives a tool name from a template's display name: strip
// everything that is not a word character or whitespace, trim,
// lowercase, collapse whitespace runs to single underscores, and
// prefix with create_. An empty stem falls back to create_template.
func ToolName(displayName string) string {
	name := nonWordRe.ReplaceAllString(displayName, "")
	name = strings.ToLower(strings.TrimSpace(name))
	name = spaceRunRe.ReplaceAllString(name, "_")
	if name == "" {
		return "create_template"
	}
	return "create_" + name
}

// InputSchema builds the generated input schema: an object with one
// required string property per variable, documented with the slot
// description and example. Required preserves slot order.
func InputSchema(tmpl *template.Template) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(tmpl.Variables))
	required := make([]string, 0, len(tmpl.Variables))

	for _, variable := range tmpl.Variables {
		description := variable.Description
		if variable.Example != "" {
			description += "\n\nExample:\n" + variable.Example
		}
		properties[variable.Name] = &jsonschema.Schema{
			Type:        "string",
			Description: description,
		}
		required = append(required, variable.Name)
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// Synthesize turns a parsed template into an MCP tool descriptor and
// its handler. The handler captures the template's raw content, the
// source path (for error context), and the removeComments flag by
// value; it performs no registration and holds no shared state.
// Registration of the returned pair is the caller's responsibility.
func Synthesize(tmpl *template.Template, sourcePath, explicitName string, removeComments bool) (*mcp.Tool, Handler) {
	name := explicitName
	if name == "" {
		name = ToolName(tmpl.Name)
	}

	about := tmpl.About
	if about == "" {
		about = template.DefaultAbout(tmpl.Name)
	}

	tool := &mcp.Tool{
		Name:        name,
		Title:       tmpl.Name,
		Description: about,
		InputSchema: InputSchema(tmpl),
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:   true,
			IdempotentHint: true,
			OpenWorldHint:  boolPtr(false),
		},
	}

	content := tmpl.RawContent
	handler := func(_ context.Context, _ *mcp.CallToolRequest, args Args) (*mcp.CallToolResult, any, error) {
		rendered, err := template.Render(content, args, removeComments)
		if err != nil {
			return nil, nil, fmt.Errorf("rendering %s: %w", sourcePath, err)
		}
		result := &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: rendered}},
		}
		return result, nil, nil
	}

	return tool, handler
}

// Register adds a synthesized (tool, handler) pair to a server. The
// explicit InputSchema on the tool takes precedence over inference
// from the Args type.
func Register(server *mcp.Server, tool *mcp.Tool, handler Handler) {
	mcp.AddTool(server, tool, handler)
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}
