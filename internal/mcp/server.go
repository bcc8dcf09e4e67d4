// Package mcp assembles the template MCP server: it loads template
// sources, synthesizes one tool per template, and registers the tools.
// Registration is startup-time, sequential, and failure-isolated — one
// bad source or template never prevents the others from registering.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/hsiangjenli/mcp-markdown-template/internal/source"
	"github.com/hsiangjenli/mcp-markdown-template/internal/template"
	"github.com/hsiangjenli/mcp-markdown-template/internal/toolgen"
)

// serverName identifies this MCP server implementation.
const serverName = "mdtmpl"

// Options configure server assembly.
type Options struct {
	// Title overrides the server's display title.
	Title string
	// Description is surfaced as server instructions.
	Description string
	// Pattern is the glob for local directory sources (default *.md).
	Pattern string
	// RemoveComments strips authoring annotations from rendered output.
	RemoveComments bool
}

// NewServer creates an MCP server carrying the implementation info.
func NewServer(version string, opts Options) *mcp.Server {
	impl := &mcp.Implementation{
		Name:    serverName,
		Version: version,
	}
	if opts.Title != "" {
		impl.Title = opts.Title
	}

	var serverOpts *mcp.ServerOptions
	if opts.Description != "" {
		serverOpts = &mcp.ServerOptions{Instructions: opts.Description}
	}
	return mcp.NewServer(impl, serverOpts)
}

// RegisterSources loads every descriptor and registers one tool per
// loaded template. Load, parse, and synthesis failures are logged and
// skipped per source or per template. A duplicate derived tool name is
// skipped so each registered name maps to exactly one template.
// Returns the registered tool names in registration order.
func RegisterSources(
	ctx context.Context,
	server *mcp.Server,
	loader *source.Loader,
	descriptors []string,
	opts Options,
	logger zerolog.Logger,
) []string {
	var registered []string
	seen := make(map[string]bool)

	for _, descriptor := range descriptors {
		logger.Info().Str("source", descriptor).Msg("loading templates")

		for src, err := range loader.Load(ctx, descriptor, opts.Pattern) {
			if err != nil {
				logger.Warn().Err(err).Str("source", descriptor).Msg("skipping template source")
				continue
			}

			tmpl, err := template.Parse(src.Name, src.Content)
			if err != nil {
				logger.Warn().Err(err).Str("path", src.Path).Msg("skipping unparsable template")
				continue
			}

			tool, handler := toolgen.Synthesize(tmpl, src.Path, "", opts.RemoveComments)
			if seen[tool.Name] {
				logger.Warn().
					Str("tool", tool.Name).
					Str("path", src.Path).
					Msg("skipping duplicate tool name")
				continue
			}
			seen[tool.Name] = true

			toolgen.Register(server, tool, handler)
			registered = append(registered, tool.Name)

			logger.Info().
				Str("tool", tool.Name).
				Str("origin", string(src.Origin)).
				Str("path", src.Path).
				Int("variables", len(tmpl.Variables)).
				Msg("registered template tool")
		}
	}
	return registered
}
