package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hsiangjenli/mcp-markdown-template/internal/output"
	"github.com/hsiangjenli/mcp-markdown-template/internal/source"
	"github.com/hsiangjenli/mcp-markdown-template/internal/template"
)

// newRenderCmd creates the render command: render one template locally.
func newRenderCmd() *cobra.Command {
	var (
		vars         []string
		branch       string
		keepComments bool
	)

	cmd := &cobra.Command{
		Use:   "render <source>",
		Short: "Render a single template with --var values",
		Long: `Render one template to stdout, substituting {{placeholders}} from
repeated --var name=value flags. Placeholders without a supplied value
are left as-is and reported on stderr.

The source must resolve to exactly one template: a local file, a URL,
or owner/repo:path/to/file.md.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), output.IsTTY(cmd.OutOrStdout()))
			printer.WithStderr(cmd.ErrOrStderr())

			variables, err := parseVars(vars)
			if err != nil {
				printer.Error(err)
				return err
			}

			loader := source.NewLoader(zerolog.Nop(), source.WithBranch(branch))
			src, err := loadSingle(cmd, loader, args[0])
			if err != nil {
				exitErr := output.NewSystemErrorWithCause(fmt.Sprintf("loading %s", args[0]), err)
				printer.Error(exitErr)
				return exitErr
			}

			rendered, err := template.Render(src.Content, variables, !keepComments)
			if err != nil {
				exitErr := output.NewSystemErrorWithCause(fmt.Sprintf("rendering %s", src.Path), err)
				printer.Error(exitErr)
				return exitErr
			}

			if unresolved := template.VariableNames(rendered); len(unresolved) > 0 {
				printer.Warn("unresolved placeholders: %s", strings.Join(unresolved, ", "))
			}

			if printer.IsJSON() {
				return printer.WriteJSON(map[string]any{
					"name":     src.Name,
					"path":     src.Path,
					"rendered": rendered,
				})
			}
			printer.Print("%s", rendered)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&vars, "var", nil, "Variable value as name=value (repeatable)")
	cmd.Flags().StringVar(&branch, "branch", source.DefaultBranch, "Branch for repository sources")
	cmd.Flags().BoolVar(&keepComments, "keep-comments", false, "Keep authoring comments in rendered output")

	return cmd
}

// parseVars turns --var name=value pairs into a variables map.
func parseVars(pairs []string) (map[string]string, error) {
	variables := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, output.NewUserError(fmt.Sprintf("bad --var %q, want name=value", pair))
		}
		variables[strings.TrimSpace(name)] = value
	}
	return variables, nil
}

// loadSingle resolves a descriptor that must yield exactly one template.
func loadSingle(cmd *cobra.Command, loader *source.Loader, descriptor string) (source.Source, error) {
	var sources []source.Source
	for src, err := range loader.Load(cmd.Context(), descriptor, source.DefaultPattern) {
		if err != nil {
			return source.Source{}, err
		}
		sources = append(sources, src)
		if len(sources) > 1 {
			return source.Source{}, fmt.Errorf("%s resolves to multiple templates; render takes one", descriptor)
		}
	}
	if len(sources) == 0 {
		return source.Source{}, fmt.Errorf("no template found at %s", descriptor)
	}
	return sources[0], nil
}
