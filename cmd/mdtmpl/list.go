package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hsiangjenli/mcp-markdown-template/internal/output"
	"github.com/hsiangjenli/mcp-markdown-template/internal/source"
	"github.com/hsiangjenli/mcp-markdown-template/internal/template"
	"github.com/hsiangjenli/mcp-markdown-template/internal/toolgen"
)

// templateInfo is the JSON shape of one listed template.
type templateInfo struct {
	Name      string   `json:"name"`
	Tool      string   `json:"tool"`
	About     string   `json:"about"`
	Origin    string   `json:"origin"`
	Path      string   `json:"path"`
	Variables []string `json:"variables"`
}

// newListCmd creates the list command: show what serve would register.
func newListCmd() *cobra.Command {
	var (
		pattern string
		branch  string
	)

	cmd := &cobra.Command{
		Use:   "list <source>",
		Short: "List templates and the tools they would generate",
		Long: `Load templates from a source and show, for each, the tool name it
would register, its description, and its variables. Accepts the same
source forms as serve: path, URL, owner/repo, owner/repo:path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), output.IsTTY(cmd.OutOrStdout()))
			printer.WithStderr(cmd.ErrOrStderr())

			loader := source.NewLoader(zerolog.Nop(), source.WithBranch(branch))

			infos, loadErrs := listTemplates(cmd, loader, args[0], pattern)
			for _, err := range loadErrs {
				printer.Warn("skipping source: %v", err)
			}
			if len(infos) == 0 && len(loadErrs) > 0 {
				err := output.NewSystemError(fmt.Sprintf("no templates loaded from %s", args[0]))
				printer.Error(err)
				return err
			}

			if printer.IsJSON() {
				if infos == nil {
					infos = []templateInfo{}
				}
				return printer.WriteJSON(infos)
			}
			printTemplates(printer, infos)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", source.DefaultPattern, "Glob pattern for directory sources")
	cmd.Flags().StringVar(&branch, "branch", source.DefaultBranch, "Branch for repository sources")

	return cmd
}

// listTemplates loads and parses every template in the descriptor,
// collecting per-source failures instead of stopping on them.
func listTemplates(cmd *cobra.Command, loader *source.Loader, descriptor, pattern string) ([]templateInfo, []error) {
	var infos []templateInfo
	var errs []error

	for src, err := range loader.Load(cmd.Context(), descriptor, pattern) {
		if err != nil {
			errs = append(errs, err)
			continue
		}

		tmpl, err := template.Parse(src.Name, src.Content)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		about := tmpl.About
		if about == "" {
			about = template.DefaultAbout(tmpl.Name)
		}

		variables := make([]string, 0, len(tmpl.Variables))
		for _, variable := range tmpl.Variables {
			variables = append(variables, variable.Name)
		}

		infos = append(infos, templateInfo{
			Name:      tmpl.Name,
			Tool:      toolgen.ToolName(tmpl.Name),
			About:     about,
			Origin:    string(src.Origin),
			Path:      src.Path,
			Variables: variables,
		})
	}
	return infos, errs
}

// printTemplates renders the human-readable listing.
func printTemplates(printer *output.Printer, infos []templateInfo) {
	if len(infos) == 0 {
		printer.Println("No templates found.")
		return
	}

	for _, info := range infos {
		printer.Section(info.Name)
		printer.KeyValue("Tool", info.Tool)
		printer.KeyValue("About", info.About)
		printer.KeyValue("Origin", fmt.Sprintf("%s (%s)", info.Origin, info.Path))
		if len(info.Variables) == 0 {
			printer.KeyValue("Variables", "none")
			continue
		}
		printer.KeyValue("Variables", fmt.Sprintf("%d", len(info.Variables)))
		for _, name := range info.Variables {
			printer.Println("  - " + name)
		}
	}
}
