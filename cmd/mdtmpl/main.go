// Package main provides the entry point for the mdtmpl CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hsiangjenli/mcp-markdown-template/internal/config"
	"github.com/hsiangjenli/mcp-markdown-template/internal/envfile"
	"github.com/hsiangjenli/mcp-markdown-template/internal/output"
)

// Build info set via ldflags at build time.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// isJSONMode reads the --json persistent flag from the command hierarchy.
func isJSONMode(cmd *cobra.Command) bool {
	flag := cmd.Flags().Lookup("json")
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup("json")
	}
	return flag != nil && flag.Value.String() == "true"
}

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCmd()
	err := fang.Execute(context.Background(), cmd, fang.WithVersion(buildVersion()))
	return output.GetExitCode(err)
}

// newRootCmd creates the root command for the mdtmpl CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdtmpl",
		Short: "Turn markdown templates into MCP tools",
		Long: `mdtmpl turns markdown templates (issue templates, document scaffolds)
into schema-validated MCP tools.

Templates come from a local directory or file, an http(s) URL, a GitHub
repository (owner/repo, read from .github/ISSUE_TEMPLATE), or a single
repository file (owner/repo:path/to/file.md). Each template's
{{placeholders}} become required string fields on a generated input
schema; calling the tool renders the template with the supplied values.

Sources may be comma-separated; a source that fails to load is skipped
and the rest still register.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isJSONMode(cmd) {
				printer := output.NewPrinter(cmd.OutOrStdout(), true, false)
				err := output.NewUserError("no command specified. Run 'mdtmpl --help' for usage")
				printer.Error(err)
				return err
			}
			return cmd.Help()
		},
	}

	// Load .env.local (then .env) so the templates source and server
	// metadata can be configured per project without exporting.
	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		loadEnvFiles()
		return nil
	}

	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	lipgloss.SetHasDarkBackground(true)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRenderCmd())

	return cmd
}

// loadEnvFiles loads env files in priority order. Environment variables
// already set always take precedence.
//
// Resolution order:
//  1. $CWD/.env.local  (per-repo override, gitignored)
//  2. $CWD/.env        (per-repo)
//  3. ~/.config/mdtmpl/env (global fallback)
func loadEnvFiles() {
	_ = envfile.Load(".env.local")
	_ = envfile.Load(".env")

	if dir := config.Dir(); dir != "" {
		_ = envfile.Load(filepath.Join(dir, "env"))
	}
}
