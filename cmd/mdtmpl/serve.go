package main

import (
	"io"
	"os"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hsiangjenli/mcp-markdown-template/internal/mcp"
	"github.com/hsiangjenli/mcp-markdown-template/internal/source"
)

// Environment variables consumed by serve, matching the flags.
const (
	envSource      = "MDTMPL_TEMPLATES_SOURCE"
	envTitle       = "MDTMPL_TITLE"
	envDescription = "MDTMPL_DESCRIPTION"
)

// defaultSource is the conventional issue-template directory, used when
// neither the flag nor the environment names a source.
const defaultSource = ".github/ISSUE_TEMPLATE"

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	var (
		sourceFlag   string
		pattern      string
		branch       string
		title        string
		description  string
		keepComments bool
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run mdtmpl as a Model Context Protocol (MCP) server over stdio.

Each template found in the configured sources is registered as one MCP
tool named create_<template_name>, with a generated input schema holding
one required string field per {{placeholder}}.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "templates": {
        "command": "mdtmpl",
        "args": ["serve", "--source", ".github/ISSUE_TEMPLATE"]
      }
    }
  }

Sources may also be set via MDTMPL_TEMPLATES_SOURCE (comma-separated).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(cmd.ErrOrStderr(), verbose)

			descriptors := source.SplitDescriptors(resolveSource(sourceFlag))
			loader := source.NewLoader(logger, source.WithBranch(branch))

			opts := mcp.Options{
				Title:          envDefault(title, envTitle),
				Description:    envDefault(description, envDescription),
				Pattern:        pattern,
				RemoveComments: !keepComments,
			}

			server := mcp.NewServer(buildVersion(), opts)
			registered := mcp.RegisterSources(cmd.Context(), server, loader, descriptors, opts, logger)
			if len(registered) == 0 {
				logger.Warn().Strs("sources", descriptors).Msg("no templates registered")
			}

			return server.Run(cmd.Context(), &sdkmcp.StdioTransport{})
		},
	}

	cmd.Flags().StringVarP(&sourceFlag, "source", "s", "",
		"Template sources, comma-separated (path, URL, owner/repo, owner/repo:path)")
	cmd.Flags().StringVarP(&pattern, "pattern", "p", source.DefaultPattern, "Glob pattern for directory sources")
	cmd.Flags().StringVar(&branch, "branch", source.DefaultBranch, "Branch for repository sources")
	cmd.Flags().StringVar(&title, "title", "", "Server display title")
	cmd.Flags().StringVar(&description, "description", "", "Server description surfaced to clients")
	cmd.Flags().BoolVar(&keepComments, "keep-comments", false, "Keep authoring comments in rendered output")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

// resolveSource picks the template source: flag, then environment, then
// the conventional issue-template directory.
func resolveSource(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(envSource); env != "" {
		return env
	}
	return defaultSource
}

// envDefault returns the flag value, or the named environment variable
// when the flag is unset.
func envDefault(flagValue, envName string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envName)
}

// newLogger builds the stderr logger. Stdout carries the MCP protocol,
// so logs must never go there.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}
