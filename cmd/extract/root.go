package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/extract/internal/api"
	"github.com/jackzampolin/extract/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "extract",
	Short: "Turn unstructured text into structured data with LLM function calling",
	Long: `Extract is an HTTP service that turns unstructured text into structured
data conforming to a caller-supplied JSON Schema, by delegating the
extraction decision to an LLM function-calling interface.

Capabilities:
  - One-shot extraction from raw text against an inline schema
  - Query analysis: convert a conversation into structured search queries
  - Saved extractors and query analyzers with few-shot examples
  - Document upload (txt, md, pdf) against saved extractors`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.extract/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "extract home directory (default: ~/.extract)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
