package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/extract/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Extract server via HTTP.

These commands require a running server (extract serve).
Use --server to specify a custom server URL.

Examples:
  extract api health                  # Check server health
  extract api extractors list         # List saved extractors
  extract api extract-text            # Run an extraction from stdin`,
}

var extractorsCmd = &cobra.Command{
	Use:   "extractors",
	Short: "Saved extractor management commands",
}

var analyzersCmd = &cobra.Command{
	Use:   "analyzers",
	Short: "Saved query analyzer management commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8765", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))

	// Extraction endpoints at top level of api
	apiCmd.AddCommand((&endpoints.ExtractFromTextEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.QueryAnalysisEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ExtractEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))

	// Extractors as subcommand group
	extractorsCmd.AddCommand((&endpoints.CreateExtractorEndpoint{}).Command(getServerURL))
	extractorsCmd.AddCommand((&endpoints.ListExtractorsEndpoint{}).Command(getServerURL))
	extractorsCmd.AddCommand((&endpoints.GetExtractorEndpoint{}).Command(getServerURL))
	extractorsCmd.AddCommand((&endpoints.UpdateExtractorEndpoint{}).Command(getServerURL))
	extractorsCmd.AddCommand((&endpoints.DeleteExtractorEndpoint{}).Command(getServerURL))
	extractorsCmd.AddCommand((&endpoints.CreateExtractorExampleEndpoint{}).Command(getServerURL))
	extractorsCmd.AddCommand((&endpoints.ListExtractorExamplesEndpoint{}).Command(getServerURL))
	extractorsCmd.AddCommand((&endpoints.DeleteExtractorExampleEndpoint{}).Command(getServerURL))

	// Query analyzers as subcommand group
	analyzersCmd.AddCommand((&endpoints.CreateAnalyzerEndpoint{}).Command(getServerURL))
	analyzersCmd.AddCommand((&endpoints.ListAnalyzersEndpoint{}).Command(getServerURL))
	analyzersCmd.AddCommand((&endpoints.GetAnalyzerEndpoint{}).Command(getServerURL))
	analyzersCmd.AddCommand((&endpoints.DeleteAnalyzerEndpoint{}).Command(getServerURL))
	analyzersCmd.AddCommand((&endpoints.CreateAnalyzerExampleEndpoint{}).Command(getServerURL))
	analyzersCmd.AddCommand((&endpoints.ListAnalyzerExamplesEndpoint{}).Command(getServerURL))
	analyzersCmd.AddCommand((&endpoints.DeleteAnalyzerExampleEndpoint{}).Command(getServerURL))
	analyzersCmd.AddCommand((&endpoints.AnalyzeEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(extractorsCmd)
	apiCmd.AddCommand(analyzersCmd)
	rootCmd.AddCommand(apiCmd)
}
