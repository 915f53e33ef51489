package endpoints

import (
	"github.com/jackzampolin/extract/internal/api"
	"github.com/jackzampolin/extract/internal/postgres"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	PostgresManager *postgres.DockerManager
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{PostgresManager: cfg.PostgresManager},

		// Extraction endpoints
		&ExtractFromTextEndpoint{},
		&QueryAnalysisEndpoint{},
		&ExtractEndpoint{},

		// Extractor endpoints
		&CreateExtractorEndpoint{},
		&ListExtractorsEndpoint{},
		&GetExtractorEndpoint{},
		&UpdateExtractorEndpoint{},
		&DeleteExtractorEndpoint{},
		&CreateExtractorExampleEndpoint{},
		&ListExtractorExamplesEndpoint{},
		&DeleteExtractorExampleEndpoint{},

		// Query analyzer endpoints
		&CreateAnalyzerEndpoint{},
		&ListAnalyzersEndpoint{},
		&GetAnalyzerEndpoint{},
		&DeleteAnalyzerEndpoint{},
		&CreateAnalyzerExampleEndpoint{},
		&ListAnalyzerExamplesEndpoint{},
		&DeleteAnalyzerExampleEndpoint{},
		&AnalyzeEndpoint{},

		// Docs
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}
