// Package extract turns caller-supplied JSON Schemas into LLM function calls.
//
// The pipeline has three stages: Translate converts a JSON Schema into a
// callable function descriptor, AssemblePrompt builds the few-shot message
// prefix, and Invoker binds both to a single model call and decodes the
// returned function arguments. Deduplicate merges multiple query-analysis
// responses into one.
package extract

import (
	"github.com/jackzampolin/extract/internal/providers"
)

// Example is a worked input/output pair injected into the prompt to
// demonstrate the desired response pattern.
type Example struct {
	// Messages is the example's input conversation, in order.
	Messages []providers.Message `json:"messages"`
	// Output is the expected structured output: a list of objects.
	Output []map[string]any `json:"output"`
}

// QueryAnalysisResponse is the result of a query-analysis run.
type QueryAnalysisResponse struct {
	Data []any `json:"data"`
}
