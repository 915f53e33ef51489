package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/extract/internal/api"
	"github.com/jackzampolin/extract/internal/extract"
	"github.com/jackzampolin/extract/internal/providers"
	"github.com/jackzampolin/extract/internal/schema"
)

// ChatExample is a worked example pairing a conversation with expected output.
type ChatExample struct {
	Messages []WireMessage    `json:"messages"`
	Output   []map[string]any `json:"output"`
}

// toChatExamples converts wire chat examples into prompt assembler examples.
func toChatExamples(wire []ChatExample) []extract.Example {
	out := make([]extract.Example, 0, len(wire))
	for _, ex := range wire {
		out = append(out, extract.Example{
			Messages: toMessages(ex.Messages),
			Output:   ex.Output,
		})
	}
	return out
}

// toMessages normalizes wire messages into provider messages.
func toMessages(wire []WireMessage) []providers.Message {
	out := make([]providers.Message, 0, len(wire))
	for _, m := range wire {
		out = append(out, providers.Message{
			Role:    providers.NormalizeRole(m.Role),
			Content: m.Content,
		})
	}
	return out
}

// QueryAnalysisRequest is the request body for query analysis.
type QueryAnalysisRequest struct {
	Messages     []WireMessage   `json:"messages"`
	Schema       json.RawMessage `json:"schema"`
	Instructions string          `json:"instructions,omitempty"`
	Examples     []ChatExample   `json:"examples,omitempty"`
	LLMProvider  string          `json:"llm_provider,omitempty"`
	ModelName    string          `json:"model_name,omitempty"`
}

// QueryAnalysisResponse is the response for query analysis.
type QueryAnalysisResponse struct {
	Data []any `json:"data"`
}

// QueryAnalysisEndpoint handles POST /query_analysis.
type QueryAnalysisEndpoint struct{}

func (e *QueryAnalysisEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/query_analysis", e.handler
}

func (e *QueryAnalysisEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Convert a conversation into structured queries
//	@Description	Analyze a message history and produce a deduplicated list of structured queries shaped by the supplied JSON Schema
//	@Tags			extraction
//	@Accept			json
//	@Produce		json
//	@Param			request	body		QueryAnalysisRequest	true	"Query analysis request"
//	@Success		200		{object}	QueryAnalysisResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	DetailResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/query_analysis [post]
func (e *QueryAnalysisEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req QueryAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}
	if err := schema.Validate(req.Schema); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid schema: %v", err))
		return
	}

	result, err := runQueryAnalysis(r.Context(), req.Schema, req.Instructions, toChatExamples(req.Examples), toMessages(req.Messages), req.LLMProvider, req.ModelName)
	if err != nil {
		writeRunError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, QueryAnalysisResponse{Data: result.Data})
}

func (e *QueryAnalysisEndpoint) Command(getServerURL func() string) *cobra.Command {
	var schemaFile, requestFile, provider, model string
	cmd := &cobra.Command{
		Use:   "query-analysis",
		Short: "Convert a conversation into structured queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if schemaFile == "" || requestFile == "" {
				return fmt.Errorf("--schema and --messages are required")
			}
			schemaRaw, err := os.ReadFile(schemaFile)
			if err != nil {
				return fmt.Errorf("failed to read schema: %w", err)
			}
			msgData, err := os.ReadFile(requestFile)
			if err != nil {
				return fmt.Errorf("failed to read messages: %w", err)
			}
			var messages []WireMessage
			if err := json.Unmarshal(msgData, &messages); err != nil {
				return fmt.Errorf("failed to parse messages: %w", err)
			}

			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp QueryAnalysisResponse
			req := QueryAnalysisRequest{
				Messages:    messages,
				Schema:      schemaRaw,
				LLMProvider: provider,
				ModelName:   model,
			}
			if err := client.Post(ctx, "/query_analysis", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&schemaFile, "schema", "", "Path to JSON Schema file (required)")
	cmd.Flags().StringVar(&requestFile, "messages", "", "Path to JSON file with the message list (required)")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider name")
	cmd.Flags().StringVar(&model, "model", "", "Model name override")
	return cmd
}
