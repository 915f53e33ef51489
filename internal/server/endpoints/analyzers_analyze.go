package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/extract/internal/api"
	"github.com/jackzampolin/extract/internal/extract"
	"github.com/jackzampolin/extract/internal/store"
	"github.com/jackzampolin/extract/internal/svcctx"
)

// AnalyzeRequest is the request body for running a saved query analyzer.
type AnalyzeRequest struct {
	Messages    []WireMessage `json:"messages"`
	LLMProvider string        `json:"llm_provider,omitempty"`
	ModelName   string        `json:"model_name,omitempty"`
}

// AnalyzeEndpoint handles POST /query_analyzers/{id}/analyze.
// It runs query analysis using a saved analyzer definition and its
// stored few-shot examples.
type AnalyzeEndpoint struct{}

func (e *AnalyzeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/query_analyzers/{id}/analyze", e.handler
}

func (e *AnalyzeEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Run a saved query analyzer
//	@Description	Analyze a conversation using a saved analyzer definition and its stored examples
//	@Tags			query-analyzers
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Analyzer ID"
//	@Param			request	body		AnalyzeRequest	true	"Conversation to analyze"
//	@Success		200		{object}	QueryAnalysisResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/query_analyzers/{id}/analyze [post]
func (e *AnalyzeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	analyzer, err := st.GetQueryAnalyzer(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "query analyzer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored, err := st.ListQueryAnalyzerExamples(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	examples, err := storedExamples(stored)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := runQueryAnalysis(r.Context(), analyzer.Schema, analyzer.Instruction, examples, toMessages(req.Messages), req.LLMProvider, req.ModelName)
	if err != nil {
		writeRunError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, QueryAnalysisResponse{Data: result.Data})
}

// storedExamples converts persisted analyzer examples into prompt examples.
func storedExamples(recs []store.QueryAnalyzerExample) ([]extract.Example, error) {
	out := make([]extract.Example, 0, len(recs))
	for _, rec := range recs {
		var messages []WireMessage
		if err := json.Unmarshal(rec.Messages, &messages); err != nil {
			return nil, fmt.Errorf("stored example %s has invalid messages: %w", rec.ID, err)
		}
		var output []map[string]any
		if err := json.Unmarshal(rec.Output, &output); err != nil {
			return nil, fmt.Errorf("stored example %s has invalid output: %w", rec.ID, err)
		}
		out = append(out, extract.Example{
			Messages: toMessages(messages),
			Output:   output,
		})
	}
	return out, nil
}

func (e *AnalyzeEndpoint) Command(getServerURL func() string) *cobra.Command {
	var messagesFile, provider, model string
	cmd := &cobra.Command{
		Use:   "analyze <analyzer-id>",
		Short: "Run a saved query analyzer on a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if messagesFile == "" {
				return fmt.Errorf("--messages is required")
			}
			msgData, err := os.ReadFile(messagesFile)
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
			req := AnalyzeRequest{Messages: messages, LLMProvider: provider, ModelName: model}
			if err := client.Post(ctx, fmt.Sprintf("/query_analyzers/%s/analyze", args[0]), req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&messagesFile, "messages", "", "Path to JSON file with the message list (required)")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider name")
	cmd.Flags().StringVar(&model, "model", "", "Model name override")
	return cmd
}
