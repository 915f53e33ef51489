package endpoints

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/extract/internal/api"
	"github.com/jackzampolin/extract/internal/extract"
	"github.com/jackzampolin/extract/internal/providers"
	"github.com/jackzampolin/extract/internal/schema"
)

// WireMessage is a role-tagged message as it appears on the wire.
// Roles "human" and "ai" are accepted as aliases for "user" and "assistant".
type WireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextExample is a worked example pairing input text with expected output.
type TextExample struct {
	Content string           `json:"content"`
	Output  []map[string]any `json:"output"`
}

// toExamples converts wire examples into prompt assembler examples. Each
// text example becomes a single human turn.
func toExamples(wire []TextExample) []extract.Example {
	out := make([]extract.Example, 0, len(wire))
	for _, ex := range wire {
		out = append(out, extract.Example{
			Messages: []providers.Message{{Role: providers.RoleUser, Content: ex.Content}},
			Output:   ex.Output,
		})
	}
	return out
}

// ExtractFromTextRequest is the request body for text extraction.
type ExtractFromTextRequest struct {
	Text         string          `json:"text"`
	Schema       json.RawMessage `json:"schema"`
	Instructions string          `json:"instructions,omitempty"`
	Examples     []TextExample   `json:"examples,omitempty"`
	LLMProvider  string          `json:"llm_provider,omitempty"`
	ModelName    string          `json:"model_name,omitempty"`
}

// ExtractFromTextResponse is the response for text extraction.
type ExtractFromTextResponse struct {
	Extracted json.RawMessage `json:"extracted"`
}

// ExtractFromTextEndpoint handles POST /extract_from_text.
type ExtractFromTextEndpoint struct{}

func (e *ExtractFromTextEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/extract_from_text", e.handler
}

func (e *ExtractFromTextEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Extract structured data from text
//	@Description	Extract data conforming to the supplied JSON Schema from raw text
//	@Tags			extraction
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ExtractFromTextRequest	true	"Extraction request"
//	@Success		200		{object}	ExtractFromTextResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	DetailResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/extract_from_text [post]
func (e *ExtractFromTextEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ExtractFromTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if err := schema.Validate(req.Schema); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid schema: %v", err))
		return
	}

	extracted, err := runExtraction(r.Context(), req.Schema, req.Instructions, toExamples(req.Examples), req.Text, req.LLMProvider, req.ModelName)
	if err != nil {
		writeRunError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ExtractFromTextResponse{Extracted: extracted})
}

func (e *ExtractFromTextEndpoint) Command(getServerURL func() string) *cobra.Command {
	var schemaFile, text, provider, model string
	cmd := &cobra.Command{
		Use:   "extract-text",
		Short: "Extract structured data from text",
		RunE: func(cmd *cobra.Command, args []string) error {
			if schemaFile == "" {
				return fmt.Errorf("--schema is required")
			}
			schemaRaw, err := os.ReadFile(schemaFile)
			if err != nil {
				return fmt.Errorf("failed to read schema: %w", err)
			}

			input := text
			if input == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				input = string(data)
			}

			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp ExtractFromTextResponse
			req := ExtractFromTextRequest{
				Text:        input,
				Schema:      schemaRaw,
				LLMProvider: provider,
				ModelName:   model,
			}
			if err := client.Post(ctx, "/extract_from_text", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&schemaFile, "schema", "", "Path to JSON Schema file (required)")
	cmd.Flags().StringVar(&text, "text", "", "Text to extract from (default: stdin)")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider name")
	cmd.Flags().StringVar(&model, "model", "", "Model name override")
	return cmd
}
