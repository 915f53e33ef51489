package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/extract/internal/api"
	"github.com/jackzampolin/extract/internal/schema"
	"github.com/jackzampolin/extract/internal/store"
	"github.com/jackzampolin/extract/internal/svcctx"
)

// CreateExtractorRequest is the request body for creating an extractor.
type CreateExtractorRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema"`
	Instruction string          `json:"instruction,omitempty"`
}

// CreateExtractorEndpoint handles POST /extractors.
type CreateExtractorEndpoint struct{}

func (e *CreateExtractorEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/extractors", e.handler
}

func (e *CreateExtractorEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create an extractor
//	@Description	Save an extraction definition (JSON Schema plus optional instruction) for reuse
//	@Tags			extractors
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateExtractorRequest	true	"Extractor definition"
//	@Success		201		{object}	store.Extractor
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	DetailResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/extractors [post]
func (e *CreateExtractorEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateExtractorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := schema.Validate(req.Schema); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid schema: %v", err))
		return
	}

	st := svcctx.StoreFrom(r.Context())
	rec, err := st.CreateExtractor(r.Context(), req.Name, req.Description, req.Schema, req.Instruction)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (e *CreateExtractorEndpoint) Command(getServerURL func() string) *cobra.Command {
	var name, description, schemaFile, instruction string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new extractor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || schemaFile == "" {
				return fmt.Errorf("--name and --schema are required")
			}
			schemaRaw, err := os.ReadFile(schemaFile)
			if err != nil {
				return fmt.Errorf("failed to read schema: %w", err)
			}

			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp store.Extractor
			req := CreateExtractorRequest{
				Name:        name,
				Description: description,
				Schema:      schemaRaw,
				Instruction: instruction,
			}
			if err := client.Post(ctx, "/extractors", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Extractor name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Extractor description")
	cmd.Flags().StringVar(&schemaFile, "schema", "", "Path to JSON Schema file (required)")
	cmd.Flags().StringVar(&instruction, "instruction", "", "Instruction prepended to the system prompt")
	return cmd
}
