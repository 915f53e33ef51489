package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/extract/internal/api"
	"github.com/jackzampolin/extract/internal/schema"
	"github.com/jackzampolin/extract/internal/store"
	"github.com/jackzampolin/extract/internal/svcctx"
)

// UpdateExtractorEndpoint handles PUT /extractors/{id}.
type UpdateExtractorEndpoint struct{}

func (e *UpdateExtractorEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/extractors/{id}", e.handler
}

func (e *UpdateExtractorEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Update an extractor
//	@Description	Replace a saved extractor definition
//	@Tags			extractors
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Extractor ID"
//	@Param			request	body		CreateExtractorRequest	true	"Extractor definition"
//	@Success		200		{object}	store.Extractor
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	DetailResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/extractors/{id} [put]
func (e *UpdateExtractorEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

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
	rec, err := st.UpdateExtractor(r.Context(), id, req.Name, req.Description, req.Schema, req.Instruction)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "extractor not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (e *UpdateExtractorEndpoint) Command(getServerURL func() string) *cobra.Command {
	var name, description, schemaFile, instruction string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a saved extractor",
		Args:  cobra.ExactArgs(1),
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
			if err := client.Put(ctx, fmt.Sprintf("/extractors/%s", args[0]), req, &resp); err != nil {
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
