package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/extract/internal/api"
	"github.com/jackzampolin/extract/internal/store"
	"github.com/jackzampolin/extract/internal/svcctx"
)

// CreateExampleRequest is the request body for adding an extractor example.
type CreateExampleRequest struct {
	Content string          `json:"content"`
	Output  json.RawMessage `json:"output"`
}

// CreateExtractorExampleEndpoint handles POST /extractors/{id}/examples.
type CreateExtractorExampleEndpoint struct{}

func (e *CreateExtractorExampleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/extractors/{id}/examples", e.handler
}

func (e *CreateExtractorExampleEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Add an extractor example
//	@Description	Attach a few-shot example (input text and expected output) to an extractor
//	@Tags			extractors
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Extractor ID"
//	@Param			request	body		CreateExampleRequest	true	"Example"
//	@Success		201		{object}	store.ExtractorExample
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/extractors/{id}/examples [post]
func (e *CreateExtractorExampleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req CreateExampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if len(req.Output) == 0 {
		writeError(w, http.StatusBadRequest, "output is required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	// Verify the extractor exists so examples cannot be orphaned silently.
	if _, err := st.GetExtractor(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "extractor not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rec, err := st.CreateExtractorExample(r.Context(), id, req.Content, req.Output)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (e *CreateExtractorExampleEndpoint) Command(getServerURL func() string) *cobra.Command {
	var content, outputFile string
	cmd := &cobra.Command{
		Use:   "add-example <extractor-id>",
		Short: "Add a few-shot example to an extractor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if content == "" || outputFile == "" {
				return fmt.Errorf("--content and --output are required")
			}
			output, err := os.ReadFile(outputFile)
			if err != nil {
				return fmt.Errorf("failed to read output: %w", err)
			}

			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp store.ExtractorExample
			req := CreateExampleRequest{Content: content, Output: output}
			if err := client.Post(ctx, fmt.Sprintf("/extractors/%s/examples", args[0]), req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Example input text (required)")
	cmd.Flags().StringVar(&outputFile, "output", "", "Path to JSON file with expected output (required)")
	return cmd
}

// ListExtractorExamplesEndpoint handles GET /extractors/{id}/examples.
type ListExtractorExamplesEndpoint struct{}

func (e *ListExtractorExamplesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/extractors/{id}/examples", e.handler
}

func (e *ListExtractorExamplesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List extractor examples
//	@Description	List the few-shot examples attached to an extractor
//	@Tags			extractors
//	@Produce		json
//	@Param			id	path		string	true	"Extractor ID"
//	@Success		200	{array}		store.ExtractorExample
//	@Failure		500	{object}	ErrorResponse
//	@Router			/extractors/{id}/examples [get]
func (e *ListExtractorExamplesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	st := svcctx.StoreFrom(r.Context())
	recs, err := st.ListExtractorExamples(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []store.ExtractorExample{}
	}

	writeJSON(w, http.StatusOK, recs)
}

func (e *ListExtractorExamplesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "examples <extractor-id>",
		Short: "List few-shot examples for an extractor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp []store.ExtractorExample
			if err := client.Get(ctx, fmt.Sprintf("/extractors/%s/examples", args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DeleteExtractorExampleEndpoint handles DELETE /extractors/{id}/examples/{example_id}.
type DeleteExtractorExampleEndpoint struct{}

func (e *DeleteExtractorExampleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/extractors/{id}/examples/{example_id}", e.handler
}

func (e *DeleteExtractorExampleEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete an extractor example
//	@Tags			extractors
//	@Produce		json
//	@Param			id			path	string	true	"Extractor ID"
//	@Param			example_id	path	string	true	"Example ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/extractors/{id}/examples/{example_id} [delete]
func (e *DeleteExtractorExampleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	exampleID := r.PathValue("example_id")

	st := svcctx.StoreFrom(r.Context())
	if err := st.DeleteExtractorExample(r.Context(), id, exampleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "example not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteExtractorExampleEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-example <extractor-id> <example-id>",
		Short: "Delete a few-shot example from an extractor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			path := fmt.Sprintf("/extractors/%s/examples/%s", args[0], args[1])
			if err := client.Delete(ctx, path); err != nil {
				return err
			}
			cmd.Println("deleted", args[1])
			return nil
		},
	}
}
