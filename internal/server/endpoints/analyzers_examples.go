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

// CreateAnalyzerExampleRequest is the request body for adding an analyzer example.
type CreateAnalyzerExampleRequest struct {
	Messages []WireMessage   `json:"messages"`
	Output   json.RawMessage `json:"output"`
}

// CreateAnalyzerExampleEndpoint handles POST /query_analyzers/{id}/examples.
type CreateAnalyzerExampleEndpoint struct{}

func (e *CreateAnalyzerExampleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/query_analyzers/{id}/examples", e.handler
}

func (e *CreateAnalyzerExampleEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Add a query analyzer example
//	@Description	Attach a few-shot example (conversation and expected queries) to an analyzer
//	@Tags			query-analyzers
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Analyzer ID"
//	@Param			request	body		CreateAnalyzerExampleRequest	true	"Example"
//	@Success		201		{object}	store.QueryAnalyzerExample
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/query_analyzers/{id}/examples [post]
func (e *CreateAnalyzerExampleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req CreateAnalyzerExampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}
	if len(req.Output) == 0 {
		writeError(w, http.StatusBadRequest, "output is required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	if _, err := st.GetQueryAnalyzer(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "query analyzer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	messages, err := json.Marshal(req.Messages)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid messages")
		return
	}

	rec, err := st.CreateQueryAnalyzerExample(r.Context(), id, messages, req.Output)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (e *CreateAnalyzerExampleEndpoint) Command(getServerURL func() string) *cobra.Command {
	var messagesFile, outputFile string
	cmd := &cobra.Command{
		Use:   "add-example <analyzer-id>",
		Short: "Add a few-shot example to a query analyzer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if messagesFile == "" || outputFile == "" {
				return fmt.Errorf("--messages and --output are required")
			}
			msgData, err := os.ReadFile(messagesFile)
			if err != nil {
				return fmt.Errorf("failed to read messages: %w", err)
			}
			var messages []WireMessage
			if err := json.Unmarshal(msgData, &messages); err != nil {
				return fmt.Errorf("failed to parse messages: %w", err)
			}
			output, err := os.ReadFile(outputFile)
			if err != nil {
				return fmt.Errorf("failed to read output: %w", err)
			}

			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp store.QueryAnalyzerExample
			req := CreateAnalyzerExampleRequest{Messages: messages, Output: output}
			if err := client.Post(ctx, fmt.Sprintf("/query_analyzers/%s/examples", args[0]), req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&messagesFile, "messages", "", "Path to JSON file with example messages (required)")
	cmd.Flags().StringVar(&outputFile, "output", "", "Path to JSON file with expected output (required)")
	return cmd
}

// ListAnalyzerExamplesEndpoint handles GET /query_analyzers/{id}/examples.
type ListAnalyzerExamplesEndpoint struct{}

func (e *ListAnalyzerExamplesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/query_analyzers/{id}/examples", e.handler
}

func (e *ListAnalyzerExamplesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List query analyzer examples
//	@Tags			query-analyzers
//	@Produce		json
//	@Param			id	path		string	true	"Analyzer ID"
//	@Success		200	{array}		store.QueryAnalyzerExample
//	@Failure		500	{object}	ErrorResponse
//	@Router			/query_analyzers/{id}/examples [get]
func (e *ListAnalyzerExamplesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	st := svcctx.StoreFrom(r.Context())
	recs, err := st.ListQueryAnalyzerExamples(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []store.QueryAnalyzerExample{}
	}

	writeJSON(w, http.StatusOK, recs)
}

func (e *ListAnalyzerExamplesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "examples <analyzer-id>",
		Short: "List few-shot examples for a query analyzer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp []store.QueryAnalyzerExample
			if err := client.Get(ctx, fmt.Sprintf("/query_analyzers/%s/examples", args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DeleteAnalyzerExampleEndpoint handles DELETE /query_analyzers/{id}/examples/{example_id}.
type DeleteAnalyzerExampleEndpoint struct{}

func (e *DeleteAnalyzerExampleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/query_analyzers/{id}/examples/{example_id}", e.handler
}

func (e *DeleteAnalyzerExampleEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a query analyzer example
//	@Tags			query-analyzers
//	@Produce		json
//	@Param			id			path	string	true	"Analyzer ID"
//	@Param			example_id	path	string	true	"Example ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/query_analyzers/{id}/examples/{example_id} [delete]
func (e *DeleteAnalyzerExampleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	exampleID := r.PathValue("example_id")

	st := svcctx.StoreFrom(r.Context())
	if err := st.DeleteQueryAnalyzerExample(r.Context(), id, exampleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "example not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteAnalyzerExampleEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-example <analyzer-id> <example-id>",
		Short: "Delete a few-shot example from a query analyzer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			path := fmt.Sprintf("/query_analyzers/%s/examples/%s", args[0], args[1])
			if err := client.Delete(ctx, path); err != nil {
				return err
			}
			cmd.Println("deleted", args[1])
			return nil
		},
	}
}
