package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/extract/internal/api"
	"github.com/jackzampolin/extract/internal/schema"
	"github.com/jackzampolin/extract/internal/store"
	"github.com/jackzampolin/extract/internal/svcctx"
)

// CreateAnalyzerRequest is the request body for creating a query analyzer.
type CreateAnalyzerRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema"`
	Instruction string          `json:"instruction,omitempty"`
}

// CreateAnalyzerEndpoint handles POST /query_analyzers.
type CreateAnalyzerEndpoint struct{}

func (e *CreateAnalyzerEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/query_analyzers", e.handler
}

func (e *CreateAnalyzerEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create a query analyzer
//	@Description	Save a query analysis definition (JSON Schema plus optional instruction) for reuse
//	@Tags			query-analyzers
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateAnalyzerRequest	true	"Analyzer definition"
//	@Success		201		{object}	store.QueryAnalyzer
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	DetailResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/query_analyzers [post]
func (e *CreateAnalyzerEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateAnalyzerRequest
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
	rec, err := st.CreateQueryAnalyzer(r.Context(), req.Name, req.Description, req.Schema, req.Instruction)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (e *CreateAnalyzerEndpoint) Command(getServerURL func() string) *cobra.Command {
	var name, description, schemaFile, instruction string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new query analyzer",
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
			var resp store.QueryAnalyzer
			req := CreateAnalyzerRequest{
				Name:        name,
				Description: description,
				Schema:      schemaRaw,
				Instruction: instruction,
			}
			if err := client.Post(ctx, "/query_analyzers", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Analyzer name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Analyzer description")
	cmd.Flags().StringVar(&schemaFile, "schema", "", "Path to JSON Schema file (required)")
	cmd.Flags().StringVar(&instruction, "instruction", "", "Instruction prepended to the system prompt")
	return cmd
}

// ListAnalyzersEndpoint handles GET /query_analyzers.
type ListAnalyzersEndpoint struct{}

func (e *ListAnalyzersEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/query_analyzers", e.handler
}

func (e *ListAnalyzersEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List query analyzers
//	@Tags			query-analyzers
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum records to return"
//	@Param			offset	query		int	false	"Records to skip"
//	@Success		200		{array}		store.QueryAnalyzer
//	@Failure		500		{object}	ErrorResponse
//	@Router			/query_analyzers [get]
func (e *ListAnalyzersEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	st := svcctx.StoreFrom(r.Context())
	recs, err := st.ListQueryAnalyzers(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []store.QueryAnalyzer{}
	}

	writeJSON(w, http.StatusOK, recs)
}

func (e *ListAnalyzersEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved query analyzers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp []store.QueryAnalyzer
			path := fmt.Sprintf("/query_analyzers?limit=%d&offset=%d", limit, offset)
			if err := client.Get(ctx, path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum records to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Records to skip")
	return cmd
}

// GetAnalyzerEndpoint handles GET /query_analyzers/{id}.
type GetAnalyzerEndpoint struct{}

func (e *GetAnalyzerEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/query_analyzers/{id}", e.handler
}

func (e *GetAnalyzerEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a query analyzer
//	@Tags			query-analyzers
//	@Produce		json
//	@Param			id	path		string	true	"Analyzer ID"
//	@Success		200	{object}	store.QueryAnalyzer
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/query_analyzers/{id} [get]
func (e *GetAnalyzerEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	st := svcctx.StoreFrom(r.Context())
	rec, err := st.GetQueryAnalyzer(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "query analyzer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (e *GetAnalyzerEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a saved query analyzer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp store.QueryAnalyzer
			if err := client.Get(ctx, fmt.Sprintf("/query_analyzers/%s", args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DeleteAnalyzerEndpoint handles DELETE /query_analyzers/{id}.
type DeleteAnalyzerEndpoint struct{}

func (e *DeleteAnalyzerEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/query_analyzers/{id}", e.handler
}

func (e *DeleteAnalyzerEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a query analyzer
//	@Tags			query-analyzers
//	@Produce		json
//	@Param			id	path	string	true	"Analyzer ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/query_analyzers/{id} [delete]
func (e *DeleteAnalyzerEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	st := svcctx.StoreFrom(r.Context())
	if err := st.DeleteQueryAnalyzer(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "query analyzer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteAnalyzerEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved query analyzer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			if err := client.Delete(ctx, fmt.Sprintf("/query_analyzers/%s", args[0])); err != nil {
				return err
			}
			cmd.Println("deleted", args[0])
			return nil
		},
	}
}
