package endpoints

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/extract/internal/api"
	"github.com/jackzampolin/extract/internal/store"
	"github.com/jackzampolin/extract/internal/svcctx"
)

// GetExtractorEndpoint handles GET /extractors/{id}.
type GetExtractorEndpoint struct{}

func (e *GetExtractorEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/extractors/{id}", e.handler
}

func (e *GetExtractorEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get an extractor
//	@Description	Fetch a saved extractor by ID
//	@Tags			extractors
//	@Produce		json
//	@Param			id	path		string	true	"Extractor ID"
//	@Success		200	{object}	store.Extractor
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/extractors/{id} [get]
func (e *GetExtractorEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	st := svcctx.StoreFrom(r.Context())
	rec, err := st.GetExtractor(r.Context(), id)
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

func (e *GetExtractorEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a saved extractor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp store.Extractor
			if err := client.Get(ctx, fmt.Sprintf("/extractors/%s", args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
