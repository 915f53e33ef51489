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

// DeleteExtractorEndpoint handles DELETE /extractors/{id}.
type DeleteExtractorEndpoint struct{}

func (e *DeleteExtractorEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/extractors/{id}", e.handler
}

func (e *DeleteExtractorEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete an extractor
//	@Description	Delete a saved extractor and its examples
//	@Tags			extractors
//	@Produce		json
//	@Param			id	path	string	true	"Extractor ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/extractors/{id} [delete]
func (e *DeleteExtractorEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	st := svcctx.StoreFrom(r.Context())
	if err := st.DeleteExtractor(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "extractor not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteExtractorEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved extractor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			if err := client.Delete(ctx, fmt.Sprintf("/extractors/%s", args[0])); err != nil {
				return err
			}
			cmd.Println("deleted", args[0])
			return nil
		},
	}
}
