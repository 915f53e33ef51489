package endpoints

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/extract/internal/api"
	"github.com/jackzampolin/extract/internal/store"
	"github.com/jackzampolin/extract/internal/svcctx"
)

// ListExtractorsEndpoint handles GET /extractors.
type ListExtractorsEndpoint struct{}

func (e *ListExtractorsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/extractors", e.handler
}

func (e *ListExtractorsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List extractors
//	@Description	List saved extractors, newest first
//	@Tags			extractors
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum records to return"
//	@Param			offset	query		int	false	"Records to skip"
//	@Success		200		{array}		store.Extractor
//	@Failure		500		{object}	ErrorResponse
//	@Router			/extractors [get]
func (e *ListExtractorsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	st := svcctx.StoreFrom(r.Context())
	recs, err := st.ListExtractors(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []store.Extractor{}
	}

	writeJSON(w, http.StatusOK, recs)
}

func (e *ListExtractorsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved extractors",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp []store.Extractor
			path := fmt.Sprintf("/extractors?limit=%d&offset=%d", limit, offset)
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
