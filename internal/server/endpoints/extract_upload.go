package endpoints

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/extract/internal/api"
	"github.com/jackzampolin/extract/internal/extract"
	"github.com/jackzampolin/extract/internal/ingest"
	"github.com/jackzampolin/extract/internal/providers"
	"github.com/jackzampolin/extract/internal/store"
	"github.com/jackzampolin/extract/internal/svcctx"
)

// maxUploadBytes caps the multipart form size for document uploads.
const maxUploadBytes = 32 << 20 // 32 MiB

// ExtractResponse is the response for extraction against a saved extractor.
type ExtractResponse struct {
	Data []any `json:"data"`
}

// ExtractEndpoint handles POST /extract: extraction using a saved extractor,
// from either an inline text field or an uploaded document (plain text,
// markdown or PDF).
type ExtractEndpoint struct{}

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/extract", e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Extract using a saved extractor
//	@Description	Run a saved extractor against inline text or an uploaded document
//	@Tags			extraction
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			extractor_id	formData	string	true	"Extractor ID"
//	@Param			mode			formData	string	false	"Extraction mode (only entire_document)"
//	@Param			text			formData	string	false	"Text to extract from"
//	@Param			file			formData	file	false	"Document to extract from (txt, md, pdf)"
//	@Success		200				{object}	ExtractResponse
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Router			/extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	extractorID := r.FormValue("extractor_id")
	if extractorID == "" {
		writeError(w, http.StatusBadRequest, "extractor_id is required")
		return
	}

	if mode := r.FormValue("mode"); mode != "" && mode != "entire_document" {
		writeError(w, http.StatusBadRequest, "unsupported mode: "+mode)
		return
	}

	text := r.FormValue("text")
	file, header, fileErr := r.FormFile("file")
	if text == "" && fileErr != nil {
		writeError(w, http.StatusBadRequest, "one of text or file is required")
		return
	}
	if text != "" && fileErr == nil {
		file.Close()
		writeError(w, http.StatusBadRequest, "only one of text or file may be provided")
		return
	}

	if fileErr == nil {
		defer file.Close()
		extracted, err := ingest.Text(file, header.Header.Get("Content-Type"), header.Filename)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		text = extracted
	}
	if text == "" {
		writeError(w, http.StatusBadRequest, "document contains no extractable text")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	rec, err := st.GetExtractor(r.Context(), extractorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "extractor not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored, err := st.ListExtractorExamples(r.Context(), extractorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	examples, err := storedTextExamples(stored)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	args, err := runExtraction(r.Context(), rec.Schema, rec.Instruction, examples, text, r.FormValue("llm_provider"), r.FormValue("model_name"))
	if err != nil {
		writeRunError(w, err)
		return
	}

	items, err := extract.DataItems(args)
	if err != nil {
		writeRunError(w, err)
		return
	}
	if items == nil {
		// Model returned a bare object instead of the data-list convention.
		var single any
		if err := json.Unmarshal(args, &single); err == nil {
			items = []any{single}
		} else {
			items = []any{}
		}
	}

	writeJSON(w, http.StatusOK, ExtractResponse{Data: items})
}

// storedTextExamples converts persisted extractor examples into prompt examples.
func storedTextExamples(recs []store.ExtractorExample) ([]extract.Example, error) {
	out := make([]extract.Example, 0, len(recs))
	for _, rec := range recs {
		var output []map[string]any
		if err := json.Unmarshal(rec.Output, &output); err != nil {
			return nil, fmt.Errorf("stored example %s has invalid output: %w", rec.ID, err)
		}
		out = append(out, extract.Example{
			Messages: []providers.Message{{Role: providers.RoleUser, Content: rec.Content}},
			Output:   output,
		})
	}
	return out, nil
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var extractorID, text, filePath, provider, model string
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run a saved extractor against text or a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if extractorID == "" {
				return fmt.Errorf("--extractor is required")
			}
			if (text == "") == (filePath == "") {
				return fmt.Errorf("exactly one of --text or --file is required")
			}

			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			if err := mw.WriteField("extractor_id", extractorID); err != nil {
				return err
			}
			if provider != "" {
				if err := mw.WriteField("llm_provider", provider); err != nil {
					return err
				}
			}
			if model != "" {
				if err := mw.WriteField("model_name", model); err != nil {
					return err
				}
			}
			if text != "" {
				if err := mw.WriteField("text", text); err != nil {
					return err
				}
			} else {
				f, err := os.Open(filePath)
				if err != nil {
					return fmt.Errorf("failed to open file: %w", err)
				}
				defer f.Close()
				part, err := mw.CreateFormFile("file", filepath.Base(filePath))
				if err != nil {
					return err
				}
				if _, err := io.Copy(part, f); err != nil {
					return err
				}
			}
			if err := mw.Close(); err != nil {
				return err
			}

			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp ExtractResponse
			if err := client.PostMultipart(ctx, "/extract", mw.FormDataContentType(), &buf, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&extractorID, "extractor", "", "Saved extractor ID (required)")
	cmd.Flags().StringVar(&text, "text", "", "Text to extract from")
	cmd.Flags().StringVar(&filePath, "file", "", "Document to extract from (txt, md, pdf)")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider name")
	cmd.Flags().StringVar(&model, "model", "", "Model name override")
	return cmd
}
