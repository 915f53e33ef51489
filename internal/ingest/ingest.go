// Package ingest converts uploaded documents into plain text suitable for
// extraction. Plain text and markdown pass through unchanged; PDFs are
// scraped page by page from their content streams.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// MaxPages caps how many PDF pages a single upload may contain. Larger
// documents would blow past model context windows anyway.
const MaxPages = 50

// Kind identifies the detected document type of an upload.
type Kind string

const (
	KindText     Kind = "text"
	KindMarkdown Kind = "markdown"
	KindPDF      Kind = "pdf"
)

// DetectKind determines the document type from the declared content type and
// the filename extension. The extension wins when the content type is generic.
func DetectKind(contentType, filename string) (Kind, error) {
	mediaType := contentType
	if mediaType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = mt
		}
	}

	switch mediaType {
	case "application/pdf":
		return KindPDF, nil
	case "text/markdown":
		return KindMarkdown, nil
	case "text/plain":
		return KindText, nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF, nil
	case ".md", ".markdown":
		return KindMarkdown, nil
	case ".txt", ".text", "":
		if mediaType == "" || mediaType == "application/octet-stream" {
			return KindText, nil
		}
	}

	return "", fmt.Errorf("unsupported document type %q (%s)", mediaType, filename)
}

// Text reads an uploaded document and returns its plain text content.
func Text(r io.Reader, contentType, filename string) (string, error) {
	kind, err := DetectKind(contentType, filename)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	switch kind {
	case KindPDF:
		return pdfText(data)
	default:
		return string(data), nil
	}
}

// pdfText extracts text from every page of a PDF.
func pdfText(data []byte) (string, error) {
	rs := bytes.NewReader(data)

	pageCount, err := api.PageCount(rs, nil)
	if err != nil {
		return "", fmt.Errorf("invalid PDF: %w", err)
	}
	if pageCount > MaxPages {
		return "", fmt.Errorf("PDF has %d pages, maximum is %d", pageCount, MaxPages)
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	pdfCtx, err := api.ReadContext(rs, nil)
	if err != nil {
		return "", fmt.Errorf("invalid PDF: %w", err)
	}

	var sb strings.Builder
	for page := 1; page <= pageCount; page++ {
		content, err := pdfcpu.ExtractPageContent(pdfCtx, page)
		if err != nil {
			return "", fmt.Errorf("failed to extract page %d: %w", page, err)
		}
		if content == nil {
			continue
		}
		raw, err := io.ReadAll(content)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", page, err)
		}
		text := scrapeContentText(raw)
		if text != "" {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(text)
		}
	}

	return sb.String(), nil
}
