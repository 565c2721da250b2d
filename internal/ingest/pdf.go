// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/pdiddy/note-engine/pkg/types"
)

// pdfHandler extracts page text from PDFs through UniPDF. The metered
// license key is applied once per process; without one, every PDF fails
// per-record and the rest of the run proceeds.
type pdfHandler struct {
	licenseKey string
	once       sync.Once
	licenseErr error
}

func newPDFHandler(licenseKey string) *pdfHandler {
	return &pdfHandler{licenseKey: licenseKey}
}

func (h *pdfHandler) Name() string { return "pdf" }

func (h *pdfHandler) Extract(ctx context.Context, path string) (types.SourceRecord, error) {
	h.once.Do(func() {
		if h.licenseKey == "" {
			h.licenseErr = fmt.Errorf("no unidoc license key configured")
			return
		}
		h.licenseErr = license.SetMeteredKey(h.licenseKey)
	})
	if h.licenseErr != nil {
		return types.SourceRecord{}, fmt.Errorf("pdf extraction unavailable: %w", h.licenseErr)
	}

	text, err := extractPDFText(ctx, path)
	if err != nil {
		return types.SourceRecord{}, err
	}

	return types.SourceRecord{
		SourcePath: path,
		Type:       types.SourcePDF,
		Title:      stemTitle(path),
		Text:       text,
		Date:       detectDate(path),
	}, nil
}

func extractPDFText(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	reader, err := model.NewPdfReader(f)
	if err != nil {
		return "", fmt.Errorf("parsing pdf: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("counting pages: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page, err := reader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
