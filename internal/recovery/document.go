package recovery

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/gesthor/ocr-service/constants"
	"github.com/gesthor/ocr-service/internal/common"
)

// DocumentText extracts text directly from PDF and plain-text artifacts.
// No OCR, no network.
type DocumentText struct {
	Logger *slog.Logger
}

func NewDocumentText(logger *slog.Logger) *DocumentText {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentText{Logger: logger}
}

func (s *DocumentText) Recover(ctx context.Context, art Artifact) (Outcome, error) {
	switch art.Format() {
	case constants.PDF:
		text, pages, err := pdfText(art.Data)
		if err != nil {
			return Outcome{}, fmt.Errorf("pdf %q: %w", art.Filename, err)
		}
		s.Logger.Debug("recovery.document.pdf_ok", "file", art.Filename, "pages", pages, "text_bytes", len(text))
		return Outcome{Text: text}, nil
	case constants.TEXT:
		// Best-effort decoding: undecodable bytes are dropped, never an error.
		text := string(bytes.ToValidUTF8(art.Data, nil))
		s.Logger.Debug("recovery.document.text_ok", "file", art.Filename, "text_bytes", len(text))
		return Outcome{Text: text}, nil
	default:
		return Outcome{}, fmt.Errorf("%w: %q", common.ErrUnsupportedFile, art.Ext())
	}
}

// pdfText extracts text per page and concatenates with newline separators.
// Pages with no extractable text contribute an empty string; an all-empty
// document yields "" rather than an error.
func pdfText(data []byte) (string, int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", 0, fmt.Errorf("open: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	parts := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		text, err := doc.Text(i)
		if err != nil {
			// Tolerate unreadable pages the same as empty ones.
			text = ""
		}
		parts = append(parts, strings.TrimSpace(text))
	}
	return joinPages(parts), pages, nil
}

func joinPages(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
