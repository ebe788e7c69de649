package extract

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// minLayoutOutput is the heuristic floor for the layout-aware pass: anything
// materially shorter than this across the whole document means the PDF's text
// layer defeated row extraction, and the plain-text stream fallback runs.
const minLayoutOutput = 100

// PageMarker renders the machine-readable page boundary inserted between PDF
// pages. The stitcher later relies on this exact shape.
func PageMarker(page int) string {
	return fmt.Sprintf("--- Page %d ---", page)
}

// extractPDF pulls text from a PDF. The layout-aware row extractor runs first
// because it handles multi-column and table layouts far better than the raw
// content stream; individual bad pages are skipped rather than failing the
// document. If the total output is materially short, the simpler page-stream
// extractor takes over. Page boundaries are marked, then fenced code blocks
// that pagination split in half are stitched back together.
func (e *Extractor) extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", userErrorf("unsupported format: not a readable PDF")
	}

	text := e.extractPDFByRows(reader)

	if len(strings.TrimSpace(text)) < minLayoutOutput {
		fallback, err := extractPDFPlainText(reader)
		if err == nil && len(strings.TrimSpace(fallback)) > len(strings.TrimSpace(text)) {
			e.logger.Debug("pdf layout extraction too short, using plain-text fallback",
				slog.Int("layout_len", len(text)),
				slog.Int("fallback_len", len(fallback)))
			text = fallback
		}
	}

	return StitchPageBoundaries(text), nil
}

// extractPDFByRows walks every page through the layout-aware row extractor.
func (e *Extractor) extractPDFByRows(reader *pdf.Reader) string {
	var sb strings.Builder

	for i := 1; i <= reader.NumPage(); i++ {
		pageText, err := extractPage(reader, i)
		if err != nil {
			e.logger.Warn("pdf page extraction failed, skipping page",
				slog.Int("page", i),
				slog.String("error", err.Error()))
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n" + PageMarker(i) + "\n")
		}
		sb.WriteString(pageText)
	}

	return sb.String()
}

// extractPage reads one page's rows. The pdf library panics on some malformed
// content streams, so the recover here converts that into a skippable error.
func extractPage(reader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", pageNum, r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: null page object", pageNum)
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return "", fmt.Errorf("page %d rows: %w", pageNum, err)
	}

	var sb strings.Builder
	for _, row := range rows {
		var line strings.Builder
		for _, word := range row.Content {
			line.WriteString(word.S)
		}
		if strings.TrimSpace(line.String()) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line.String())
	}
	return sb.String(), nil
}

func extractPDFPlainText(reader *pdf.Reader) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plain text extraction: %v", r)
		}
	}()

	r, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("plain text stream: %w", err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read plain text: %w", err)
	}
	return string(raw), nil
}
