// Package extract converts raw document bytes (PDF, DOCX, HTML, plain text)
// into normalized plain text, preserving fenced code blocks for downstream
// classification.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// UserError marks bad or unsupported input. Its message is returned to the
// caller verbatim, with no stack trace and no retry. Everything else that goes
// wrong inside an extractor is a system error: logged in full, surfaced as a
// generic wrapped message.
type UserError struct {
	msg string
}

func (e *UserError) Error() string { return e.msg }

func userErrorf(format string, args ...any) *UserError {
	return &UserError{msg: fmt.Sprintf(format, args...)}
}

// NewUserError builds a user error outside this package, for input problems
// discovered after extraction (an unreachable crawl seed, for example) that
// share the same verbatim-message semantics.
func NewUserError(format string, args ...any) error {
	return userErrorf(format, args...)
}

// IsUserError reports whether err is (or wraps) a UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// Result is the output of a successful extraction.
type Result struct {
	Text   string
	Format string
}

// Extractor dispatches raw bytes to a format-specific extractor by declared
// content type, falling back to the filename extension.
type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

func (e *Extractor) Extract(data []byte, filename, contentType string) (Result, error) {
	if len(data) == 0 {
		return Result{}, userErrorf("empty file: %s", filename)
	}

	format := detectFormat(filename, contentType)

	var (
		text string
		err  error
	)
	switch format {
	case "pdf":
		text, err = e.extractPDF(data)
	case "docx":
		text, err = extractDOCX(data)
	case "html":
		text, err = extractHTML(data)
	case "text":
		text, err = extractText(data)
	default:
		return Result{}, userErrorf("unsupported format: %s (content type %q)", filepath.Ext(filename), contentType)
	}
	if err != nil {
		return Result{}, err
	}

	if strings.TrimSpace(text) == "" {
		return Result{}, userErrorf("empty file: %s contains no extractable text", filename)
	}

	return Result{Text: text, Format: format}, nil
}

// detectFormat maps content type and extension to an extractor name. Content
// type wins when it is specific; browsers often send a generic type for
// uploads, so the extension is the tiebreaker.
func detectFormat(filename, contentType string) string {
	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	switch ct {
	case "application/pdf":
		return "pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	case "text/html", "application/xhtml+xml":
		return "html"
	case "text/plain", "text/markdown", "text/x-markdown":
		return "text"
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".docx":
		return "docx"
	case ".html", ".htm":
		return "html"
	case ".txt", ".md", ".markdown", ".rst", ".text":
		return "text"
	}

	// Generic types with no recognizable extension are only accepted when
	// they self-describe as text.
	if strings.HasPrefix(ct, "text/") {
		return "text"
	}
	return ""
}
