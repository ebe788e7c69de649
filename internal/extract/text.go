package extract

import "strings"

// extractText decodes plain text and markdown-like input leniently: invalid
// byte sequences are replaced with the Unicode replacement character rather
// than failing the document.
func extractText(data []byte) (string, error) {
	text := strings.ToValidUTF8(string(data), "�")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text), nil
}
