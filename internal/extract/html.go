package extract

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Pre-compiled regular expressions for HTML stripping.
var (
	preBlockRe    = regexp.MustCompile(`(?is)<pre[^>]*>(.*?)</pre>`)
	inlineCodeRe  = regexp.MustCompile(`(?is)<code[^>]*>(.*?)</code>`)
	codeWrapperRe = regexp.MustCompile(`(?is)^\s*<code[^>]*>(.*)</code>\s*$`)
	codeLangRe    = regexp.MustCompile(`(?i)class="[^"]*language-([a-z0-9+#-]+)`)

	scriptTagRe     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTagRe      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTagRe   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTagRe       = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	htmlCommentsRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	closeBlockTagRe = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|blockquote|table|section|article)>`)
	openBlockTagRe  = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|table|section|article)[^>]*>`)
	brTagRe         = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTagRe         = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTagsRe       = regexp.MustCompile(`<[^>]+>`)
	multiSpaceRe    = regexp.MustCompile(`[ \t]+`)
	multiNewlineRe  = regexp.MustCompile(`\n{3,}`)
)

// extractHTML strips an HTML document to readable text. Code regions are
// lifted out and replaced with placeholders before any tag stripping runs, so
// whitespace-significant code survives the collapse passes untouched; they
// are restored afterwards as fenced blocks (pre) and backticked spans (code).
func extractHTML(data []byte) (string, error) {
	content := string(data)

	var blocks []string
	content = preBlockRe.ReplaceAllStringFunc(content, func(match string) string {
		inner := preBlockRe.FindStringSubmatch(match)[1]
		lang := ""
		if m := codeLangRe.FindStringSubmatch(match); m != nil {
			lang = m[1]
		}
		if m := codeWrapperRe.FindStringSubmatch(inner); m != nil {
			inner = m[1]
		}
		inner = html.UnescapeString(inner)
		inner = strings.Trim(inner, "\n")
		blocks = append(blocks, "```"+lang+"\n"+inner+"\n```")
		return "\n" + blockPlaceholder(len(blocks)-1) + "\n"
	})

	var spans []string
	content = inlineCodeRe.ReplaceAllStringFunc(content, func(match string) string {
		inner := inlineCodeRe.FindStringSubmatch(match)[1]
		spans = append(spans, "`"+html.UnescapeString(inner)+"`")
		return spanPlaceholder(len(spans) - 1)
	})

	// Remove non-content regions entirely.
	content = scriptTagRe.ReplaceAllString(content, "")
	content = styleTagRe.ReplaceAllString(content, "")
	content = noscriptTagRe.ReplaceAllString(content, "")
	content = headTagRe.ReplaceAllString(content, "")
	content = htmlCommentsRe.ReplaceAllString(content, "")

	// Block-level structure becomes line structure.
	content = openBlockTagRe.ReplaceAllString(content, "\n")
	content = closeBlockTagRe.ReplaceAllString(content, "\n")
	content = brTagRe.ReplaceAllString(content, "\n")
	content = hrTagRe.ReplaceAllString(content, "\n")

	content = allTagsRe.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaceRe.ReplaceAllString(content, " ")

	// Trim lines, drop empties, then restore the protected code regions.
	lines := strings.Split(content, "\n")
	var kept []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	content = strings.Join(kept, "\n")

	for i, block := range blocks {
		content = strings.ReplaceAll(content, blockPlaceholder(i), block)
	}
	for i, span := range spans {
		content = strings.ReplaceAll(content, spanPlaceholder(i), span)
	}

	content = multiNewlineRe.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content), nil
}

func blockPlaceholder(i int) string {
	return fmt.Sprintf("\x00CODEBLOCK%d\x00", i)
}

func spanPlaceholder(i int) string {
	return fmt.Sprintf("\x00CODESPAN%d\x00", i)
}
