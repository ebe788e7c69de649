package extract

import (
	"regexp"
	"strings"
)

// pageMarkerRe matches the boundary lines inserted between PDF pages,
// including surrounding blank lines.
var pageMarkerRe = regexp.MustCompile(`\n?--- Page \d+ ---\n?`)

// StitchPageBoundaries rejoins fenced code blocks that a PDF page break split
// mid-body. Pagination frequently lands inside a fence, leaving the opening
// half on one page and the rest on the next; a split is detected when a page
// marker sits inside an unclosed fence, and the marker is removed so the two
// halves become one contiguous block. Runs until no more splits remain, since
// a long block can span several pages.
func StitchPageBoundaries(text string) string {
	for {
		stitched, changed := stitchOnce(text)
		if !changed {
			return stitched
		}
		text = stitched
	}
}

func stitchOnce(text string) (string, bool) {
	loc := pageMarkerRe.FindStringIndex(text)
	for loc != nil {
		if insideOpenFence(text[:loc[0]]) {
			return text[:loc[0]] + "\n" + text[loc[1]:], true
		}
		next := pageMarkerRe.FindStringIndex(text[loc[1]:])
		if next == nil {
			break
		}
		loc = []int{loc[1] + next[0], loc[1] + next[1]}
	}
	return text, false
}

// insideOpenFence reports whether the text so far has an odd number of ```
// fence delimiters, i.e. an opened but not yet closed code block.
func insideOpenFence(text string) bool {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			count++
		}
	}
	return count%2 == 1
}
