package chunker

import (
	"strings"
	"testing"
)

func TestSplitShortText(t *testing.T) {
	chunks := Split("short document", Config{TargetSize: 100, Overlap: 10})
	if len(chunks) != 1 {
		t.Fatalf("len = %d, want 1", len(chunks))
	}
	if chunks[0].Content != "short document" || chunks[0].Position != 0 {
		t.Errorf("chunk = %+v", chunks[0])
	}
}

func TestSplitEmpty(t *testing.T) {
	if chunks := Split("   \n\n  ", Config{TargetSize: 100}); chunks != nil {
		t.Errorf("got %d chunks, want none", len(chunks))
	}
}

func TestSplitParagraphBoundaries(t *testing.T) {
	paraA := strings.Repeat("aaaa ", 12) // ~60 bytes
	paraB := strings.Repeat("bbbb ", 12)
	paraC := strings.Repeat("cccc ", 12)
	text := strings.TrimSpace(paraA) + "\n\n" + strings.TrimSpace(paraB) + "\n\n" + strings.TrimSpace(paraC)

	chunks := Split(text, Config{TargetSize: 130, Overlap: 0})
	if len(chunks) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(chunks), chunks)
	}
	if !strings.Contains(chunks[0].Content, "aaaa") || !strings.Contains(chunks[0].Content, "bbbb") {
		t.Errorf("first chunk should hold two paragraphs: %q", chunks[0].Content)
	}
	if !strings.Contains(chunks[1].Content, "cccc") {
		t.Errorf("second chunk = %q", chunks[1].Content)
	}
	for i, c := range chunks {
		if c.Position != i {
			t.Errorf("chunk %d position = %d", i, c.Position)
		}
	}
}

func TestSplitOversizedParagraph(t *testing.T) {
	// One paragraph far above target, split at sentence boundaries.
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString("This sentence has a fixed moderate length for testing. ")
	}
	chunks := Split(strings.TrimSpace(sb.String()), Config{TargetSize: 200, Overlap: 0})

	if len(chunks) < 4 {
		t.Fatalf("len = %d, want several chunks", len(chunks))
	}
	for _, c := range chunks {
		if len(c.Content) > 300 {
			t.Errorf("chunk grossly overshoots target: %d bytes", len(c.Content))
		}
		if !strings.HasSuffix(strings.TrimSpace(c.Content), ".") {
			t.Errorf("chunk does not end at a sentence boundary: %q", c.Content)
		}
	}
}

func TestSplitOverlap(t *testing.T) {
	paraA := strings.TrimSpace(strings.Repeat("alpha ", 20))
	paraB := strings.TrimSpace(strings.Repeat("beta ", 20))
	text := paraA + "\n\n" + paraB

	chunks := Split(text, Config{TargetSize: 110, Overlap: 20})
	if len(chunks) != 2 {
		t.Fatalf("len = %d, want 2", len(chunks))
	}
	if !strings.HasPrefix(chunks[1].Content, "alpha ") {
		t.Errorf("second chunk missing overlap prefix: %q", chunks[1].Content[:30])
	}
}

func TestSplitPositionsSequential(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString(strings.Repeat("word ", 15))
		sb.WriteString("\n\n")
	}
	chunks := Split(sb.String(), Config{TargetSize: 150, Overlap: 0})
	for i, c := range chunks {
		if c.Position != i {
			t.Fatalf("chunk %d has position %d", i, c.Position)
		}
	}
}
