// Package chunker splits extracted text into embedding-sized chunks along
// paragraph and sentence boundaries.
package chunker

import (
	"strings"
	"unicode"
)

// Chunk is one contiguous piece of a document.
type Chunk struct {
	Content  string
	Position int
}

// Config defines chunking parameters.
type Config struct {
	// TargetSize is the ideal chunk size in bytes; paragraphs accumulate
	// until the next one would overflow it.
	TargetSize int
	// Overlap is the character overlap carried from the tail of each chunk
	// into the next, cut at a word boundary.
	Overlap int
}

// Split breaks text into chunks. Short inputs come back as a single chunk;
// paragraphs that alone exceed the target are split at sentence boundaries so
// no chunk grossly overshoots it.
func Split(text string, cfg Config) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= cfg.TargetSize {
		return []Chunk{{Content: text}}
	}

	var chunks []Chunk
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Content:  strings.TrimSpace(current.String()),
			Position: len(chunks),
		})
		current.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(para) > cfg.TargetSize {
			flush()
		}

		if len(para) > cfg.TargetSize {
			flush()
			for _, piece := range splitBySentences(para, cfg.TargetSize) {
				chunks = append(chunks, Chunk{Content: piece, Position: len(chunks)})
			}
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return applyOverlap(chunks, cfg.Overlap)
}

func splitBySentences(text string, targetSize int) []string {
	var pieces []string
	var current strings.Builder

	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(sentence) > targetSize {
			pieces = append(pieces, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		pieces = append(pieces, strings.TrimSpace(current.String()))
	}
	return pieces
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				// Skip likely abbreviations like "Dr."
				if i > 1 && unicode.IsUpper(runes[i-1]) {
					continue
				}
				sentences = append(sentences, current.String())
				current.Reset()
			}
		}
	}

	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

// applyOverlap prefixes each chunk after the first with the tail of its
// predecessor, cut at a word boundary.
func applyOverlap(chunks []Chunk, overlap int) []Chunk {
	if overlap <= 0 || len(chunks) <= 1 {
		return chunks
	}

	out := make([]Chunk, len(chunks))
	copy(out, chunks)

	for i := 1; i < len(out); i++ {
		prev := out[i-1].Content
		if len(prev) <= overlap {
			continue
		}
		tail := prev[len(prev)-overlap:]
		if idx := strings.Index(tail, " "); idx >= 0 {
			tail = tail[idx+1:]
		}
		out[i].Content = tail + " " + out[i].Content
	}
	return out
}
