// Package classify finds candidate code blocks in extracted text and decides
// which are genuine code worth indexing, versus prose that merely resembles
// code.
package classify

import (
	"log/slog"
	"regexp"
	"strings"
)

// Thresholds are operation-wide classifier settings. A block is accepted only
// when it passes all three gates, so overly strict values silently reject
// everything; the pipelines log a warning whenever a whole operation accepts
// zero blocks to keep that failure mode observable.
type Thresholds struct {
	MinLength     int
	MaxProseRatio float64
	MinIndicators int
}

// Block is one candidate code block with its measured features and the
// classifier's verdict. Blocks are operation-local and never persisted; only
// the text of accepted blocks flows onward.
type Block struct {
	Text           string
	Language       string
	Length         int
	ProseRatio     float64
	IndicatorCount int
	Accepted       bool
	Reason         string
}

type Classifier struct {
	thresholds Thresholds
	logger     *slog.Logger
}

func New(thresholds Thresholds, logger *slog.Logger) *Classifier {
	return &Classifier{thresholds: thresholds, logger: logger}
}

func (c *Classifier) Thresholds() Thresholds { return c.thresholds }

var fencedBlockRe = regexp.MustCompile("(?s)```([a-zA-Z0-9+#-]*)\n(.*?)```")

// ExtractBlocks finds fenced blocks in text and classifies each. A document
// with zero accepted blocks is a normal outcome, not an error.
func (c *Classifier) ExtractBlocks(text string) []Block {
	matches := fencedBlockRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	blocks := make([]Block, 0, len(matches))
	for _, m := range matches {
		block := c.Classify(strings.Trim(m[2], "\n"))
		block.Language = m[1]
		blocks = append(blocks, block)
	}
	return blocks
}

// Classify measures one candidate block and applies the threshold gates:
// accept iff length >= MinLength, prose ratio <= MaxProseRatio, and indicator
// count >= MinIndicators.
func (c *Classifier) Classify(text string) Block {
	block := Block{
		Text:           text,
		Length:         len(text),
		ProseRatio:     proseRatio(text),
		IndicatorCount: countIndicators(text),
	}

	switch {
	case block.Length < c.thresholds.MinLength:
		block.Reason = "too short"
	case block.ProseRatio > c.thresholds.MaxProseRatio:
		block.Reason = "mostly prose"
	case block.IndicatorCount < c.thresholds.MinIndicators:
		block.Reason = "too few code indicators"
	default:
		block.Accepted = true
		block.Reason = "accepted"
	}

	if !block.Accepted {
		c.logger.Debug("code block rejected",
			slog.String("reason", block.Reason),
			slog.Int("length", block.Length),
			slog.Float64("prose_ratio", block.ProseRatio),
			slog.Int("indicators", block.IndicatorCount))
	}
	return block
}

var (
	sentenceEndRe = regexp.MustCompile(`[.!?]\s*$`)
	syntaxCharRe  = regexp.MustCompile(`[{}()\[\];=<>|&]`)
	plainWordRe   = regexp.MustCompile(`^[a-zA-Z,'"-]+$`)
	assignmentRe  = regexp.MustCompile(`(:=|=[^=]|<-|=>)`)
	functionDefRe = regexp.MustCompile(`\b(func|def|fn|function|class|interface|struct|impl)\b`)
	controlFlowRe = regexp.MustCompile(`\b(if|else|for|while|switch|case|return|break|continue)\b`)
	importRe      = regexp.MustCompile(`\b(import|include|require|use|from|package)\b`)
	declarationRe = regexp.MustCompile(`\b(var|let|const|int|string|bool|float|void|auto)\b`)
	methodCallRe  = regexp.MustCompile(`\w+\.\w+\(`)
)

// proseRatio is the fraction of a block's non-empty lines that read like
// natural-language prose: several plain words, a sentence ending, and no
// syntax characters.
func proseRatio(text string) float64 {
	lines := strings.Split(text, "\n")
	total, prose := 0, 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		total++
		if isProseLine(line) {
			prose++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(prose) / float64(total)
}

func isProseLine(line string) bool {
	if syntaxCharRe.MatchString(line) {
		return false
	}
	words := strings.Fields(line)
	if len(words) < 4 {
		return false
	}
	plain := 0
	for _, w := range words {
		if plainWordRe.MatchString(strings.TrimRight(w, ".!?:,")) {
			plain++
		}
	}
	if float64(plain)/float64(len(words)) < 0.7 {
		return false
	}
	return sentenceEndRe.MatchString(line) || len(words) >= 8
}

// countIndicators counts distinct code-like signals present in the block.
func countIndicators(text string) int {
	count := 0
	if strings.ContainsAny(text, "{}") {
		count++
	}
	if strings.Contains(text, ";") {
		count++
	}
	if assignmentRe.MatchString(text) {
		count++
	}
	if functionDefRe.MatchString(text) {
		count++
	}
	if controlFlowRe.MatchString(text) {
		count++
	}
	if importRe.MatchString(text) {
		count++
	}
	if declarationRe.MatchString(text) {
		count++
	}
	if methodCallRe.MatchString(text) {
		count++
	}
	if hasConsistentIndent(text) {
		count++
	}
	return count
}

// hasConsistentIndent reports whether at least two lines share leading
// whitespace, the shape of an indented body.
func hasConsistentIndent(text string) bool {
	indented := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			indented++
			if indented >= 2 {
				return true
			}
		}
	}
	return false
}
