package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/maraichr/curator/internal/chunker"
	"github.com/maraichr/curator/internal/classify"
	"github.com/maraichr/curator/internal/progress"
	"github.com/maraichr/curator/internal/store/postgres"
)

// embedGroupSize caps how many texts go into one embedding call from the
// pipeline's point of view. Grouping here, rather than leaning on the
// provider client's internal batching, keeps a cancellation checkpoint and a
// progress update between every group.
const embedGroupSize = 96

// embedInputType is the Cohere input_type for indexed documents.
const embedInputType = "search_document"

// reporter binds one operation's id to its stage mapper so pipeline code
// reports local stage percentages and the tracker only ever sees the mapped
// overall number.
type reporter struct {
	tracker *progress.Tracker
	mapper  *progress.StageMapper
	id      string
}

func (r *reporter) stage(stage progress.Status, local float64, message string, extra map[string]any) {
	r.tracker.Update(r.id, stage, r.mapper.Map(stage, local), message, extra)
}

// docChunk is a chunk awaiting embedding, still tied to its origin URL.
type docChunk struct {
	URL      string
	Position int
	Content  string
	Words    int
}

// codeCandidate is an accepted code block awaiting embedding.
type codeCandidate struct {
	URL   string
	Block classify.Block
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

// chunkText splits a document with the configured chunking parameters.
func (o *Orchestrator) chunkText(text string) []string {
	cs := chunker.Split(text, o.chunkCfg)
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Content
	}
	return out
}

// classifyText runs the code-block classifier over one document and returns
// the accepted candidates plus the total number of fenced blocks seen.
func (o *Orchestrator) classifyText(text, url string) (accepted []codeCandidate, total int) {
	blocks := o.classifier.ExtractBlocks(text)
	for _, b := range blocks {
		if b.Accepted {
			accepted = append(accepted, codeCandidate{URL: url, Block: b})
		}
	}
	return accepted, len(blocks)
}

// storeContent embeds and persists chunks and accepted code blocks for the
// storing stage, then updates the source word count. Local progress within
// the stage advances one step per embedding group plus a final step for the
// inserts.
func (o *Orchestrator) storeContent(ctx context.Context, rep *reporter, source postgres.Source, chunks []docChunk, accepted []codeCandidate) (words int, err error) {
	chunkGroups := (len(chunks) + embedGroupSize - 1) / embedGroupSize
	blockGroups := (len(accepted) + embedGroupSize - 1) / embedGroupSize
	totalSteps := chunkGroups + blockGroups + 1
	step := 0
	advance := func(message string) {
		step++
		rep.stage(progress.StatusStoring, float64(step)/float64(totalSteps)*100, message, nil)
	}

	chunkRows := make([]postgres.ChunkRow, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedGroupSize {
		if err := o.checkpoint(ctx, rep.id); err != nil {
			return 0, err
		}
		end := min(start+embedGroupSize, len(chunks))
		group := chunks[start:end]

		texts := make([]string, len(group))
		for i, c := range group {
			texts[i] = c.Content
		}
		vecs, err := o.embedder.EmbedBatch(ctx, texts, embedInputType)
		if err != nil {
			return 0, fmt.Errorf("embed chunks: %w", err)
		}
		for i, c := range group {
			chunkRows = append(chunkRows, postgres.ChunkRow{
				SourceID:  source.ID,
				Position:  c.Position,
				URL:       c.URL,
				Content:   c.Content,
				WordCount: c.Words,
				Embedding: pgvector.NewVector(vecs[i]),
			})
		}
		advance(fmt.Sprintf("embedded %d/%d chunks", end, len(chunks)))
	}

	blockRows := make([]postgres.CodeBlockRow, 0, len(accepted))
	for start := 0; start < len(accepted); start += embedGroupSize {
		if err := o.checkpoint(ctx, rep.id); err != nil {
			return 0, err
		}
		end := min(start+embedGroupSize, len(accepted))
		group := accepted[start:end]

		texts := make([]string, len(group))
		for i, c := range group {
			texts[i] = c.Block.Text
		}
		vecs, err := o.embedder.EmbedBatch(ctx, texts, embedInputType)
		if err != nil {
			return 0, fmt.Errorf("embed code blocks: %w", err)
		}
		for i, c := range group {
			blockRows = append(blockRows, postgres.CodeBlockRow{
				SourceID:   source.ID,
				URL:        c.URL,
				Content:    c.Block.Text,
				Language:   c.Block.Language,
				Indicators: c.Block.IndicatorCount,
				Embedding:  pgvector.NewVector(vecs[i]),
			})
		}
		advance(fmt.Sprintf("embedded %d/%d code blocks", end, len(accepted)))
	}

	if err := o.checkpoint(ctx, rep.id); err != nil {
		return 0, err
	}
	if err := o.store.InsertChunksBatch(ctx, chunkRows); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	if err := o.store.InsertCodeBlocksBatch(ctx, blockRows); err != nil {
		return 0, fmt.Errorf("store code blocks: %w", err)
	}

	for _, c := range chunks {
		words += c.Words
	}
	if err := o.store.UpdateSourceWordCount(ctx, source.ID, words); err != nil {
		return 0, fmt.Errorf("update word count: %w", err)
	}
	advance(fmt.Sprintf("stored %d chunks, %d code blocks", len(chunkRows), len(blockRows)))

	return words, nil
}

// warnZeroAccepted logs when an operation found fenced blocks but the
// classifier rejected every one. Thresholds are operation-wide, so this is
// the only signal that they are tuned too strictly.
func (o *Orchestrator) warnZeroAccepted(id string, totalBlocks int) {
	if totalBlocks == 0 {
		return
	}
	t := o.classifier.Thresholds()
	o.logger.Warn("all code blocks rejected",
		slog.String("operation_id", id),
		slog.Int("blocks_seen", totalBlocks),
		slog.Int("min_length", t.MinLength),
		slog.Float64("max_prose_ratio", t.MaxProseRatio),
		slog.Int("min_indicators", t.MinIndicators))
}
