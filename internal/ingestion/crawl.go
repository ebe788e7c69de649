package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maraichr/curator/internal/crawler"
	"github.com/maraichr/curator/internal/extract"
	"github.com/maraichr/curator/internal/progress"
	"github.com/maraichr/curator/internal/store/postgres"
)

// runCrawl is the crawl unit of work: analyze the seed, walk the site,
// extract and chunk each page, classify code blocks, then embed and store.
// Re-crawling a source replaces its previous content.
func (o *Orchestrator) runCrawl(ctx context.Context, rep *reporter, source postgres.Source, req CrawlRequest) (map[string]any, error) {
	if err := o.checkpoint(ctx, rep.id); err != nil {
		return nil, err
	}
	seedKind := crawler.DetectSeed(req.URL)
	rep.stage(progress.StatusAnalyzing, 50, fmt.Sprintf("analyzing %s seed %s", seedKind, req.URL), nil)
	if err := o.store.DeleteSourceContent(ctx, source.ID); err != nil {
		return nil, fmt.Errorf("clear previous content: %w", err)
	}

	var pages []crawler.Page
	fetched, err := o.crawler.Crawl(ctx, req.URL, req.MaxPages, req.MaxDepth, func(page crawler.Page, fetched, total int) error {
		if err := o.checkpoint(ctx, rep.id); err != nil {
			return err
		}
		pages = append(pages, page)
		rep.stage(progress.StatusCrawling, float64(fetched)/float64(total)*100,
			fmt.Sprintf("crawled %d/%d pages", fetched, total),
			map[string]any{"pages_crawled": fetched})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if fetched == 0 {
		return nil, extract.NewUserError("no pages could be fetched from %s", req.URL)
	}

	type pageText struct {
		url  string
		text string
	}

	var (
		texts    []pageText
		chunks   []docChunk
		position int
	)
	for i, page := range pages {
		if err := o.checkpoint(ctx, rep.id); err != nil {
			return nil, err
		}

		res, err := o.extractor.Extract(page.HTML, page.URL, "text/html")
		if err != nil {
			o.logger.Warn("page extraction failed",
				slog.String("operation_id", rep.id),
				slog.String("url", page.URL),
				slog.String("error", err.Error()))
			continue
		}
		texts = append(texts, pageText{url: page.URL, text: res.Text})
		for _, c := range o.chunkText(res.Text) {
			chunks = append(chunks, docChunk{
				URL:      page.URL,
				Position: position,
				Content:  c,
				Words:    countWords(c),
			})
			position++
		}
		rep.stage(progress.StatusProcessing, float64(i+1)/float64(len(pages))*100,
			fmt.Sprintf("processed %d/%d pages", i+1, len(pages)), nil)
	}

	var (
		accepted    []codeCandidate
		totalBlocks int
	)
	for i, pt := range texts {
		if err := o.checkpoint(ctx, rep.id); err != nil {
			return nil, err
		}
		acc, total := o.classifyText(pt.text, pt.url)
		accepted = append(accepted, acc...)
		totalBlocks += total
		rep.stage(progress.StatusCodeExtraction, float64(i+1)/float64(len(texts))*100,
			fmt.Sprintf("classified code blocks on %d/%d pages", i+1, len(texts)), nil)
	}
	if len(accepted) == 0 {
		o.warnZeroAccepted(rep.id, totalBlocks)
	}

	words, err := o.storeContent(ctx, rep, source, chunks, accepted)
	if err != nil {
		return nil, err
	}

	rep.stage(progress.StatusFinalizing, 100, "finalizing", nil)

	return map[string]any{
		"source_id":         source.ID.String(),
		"pages_crawled":     fetched,
		"chunks_stored":     len(chunks),
		"code_blocks_found": totalBlocks,
		"accepted_count":    len(accepted),
		"word_count":        words,
	}, nil
}
