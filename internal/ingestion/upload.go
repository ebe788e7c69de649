package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maraichr/curator/internal/progress"
	"github.com/maraichr/curator/internal/store/postgres"
)

// runUpload is the upload unit of work: fetch the staged payload, extract
// text, chunk, classify code blocks, then embed and store.
func (o *Orchestrator) runUpload(ctx context.Context, rep *reporter, source postgres.Source, req UploadRequest) (map[string]any, error) {
	if err := o.checkpoint(ctx, rep.id); err != nil {
		return nil, err
	}
	rep.stage(progress.StatusReading, 0, fmt.Sprintf("reading %s", req.Filename), nil)
	data, err := o.objects.Fetch(ctx, req.ObjectName)
	if err != nil {
		return nil, fmt.Errorf("fetch staged upload: %w", err)
	}
	rep.stage(progress.StatusReading, 100, fmt.Sprintf("read %d bytes", len(data)), nil)

	if err := o.checkpoint(ctx, rep.id); err != nil {
		return nil, err
	}
	rep.stage(progress.StatusTextExtraction, 0, "extracting text", nil)
	res, err := o.extractor.Extract(data, req.Filename, req.ContentType)
	if err != nil {
		return nil, err
	}
	rep.stage(progress.StatusTextExtraction, 100,
		fmt.Sprintf("extracted %s as %s", req.Filename, res.Format),
		map[string]any{"format": res.Format})

	if err := o.checkpoint(ctx, rep.id); err != nil {
		return nil, err
	}
	var chunks []docChunk
	for i, c := range o.chunkText(res.Text) {
		chunks = append(chunks, docChunk{
			URL:      req.Filename,
			Position: i,
			Content:  c,
			Words:    countWords(c),
		})
	}
	rep.stage(progress.StatusChunking, 100, fmt.Sprintf("%d chunks", len(chunks)), nil)

	if err := o.checkpoint(ctx, rep.id); err != nil {
		return nil, err
	}
	accepted, totalBlocks := o.classifyText(res.Text, req.Filename)
	rep.stage(progress.StatusCodeExtraction, 100,
		fmt.Sprintf("%d of %d code blocks accepted", len(accepted), totalBlocks), nil)
	if len(accepted) == 0 {
		o.warnZeroAccepted(rep.id, totalBlocks)
	}

	words, err := o.storeContent(ctx, rep, source, chunks, accepted)
	if err != nil {
		return nil, err
	}

	// The staged object is only needed until the content is persisted.
	if err := o.objects.Remove(context.WithoutCancel(ctx), req.ObjectName); err != nil {
		o.logger.Warn("remove staged upload",
			slog.String("operation_id", rep.id),
			slog.String("object", req.ObjectName),
			slog.String("error", err.Error()))
	}

	return map[string]any{
		"source_id":         source.ID.String(),
		"format":            res.Format,
		"chunks_stored":     len(chunks),
		"code_blocks_found": totalBlocks,
		"accepted_count":    len(accepted),
		"word_count":        words,
	}, nil
}
