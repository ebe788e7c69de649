// Package ingestion runs crawl and upload operations asynchronously: each
// submission gets an operation id immediately, a background unit of work, a
// cancellable handle in the registry, and progress reporting through the
// tracker until a terminal state is reached.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/maraichr/curator/internal/chunker"
	"github.com/maraichr/curator/internal/classify"
	"github.com/maraichr/curator/internal/crawler"
	"github.com/maraichr/curator/internal/embedding"
	"github.com/maraichr/curator/internal/extract"
	"github.com/maraichr/curator/internal/progress"
	"github.com/maraichr/curator/internal/store/postgres"
)

// ContentStore is the persistence surface the pipelines need. Satisfied by
// *store.Store.
type ContentStore interface {
	CreateSource(ctx context.Context, arg postgres.CreateSourceParams) (postgres.Source, error)
	DeleteSourceContent(ctx context.Context, id uuid.UUID) error
	UpdateSourceWordCount(ctx context.Context, id uuid.UUID, words int) error
	InsertChunksBatch(ctx context.Context, rows []postgres.ChunkRow) error
	InsertCodeBlocksBatch(ctx context.Context, rows []postgres.CodeBlockRow) error
}

// ObjectStore fetches and cleans up staged upload payloads. Satisfied by
// *minio.Client.
type ObjectStore interface {
	Fetch(ctx context.Context, objectName string) ([]byte, error)
	Remove(ctx context.Context, objectName string) error
}

type Orchestrator struct {
	tracker    *progress.Tracker
	registry   *Registry
	crawler    *crawler.Crawler
	extractor  *extract.Extractor
	classifier *classify.Classifier
	embedder   embedding.Embedder
	store      ContentStore
	objects    ObjectStore
	chunkCfg   chunker.Config
	logger     *slog.Logger
}

func NewOrchestrator(
	tracker *progress.Tracker,
	registry *Registry,
	cr *crawler.Crawler,
	ex *extract.Extractor,
	cl *classify.Classifier,
	em embedding.Embedder,
	st ContentStore,
	ob ObjectStore,
	chunkCfg chunker.Config,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		tracker:    tracker,
		registry:   registry,
		crawler:    cr,
		extractor:  ex,
		classifier: cl,
		embedder:   em,
		store:      st,
		objects:    ob,
		chunkCfg:   chunkCfg,
		logger:     logger,
	}
}

// CrawlRequest describes one crawl submission.
type CrawlRequest struct {
	URL      string
	MaxPages int
	MaxDepth int
}

// UploadRequest describes one upload submission. The payload has already been
// staged in object storage under ObjectName.
type UploadRequest struct {
	ObjectName  string
	Filename    string
	ContentType string
	Tags        []string
}

// SubmitCrawl starts a crawl operation and returns its id. The operation is
// visible in the tracker before this returns.
func (o *Orchestrator) SubmitCrawl(source postgres.Source, req CrawlRequest) string {
	id := uuid.New().String()
	o.tracker.Start(id, progress.KindCrawl, map[string]any{
		"url":       req.URL,
		"source_id": source.ID.String(),
	})
	o.launch(id, progress.KindCrawl, func(ctx context.Context, rep *reporter) (map[string]any, error) {
		return o.runCrawl(ctx, rep, source, req)
	})
	return id
}

// SubmitUpload starts an upload operation and returns its id.
func (o *Orchestrator) SubmitUpload(source postgres.Source, req UploadRequest) string {
	id := uuid.New().String()
	extra := map[string]any{
		"filename":  req.Filename,
		"source_id": source.ID.String(),
	}
	if len(req.Tags) > 0 {
		extra["tags"] = req.Tags
	}
	o.tracker.Start(id, progress.KindUpload, extra)
	o.launch(id, progress.KindUpload, func(ctx context.Context, rep *reporter) (map[string]any, error) {
		return o.runUpload(ctx, rep, source, req)
	})
	return id
}

// Cancel requests cancellation of a running operation. Returns false when no
// unit of work is registered under id, which includes operations that already
// finished; callers treat that as a no-op, not a failure.
func (o *Orchestrator) Cancel(id string) bool {
	return o.registry.Cancel(id)
}

type pipelineFunc func(ctx context.Context, rep *reporter) (map[string]any, error)

func (o *Orchestrator) launch(id string, kind progress.Kind, pipeline pipelineFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	o.registry.Register(id, cancel)
	go o.run(ctx, cancel, id, kind, pipeline)
}

// run drives one unit of work to a terminal state. The registry entry is
// removed on every exit path, after the terminal state is recorded, so a
// stale cancel can never touch a later operation reusing the id slot.
func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, id string, kind progress.Kind, pipeline pipelineFunc) {
	defer cancel()
	defer o.registry.Remove(id)
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("ingestion panic",
				slog.String("operation_id", id),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			o.tracker.Fail(id, "internal error", fmt.Sprintf("%v", r))
		}
	}()

	rep := &reporter{tracker: o.tracker, mapper: progress.NewStageMapper(kind), id: id}

	result, err := pipeline(ctx, rep)
	switch {
	case err == nil:
		o.tracker.Complete(id, result)
	case errors.Is(err, context.Canceled) || o.registry.Cancelled(id):
		o.tracker.Cancel(id)
	case extract.IsUserError(err):
		o.tracker.Fail(id, err.Error(), "")
	default:
		o.logger.Error("ingestion failed",
			slog.String("operation_id", id),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
		o.tracker.Fail(id, "ingestion failed", err.Error())
	}
}

// checkpoint is polled before every expensive sub-step. It maps a registry
// cancellation onto context.Canceled so both signals converge on one error.
func (o *Orchestrator) checkpoint(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.registry.Cancelled(id) {
		return context.Canceled
	}
	return nil
}
