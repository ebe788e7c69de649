package postgres

// content.go contains the bulk insert paths for extracted content. Chunk and
// code-block rows arrive in batches of up to a few hundred per operation, so
// each batch goes through a single pgx pipelined Batch rather than one
// round-trip per row.

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"
)

// ChunkRow is one stored text chunk with its embedding vector.
type ChunkRow struct {
	SourceID  uuid.UUID
	Position  int
	URL       string
	Content   string
	WordCount int
	Embedding pgvector.Vector
}

// CodeBlockRow is one accepted code block with its embedding vector.
type CodeBlockRow struct {
	SourceID   uuid.UUID
	URL        string
	Content    string
	Language   string
	Indicators int
	Embedding  pgvector.Vector
}

// InsertChunksBatch inserts chunk rows in a single pipelined batch.
func (q *Queries) InsertChunksBatch(ctx context.Context, rows []ChunkRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(
			`INSERT INTO chunks (id, source_id, position, url, content, word_count, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), r.SourceID, r.Position, r.URL, r.Content, r.WordCount, r.Embedding)
	}

	br := q.db.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertCodeBlocksBatch inserts accepted code blocks in a single pipelined batch.
func (q *Queries) InsertCodeBlocksBatch(ctx context.Context, rows []CodeBlockRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(
			`INSERT INTO code_blocks (id, source_id, url, content, language, indicator_count, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), r.SourceID, r.URL, r.Content, r.Language, r.Indicators, r.Embedding)
	}

	br := q.db.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
