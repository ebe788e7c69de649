package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Queries holds hand-written pgx queries over the curator schema.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to a transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// Source is one ingested content source (a crawl root or an uploaded file).
type Source struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	URI       string    `json:"uri"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateSourceParams struct {
	Kind string
	Name string
	URI  string
}

func (q *Queries) CreateSource(ctx context.Context, arg CreateSourceParams) (Source, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO sources (id, kind, name, uri)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, kind, name, uri, word_count, created_at, updated_at`,
		uuid.New(), arg.Kind, arg.Name, arg.URI)

	var s Source
	err := row.Scan(&s.ID, &s.Kind, &s.Name, &s.URI, &s.WordCount, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (q *Queries) GetSource(ctx context.Context, id uuid.UUID) (Source, error) {
	row := q.db.QueryRow(ctx,
		`SELECT id, kind, name, uri, word_count, created_at, updated_at
		 FROM sources WHERE id = $1`, id)

	var s Source
	err := row.Scan(&s.ID, &s.Kind, &s.Name, &s.URI, &s.WordCount, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// UpdateSourceWordCount records the total word count once extraction is done.
func (q *Queries) UpdateSourceWordCount(ctx context.Context, id uuid.UUID, words int) error {
	_, err := q.db.Exec(ctx,
		`UPDATE sources SET word_count = $2, updated_at = now() WHERE id = $1`,
		id, words)
	return err
}

// DeleteSourceContent removes previously stored chunks and code blocks for a
// source, so a re-run replaces rather than duplicates content.
func (q *Queries) DeleteSourceContent(ctx context.Context, id uuid.UUID) error {
	if _, err := q.db.Exec(ctx, `DELETE FROM chunks WHERE source_id = $1`, id); err != nil {
		return err
	}
	_, err := q.db.Exec(ctx, `DELETE FROM code_blocks WHERE source_id = $1`, id)
	return err
}
