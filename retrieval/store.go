// Package retrieval provides the semantic document index: a sqlite-vec
// backed vector store and the retrieval tool adapter over it.
package retrieval

import (
	"context"
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/alanpramil7/agent-v1/llm"
)

// DefaultDimensions matches text-embedding-3-small.
const DefaultDimensions = 1536

// Document is one indexed passage.
type Document struct {
	ID      int64
	Content string
	Source  string
}

// Store persists documents next to their embeddings and answers top-k
// nearest-neighbor queries.
type Store struct {
	db       *sql.DB
	embedder llm.Embedder
	dim      int
}

// Open opens (or creates) a vector store at path. dim must match the
// embedder's output width; 0 selects DefaultDimensions.
func Open(path string, embedder llm.Embedder, dim int) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("retrieval: embedder is required")
	}
	if dim <= 0 {
		dim = DefaultDimensions
	}

	sqlite_vec.Auto()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY,
			content TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT ''
		)`,
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_documents USING vec0(embedding float[%d])`, dim),
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init vector store: %w", err)
		}
	}

	return &Store{db: db, embedder: embedder, dim: dim}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Count returns the number of indexed documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// Add embeds the documents and stores content and vectors in one
// transaction.
func (s *Store) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, doc := range docs {
		if len(vectors[i]) != s.dim {
			return fmt.Errorf("embedding has %d dimensions, store expects %d", len(vectors[i]), s.dim)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO documents (content, source) VALUES (?, ?)`, doc.Content, doc.Source)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}

		blob, err := sqlite_vec.SerializeFloat32(vectors[i])
		if err != nil {
			return fmt.Errorf("serialize embedding: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vec_documents (rowid, embedding) VALUES (?, ?)`, id, blob); err != nil {
			return fmt.Errorf("insert embedding: %w", err)
		}
	}

	return tx.Commit()
}

// Search embeds the query and returns up to k documents ordered by vector
// distance. A store with no matches returns an empty slice, not an error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	blob, err := sqlite_vec.SerializeFloat32(vectors[0])
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.content, d.source
		FROM vec_documents v
		JOIN documents d ON d.id = v.rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance`, blob, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Content, &doc.Source); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
