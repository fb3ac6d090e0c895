package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/email-prioritizer/internal/core"
	"go.uber.org/zap"
)

// SQLiteIndex is a SQLite implementation of the VectorIndex interface.
// Embeddings and metadata are stored as JSON; similarity is computed
// in-process over all rows, which is fine for the corpus sizes a single
// mailbox produces.
type SQLiteIndex struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteIndex creates a new SQLite vector index
func NewSQLiteIndex(dbPath string, logger *zap.Logger) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS email_vectors (
			id TEXT PRIMARY KEY,
			embedding TEXT NOT NULL,
			metadata TEXT,
			updated_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteIndex{
		db:     db,
		logger: logger,
	}, nil
}

// Upsert stores or replaces a vector with its metadata
func (s *SQLiteIndex) Upsert(ctx context.Context, id string, vec []float32, metadata map[string]any) error {
	embeddingJSON, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO email_vectors (id, embedding, metadata, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			embedding = excluded.embedding,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, id, string(embeddingJSON), string(metadataJSON), time.Now().UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return fmt.Errorf("failed to upsert vector: %w", err)
	}
	return nil
}

// Query returns the topK most similar entries, best first
func (s *SQLiteIndex) Query(ctx context.Context, vec []float32, topK int) ([]core.SimilarEmail, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding, metadata FROM email_vectors`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var matches []core.SimilarEmail
	for rows.Next() {
		var id, embeddingJSON string
		var metadataJSON sql.NullString
		if err := rows.Scan(&id, &embeddingJSON, &metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}

		var stored []float32
		if err := json.Unmarshal([]byte(embeddingJSON), &stored); err != nil {
			s.logger.Warn("Skipping undecodable embedding", zap.String("id", id), zap.Error(err))
			continue
		}

		score, err := Cosine(vec, stored)
		if err != nil {
			s.logger.Debug("Skipping incompatible vector", zap.String("id", id), zap.Error(err))
			continue
		}

		metadata := map[string]any{}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &metadata); err != nil {
				s.logger.Warn("Skipping undecodable metadata", zap.String("id", id), zap.Error(err))
			}
		}

		matches = append(matches, core.SimilarEmail{ID: id, Score: score, Metadata: metadata})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vector rows: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Delete removes an entry
func (s *SQLiteIndex) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM email_vectors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vector: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
