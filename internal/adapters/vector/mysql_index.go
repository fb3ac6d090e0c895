package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/email-prioritizer/internal/core"
	"go.uber.org/zap"
)

// MySQLIndex is a MySQL implementation of the VectorIndex interface.
type MySQLIndex struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLIndex creates a new MySQL vector index
func NewMySQLIndex(dsn string, logger *zap.Logger) (*MySQLIndex, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS email_vectors (
			id VARCHAR(64) PRIMARY KEY,
			embedding MEDIUMTEXT NOT NULL,
			metadata TEXT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLIndex{
		db:     db,
		logger: logger,
	}, nil
}

// Upsert stores or replaces a vector with its metadata
func (m *MySQLIndex) Upsert(ctx context.Context, id string, vec []float32, metadata map[string]any) error {
	embeddingJSON, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO email_vectors (id, embedding, metadata)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			embedding = VALUES(embedding),
			metadata = VALUES(metadata)
	`, id, string(embeddingJSON), string(metadataJSON))
	if err != nil {
		return fmt.Errorf("failed to upsert vector: %w", err)
	}
	return nil
}

// Query returns the topK most similar entries, best first
func (m *MySQLIndex) Query(ctx context.Context, vec []float32, topK int) ([]core.SimilarEmail, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT id, embedding, metadata FROM email_vectors`)
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
			m.logger.Warn("Skipping undecodable embedding", zap.String("id", id), zap.Error(err))
			continue
		}

		score, err := Cosine(vec, stored)
		if err != nil {
			m.logger.Debug("Skipping incompatible vector", zap.String("id", id), zap.Error(err))
			continue
		}

		metadata := map[string]any{}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &metadata); err != nil {
				m.logger.Warn("Skipping undecodable metadata", zap.String("id", id), zap.Error(err))
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
func (m *MySQLIndex) Delete(ctx context.Context, id string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM email_vectors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vector: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (m *MySQLIndex) Close() error {
	return m.db.Close()
}
