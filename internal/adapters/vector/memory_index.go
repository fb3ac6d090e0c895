package vector

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/mikey/email-prioritizer/internal/core"
	"go.uber.org/zap"
)

// ErrDimensionMismatch is returned when a query vector has a different
// length than the stored vectors.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

type memoryEntry struct {
	vector   []float32
	metadata map[string]any
}

// MemoryIndex is an in-memory implementation of the VectorIndex interface.
// Vectors live for the process lifetime; similarity is exact cosine.
type MemoryIndex struct {
	entries map[string]*memoryEntry
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryIndex creates a new in-memory vector index
func NewMemoryIndex(logger *zap.Logger) *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string]*memoryEntry),
		logger:  logger,
	}
}

// Upsert stores or replaces a vector with its metadata
func (m *MemoryIndex) Upsert(ctx context.Context, id string, vec []float32, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]float32, len(vec))
	copy(stored, vec)
	m.entries[id] = &memoryEntry{vector: stored, metadata: metadata}
	return nil
}

// Query returns the topK most similar entries, best first
func (m *MemoryIndex) Query(ctx context.Context, vec []float32, topK int) ([]core.SimilarEmail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]core.SimilarEmail, 0, len(m.entries))
	for id, entry := range m.entries {
		score, err := Cosine(vec, entry.vector)
		if err != nil {
			// Stale entries from an older embedding model; skip them
			m.logger.Debug("Skipping incompatible vector", zap.String("id", id), zap.Error(err))
			continue
		}
		matches = append(matches, core.SimilarEmail{ID: id, Score: score, Metadata: entry.metadata})
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
func (m *MemoryIndex) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	return nil
}

// Cosine computes the cosine similarity of two vectors.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
