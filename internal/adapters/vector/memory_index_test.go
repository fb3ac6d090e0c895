package vector

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestMemoryIndexQuery(t *testing.T) {
	index := NewMemoryIndex(zap.NewNop())
	ctx := context.Background()

	if err := index.Upsert(ctx, "exact", []float32{1, 0, 0}, map[string]any{"priority_score": 90.0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := index.Upsert(ctx, "close", []float32{0.9, 0.1, 0}, map[string]any{"priority_score": 60.0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := index.Upsert(ctx, "orthogonal", []float32{0, 0, 1}, nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	matches, err := index.Query(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].ID != "exact" || matches[1].ID != "close" {
		t.Errorf("matches ordered %q, %q; want exact, close", matches[0].ID, matches[1].ID)
	}
	if matches[0].Score < 0.999 {
		t.Errorf("exact match score = %v, want ~1", matches[0].Score)
	}
	if got := matches[0].Metadata["priority_score"]; got != 90.0 {
		t.Errorf("metadata priority_score = %v, want 90", got)
	}
}

func TestMemoryIndexUpsertReplaces(t *testing.T) {
	index := NewMemoryIndex(zap.NewNop())
	ctx := context.Background()

	index.Upsert(ctx, "a", []float32{1, 0}, map[string]any{"priority_score": 10.0})
	index.Upsert(ctx, "a", []float32{1, 0}, map[string]any{"priority_score": 95.0})

	matches, err := index.Query(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if got := matches[0].Metadata["priority_score"]; got != 95.0 {
		t.Errorf("metadata priority_score = %v, want 95", got)
	}
}

func TestMemoryIndexDelete(t *testing.T) {
	index := NewMemoryIndex(zap.NewNop())
	ctx := context.Background()

	index.Upsert(ctx, "a", []float32{1, 0}, nil)
	if err := index.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	matches, err := index.Query(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches after delete, want 0", len(matches))
	}
}

func TestMemoryIndexSkipsMismatchedDimensions(t *testing.T) {
	index := NewMemoryIndex(zap.NewNop())
	ctx := context.Background()

	index.Upsert(ctx, "old-model", []float32{1, 0, 0, 0}, nil)
	index.Upsert(ctx, "current", []float32{1, 0}, nil)

	matches, err := index.Query(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "current" {
		t.Errorf("expected only the compatible vector, got %v", matches)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr bool
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1, false},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1, false},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, false},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0, false},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0, true},
		{"empty", nil, nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Cosine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}
