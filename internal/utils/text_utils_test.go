package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	tests := []struct {
		name    string
		text    string
		maxSize int
		wantCut bool
	}{
		{"within limit", "short text", 100, false},
		{"no limit", strings.Repeat("a", 500), 0, false},
		{"over limit", strings.Repeat("a", 500), 100, true},
		{"multibyte boundary", strings.Repeat("é", 100), 101, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tp.TruncateText(tt.text, tt.maxSize)
			if !tt.wantCut {
				if got != tt.text {
					t.Errorf("text should be unchanged, got %q", got)
				}
				return
			}
			if !strings.HasSuffix(got, "[... Content truncated due to size limits ...]") {
				t.Errorf("truncated text missing marker: %q", got)
			}
			if !utf8.ValidString(got) {
				t.Error("truncated text is not valid UTF-8")
			}
		})
	}
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	valid := "hello, wörld"
	if got := tp.SanitizeUTF8(valid); got != valid {
		t.Errorf("valid text should be unchanged, got %q", got)
	}

	invalid := "abc\xff\xfedef"
	got := tp.SanitizeUTF8(invalid)
	if !utf8.ValidString(got) {
		t.Errorf("sanitized text is not valid UTF-8: %q", got)
	}
	if !strings.Contains(got, "abc") || !strings.Contains(got, "def") {
		t.Errorf("sanitizing dropped valid content: %q", got)
	}
}
