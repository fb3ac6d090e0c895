package vip

import (
	"strings"

	"go.uber.org/zap"
)

// Directory holds the configured VIP senders whose importance overrides
// the rule-based sender heuristics. Entries may be full addresses
// ("ceo@company.com") or domains ("board.example").
type Directory struct {
	entries    []string
	importance float64
	logger     *zap.Logger
}

// NewDirectory creates a new VIP directory. importance is the value
// returned for every match.
func NewDirectory(entries []string, importance float64, logger *zap.Logger) *Directory {
	normalized := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" {
			normalized = append(normalized, entry)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized VIP sender directory",
			zap.Strings("entries", normalized),
			zap.Float64("importance", importance))
	}

	return &Directory{
		entries:    normalized,
		importance: importance,
		logger:     logger,
	}
}

// Lookup returns the configured importance when the sender matches an
// entry. Address entries match exactly; domain entries match the part
// after the "@".
func (d *Directory) Lookup(sender string) (float64, bool) {
	if len(d.entries) == 0 {
		return 0, false
	}

	sender = strings.ToLower(strings.TrimSpace(sender))
	domain := ""
	if parts := strings.Split(sender, "@"); len(parts) == 2 {
		domain = parts[1]
	}

	for _, entry := range d.entries {
		if strings.Contains(entry, "@") {
			if sender == entry {
				return d.importance, true
			}
			continue
		}
		if domain == entry {
			return d.importance, true
		}
	}
	return 0, false
}
