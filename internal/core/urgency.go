package core

import (
	"regexp"
	"strconv"
	"strings"
)

// UrgencyKeyword pairs a literal keyword with its additive weight.
type UrgencyKeyword struct {
	Word  string
	Score int
}

// DefaultUrgencyKeywords returns the built-in keyword table. Order matters:
// the extracted-keyword list in results follows table order.
func DefaultUrgencyKeywords() []UrgencyKeyword {
	return []UrgencyKeyword{
		{"urgent", 10},
		{"asap", 10},
		{"immediate", 9},
		{"deadline", 8},
		{"important", 7},
		{"critical", 9},
		{"emergency", 10},
		{"today", 6},
		{"now", 8},
		{"required", 7},
	}
}

// DefaultLowUrgencyPhrases returns the phrases that short-circuit urgency
// scoring to a low value.
func DefaultLowUrgencyPhrases() []string {
	return []string{
		"not important", "not urgent", "not critical", "whenever you want",
		"whenever you can", "no rush", "low priority", "not a priority",
		"take your time", "when you get a chance", "no hurry",
	}
}

// DefaultStrongUrgencyPhrases returns the phrases that floor urgency near
// the maximum.
func DefaultStrongUrgencyPhrases() []string {
	return []string{
		"very important", "really important", "extremely important", "highly important",
		"as soon as possible", "asap", "send it as soon as possible",
		"need it urgently", "top priority", "highest priority", "critically important",
	}
}

var (
	reNotImportant = regexp.MustCompile(`\bnot\s+important\b`)
	reNotUrgent    = regexp.MustCompile(`\bnot\s+urgent\b`)
	reNearDeadline = regexp.MustCompile(`(?:in\s+(\d+)\s+day|(\d+)\s+day\s+(?:left|remaining|to\s+go|until)|due\s+in\s+(\d+)\s+day)`)
	reInDays       = regexp.MustCompile(`in\s+(\d+)\s+days?`)
	reDaysAway     = regexp.MustCompile(`(\d+)\s+days?\s+(?:from\s+now|away|left|remaining)`)
	reSoonWord     = regexp.MustCompile(`\b(?:today|tomorrow|this\s+week)\b`)
	reInHours      = regexp.MustCompile(`in\s+(\d+)\s+hours?`)
	reAfterDays    = regexp.MustCompile(`after\s+(\d+)\s+days?`)
)

// UrgencyExtractor derives a normalized urgency signal from email text
// using keyword weights, de-escalation/intensifier phrases and deadline
// proximity. The tables are fixed at construction.
type UrgencyExtractor struct {
	keywords        []UrgencyKeyword
	maxKeywordScore int
	lowPhrases      []string
	strongPhrases   []string
}

// NewUrgencyExtractor creates an extractor with the default tables.
func NewUrgencyExtractor() *UrgencyExtractor {
	return NewUrgencyExtractorWithTables(
		DefaultUrgencyKeywords(),
		DefaultLowUrgencyPhrases(),
		DefaultStrongUrgencyPhrases(),
	)
}

// NewUrgencyExtractorWithTables creates an extractor with caller-supplied
// tables, mainly for tests.
func NewUrgencyExtractorWithTables(keywords []UrgencyKeyword, lowPhrases, strongPhrases []string) *UrgencyExtractor {
	maxScore := 0
	for _, kw := range keywords {
		if kw.Score > maxScore {
			maxScore = kw.Score
		}
	}
	return &UrgencyExtractor{
		keywords:        keywords,
		maxKeywordScore: maxScore,
		lowPhrases:      lowPhrases,
		strongPhrases:   strongPhrases,
	}
}

// MatchesLowUrgency reports whether the lowercased text contains a
// de-escalation phrase.
func (e *UrgencyExtractor) MatchesLowUrgency(text string) bool {
	for _, phrase := range e.lowPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// MatchesStrongUrgency reports whether the lowercased text contains an
// intensifier phrase.
func (e *UrgencyExtractor) MatchesStrongUrgency(text string) bool {
	for _, phrase := range e.strongPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// ExtractKeywords returns every table keyword literally present in the
// text, in table order. The negation guard does not apply here: the list
// is for display, not scoring.
func (e *UrgencyExtractor) ExtractKeywords(subject, body string) []string {
	text := strings.ToLower(subject + " " + body)
	found := []string{}
	for _, kw := range e.keywords {
		if strings.Contains(text, kw.Word) {
			found = append(found, kw.Word)
		}
	}
	return found
}

// ScoreUrgency computes the urgency signal in [0,1] for an email along
// with the matched keywords. De-escalation phrases short-circuit to 0.2
// before any keyword or temporal scoring happens, so they win over
// conflicting intensifiers.
func (e *UrgencyExtractor) ScoreUrgency(subject, body string) (float64, []string) {
	text := strings.ToLower(subject + " " + body)
	matched := e.ExtractKeywords(subject, body)

	if e.MatchesLowUrgency(text) {
		return 0.2, matched
	}

	strongBoost := 0.0
	if e.MatchesStrongUrgency(text) {
		strongBoost = 0.95
	}

	negatedImportant := reNotImportant.MatchString(text)
	negatedUrgent := reNotUrgent.MatchString(text)

	timeUrgency, timeModifier := e.temporalSignals(text)

	totalScore := 0
	for _, kw := range e.keywords {
		if !strings.Contains(text, kw.Word) {
			continue
		}
		// Don't count bare keywords that the text explicitly negates
		if kw.Word == "important" && negatedImportant {
			continue
		}
		if kw.Word == "urgent" && negatedUrgent {
			continue
		}
		totalScore += kw.Score
	}

	base := 0.0
	if totalScore > 0 {
		base = float64(totalScore) / float64(e.maxKeywordScore*2)
		if base > 1.0 {
			base = 1.0
		}
		base *= timeModifier
	}

	final := base
	if t := timeUrgency * timeModifier; t > final {
		final = t
	}
	if strongBoost > final {
		final = strongBoost
	}
	return clamp01(final), matched
}

// temporalSignals scans for deadline cues. Near deadlines produce an
// urgency floor; far-future mentions produce a dampening modifier. When
// several day counts appear, the nearest one wins the floor and the
// farthest "after N days" wins the dampening.
func (e *UrgencyExtractor) temporalSignals(text string) (timeUrgency, timeModifier float64) {
	timeModifier = 1.0

	var allDays []int
	for _, m := range reInDays.FindAllStringSubmatch(text, -1) {
		if d, err := strconv.Atoi(m[1]); err == nil {
			allDays = append(allDays, d)
		}
	}
	for _, m := range reDaysAway.FindAllStringSubmatch(text, -1) {
		if d, err := strconv.Atoi(m[1]); err == nil {
			allDays = append(allDays, d)
		}
	}
	if m := reNearDeadline.FindStringSubmatch(text); m != nil {
		for _, g := range m[1:] {
			if g == "" {
				continue
			}
			if d, err := strconv.Atoi(g); err == nil {
				allDays = append(allDays, d)
				break
			}
		}
	}

	if len(allDays) > 0 {
		d := allDays[0]
		for _, v := range allDays[1:] {
			if v < d {
				d = v
			}
		}
		switch {
		case d <= 1:
			timeUrgency = 0.95
		case d <= 2:
			timeUrgency = 0.85
		case d <= 3:
			timeUrgency = 0.75
		case d <= 7:
			timeUrgency = 0.6
		case d <= 14:
			timeModifier = 0.8
		case d <= 30:
			timeModifier = 0.6
		case d <= 50:
			timeModifier = 0.4
		default:
			timeModifier = 0.2
		}
	}

	if reSoonWord.MatchString(text) && timeUrgency < 0.9 {
		timeUrgency = 0.9
	}
	if m := reInHours.FindStringSubmatch(text); m != nil {
		if h, err := strconv.Atoi(m[1]); err == nil && h <= 24 && timeUrgency < 0.9 {
			timeUrgency = 0.9
		}
	}

	// "after N days" forces the modifier down regardless of nearer cues
	for _, m := range reAfterDays.FindAllStringSubmatch(text, -1) {
		d, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch {
		case d >= 50:
			timeModifier = minFloat(timeModifier, 0.2)
		case d >= 30:
			timeModifier = minFloat(timeModifier, 0.4)
		case d >= 14:
			timeModifier = minFloat(timeModifier, 0.6)
		}
	}

	return timeUrgency, timeModifier
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
