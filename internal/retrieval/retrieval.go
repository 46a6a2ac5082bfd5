package retrieval

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ckirubhananth/Agent-Sangam/internal/index"
	"github.com/ckirubhananth/Agent-Sangam/internal/segment"
)

// DefaultBudget caps the concatenated context returned for a question.
const DefaultBudget = 2000

// Ranker scores a segment against a tokenized question. It is a
// pluggable strategy so a different ranker can replace the lexical one
// without touching pipeline or tracker logic.
type Ranker interface {
	Score(queryTokens []string, seg segment.Segment) int
}

// TermOverlap counts query-token occurrences in the segment. Plain
// term frequency, no normalization by segment length.
type TermOverlap struct{}

func (TermOverlap) Score(queryTokens []string, seg segment.Segment) int {
	segTokens := index.Tokenize(seg.Text)
	counts := make(map[string]int, len(segTokens))
	for _, t := range segTokens {
		counts[t]++
	}
	score := 0
	for _, q := range queryTokens {
		score += counts[q]
	}
	return score
}

// Engine selects bounded, relevant text spans for a question.
type Engine struct {
	ranker Ranker
	budget int
}

func NewEngine(ranker Ranker, budget int) *Engine {
	if ranker == nil {
		ranker = TermOverlap{}
	}
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Engine{ranker: ranker, budget: budget}
}

const separator = "\n\n"

// Context scores every segment against the question, selects segments
// by descending score (ties broken by earlier offset) until the
// character budget is filled (the segment that would overflow is
// truncated, not skipped), then reorders the selection by document
// offset so the returned text preserves reading order. Output never
// exceeds the budget. A question matching nothing falls back to the
// head of the document.
func (e *Engine) Context(text string, segments []segment.Segment, question string) string {
	queryTokens := index.Tokenize(question)
	if len(queryTokens) == 0 || len(segments) == 0 {
		return head(text, e.budget)
	}

	type scored struct {
		seg   segment.Segment
		score int
	}
	ranked := make([]scored, 0, len(segments))
	for _, seg := range segments {
		if s := e.ranker.Score(queryTokens, seg); s > 0 {
			ranked = append(ranked, scored{seg: seg, score: s})
		}
	}
	if len(ranked) == 0 {
		return head(text, e.budget)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].seg.Start < ranked[j].seg.Start
	})

	// Greedy selection under the budget; separators count against it.
	var selected []segment.Segment
	remaining := e.budget
	for _, r := range ranked {
		need := len(r.seg.Text)
		if len(selected) > 0 {
			need += len(separator)
		}
		if need <= remaining {
			selected = append(selected, r.seg)
			remaining -= need
			continue
		}
		// Truncate the overflowing segment to fill what is left.
		room := remaining
		if len(selected) > 0 {
			room -= len(separator)
		}
		if room > 0 {
			trunc := r.seg
			trunc.Text = truncate(trunc.Text, room)
			if trunc.Text != "" {
				selected = append(selected, trunc)
			}
		}
		break
	}

	// Reading order, regardless of selection order.
	sort.Slice(selected, func(i, j int) bool { return selected[i].Start < selected[j].Start })

	parts := make([]string, len(selected))
	for i, seg := range selected {
		parts[i] = seg.Text
	}
	return strings.Join(parts, separator)
}

func head(text string, budget int) string {
	return truncate(text, budget)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
