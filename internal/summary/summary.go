package summary

import (
	"math"
	"sort"
	"strings"

	"github.com/ckirubhananth/Agent-Sangam/internal/index"
	"github.com/ckirubhananth/Agent-Sangam/internal/segment"
)

// Summarizer produces a document-level summary by ranking sentences on
// token frequency. Purely lexical; deterministic for a given input.
type Summarizer struct {
	maxSentences int
	stopwords    map[string]struct{}
}

func NewSummarizer(maxSentences int) *Summarizer {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	return &Summarizer{
		maxSentences: maxSentences,
		stopwords:    stopwords(),
	}
}

// Summarize scores each sentence by the normalized frequency of its
// non-stopword tokens, damped by sqrt of sentence length, and returns
// the top sentences re-joined in original document order.
func (s *Summarizer) Summarize(text string) string {
	sentences := sentenceTexts(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	if len(sentences) <= s.maxSentences {
		return strings.Join(sentences, " ")
	}

	freq := make(map[string]float64)
	for _, sent := range sentences {
		for _, tok := range index.Tokenize(sent) {
			if _, skip := s.stopwords[tok]; skip {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type ranked struct {
		idx   int
		score float64
	}
	scores := make([]ranked, len(sentences))
	for i, sent := range sentences {
		tokens := index.Tokenize(sent)
		score := 0.0
		for _, tok := range tokens {
			score += freq[tok]
		}
		if n := float64(len(tokens)); n > 0 {
			score /= math.Sqrt(n)
		}
		scores[i] = ranked{idx: i, score: score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	keep := make([]int, s.maxSentences)
	for i := range keep {
		keep[i] = scores[i].idx
	}
	sort.Ints(keep)

	out := make([]string, len(keep))
	for i, idx := range keep {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " ")
}

func sentenceTexts(text string) []string {
	seg := segment.NewSegmenter(1)
	spans := seg.Segment(text)
	out := make([]string, 0, len(spans))
	for _, sp := range spans {
		if t := strings.TrimSpace(sp.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func stopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "than",
		"so", "such", "into", "about", "between", "through", "during",
		"before", "after", "above", "below", "out", "off", "own", "same",
		"too", "very", "can", "will", "just", "not", "no", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
