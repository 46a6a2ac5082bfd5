package index

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ckirubhananth/Agent-Sangam/internal/segment"
)

// Posting is one occurrence of a token: the segment it appears in and
// its absolute byte offset in the document text.
type Posting struct {
	SegmentID int
	Offset    int
}

// Index is a per-document inverted token index. It is built exactly
// once, after segmentation; it is immutable afterwards.
type Index struct {
	postings map[string][]Posting
	textLen  int
}

// Tokenize lowercases and splits on any non-letter, non-digit rune.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Build indexes every token occurrence in the given segments. Postings
// for a token are ordered by document offset.
func Build(text string, segments []segment.Segment) *Index {
	ix := &Index{
		postings: make(map[string][]Posting),
		textLen:  len(text),
	}
	for _, seg := range segments {
		for _, occ := range tokenOffsets(seg.Text) {
			ix.postings[occ.token] = append(ix.postings[occ.token], Posting{
				SegmentID: seg.ID,
				Offset:    seg.Start + occ.offset,
			})
		}
	}
	return ix
}

// Builder is the injectable form of Build for the ingestion pipeline.
type Builder struct{}

func (Builder) Build(text string, segments []segment.Segment) (*Index, error) {
	return Build(text, segments), nil
}

// Lookup returns the postings for a token, or nil.
func (ix *Index) Lookup(token string) []Posting {
	return ix.postings[strings.ToLower(token)]
}

// Tokens returns the number of distinct tokens indexed.
func (ix *Index) Tokens() int {
	return len(ix.postings)
}

// Snippet is a fixed-radius character window around a search match.
type Snippet struct {
	Text    string `json:"text"`
	Offset  int    `json:"offset"`
	Matches int    `json:"matches"`
}

// Search tokenizes the query, looks up each token and returns up to
// max snippets: windows of the given radius around match occurrences,
// ordered by descending match count inside the window, then ascending
// document offset. Windows overlapping an already selected one are
// skipped. An empty query yields no results.
func (ix *Index) Search(text, query string, max, radius int) []Snippet {
	tokens := Tokenize(query)
	if len(tokens) == 0 || max <= 0 {
		return nil
	}
	if radius <= 0 {
		radius = 160
	}

	// Collect distinct match offsets across all query tokens.
	seen := make(map[int]bool)
	var offsets []int
	for _, tok := range tokens {
		for _, p := range ix.postings[tok] {
			if !seen[p.Offset] {
				seen[p.Offset] = true
				offsets = append(offsets, p.Offset)
			}
		}
	}
	if len(offsets) == 0 {
		return nil
	}
	sort.Ints(offsets)

	type window struct {
		start, end int
		matches    int
		offset     int
	}
	windows := make([]window, 0, len(offsets))
	for _, off := range offsets {
		start := off - radius
		if start < 0 {
			start = 0
		}
		end := off + radius
		if end > len(text) {
			end = len(text)
		}
		start = snapRuneStart(text, start)
		if end < len(text) {
			end = snapRuneStart(text, end)
		}
		matches := 0
		for _, o := range offsets {
			if o >= start && o < end {
				matches++
			}
		}
		windows = append(windows, window{start: start, end: end, matches: matches, offset: off})
	}

	// Rank: match count desc, then document offset asc.
	sort.SliceStable(windows, func(i, j int) bool {
		if windows[i].matches != windows[j].matches {
			return windows[i].matches > windows[j].matches
		}
		return windows[i].offset < windows[j].offset
	})

	var out []Snippet
	var taken []window
	for _, w := range windows {
		if len(out) >= max {
			break
		}
		overlaps := false
		for _, t := range taken {
			if w.start < t.end && t.start < w.end {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		taken = append(taken, w)
		out = append(out, Snippet{
			Text:    text[w.start:w.end],
			Offset:  w.offset,
			Matches: w.matches,
		})
	}
	return out
}

// snapRuneStart walks a byte offset back to the start of the rune it
// lands in, so window edges never split a multibyte character.
func snapRuneStart(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// tokenOccurrence is a token with its byte offset within a segment.
type tokenOccurrence struct {
	token  string
	offset int
}

// tokenOffsets scans text for token runs, recording start offsets.
func tokenOffsets(text string) []tokenOccurrence {
	var out []tokenOccurrence
	start := -1
	flush := func(end int) {
		if start >= 0 {
			out = append(out, tokenOccurrence{
				token:  strings.ToLower(text[start:end]),
				offset: start,
			})
			start = -1
		}
	}
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
		} else {
			flush(i)
		}
	}
	flush(len(text))
	return out
}
