package segment

import "strings"

// Segment is a contiguous span of document text with byte offsets into
// the full text. Segments are the unit of context scoring.
type Segment struct {
	ID    int    `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Segmenter groups sentences into fixed-size segments.
type Segmenter struct {
	sentencesPerSegment int
}

func NewSegmenter(sentencesPerSegment int) *Segmenter {
	if sentencesPerSegment <= 0 {
		sentencesPerSegment = 4
	}
	return &Segmenter{sentencesPerSegment: sentencesPerSegment}
}

// span is a sentence with its position in the source text.
type span struct {
	start, end int
}

// Segment splits text into sentence groups. Offsets are exact byte
// positions into the input, so Text == input[Start:End] for every
// segment and segments cover the trimmed input in order.
func (s *Segmenter) Segment(text string) []Segment {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var out []Segment
	for i := 0; i < len(sentences); i += s.sentencesPerSegment {
		end := i + s.sentencesPerSegment
		if end > len(sentences) {
			end = len(sentences)
		}
		start := sentences[i].start
		stop := sentences[end-1].end
		out = append(out, Segment{
			ID:    len(out),
			Start: start,
			End:   stop,
			Text:  text[start:stop],
		})
	}
	return out
}

// splitSentences finds sentence spans: runs of text ending in .!? followed
// by whitespace or end-of-input. Text with no terminator is one sentence.
func splitSentences(text string) []span {
	var spans []span
	start := -1
	for i := 0; i < len(text); i++ {
		c := text[i]
		if start < 0 {
			if !isSpace(c) {
				start = i
			}
			continue
		}
		if (c == '.' || c == '!' || c == '?') && (i+1 >= len(text) || isSpace(text[i+1])) {
			spans = append(spans, span{start: start, end: i + 1})
			start = -1
		}
	}
	if start >= 0 {
		end := len(text)
		for end > start && isSpace(text[end-1]) {
			end--
		}
		if end > start && strings.TrimSpace(text[start:end]) != "" {
			spans = append(spans, span{start: start, end: end})
		}
	}
	return spans
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
