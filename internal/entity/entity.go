package entity

import (
	"regexp"
	"strconv"
	"strings"
)

// Category classifies an extracted entity.
type Category string

const (
	CategoryPerson   Category = "person"
	CategoryLocation Category = "location"
	CategoryDate     Category = "date"
	CategoryNumber   Category = "number"
	CategoryOther    Category = "other"
)

// Entity is a literal value found in document text.
type Entity struct {
	Category Category `json:"category"`
	Value    string   `json:"value"`
	Offset   int      `json:"offset"`
}

var (
	// Two or more capitalized words in sequence.
	nameRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)
	// dd/mm/yyyy, dd-mm-yy and bare 4-digit years.
	dateRe = regexp.MustCompile(`\b(?:\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{4})\b`)
	// Numbers with optional thousands grouping and decimals.
	numberRe = regexp.MustCompile(`\b\d+(?:,\d{3})*(?:\.\d+)?\b`)
)

// Capitalized runs ending in one of these are treated as locations
// rather than person names.
var locationSuffixes = []string{
	"City", "Island", "River", "Street", "Avenue", "Park",
	"Valley", "Bay", "Mountain", "Lake", "County", "Beach",
}

// Scanner extracts entities from text using lexical patterns only.
// No external model is invoked.
type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan returns entities deduplicated by (category, value), in
// first-seen order.
func (s *Scanner) Scan(text string) []Entity {
	type key struct {
		cat   Category
		value string
	}
	seen := make(map[key]bool)
	var out []Entity

	add := func(cat Category, value string, offset int) {
		k := key{cat, value}
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, Entity{Category: cat, Value: value, Offset: offset})
	}

	for _, m := range nameRe.FindAllStringIndex(text, -1) {
		value := text[m[0]:m[1]]
		if len(value) <= 3 {
			continue
		}
		cat := CategoryPerson
		if hasLocationSuffix(value) {
			cat = CategoryLocation
		}
		add(cat, value, m[0])
	}

	dateSpans := dateRe.FindAllStringIndex(text, -1)
	for _, m := range dateSpans {
		add(CategoryDate, text[m[0]:m[1]], m[0])
	}

	for _, m := range numberRe.FindAllStringIndex(text, -1) {
		value := text[m[0]:m[1]]
		if coveredBy(dateSpans, m[0]) {
			continue
		}
		if n, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64); err != nil || n <= 100 {
			continue
		}
		add(CategoryNumber, value, m[0])
	}

	return out
}

// Group buckets entities by category, preserving first-seen order
// within each bucket.
func Group(entities []Entity) map[Category][]string {
	out := make(map[Category][]string)
	for _, e := range entities {
		out[e.Category] = append(out[e.Category], e.Value)
	}
	return out
}

func hasLocationSuffix(value string) bool {
	for _, suffix := range locationSuffixes {
		if strings.HasSuffix(value, suffix) {
			return true
		}
	}
	return false
}

func coveredBy(spans [][]int, offset int) bool {
	for _, sp := range spans {
		if offset >= sp[0] && offset < sp[1] {
			return true
		}
	}
	return false
}
