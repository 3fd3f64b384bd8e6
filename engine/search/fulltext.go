package search

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Indexed fields and their score boosts.
var fieldBoosts = map[string]float64{
	"title":        2.0,
	"content":      1.0,
	"demographics": 1.0,
	"category":     1.2,
	"sentiment":    1.0,
	"tags":         1.5,
}

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// stopwords are dropped at index and query time.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "if": {}, "in": {}, "into": {}, "is": {},
	"it": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {}, "such": {},
	"that": {}, "the": {}, "their": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "will": {}, "with": {},
}

// Posting records one term occurrence set within one document field.
type Posting struct {
	DocID string `json:"docId"`
	Field string `json:"field"`
	Count int    `json:"count"`
}

// FullTextIndex is a JSON-serializable inverted index over the fixed document
// field set. It ships inline inside search-index.json for the explorer UI.
type FullTextIndex struct {
	DocCount int                  `json:"docCount"`
	Lengths  map[string]int       `json:"lengths"`
	Postings map[string][]Posting `json:"postings"`
}

// NewFullTextIndex creates an empty index.
func NewFullTextIndex() *FullTextIndex {
	return &FullTextIndex{
		Lengths:  make(map[string]int),
		Postings: make(map[string][]Posting),
	}
}

// Add indexes one document across the fixed field set.
func (ix *FullTextIndex) Add(doc Document) {
	fields := map[string]string{
		"title":        doc.Title,
		"content":      doc.Content,
		"demographics": doc.Demographics,
		"category":     doc.Category,
		"sentiment":    doc.Sentiment,
		"tags":         strings.Join(doc.Tags, " "),
	}

	ix.DocCount++
	length := 0
	for field, text := range fields {
		counts := make(map[string]int)
		for _, term := range tokenize(text) {
			counts[term]++
			length++
		}
		for term, count := range counts {
			ix.Postings[term] = append(ix.Postings[term], Posting{
				DocID: doc.ID,
				Field: field,
				Count: count,
			})
		}
	}
	ix.Lengths[doc.ID] = length
}

// FullTextResult is one ranked keyword hit.
type FullTextResult struct {
	DocID string  `json:"docId"`
	Score float64 `json:"score"`
}

// Search ranks documents for a keyword query by boosted tf-idf. limit <= 0
// means no cap.
func (ix *FullTextIndex) Search(query string, limit int) []FullTextResult {
	terms := tokenize(query)
	if len(terms) == 0 || ix.DocCount == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, term := range terms {
		postings := ix.Postings[term]
		if len(postings) == 0 {
			continue
		}
		df := make(map[string]struct{}, len(postings))
		for _, p := range postings {
			df[p.DocID] = struct{}{}
		}
		idf := math.Log(1 + float64(ix.DocCount)/float64(1+len(df)))
		for _, p := range postings {
			boost := fieldBoosts[p.Field]
			tf := 1 + math.Log(float64(p.Count))
			scores[p.DocID] += boost * tf * idf
		}
	}
	if len(scores) == 0 {
		return nil
	}

	results := make([]FullTextResult, 0, len(scores))
	for id, score := range scores {
		results = append(results, FullTextResult{DocID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := stopwords[tok]; !stop {
			out = append(out, tok)
		}
	}
	return out
}
