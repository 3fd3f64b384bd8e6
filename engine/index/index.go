// Package index builds the named vector sets that feed clustering: four fixed
// category sets plus one set per tag observed anywhere in the corpus.
package index

import (
	"encoding/json"

	"github.com/campusvoice/insight-engine/engine/domain"
	"github.com/campusvoice/insight-engine/engine/enrich"
)

// Entry points one record's aggregate embedding at its position in the corpus.
type Entry struct {
	InterviewID string    `json:"interviewId"`
	Index       int       `json:"index"`
	Embedding   []float32 `json:"embedding"`
}

// Indices holds every named vector set for one pipeline run. Rebuilt from
// scratch each run, never updated incrementally.
type Indices struct {
	Categories map[string][]Entry
	Tags       map[string][]Entry

	// TagNames preserves first-observed tag order across the corpus.
	TagNames []string
}

// Build derives all vector sets from the enriched records. Entry order follows
// input record order; records whose aggregate is empty are simply absent from
// that set.
func Build(records []*domain.InterviewRecord) *Indices {
	ix := &Indices{
		Categories: make(map[string][]Entry, len(enrich.Categories)),
		Tags:       make(map[string][]Entry),
	}

	for _, cat := range enrich.Categories {
		ix.Categories[cat] = []Entry{}
	}

	// Tag universe is the union across the whole corpus, not per record.
	for _, rec := range records {
		for _, q := range rec.Analysis.Quotes {
			for _, tag := range q.Tags {
				if _, seen := ix.Tags[tag]; !seen {
					ix.Tags[tag] = []Entry{}
					ix.TagNames = append(ix.TagNames, tag)
				}
			}
		}
	}

	for pos, rec := range records {
		for _, cat := range enrich.Categories {
			if emb := rec.CategoryEmbeddings[cat]; len(emb) > 0 {
				ix.Categories[cat] = append(ix.Categories[cat], Entry{
					InterviewID: rec.InterviewID,
					Index:       pos,
					Embedding:   emb,
				})
			}
		}
		for _, tag := range ix.TagNames {
			if emb := rec.TagEmbeddings[tag]; len(emb) > 0 {
				ix.Tags[tag] = append(ix.Tags[tag], Entry{
					InterviewID: rec.InterviewID,
					Index:       pos,
					Embedding:   emb,
				})
			}
		}
	}
	return ix
}

// MarshalJSON flattens category sets to top-level keys with the tag sets
// nested under "tags", the shape the explorer UI reads.
func (ix *Indices) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(ix.Categories)+1)
	for name, entries := range ix.Categories {
		out[name] = entries
	}
	out["tags"] = ix.Tags
	return json.Marshal(out)
}
