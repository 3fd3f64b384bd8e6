// Package search flattens enriched records into a searchable corpus: one
// document per interview, theme, and quote, backed by an inverted full-text
// index and a parallel embedding list for semantic lookup.
package search

import (
	"strings"

	"github.com/campusvoice/insight-engine/engine/domain"
	"github.com/campusvoice/insight-engine/engine/enrich"
)

// Document types.
const (
	TypeInterview = "interview"
	TypeTheme     = "theme"
	TypeQuote     = "quote"
)

// Document is one full-text searchable unit. The id embeds the type and
// parent ids so results re-join to their source record.
type Document struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Title        string   `json:"title,omitempty"`
	Content      string   `json:"content"`
	Demographics string   `json:"demographics,omitempty"`
	Category     string   `json:"category,omitempty"`
	Sentiment    string   `json:"sentiment,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// EmbeddingMeta ties a semantic entry back to its source.
type EmbeddingMeta struct {
	Type        string   `json:"type"`
	InterviewID string   `json:"interviewId"`
	ThemeID     string   `json:"themeId,omitempty"`
	QuoteID     string   `json:"quoteId,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// EmbeddingEntry is one semantic search candidate. Only documents whose source
// carried a non-empty embedding appear here; the rest stay full-text-only.
type EmbeddingEntry struct {
	ID        string        `json:"id"`
	Embedding []float32     `json:"embedding"`
	Metadata  EmbeddingMeta `json:"metadata"`
}

// Index bundles the three search artifacts persisted as search-index.json.
type Index struct {
	FullText   *FullTextIndex   `json:"index"`
	Documents  []Document       `json:"documents"`
	Embeddings []EmbeddingEntry `json:"embeddings"`
}

// Build flattens records into the search corpus. Exactly one document is
// emitted per interview, per theme, and per quote.
func Build(records []*domain.InterviewRecord) *Index {
	ix := &Index{
		FullText:   NewFullTextIndex(),
		Documents:  []Document{},
		Embeddings: []EmbeddingEntry{},
	}

	for _, rec := range records {
		ix.addInterview(rec)
		for i := range rec.Analysis.Themes {
			ix.addTheme(rec, &rec.Analysis.Themes[i])
		}
		for i := range rec.Analysis.Quotes {
			ix.addQuote(rec, &rec.Analysis.Quotes[i])
		}
	}
	return ix
}

func (ix *Index) addInterview(rec *domain.InterviewRecord) {
	var texts []string
	for _, s := range rec.Analysis.Summaries {
		if s.SummaryText != "" {
			texts = append(texts, s.SummaryText)
		}
	}
	doc := Document{
		ID:           TypeInterview + "-" + rec.InterviewID,
		Type:         TypeInterview,
		Title:        rec.DisplayName(),
		Content:      strings.Join(texts, " "),
		Demographics: rec.Demographics.String(),
	}
	ix.add(doc)

	if emb := rec.CategoryEmbeddings[enrich.CategorySummary]; len(emb) > 0 {
		ix.Embeddings = append(ix.Embeddings, EmbeddingEntry{
			ID:        doc.ID,
			Embedding: emb,
			Metadata:  EmbeddingMeta{Type: TypeInterview, InterviewID: rec.InterviewID},
		})
	}
}

func (ix *Index) addTheme(rec *domain.InterviewRecord, th *domain.Theme) {
	doc := Document{
		ID:       TypeTheme + "-" + rec.InterviewID + "-" + th.ID,
		Type:     TypeTheme,
		Title:    th.Title,
		Content:  th.Description,
		Category: th.Category,
	}
	ix.add(doc)

	if len(th.Embedding) > 0 {
		ix.Embeddings = append(ix.Embeddings, EmbeddingEntry{
			ID:        doc.ID,
			Embedding: th.Embedding,
			Metadata:  EmbeddingMeta{Type: TypeTheme, InterviewID: rec.InterviewID, ThemeID: th.ID},
		})
	}
}

func (ix *Index) addQuote(rec *domain.InterviewRecord, q *domain.Quote) {
	content := q.QuoteText
	if len(q.Tags) > 0 {
		content += " " + strings.Join(q.Tags, " ")
	}
	doc := Document{
		ID:        TypeQuote + "-" + rec.InterviewID + "-" + q.ID,
		Type:      TypeQuote,
		Content:   content,
		Sentiment: q.Sentiment,
		Tags:      q.Tags,
	}
	ix.add(doc)

	if len(q.Embedding) > 0 {
		ix.Embeddings = append(ix.Embeddings, EmbeddingEntry{
			ID:        doc.ID,
			Embedding: q.Embedding,
			Metadata:  EmbeddingMeta{Type: TypeQuote, InterviewID: rec.InterviewID, QuoteID: q.ID, Tags: q.Tags},
		})
	}
}

func (ix *Index) add(doc Document) {
	ix.Documents = append(ix.Documents, doc)
	ix.FullText.Add(doc)
}

// Document returns the document for an id, for re-joining search results.
func (ix *Index) Document(id string) (Document, bool) {
	for _, d := range ix.Documents {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}
