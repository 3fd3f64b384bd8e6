// Package enrich populates every embeddable field of a validated interview
// record: per-item embeddings, the four category aggregates, and one
// aggregate per quote tag.
package enrich

import (
	"context"
	"log/slog"
	"strings"

	"github.com/campusvoice/insight-engine/engine/domain"
	"github.com/campusvoice/insight-engine/engine/embed"
	"github.com/campusvoice/insight-engine/pkg/fn"
)

// Fixed category aggregate names. These double as vector index set names and
// cluster type names downstream.
const (
	CategorySummary = "summary"
	CategoryThemes  = "themes"
	CategoryCollege = "collegeExperience"
	CategoryQuotes  = "quotes"
)

// Categories lists the fixed aggregates in canonical order.
var Categories = []string{CategorySummary, CategoryThemes, CategoryCollege, CategoryQuotes}

// Enricher fills missing embeddings on records. Safe for concurrent use as
// long as the Embedder is (the embed.Handle is).
type Enricher struct {
	embedder embed.Embedder
	logger   *slog.Logger
}

// New creates an Enricher.
func New(embedder embed.Embedder, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{embedder: embedder, logger: logger}
}

// Enrich mutates rec in place: items lacking a non-empty embedding get one
// from their text rule, then category and tag aggregates are derived. Items
// that already carry an embedding are left untouched, so re-running is
// idempotent. Any embedding failure aborts the record; the caller excludes it
// from all downstream artifacts.
func (e *Enricher) Enrich(ctx context.Context, rec *domain.InterviewRecord) error {
	if err := e.embedItems(ctx, rec); err != nil {
		return err
	}
	if err := e.embedCategories(ctx, rec); err != nil {
		return err
	}
	return e.embedTags(ctx, rec)
}

func (e *Enricher) embedItems(ctx context.Context, rec *domain.InterviewRecord) error {
	a := &rec.Analysis

	for i := range a.Summaries {
		if err := e.fill(ctx, "summary", &a.Summaries[i].Embedding, a.Summaries[i].SummaryText); err != nil {
			return err
		}
	}
	for i := range a.Themes {
		text := a.Themes[i].Title + " " + a.Themes[i].Description
		if err := e.fill(ctx, "theme", &a.Themes[i].Embedding, text); err != nil {
			return err
		}
	}
	for i := range a.Quotes {
		if err := e.fill(ctx, "quote", &a.Quotes[i].Embedding, a.Quotes[i].QuoteText); err != nil {
			return err
		}
	}
	for i := range a.Timeline {
		if err := e.fill(ctx, "timeline", &a.Timeline[i].Embedding, a.Timeline[i].EventDescription); err != nil {
			return err
		}
	}
	for i := range a.ImprovementAreas {
		text := a.ImprovementAreas[i].Title + " " + a.ImprovementAreas[i].Description
		if err := e.fill(ctx, "improvementArea", &a.ImprovementAreas[i].Embedding, text); err != nil {
			return err
		}
	}
	return nil
}

// fill embeds text into *dst unless dst already holds a non-empty vector.
func (e *Enricher) fill(ctx context.Context, field string, dst *[]float32, text string) error {
	if len(*dst) > 0 {
		return nil
	}
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return domain.NewEmbeddingError(field, err)
	}
	*dst = vec
	return nil
}

// embedCategories derives the four fixed aggregates from space-joined member
// texts. An empty concatenation yields an empty vector, not an error.
func (e *Enricher) embedCategories(ctx context.Context, rec *domain.InterviewRecord) error {
	a := rec.Analysis

	texts := map[string]string{
		CategorySummary: joinTexts(fn.Map(a.Summaries, func(s domain.Summary) string { return s.SummaryText })),
		CategoryThemes: joinTexts(fn.Map(a.Themes, func(t domain.Theme) string {
			return t.Title + " " + t.Description
		})),
		CategoryCollege: joinTexts(fn.Map(collegeSummaries(a.Summaries), func(s domain.Summary) string {
			return s.SummaryText
		})),
		CategoryQuotes: joinTexts(fn.Map(a.Quotes, func(q domain.Quote) string { return q.QuoteText })),
	}

	rec.CategoryEmbeddings = make(map[string][]float32, len(Categories))
	for _, cat := range Categories {
		vec, err := e.embedder.Embed(ctx, texts[cat])
		if err != nil {
			return domain.NewEmbeddingError("category:"+cat, err)
		}
		rec.CategoryEmbeddings[cat] = vec
	}
	return nil
}

// embedTags derives one aggregate per distinct tag over the quotes carrying it.
func (e *Enricher) embedTags(ctx context.Context, rec *domain.InterviewRecord) error {
	byTag := make(map[string][]string)
	var order []string
	for _, q := range rec.Analysis.Quotes {
		for _, tag := range q.Tags {
			if _, seen := byTag[tag]; !seen {
				order = append(order, tag)
			}
			byTag[tag] = append(byTag[tag], q.QuoteText)
		}
	}

	rec.TagEmbeddings = make(map[string][]float32, len(order))
	for _, tag := range order {
		vec, err := e.embedder.Embed(ctx, joinTexts(byTag[tag]))
		if err != nil {
			return domain.NewEmbeddingError("tag:"+tag, err)
		}
		rec.TagEmbeddings[tag] = vec
	}
	return nil
}

// collegeSummaries selects summaries whose category mentions college or
// academic life, case-insensitively.
func collegeSummaries(summaries []domain.Summary) []domain.Summary {
	return fn.Filter(summaries, func(s domain.Summary) bool {
		cat := strings.ToLower(s.Category)
		return strings.Contains(cat, "college") || strings.Contains(cat, "academic")
	})
}

func joinTexts(texts []string) string {
	nonEmpty := fn.Filter(texts, func(t string) bool { return strings.TrimSpace(t) != "" })
	return strings.Join(nonEmpty, " ")
}
