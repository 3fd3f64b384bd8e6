package index

import (
	"encoding/json"
	"testing"

	"github.com/campusvoice/insight-engine/engine/domain"
	"github.com/campusvoice/insight-engine/engine/enrich"
)

func vec(fill float32) []float32 {
	v := make([]float32, domain.EmbeddingDim)
	for i := range v {
		v[i] = fill
	}
	return v
}

func enrichedRecord(id string, tags map[string][]float32, cats map[string][]float32) *domain.InterviewRecord {
	return &domain.InterviewRecord{
		InterviewID:        id,
		CategoryEmbeddings: cats,
		TagEmbeddings:      tags,
	}
}

func TestBuild_FixedSets(t *testing.T) {
	recs := []*domain.InterviewRecord{
		enrichedRecord("a", nil, map[string][]float32{
			enrich.CategorySummary: vec(0.1),
			enrich.CategoryQuotes:  vec(0.2),
		}),
		enrichedRecord("b", nil, map[string][]float32{
			enrich.CategorySummary: vec(0.3),
		}),
	}
	ix := Build(recs)

	if len(ix.Categories[enrich.CategorySummary]) != 2 {
		t.Fatalf("summary set should have 2 entries, got %d", len(ix.Categories[enrich.CategorySummary]))
	}
	if len(ix.Categories[enrich.CategoryQuotes]) != 1 {
		t.Fatalf("quotes set should have 1 entry, got %d", len(ix.Categories[enrich.CategoryQuotes]))
	}
	if len(ix.Categories[enrich.CategoryThemes]) != 0 {
		t.Fatal("themes set should be empty, not absent")
	}

	// Entry order follows input record order, with positional indices.
	set := ix.Categories[enrich.CategorySummary]
	if set[0].InterviewID != "a" || set[0].Index != 0 {
		t.Fatalf("unexpected first entry: %+v", set[0])
	}
	if set[1].InterviewID != "b" || set[1].Index != 1 {
		t.Fatalf("unexpected second entry: %+v", set[1])
	}
}

func TestBuild_TagUniverseIsCorpusWide(t *testing.T) {
	recA := enrichedRecord("a", map[string][]float32{"growth": vec(0.5)}, nil)
	recA.Analysis.Quotes = []domain.Quote{{ID: "q1", QuoteText: "x", Tags: []string{"growth"}}}

	recB := enrichedRecord("b", map[string][]float32{"support": vec(0.7)}, nil)
	recB.Analysis.Quotes = []domain.Quote{{ID: "q1", QuoteText: "y", Tags: []string{"support"}}}

	ix := Build([]*domain.InterviewRecord{recA, recB})

	if len(ix.TagNames) != 2 {
		t.Fatalf("tag universe should have 2 tags, got %v", ix.TagNames)
	}
	if len(ix.Tags["growth"]) != 1 || ix.Tags["growth"][0].InterviewID != "a" {
		t.Fatalf("growth set wrong: %+v", ix.Tags["growth"])
	}
	if len(ix.Tags["support"]) != 1 || ix.Tags["support"][0].InterviewID != "b" {
		t.Fatalf("support set wrong: %+v", ix.Tags["support"])
	}
}

func TestBuild_EmptyAggregateContributesNothing(t *testing.T) {
	rec := enrichedRecord("a", map[string][]float32{"growth": {}}, map[string][]float32{
		enrich.CategorySummary: {},
	})
	rec.Analysis.Quotes = []domain.Quote{{ID: "q1", QuoteText: "x", Tags: []string{"growth"}}}

	ix := Build([]*domain.InterviewRecord{rec})
	if len(ix.Categories[enrich.CategorySummary]) != 0 {
		t.Fatal("empty aggregate must not contribute an entry")
	}
	if len(ix.Tags["growth"]) != 0 {
		t.Fatal("empty tag aggregate must not contribute an entry")
	}
}

func TestIndices_MarshalShape(t *testing.T) {
	rec := enrichedRecord("a", map[string][]float32{"growth": vec(1)}, map[string][]float32{
		enrich.CategorySummary: vec(1),
	})
	rec.Analysis.Quotes = []domain.Quote{{ID: "q1", QuoteText: "x", Tags: []string{"growth"}}}

	data, err := json.Marshal(Build([]*domain.InterviewRecord{rec}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"summary", "themes", "collegeExperience", "quotes", "tags"} {
		if _, ok := out[key]; !ok {
			t.Fatalf("serialized indices missing key %q", key)
		}
	}
}
