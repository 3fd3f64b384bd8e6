package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/campusvoice/insight-engine/engine/cluster"
	"github.com/campusvoice/insight-engine/engine/domain"
	"github.com/campusvoice/insight-engine/engine/embed"
	"github.com/campusvoice/insight-engine/engine/enrich"
)

func testDeps() Deps {
	return Deps{
		Embedder: embed.NewHandle(func() (embed.Provider, error) { return embed.NewLocalProvider(), nil }),
		Logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
		Workers:  2,
		Seed:     7,
	}
}

func writeRecord(t *testing.T, dir string, rec *domain.InterviewRecord) string {
	t.Helper()
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, rec.InterviewID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fixtureFiles(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()

	rec1 := &domain.InterviewRecord{
		InterviewID: "int-001",
		Interviewee: "Riley",
		Analysis: domain.Analysis{
			Summaries: []domain.Summary{
				{Category: "collegeExperience", SummaryText: "Found a research lab early on."},
			},
			Themes: []domain.Theme{
				{ID: "t1", Title: "Mentorship", Description: "Faculty mentorship shaped the degree."},
			},
			Quotes: []domain.Quote{
				{ID: "q1", QuoteText: "My PI believed in me first.", Tags: []string{"growth", "solo"}},
				{ID: "q2", QuoteText: "The basement lab was home.", Tags: []string{"growth"}},
			},
		},
	}
	rec2 := &domain.InterviewRecord{
		InterviewID: "int-002",
		Analysis: domain.Analysis{
			Quotes: []domain.Quote{
				{ID: "q1", QuoteText: "Office hours saved my semester.", Tags: []string{"growth"}},
			},
		},
	}
	rec3 := &domain.InterviewRecord{
		InterviewID: "int-003",
		Analysis: domain.Analysis{
			Summaries: []domain.Summary{
				{Category: "personal", SummaryText: "Commuted two hours each way."},
			},
		},
	}

	return []string{
		writeRecord(t, dir, rec1),
		writeRecord(t, dir, rec2),
		writeRecord(t, dir, rec3),
	}
}

func TestRun_EndToEnd(t *testing.T) {
	s, err := Run(context.Background(), fixtureFiles(t), testDeps())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if s.Manifest.TotalInterviews != 3 || s.Manifest.FailedFiles != 0 {
		t.Fatalf("want 3 processed / 0 failed, got %d / %d",
			s.Manifest.TotalInterviews, s.Manifest.FailedFiles)
	}
	if s.Manifest.EmbeddingDimension != domain.EmbeddingDim {
		t.Fatalf("manifest dimension %d", s.Manifest.EmbeddingDimension)
	}

	// Two records carry quotes, so the quotes set has two entries.
	if got := len(s.Indices.Categories[enrich.CategoryQuotes]); got != 2 {
		t.Fatalf("quotes index should have 2 entries, got %d", got)
	}
	// Summaries come from records 1 and 3.
	if got := len(s.Indices.Categories[enrich.CategorySummary]); got != 2 {
		t.Fatalf("summary index should have 2 entries, got %d", got)
	}

	// "growth" spans two records and gets clustered; "solo" does not.
	if _, ok := s.Clusters.Tags["growth"]; !ok {
		t.Fatal("growth tag set should be clustered")
	}
	if _, ok := s.Clusters.Tags["solo"]; ok {
		t.Fatal("single-record tag set must be skipped")
	}
	// Every category set has a (possibly empty) cluster array.
	for _, cat := range enrich.Categories {
		if _, ok := s.Clusters.Categories[cat]; !ok {
			t.Fatalf("missing cluster set for category %q", cat)
		}
	}

	// 3 interviews + 1 theme + 3 quotes.
	if s.Manifest.SearchDocuments != 7 {
		t.Fatalf("want 7 search documents, got %d", s.Manifest.SearchDocuments)
	}
	if len(s.Search.Documents) != s.Manifest.SearchDocuments {
		t.Fatal("manifest document count disagrees with the index")
	}

	if s.Manifest.RunID == "" {
		t.Fatal("manifest must carry a run id")
	}
	if len(s.Manifest.Tags) != 2 {
		t.Fatalf("tag universe should be [growth solo], got %v", s.Manifest.Tags)
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	files := fixtureFiles(t)

	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	noID := writeRecord(t, dir, &domain.InterviewRecord{
		Analysis: domain.Analysis{
			Quotes: []domain.Quote{{ID: "q1", QuoteText: "orphaned"}},
		},
	})

	s, err := Run(context.Background(), append(files, bad, noID), testDeps())
	if err != nil {
		t.Fatalf("per-file failures must not abort the run: %v", err)
	}
	if s.Manifest.TotalInterviews != 3 {
		t.Fatalf("valid records should survive, got %d", s.Manifest.TotalInterviews)
	}
	if s.Manifest.FailedFiles != 2 {
		t.Fatalf("want 2 failures, got %d", s.Manifest.FailedFiles)
	}
	for _, f := range s.Failed {
		if f.File == "" || f.Reason == "" {
			t.Fatalf("failure entry missing detail: %+v", f)
		}
		if filepath.IsAbs(f.File) {
			t.Fatalf("failure should record the base name, got %q", f.File)
		}
	}
}

func TestRun_EmptyInput(t *testing.T) {
	s, err := Run(context.Background(), nil, testDeps())
	if err != nil {
		t.Fatalf("empty input should run clean: %v", err)
	}
	if s.Manifest.TotalInterviews != 0 || s.Manifest.SearchDocuments != 0 {
		t.Fatalf("unexpected totals: %+v", s.Manifest)
	}
	if s.Records == nil || s.Manifest.Tags == nil {
		t.Fatal("empty run must still marshal arrays, not null")
	}
}

func TestRun_SeededDeterminism(t *testing.T) {
	files := fixtureFiles(t)
	a, err := Run(context.Background(), files, testDeps())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Run(context.Background(), files, testDeps())
	if err != nil {
		t.Fatal(err)
	}

	sizes := func(cs []cluster.Cluster) []int {
		out := make([]int, len(cs))
		for i, c := range cs {
			out[i] = c.Size
		}
		return out
	}
	for _, cat := range enrich.Categories {
		sa, sb := sizes(a.Clusters.Categories[cat]), sizes(b.Clusters.Categories[cat])
		if len(sa) != len(sb) {
			t.Fatalf("category %q cluster counts differ", cat)
		}
		for i := range sa {
			if sa[i] != sb[i] {
				t.Fatalf("category %q not deterministic under a fixed seed", cat)
			}
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	s, err := Run(context.Background(), fixtureFiles(t), testDeps())
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "nested", "out")
	if err := s.WriteArtifacts(out); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	for _, name := range []string{InterviewsFile, VectorIndicesFile, ClustersFile, SearchIndexFile, MetadataFile} {
		path := filepath.Join(out, name)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
		if !json.Valid(data) {
			t.Fatalf("artifact %s is not valid JSON", name)
		}
	}

	// No temp files left behind.
	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 5 {
		t.Fatalf("want exactly 5 artifacts, found %d entries", len(entries))
	}

	// Clusters artifact mirrors the index shape: category keys + tags.
	data, err := os.ReadFile(filepath.Join(out, ClustersFile))
	if err != nil {
		t.Fatal(err)
	}
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(data, &shape); err != nil {
		t.Fatal(err)
	}
	for _, key := range append(append([]string{}, enrich.Categories...), "tags") {
		if _, ok := shape[key]; !ok {
			t.Fatalf("clusters artifact missing key %q", key)
		}
	}
}
