// Package pipeline orchestrates one processing run: parse, validate, and
// enrich every input file, build the vector and search indices, cluster every
// named set, and persist the output artifacts plus a manifest.
package pipeline

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/campusvoice/insight-engine/engine/cluster"
	"github.com/campusvoice/insight-engine/engine/domain"
	"github.com/campusvoice/insight-engine/engine/embed"
	"github.com/campusvoice/insight-engine/engine/enrich"
	"github.com/campusvoice/insight-engine/engine/index"
	"github.com/campusvoice/insight-engine/engine/search"
	"github.com/campusvoice/insight-engine/pkg/fn"
)

// MinTagRecords is the minimum number of contributing records for a tag set
// to be clustered at all.
const MinTagRecords = 2

// Deps holds everything a run needs. Only Embedder is required.
type Deps struct {
	Embedder embed.Embedder
	Logger   *slog.Logger

	// Workers bounds per-file enrichment parallelism; <= 0 means one
	// goroutine per file.
	Workers int

	// ClusterK is the cluster count for category sets; <= 0 means
	// cluster.DefaultK.
	ClusterK int

	// Seed drives k-means++ seeding. 0 means seed from the clock.
	Seed int64
}

// FailedFile records one excluded input for the manifest.
type FailedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Manifest summarizes a run for the UI and for CI gating.
type Manifest struct {
	RunID              string       `json:"runId"`
	ProcessedAt        time.Time    `json:"processedAt"`
	TotalInterviews    int          `json:"totalInterviews"`
	FailedFiles        int          `json:"failedFiles"`
	Failures           []FailedFile `json:"failures,omitempty"`
	ClusterTypes       []string     `json:"clusterTypes"`
	SearchDocuments    int          `json:"searchDocuments"`
	EmbeddingDimension int          `json:"embeddingDimension"`
	Tags               []string     `json:"tags"`
}

// ClusterResults holds cluster arrays per category set plus per tag.
type ClusterResults struct {
	Categories map[string][]cluster.Cluster
	Tags       map[string][]cluster.Cluster
}

// MarshalJSON mirrors the vector-indices shape: category sets at the top
// level, tag sets nested under "tags".
func (cr *ClusterResults) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(cr.Categories)+1)
	for name, clusters := range cr.Categories {
		out[name] = clusters
	}
	out["tags"] = cr.Tags
	return json.Marshal(out)
}

// Summary is the full output of one run.
type Summary struct {
	Records  []*domain.InterviewRecord
	Failed   []FailedFile
	Indices  *index.Indices
	Clusters *ClusterResults
	Search   *search.Index
	Manifest Manifest
}

// Run processes the given input files. Per-file failures are recorded and
// skipped, never aborting the batch; the returned error is reserved for
// structural problems. Callers signal aggregate failure from
// Summary.Manifest.FailedFiles.
func Run(ctx context.Context, files []string, deps Deps) (*Summary, error) {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	seed := deps.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	k := deps.ClusterK
	if k <= 0 {
		k = cluster.DefaultK
	}

	records, failed := enrichFiles(ctx, files, deps, log)
	if records == nil {
		records = []*domain.InterviewRecord{}
	}
	for _, f := range failed {
		log.Error("file excluded", "file", f.File, "reason", f.Reason)
	}

	ix := index.Build(records)
	clusters := clusterAll(ix, k, seed)
	searchIx := search.Build(records)

	clusterTypes := make([]string, len(enrich.Categories))
	copy(clusterTypes, enrich.Categories)

	tags := ix.TagNames
	if tags == nil {
		tags = []string{}
	}

	summary := &Summary{
		Records:  records,
		Failed:   failed,
		Indices:  ix,
		Clusters: clusters,
		Search:   searchIx,
		Manifest: Manifest{
			RunID:              uuid.NewString(),
			ProcessedAt:        time.Now().UTC(),
			TotalInterviews:    len(records),
			FailedFiles:        len(failed),
			Failures:           failed,
			ClusterTypes:       clusterTypes,
			SearchDocuments:    len(searchIx.Documents),
			EmbeddingDimension: domain.EmbeddingDim,
			Tags:               tags,
		},
	}

	log.Info("run complete",
		"interviews", len(records),
		"failed", len(failed),
		"documents", len(searchIx.Documents),
		"tags", len(ix.TagNames),
	)
	return summary, nil
}

// enrichFiles runs parse → validate → enrich per file with bounded
// parallelism and partitions the outcomes.
func enrichFiles(ctx context.Context, files []string, deps Deps, log *slog.Logger) ([]*domain.InterviewRecord, []FailedFile) {
	enricher := enrich.New(deps.Embedder, log)

	parse := fn.Stage[string, *domain.InterviewRecord](func(_ context.Context, file string) fn.Result[*domain.InterviewRecord] {
		data, err := os.ReadFile(file)
		if err != nil {
			return fn.Err[*domain.InterviewRecord](err)
		}
		var rec domain.InterviewRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fn.Err[*domain.InterviewRecord](err)
		}
		return fn.Ok(&rec)
	})

	validate := fn.Stage[*domain.InterviewRecord, *domain.InterviewRecord](func(_ context.Context, rec *domain.InterviewRecord) fn.Result[*domain.InterviewRecord] {
		if err := domain.ValidateRecord(rec); err != nil {
			return fn.Err[*domain.InterviewRecord](err)
		}
		return fn.Ok(rec)
	})

	enrichStage := fn.Stage[*domain.InterviewRecord, *domain.InterviewRecord](func(ctx context.Context, rec *domain.InterviewRecord) fn.Result[*domain.InterviewRecord] {
		if err := enricher.Enrich(ctx, rec); err != nil {
			return fn.Err[*domain.InterviewRecord](err)
		}
		return fn.Ok(rec)
	})

	perFile := fn.TracedStage("pipeline.file",
		fn.Then(parse, fn.Then(validate, enrichStage)))

	results := fn.ParMapResult(files, deps.Workers, func(file string) fn.Result[*domain.InterviewRecord] {
		return perFile(ctx, file)
	})

	var records []*domain.InterviewRecord
	var failed []FailedFile
	for i, r := range results {
		rec, err := r.Unwrap()
		if err != nil {
			failed = append(failed, FailedFile{
				File:   filepath.Base(files[i]),
				Reason: err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}
	return records, failed
}

// clusterAll runs the engine over every named set. Sets are independent, so
// they cluster concurrently, each with its own deterministically derived
// engine. Tags with fewer than MinTagRecords contributors are skipped.
func clusterAll(ix *index.Indices, k int, seed int64) *ClusterResults {
	type job struct {
		name    string
		tag     bool
		entries []index.Entry
		k       int
	}

	var jobs []job
	for _, cat := range enrich.Categories {
		jobs = append(jobs, job{name: cat, entries: ix.Categories[cat], k: k})
	}
	for _, tag := range ix.TagNames {
		entries := ix.Tags[tag]
		if len(entries) < MinTagRecords {
			continue
		}
		jobs = append(jobs, job{name: tag, tag: true, entries: entries, k: cluster.TagK(len(entries))})
	}

	type outcome struct {
		job      job
		clusters []cluster.Cluster
	}
	outcomes := fn.ParMapResult(jobs, len(jobs), func(j job) fn.Result[outcome] {
		eng := cluster.NewSeeded(seed ^ nameSeed(j.name))
		return fn.Ok(outcome{job: j, clusters: eng.Cluster(j.entries, j.k)})
	})

	results := &ClusterResults{
		Categories: make(map[string][]cluster.Cluster, len(enrich.Categories)),
		Tags:       make(map[string][]cluster.Cluster),
	}
	for _, r := range outcomes {
		o := r.Must()
		if o.job.tag {
			results.Tags[o.job.name] = o.clusters
		} else {
			results.Categories[o.job.name] = o.clusters
		}
	}
	return results
}

// nameSeed derives a stable per-set seed offset so concurrent sets don't
// share a random source.
func nameSeed(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}
