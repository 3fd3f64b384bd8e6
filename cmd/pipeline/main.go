// Command pipeline processes interview analysis JSON files into the artifacts
// the explorer UI reads: enriched records, vector indices, clusters, the
// search index, and a run manifest. One-shot by default; -watch keeps
// rescanning the input directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/campusvoice/insight-engine/engine/embed"
	"github.com/campusvoice/insight-engine/engine/pipeline"
	"github.com/campusvoice/insight-engine/pkg/config"
	"github.com/campusvoice/insight-engine/pkg/metrics"
)

var met = metrics.New()

var (
	mFilesProcessed = met.Counter("insight_pipeline_files_processed_total", "Input files processed")
	mFilesFailed    = met.Counter("insight_pipeline_files_failed_total", "Input files excluded by failure")
	mRuns           = met.Counter("insight_pipeline_runs_total", "Pipeline runs completed")
	mLastScan       = met.Gauge("insight_pipeline_last_scan_timestamp", "Epoch of last input scan")
	mRunDur         = met.Histogram("insight_pipeline_run_duration_seconds", "Full run duration", nil)
)

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "YAML config file")
		inputDir    = flag.String("in", "", "input directory (overrides config)")
		outputDir   = flag.String("out", "", "output directory (overrides config)")
		workers     = flag.Int("workers", 0, "enrichment parallelism (overrides config)")
		clusterK    = flag.Int("k", 0, "cluster count for category sets (overrides config)")
		seed        = flag.Int64("seed", 0, "k-means seed, 0 = from clock")
		embedderT   = flag.String("embedder", "", "embedding backend: ollama or local (overrides config)")
		ollamaURL   = flag.String("ollama", "", "Ollama base URL (overrides config)")
		ollamaModel = flag.String("model", "", "Ollama embedding model (overrides config)")
		watch       = flag.Bool("watch", false, "keep rescanning the input directory")
		interval    = flag.Duration("interval", 30*time.Second, "rescan interval in watch mode")
		stateFile   = flag.String("state", "", "processed-files state (watch mode, default <in>/.pipeline-state.json)")
		metricsPort = flag.Int("metrics-port", 0, "serve /metrics on this port (0 = off)")
	)
	flag.Parse()

	// .env is optional; flags and config still win.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "path", *configPath, "error", err)
		os.Exit(2)
	}
	applyOverride(&cfg.InputDir, *inputDir)
	applyOverride(&cfg.OutputDir, *outputDir)
	applyOverride(&cfg.Embedder.Type, *embedderT)
	applyOverride(&cfg.Embedder.Ollama.BaseURL, firstNonEmpty(*ollamaURL, os.Getenv("OLLAMA_URL")))
	applyOverride(&cfg.Embedder.Ollama.Model, firstNonEmpty(*ollamaModel, os.Getenv("OLLAMA_MODEL")))
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *clusterK > 0 {
		cfg.Clustering.K = *clusterK
	}
	if *seed != 0 {
		cfg.Clustering.Seed = *seed
	}

	if *metricsPort > 0 {
		met.ServeAsync(*metricsPort)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handle := embed.NewHandle(providerFactory(cfg, logger))
	deps := pipeline.Deps{
		Embedder: handle,
		Logger:   logger,
		Workers:  cfg.Workers,
		ClusterK: cfg.Clustering.K,
		Seed:     cfg.Clustering.Seed,
	}

	if !*watch {
		failed, err := runOnce(ctx, cfg, deps, logger)
		if err != nil {
			logger.Error("run failed", "error", err)
			os.Exit(2)
		}
		if failed > 0 {
			os.Exit(1)
		}
		return
	}

	state := *stateFile
	if state == "" {
		state = filepath.Join(cfg.InputDir, ".pipeline-state.json")
	}
	watchLoop(ctx, cfg, deps, logger, state, *interval)
}

// runOnce processes every input file and writes artifacts. Returns the number
// of failed files for exit-code gating.
func runOnce(ctx context.Context, cfg *config.AppConfig, deps pipeline.Deps, logger *slog.Logger) (int, error) {
	start := time.Now()
	mLastScan.Set(time.Now().Unix())

	files, err := discoverInputs(cfg.InputDir)
	if err != nil {
		return 0, err
	}
	logger.Info("processing", "dir", cfg.InputDir, "files", len(files))

	summary, err := pipeline.Run(ctx, files, deps)
	if err != nil {
		return 0, err
	}
	if err := summary.WriteArtifacts(cfg.OutputDir); err != nil {
		return 0, err
	}

	mFilesProcessed.Add(int64(len(files)))
	mFilesFailed.Add(int64(len(summary.Failed)))
	mRuns.Inc()
	mRunDur.Since(start)

	logger.Info("artifacts written",
		"dir", cfg.OutputDir,
		"interviews", summary.Manifest.TotalInterviews,
		"failed", summary.Manifest.FailedFiles,
	)
	return summary.Manifest.FailedFiles, nil
}

// watchLoop rescans the input directory, reprocessing when the file set
// changes. A file's state key includes its size so edits trigger a rerun.
func watchLoop(ctx context.Context, cfg *config.AppConfig, deps pipeline.Deps, logger *slog.Logger, stateFile string, interval time.Duration) {
	processed := loadState(stateFile)

	scan := func() {
		files, err := discoverInputs(cfg.InputDir)
		if err != nil {
			logger.Error("scan failed", "error", err)
			return
		}
		key := stateKey(files)
		if processed[key] {
			return
		}
		failed, err := runOnce(ctx, cfg, deps, logger)
		if err != nil {
			logger.Error("run failed", "error", err)
			return
		}
		// Failed files are retried on the next change, not the next tick.
		processed[key] = true
		saveState(stateFile, processed)
		if failed > 0 {
			logger.Warn("run had failures", "failed", failed)
		}
	}

	logger.Info("watching", "dir", cfg.InputDir, "interval", interval)
	scan()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			scan()
		}
	}
}

// discoverInputs lists the JSON inputs in dir, skipping dotfiles, in stable
// name order.
func discoverInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || name[0] == '.' {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func stateKey(files []string) string {
	var b strings.Builder
	for _, f := range files {
		info, err := os.Stat(f)
		size := int64(-1)
		if err == nil {
			size = info.Size()
		}
		fmt.Fprintf(&b, "%s:%d;", filepath.Base(f), size)
	}
	return b.String()
}

func loadState(path string) map[string]bool {
	state := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return state
	}
	_ = json.Unmarshal(data, &state)
	return state
}

func saveState(path string, state map[string]bool) {
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o644)
}

// providerFactory builds the embedding backend lazily; the model is only
// contacted on the first non-blank embed call.
func providerFactory(cfg *config.AppConfig, logger *slog.Logger) func() (embed.Provider, error) {
	return func() (embed.Provider, error) {
		switch cfg.Embedder.Type {
		case "local":
			logger.Info("using local embeddings")
			return embed.NewLocalProvider(), nil
		case "ollama", "":
			p := embed.NewOllamaProvider(
				embed.WithBaseURL(cfg.Embedder.Ollama.BaseURL),
				embed.WithModel(cfg.Embedder.Ollama.Model),
				embed.WithTimeout(time.Duration(cfg.Embedder.Ollama.TimeoutSecs)*time.Second),
				embed.WithRateLimit(cfg.Embedder.Ollama.RatePerSec),
			)
			logger.Info("using Ollama embeddings", "model", p.ModelName(), "url", cfg.Embedder.Ollama.BaseURL)
			return p, nil
		default:
			return nil, fmt.Errorf("unknown embedder type %q", cfg.Embedder.Type)
		}
	}
}

func applyOverride(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
