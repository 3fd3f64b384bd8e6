// Command search queries a processed artifact directory: full-text keyword
// lookup against the inverted index, or semantic lookup by embedding the
// query and ranking cosine similarity. It mirrors what the explorer UI does
// in the browser.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/campusvoice/insight-engine/engine/embed"
	"github.com/campusvoice/insight-engine/engine/pipeline"
	"github.com/campusvoice/insight-engine/engine/search"
	"github.com/campusvoice/insight-engine/pkg/config"
)

func main() {
	var (
		dir        = flag.String("dir", "data/processed", "processed artifact directory")
		mode       = flag.String("mode", "text", "search mode: text or semantic")
		limit      = flag.Int("limit", 10, "max results")
		minSim     = flag.Float64("min-sim", search.DefaultMinSimilarity, "semantic similarity threshold")
		configPath = flag.String("config", "config.yaml", "YAML config file (for the embedder)")
	)
	flag.Parse()
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	query := strings.Join(flag.Args(), " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: search [-mode text|semantic] <query terms>")
		os.Exit(2)
	}

	ix, err := loadIndex(*dir)
	if err != nil {
		logger.Error("load search index", "error", err)
		os.Exit(2)
	}

	switch *mode {
	case "text":
		for _, r := range ix.FullText.Search(query, *limit) {
			printHit(ix, r.DocID, r.Score)
		}
	case "semantic":
		cfg, err := config.Load(*configPath)
		if err != nil {
			logger.Error("config load failed", "error", err)
			os.Exit(2)
		}
		vec, err := embedQuery(cfg, query)
		if err != nil {
			logger.Error("embed query", "error", err)
			os.Exit(2)
		}
		for _, r := range ix.Semantic(vec, *minSim, *limit) {
			printHit(ix, r.ID, r.Similarity)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}
}

func loadIndex(dir string) (*search.Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, pipeline.SearchIndexFile))
	if err != nil {
		return nil, err
	}
	var ix search.Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, err
	}
	if ix.FullText == nil {
		ix.FullText = search.NewFullTextIndex()
	}
	return &ix, nil
}

func embedQuery(cfg *config.AppConfig, query string) ([]float32, error) {
	handle := embed.NewHandle(func() (embed.Provider, error) {
		if cfg.Embedder.Type == "local" {
			return embed.NewLocalProvider(), nil
		}
		return embed.NewOllamaProvider(
			embed.WithBaseURL(cfg.Embedder.Ollama.BaseURL),
			embed.WithModel(cfg.Embedder.Ollama.Model),
			embed.WithTimeout(time.Duration(cfg.Embedder.Ollama.TimeoutSecs)*time.Second),
		), nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return handle.Embed(ctx, query)
}

func printHit(ix *search.Index, id string, score float64) {
	title := ""
	if doc, ok := ix.Document(id); ok {
		title = doc.Title
		if title == "" {
			title = snippet(doc.Content, 60)
		}
	}
	fmt.Printf("%.4f  %-40s  %s\n", score, id, title)
}

func snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
