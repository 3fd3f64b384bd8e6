package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"
	// DefaultModel produces 384-dimension vectors, matching domain.EmbeddingDim.
	DefaultModel = "all-minilm:l6-v2"
	// DefaultTimeout bounds a single embedding request.
	DefaultTimeout = 30 * time.Second
	// defaultRate caps embed calls per second against a local Ollama.
	defaultRate = 20
)

// OllamaProvider generates embeddings via Ollama's HTTP API.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithBaseURL sets the Ollama API base URL.
func WithBaseURL(url string) OllamaOption {
	return func(p *OllamaProvider) { p.baseURL = url }
}

// WithModel sets the embedding model name.
func WithModel(model string) OllamaOption {
	return func(p *OllamaProvider) { p.model = model }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) OllamaOption {
	return func(p *OllamaProvider) { p.client.Timeout = d }
}

// WithRateLimit caps embed calls at n per second with the same burst.
func WithRateLimit(n int) OllamaOption {
	return func(p *OllamaProvider) { p.limiter = rate.NewLimiter(rate.Limit(n), n) }
}

// NewOllamaProvider creates an Ollama embedding provider.
func NewOllamaProvider(opts ...OllamaOption) *OllamaProvider {
	p := &OllamaProvider{
		baseURL: DefaultOllamaURL,
		model:   DefaultModel,
		client:  &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRate), defaultRate),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type ollamaEmbedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResp struct {
	Embedding []float64 `json:"embedding"`
}

// Embed calls Ollama's /api/embeddings endpoint.
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, _ := json.Marshal(ollamaEmbedReq{Model: p.model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embed: status %d", resp.StatusCode)
	}

	var result ollamaEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", err)
	}

	out := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}

// ModelName returns the configured model.
func (p *OllamaProvider) ModelName() string { return p.model }

// Dimensions returns the vector length the model produces.
func (p *OllamaProvider) Dimensions() int { return 384 }

// IsAvailable checks that Ollama is reachable.
func (p *OllamaProvider) IsAvailable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama is not running: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama is not running: status %d", resp.StatusCode)
	}
	return nil
}
