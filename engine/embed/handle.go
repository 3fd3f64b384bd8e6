package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/campusvoice/insight-engine/engine/domain"
)

// Handle is the process-wide embedding entry point. The backing Provider is
// opened on first use, exactly once even under concurrent first calls, and
// lives for the rest of the process. Results are cached by content hash so a
// text repeated across items and aggregates is embedded once per run.
type Handle struct {
	open func() (Provider, error)

	once sync.Once
	p    Provider
	err  error

	mu    sync.RWMutex
	cache map[string][]float32
}

// NewHandle wraps a provider factory in a lazy handle. The factory runs at
// most once; its error is sticky and returned to every subsequent caller.
func NewHandle(open func() (Provider, error)) *Handle {
	return &Handle{open: open, cache: make(map[string][]float32)}
}

// Embed returns the L2-normalized vector for text. Blank text yields an empty
// vector without touching the model. Failures come back as
// *domain.EmbeddingError and mean the calling record must be excluded.
func (h *Handle) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	key := contentKey(text)
	h.mu.RLock()
	cached, ok := h.cache[key]
	h.mu.RUnlock()
	if ok {
		return cached, nil
	}

	h.once.Do(func() { h.p, h.err = h.open() })
	if h.err != nil {
		return nil, domain.NewEmbeddingError("model", h.err)
	}

	vec, err := h.p.Embed(ctx, text)
	if err != nil {
		return nil, domain.NewEmbeddingError("text", err)
	}
	if len(vec) != domain.EmbeddingDim {
		return nil, domain.NewEmbeddingError("text",
			fmt.Errorf("got %d dimensions, want %d", len(vec), domain.EmbeddingDim))
	}
	normalize(vec)

	h.mu.Lock()
	h.cache[key] = vec
	h.mu.Unlock()
	return vec, nil
}

// Dimensions returns the contract dimension without forcing model load.
func (h *Handle) Dimensions() int { return domain.EmbeddingDim }

func contentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// normalize scales vec to unit L2 length in place. Zero vectors are left as-is.
func normalize(vec []float32) {
	var sq float64
	for _, v := range vec {
		sq += float64(v) * float64(v)
	}
	if sq == 0 {
		return
	}
	inv := 1 / math.Sqrt(sq)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
}
