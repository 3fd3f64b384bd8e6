package embed

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/campusvoice/insight-engine/engine/domain"
)

// LocalProvider is a deterministic, model-free backend: each token hashes to a
// pseudo-random direction and the text's vector is the sum of its token
// directions. Texts sharing vocabulary land near each other, which is enough
// for offline runs and tests. Not a substitute for a real model in production.
type LocalProvider struct{}

// NewLocalProvider creates the deterministic local backend.
func NewLocalProvider() *LocalProvider { return &LocalProvider{} }

// Embed returns the token-hash vector for text. Never fails.
func (p *LocalProvider) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, domain.EmbeddingDim)
	for _, tok := range tokenizeLocal(text) {
		h := fnv.New64a()
		h.Write([]byte(tok))
		state := h.Sum64()
		for i := range vec {
			state = splitmix64(state)
			// Map the top 32 bits to [-1, 1).
			vec[i] += float32(int32(state>>32)) / (1 << 31)
		}
	}
	return vec, nil
}

// ModelName identifies the backend.
func (p *LocalProvider) ModelName() string { return "local-token-hash" }

// Dimensions returns the vector length.
func (p *LocalProvider) Dimensions() int { return domain.EmbeddingDim }

func tokenizeLocal(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// splitmix64 is the standard splitmix64 step, used as a cheap keyed PRNG.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
