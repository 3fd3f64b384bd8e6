package embed

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/campusvoice/insight-engine/engine/domain"
)

func newLocalHandle() *Handle {
	return NewHandle(func() (Provider, error) { return NewLocalProvider(), nil })
}

func TestEmbed_BlankTextYieldsEmptyVector(t *testing.T) {
	h := newLocalHandle()
	for _, text := range []string{"", "   ", "\t\n"} {
		vec, err := h.Embed(context.Background(), text)
		if err != nil {
			t.Fatalf("blank text should not error: %v", err)
		}
		if len(vec) != 0 {
			t.Fatalf("blank text should yield empty vector, got %d dims", len(vec))
		}
	}
}

func TestEmbed_DimensionInvariant(t *testing.T) {
	h := newLocalHandle()
	vec, err := h.Embed(context.Background(), "the first year felt overwhelming")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(vec) != domain.EmbeddingDim {
		t.Fatalf("got %d dims, want %d", len(vec), domain.EmbeddingDim)
	}
}

func TestEmbed_Normalized(t *testing.T) {
	h := newLocalHandle()
	vec, err := h.Embed(context.Background(), "office hours were a lifeline")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	var sq float64
	for _, v := range vec {
		sq += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sq)-1) > 1e-4 {
		t.Fatalf("vector not unit length: %v", math.Sqrt(sq))
	}
}

func TestEmbed_Deterministic(t *testing.T) {
	a, err := newLocalHandle().Embed(context.Background(), "same text")
	if err != nil {
		t.Fatal(err)
	}
	b, err := newLocalHandle().Embed(context.Background(), "same text")
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("local provider should be deterministic across handles")
		}
	}
}

func TestHandle_SingleInitUnderConcurrency(t *testing.T) {
	var opens atomic.Int32
	h := NewHandle(func() (Provider, error) {
		opens.Add(1)
		return NewLocalProvider(), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.Embed(context.Background(), "concurrent first call"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := opens.Load(); got != 1 {
		t.Fatalf("provider opened %d times, want 1", got)
	}
}

func TestHandle_OpenFailureIsSticky(t *testing.T) {
	boom := errors.New("model missing")
	h := NewHandle(func() (Provider, error) { return nil, boom })

	for i := 0; i < 2; i++ {
		_, err := h.Embed(context.Background(), "text")
		var embErr *domain.EmbeddingError
		if !errors.As(err, &embErr) {
			t.Fatalf("want EmbeddingError, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Fatalf("should wrap the open error, got %v", err)
		}
	}
}

type failingProvider struct{}

func (failingProvider) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("inference failed")
}
func (failingProvider) ModelName() string { return "failing" }
func (failingProvider) Dimensions() int   { return domain.EmbeddingDim }

func TestHandle_InferenceFailurePropagates(t *testing.T) {
	h := NewHandle(func() (Provider, error) { return failingProvider{}, nil })
	_, err := h.Embed(context.Background(), "text")
	var embErr *domain.EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("want EmbeddingError, got %v", err)
	}
}

type shortProvider struct{}

func (shortProvider) Embed(context.Context, string) ([]float32, error) {
	return make([]float32, 10), nil
}
func (shortProvider) ModelName() string { return "short" }
func (shortProvider) Dimensions() int   { return 10 }

func TestHandle_RejectsWrongDimension(t *testing.T) {
	h := NewHandle(func() (Provider, error) { return shortProvider{}, nil })
	if _, err := h.Embed(context.Background(), "text"); err == nil {
		t.Fatal("wrong-dimension vectors must be rejected")
	}
}

func TestHandle_CachesByContent(t *testing.T) {
	var calls atomic.Int32
	h := NewHandle(func() (Provider, error) {
		return countedLocal{&calls}, nil
	})
	ctx := context.Background()
	if _, err := h.Embed(ctx, "repeat me"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Embed(ctx, "repeat me"); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("provider called %d times for identical text, want 1", got)
	}
}

type countedLocal struct{ calls *atomic.Int32 }

func (c countedLocal) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return NewLocalProvider().Embed(ctx, text)
}
func (c countedLocal) ModelName() string { return "counted" }
func (c countedLocal) Dimensions() int   { return domain.EmbeddingDim }
