// Package cluster partitions a named vector set with k-means++ seeding and
// Lloyd's iteration, and scores each cluster's cohesion.
package cluster

import (
	"math"
	"math/rand"
	"time"

	"github.com/campusvoice/insight-engine/engine/index"
)

const (
	// DefaultK is the cluster count requested for the category sets.
	DefaultK = 3
	// maxIterations bounds Lloyd's refinement.
	maxIterations = 20
	// convergenceTol is the per-coordinate center movement below which
	// iteration stops early.
	convergenceTol = 0.001
)

// Cluster is one partition of a vector set. Immutable once returned; Cohesion
// is derived from the final assignment, never mutated independently.
type Cluster struct {
	ID       int       `json:"id"`
	Center   []float32 `json:"center"`
	Members  []int     `json:"members"`
	Size     int       `json:"size"`
	Cohesion float64   `json:"cohesion"`
}

// Engine runs k-means over vector index entries. The random source drives
// k-means++ seeding; inject a fixed seed for reproducible assignments.
// An Engine is not safe for concurrent use; create one per vector set.
type Engine struct {
	rng *rand.Rand
}

// New creates an Engine seeded from the clock.
func New() *Engine {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded creates an Engine with a deterministic random source.
func NewSeeded(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// TagK returns the cluster count requested for a tag set with n members:
// min(2, ceil(n/2)), so a two-member tag gets one cluster.
func TagK(n int) int {
	half := (n + 1) / 2
	if half < 2 {
		return half
	}
	return 2
}

// Cluster partitions entries into at most k clusters. Empty input yields an
// empty result; fewer entries than k silently reduce the cluster count.
func (e *Engine) Cluster(entries []index.Entry, k int) []Cluster {
	n := len(entries)
	if n == 0 {
		return []Cluster{}
	}
	if k <= 0 {
		k = DefaultK
	}
	if k > n {
		k = n
	}

	centers := e.seedCenters(entries, k)
	assignment := make([]int, n)

	for iter := 0; iter < maxIterations; iter++ {
		for i, entry := range entries {
			assignment[i] = nearestCenter(entry.Embedding, centers)
		}

		moved := 0.0
		for c := range centers {
			mean := memberMean(entries, assignment, c)
			if mean == nil {
				// Cluster lost all members; keep its previous center.
				continue
			}
			for d := range mean {
				delta := math.Abs(float64(mean[d]) - float64(centers[c][d]))
				if delta > moved {
					moved = delta
				}
			}
			centers[c] = mean
		}
		if moved <= convergenceTol {
			break
		}
	}

	// Final assignment against the settled centers.
	for i, entry := range entries {
		assignment[i] = nearestCenter(entry.Embedding, centers)
	}

	clusters := make([]Cluster, len(centers))
	for c, center := range centers {
		var members []int
		for i, a := range assignment {
			if a == c {
				members = append(members, i)
			}
		}
		clusters[c] = Cluster{
			ID:       c,
			Center:   center,
			Members:  members,
			Size:     len(members),
			Cohesion: cohesion(entries, members, center),
		}
	}
	return clusters
}

// seedCenters implements k-means++ initialization: the first center is
// uniform, each later one is sampled proportionally to squared distance from
// the nearest chosen center.
func (e *Engine) seedCenters(entries []index.Entry, k int) [][]float32 {
	centers := make([][]float32, 0, k)
	chosen := make([]bool, len(entries))

	first := e.rng.Intn(len(entries))
	centers = append(centers, cloneVec(entries[first].Embedding))
	chosen[first] = true

	d2 := make([]float64, len(entries))
	for len(centers) < k {
		total := 0.0
		for i, entry := range entries {
			if chosen[i] {
				d2[i] = 0
				continue
			}
			best := math.Inf(1)
			for _, c := range centers {
				if d := squaredDistance(entry.Embedding, c); d < best {
					best = d
				}
			}
			if math.IsInf(best, 1) {
				best = 0
			}
			d2[i] = best
			total += best
		}

		next := -1
		if total > 0 {
			target := e.rng.Float64() * total
			acc := 0.0
			for i := range entries {
				if chosen[i] {
					continue
				}
				acc += d2[i]
				if acc >= target {
					next = i
					break
				}
			}
		}
		if next == -1 {
			// All remaining mass is zero (duplicate points); take the
			// first unchosen entry.
			for i := range entries {
				if !chosen[i] {
					next = i
					break
				}
			}
		}
		centers = append(centers, cloneVec(entries[next].Embedding))
		chosen[next] = true
	}
	return centers
}

// nearestCenter returns the first center index achieving the minimum distance.
func nearestCenter(vec []float32, centers [][]float32) int {
	best := 0
	bestDist := math.Inf(1)
	for c, center := range centers {
		if d := distance(vec, center); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// memberMean returns the coordinate-wise mean of cluster c's members, or nil
// if the cluster is empty.
func memberMean(entries []index.Entry, assignment []int, c int) []float32 {
	var sum []float64
	count := 0
	for i, a := range assignment {
		if a != c {
			continue
		}
		emb := entries[i].Embedding
		if sum == nil {
			sum = make([]float64, len(emb))
		}
		if len(emb) != len(sum) {
			continue
		}
		for d, v := range emb {
			sum[d] += float64(v)
		}
		count++
	}
	if count == 0 {
		return nil
	}
	mean := make([]float32, len(sum))
	for d := range sum {
		mean[d] = float32(sum[d] / float64(count))
	}
	return mean
}

// cohesion is 1/(1+meanDistanceToCenter); singleton and empty clusters score 1.
func cohesion(entries []index.Entry, members []int, center []float32) float64 {
	if len(members) == 0 {
		return 1
	}
	total := 0.0
	for _, i := range members {
		total += distance(entries[i].Embedding, center)
	}
	return 1 / (1 + total/float64(len(members)))
}

// distance is Euclidean; mismatched lengths are infinitely far apart.
func distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func squaredDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func cloneVec(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
