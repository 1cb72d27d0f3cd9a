package voiceprint

import (
	"context"
	"fmt"
	"math"
	"sort"

	"speakerline/internal/identity"
	"speakerline/internal/store"
)

// Gallery is an in-memory set of identity centroids.
type Gallery struct {
	centroids     map[string][]float32
	identities    []string
	minSimilarity float64
}

// NewGallery builds centroids from enrolled voiceprints. Vectors whose
// dimensionality differs from the first enrolled vector are rejected.
func NewGallery(prints []store.Voiceprint, minSimilarity float64) (*Gallery, error) {
	sums := make(map[string][]float64)
	dims := 0
	for _, vp := range prints {
		if len(vp.Vector) == 0 {
			continue
		}
		if dims == 0 {
			dims = len(vp.Vector)
		}
		if len(vp.Vector) != dims {
			return nil, fmt.Errorf("voiceprint %d for %s has %d dimensions, expected %d", vp.ID, vp.Identity, len(vp.Vector), dims)
		}
		unit := normalize(vp.Vector)
		if unit == nil {
			continue
		}
		sum := sums[vp.Identity]
		if sum == nil {
			sum = make([]float64, dims)
		}
		for i, v := range unit {
			sum[i] += float64(v)
		}
		sums[vp.Identity] = sum
	}

	g := &Gallery{centroids: make(map[string][]float32, len(sums)), minSimilarity: minSimilarity}
	for name, sum := range sums {
		centroid := make([]float32, len(sum))
		for i, v := range sum {
			centroid[i] = float32(v)
		}
		if unit := normalize(centroid); unit != nil {
			g.centroids[name] = unit
			g.identities = append(g.identities, name)
		}
	}
	sort.Strings(g.identities)
	return g, nil
}

// Load builds a Gallery from every voiceprint in st.
func Load(ctx context.Context, st *store.Store, minSimilarity float64) (*Gallery, error) {
	prints, err := st.ListVoiceprints(ctx)
	if err != nil {
		return nil, err
	}
	return NewGallery(prints, minSimilarity)
}

// Identities lists the enrolled identity names.
func (g *Gallery) Identities() []string {
	return append([]string(nil), g.identities...)
}

// Classify implements identity.Classifier. Ties between centroids go to the
// alphabetically first identity.
func (g *Gallery) Classify(vector []float32) (identity.Match, bool) {
	query := normalize(vector)
	if query == nil {
		return identity.Match{}, false
	}
	best := identity.Match{Similarity: math.Inf(-1)}
	for _, name := range g.identities {
		centroid := g.centroids[name]
		if len(centroid) != len(query) {
			continue
		}
		if sim := dot(query, centroid); sim > best.Similarity {
			best = identity.Match{Identity: name, Similarity: sim}
		}
	}
	if best.Identity == "" || best.Similarity < g.minSimilarity {
		return identity.Match{}, false
	}
	return best, true
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either is zero or their lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	ua, ub := normalize(a), normalize(b)
	if ua == nil || ub == nil {
		return 0
	}
	return dot(ua, ub)
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
