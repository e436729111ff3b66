package index

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/poiesic/ragcore/core"
)

// Search returns up to k entries ranked by descending similarity to query.
// Entries with equal scores keep their insertion order.
func (idx *Index) Search(query []float32, k int) ([]core.SearchHit, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", core.ErrInvalidConfig, k)
	}
	if len(idx.entries) == 0 {
		return nil, core.ErrEmptyIndex
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			core.ErrDimensionMismatch, len(query), idx.dimension)
	}

	type scored struct {
		pos   int
		score float32
	}

	qnorm := norm(query)
	ranked := make([]scored, len(idx.entries))
	for i := range idx.entries {
		ranked[i] = scored{pos: i, score: idx.score(query, qnorm, i)}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	n := min(k, len(ranked))
	hits := make([]core.SearchHit, n)
	for i := range n {
		hits[i] = core.SearchHit{
			Entry: cloneEntry(idx.entries[ranked[i].pos]),
			Score: ranked[i].score,
		}
	}
	return hits, nil
}

func (idx *Index) score(query []float32, qnorm float64, i int) float32 {
	d := dot(query, idx.entries[i].Vector)
	if idx.metric == core.MetricDot {
		return float32(d)
	}
	if qnorm == 0 || idx.norms[i] == 0 {
		return 0
	}
	return float32(d / (qnorm * idx.norms[i]))
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
