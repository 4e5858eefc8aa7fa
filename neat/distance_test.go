package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// brainWithInnovations returns a brain whose connections carry exactly the
// given innovation numbers. Endpoints are irrelevant to the distance.
func brainWithInnovations(innovations []int, weight float64) *Brain {
	b := NewBrain(1, 1, nil)
	for _, innov := range innovations {
		b.Connections = append(b.Connections, NewConnection(0, 1, weight, innov))
	}
	return b
}

func innovationRange(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func TestDistanceIdenticalAndEmpty(t *testing.T) {
	cfg := &DefaultConfig().Genome

	empty := NewBrain(2, 1, nil)
	assert.Zero(t, CompatibilityDistance(empty, empty.Clone(), cfg))

	b := brainWithInnovations(innovationRange(0, 5), 0.3)
	assert.Zero(t, CompatibilityDistance(b, b.Clone(), cfg))
}

func TestDistanceDisjointSets(t *testing.T) {
	cfg := &DefaultConfig().Genome
	threshold := DefaultConfig().SpeciesSet.CompatibilityThreshold

	prev := 0.0
	for n := 1; n <= 20; n++ {
		a := brainWithInnovations(innovationRange(0, n), 0.5)
		b := brainWithInnovations(innovationRange(100, n), 0.5)

		d := CompatibilityDistance(a, b, cfg)
		// 2n excess/disjoint genes over a normalizer of 1, plus 0.5 * 100.
		assert.InDelta(t, float64(2*n)+50, d, 1e-9)
		assert.Greater(t, d, threshold)
		if n > 1 {
			assert.InDelta(t, 2.0, d-prev, 1e-9, "grows linearly with the gene count")
		}
		prev = d
	}
}

func TestDistanceMatchingGenes(t *testing.T) {
	cfg := &DefaultConfig().Genome

	a := brainWithInnovations([]int{0, 1, 2, 3}, 0.5)
	b := brainWithInnovations([]int{0, 1, 2}, 0.1)

	// One excess gene, average weight difference 0.4.
	assert.InDelta(t, 1.0+0.5*0.4, CompatibilityDistance(a, b, cfg), 1e-9)
}

func TestDistanceNormalizerUsesSecondBrain(t *testing.T) {
	cfg := &DefaultConfig().Genome

	small := brainWithInnovations(innovationRange(0, 2), 0.5)
	large := brainWithInnovations(innovationRange(0, 30), 0.5)

	// 28 excess genes; normalizer max(1, 30-20) = 10 only when large is second.
	assert.InDelta(t, 2.8, CompatibilityDistance(small, large, cfg), 1e-9)
	assert.InDelta(t, 28.0, CompatibilityDistance(large, small, cfg), 1e-9)
}

func TestDistanceOneSideEmpty(t *testing.T) {
	cfg := &DefaultConfig().Genome

	empty := NewBrain(1, 1, nil)
	b := brainWithInnovations(innovationRange(0, 3), 0.5)
	assert.InDelta(t, 3.0, CompatibilityDistance(empty, b, cfg), 1e-9)
}
