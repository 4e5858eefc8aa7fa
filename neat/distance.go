package neat

import "math"

// CompatibilityDistance measures how far apart two brains are genetically.
//
//	d = c1 * (|A| + |B| - 2*matching) / max(1, |B| - offset) + c2 * W
//
// where matching counts genes sharing an innovation number and W is the mean
// absolute weight difference over matching genes. W is 0 when either brain
// has no connections and NoMatchWeightDifference when nothing matches.
func CompatibilityDistance(a, b *Brain, config *GenomeConfig) float64 {
	byInnovation := make(map[int]*Connection, len(b.Connections))
	for _, c := range b.Connections {
		byInnovation[c.Innovation] = c
	}

	matching := 0
	weightDiff := 0.0
	for _, c := range a.Connections {
		if other, ok := byInnovation[c.Innovation]; ok {
			matching++
			weightDiff += c.weightDistance(other)
		}
	}

	excessDisjoint := float64(len(a.Connections) + len(b.Connections) - 2*matching)
	normalizer := math.Max(1, float64(len(b.Connections)-config.CompatibilityNormalizerOffset))

	var avgWeightDiff float64
	switch {
	case len(a.Connections) == 0 || len(b.Connections) == 0:
		avgWeightDiff = 0
	case matching == 0:
		avgWeightDiff = config.NoMatchWeightDifference
	default:
		avgWeightDiff = weightDiff / float64(matching)
	}

	return config.CompatibilityDisjointCoefficient*excessDisjoint/normalizer +
		config.CompatibilityWeightCoefficient*avgWeightDiff
}
