package sim

import "github.com/baldhumanity/neat-creatures/neat"

// Removal reasons reported for species that are dropped.
const (
	ReasonStagnant = "stagnant"
	ReasonBad      = "no offspring share"
	ReasonEmpty    = "no members"
)

// StagnationInfo holds the result of a species filter pass for one species.
type StagnationInfo struct {
	Species *Species
	Removed bool
	Reason  string
}

// filterSpecies evaluates every species first and only then splits the list,
// so the decision for one species never depends on removals of another.
func filterSpecies(species []*Species, judge func(*Species) (bool, string)) (kept []*Species, info []StagnationInfo) {
	info = make([]StagnationInfo, len(species))
	for i, s := range species {
		removed, reason := judge(s)
		info[i] = StagnationInfo{Species: s, Removed: removed, Reason: reason}
	}
	kept = make([]*Species, 0, len(species))
	for _, si := range info {
		if !si.Removed {
			kept = append(kept, si.Species)
		}
	}
	return kept, info
}

// killStaleSpecies removes species whose staleness reached maxStagnation.
func killStaleSpecies(species []*Species, maxStagnation int) ([]*Species, []StagnationInfo) {
	return filterSpecies(species, func(s *Species) (bool, string) {
		if s.Staleness >= maxStagnation {
			return true, ReasonStagnant
		}
		return false, ""
	})
}

// killBadSpecies removes species that would not be allotted a single child
// and species left without members. When the total average fitness is not
// positive no allotment can be computed and only empty species are removed.
func killBadSpecies(species []*Species, popSize int) ([]*Species, []StagnationInfo) {
	averageSum := averageFitnessSum(species)
	return filterSpecies(species, func(s *Species) (bool, string) {
		if len(s.Members) == 0 {
			return true, ReasonEmpty
		}
		if averageSum > 0 && s.AverageFitness/averageSum*float64(popSize) < 1 {
			return true, ReasonBad
		}
		return false, ""
	})
}

// averageFitnessSum sums the average fitness of every species.
func averageFitnessSum(species []*Species) float64 {
	averages := make([]float64, len(species))
	for i, s := range species {
		averages[i] = s.AverageFitness
	}
	return neat.Sum(averages)
}
