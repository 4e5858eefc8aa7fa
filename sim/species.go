package sim

import (
	"fmt"
	"sort"

	"github.com/baldhumanity/neat-creatures/neat"
)

// Species represents a group of genetically similar creatures.
type Species struct {
	ID             int         // Unique identifier for the species.
	Members        []*Creature // Current generation members, best first after Sort.
	Representative *neat.Brain // Snapshot new creatures are compared against.
	Champion       *Creature   // Snapshot of the best member ever seen.
	BestFitness    float64     // Best member fitness seen so far.
	AverageFitness float64     // Mean shared fitness of the culled members.
	Staleness      int         // Generations without improvement.
	Config         *neat.Config
}

// NewSpecies creates a species founded by c.
func NewSpecies(id int, c *Creature, config *neat.Config) (*Species, error) {
	champion, err := c.Clone()
	if err != nil {
		return nil, err
	}
	return &Species{
		ID:             id,
		Members:        []*Creature{c},
		Representative: c.Brain.Clone(),
		Champion:       champion,
		Config:         config,
	}, nil
}

// SameSpecies reports whether brain is compatible with the representative.
func (s *Species) SameSpecies(brain *neat.Brain) bool {
	d := neat.CompatibilityDistance(s.Representative, brain, &s.Config.Genome)
	return d < s.Config.SpeciesSet.CompatibilityThreshold
}

// Add appends a member.
func (s *Species) Add(c *Creature) {
	s.Members = append(s.Members, c)
}

// GetFitnesses returns a slice containing the fitness values of all members.
func (s *Species) GetFitnesses() []float64 {
	fitnesses := make([]float64, len(s.Members))
	for i, c := range s.Members {
		fitnesses[i] = c.Fitness
	}
	return fitnesses
}

// Sort orders members by fitness, best first, and updates staleness. An
// improvement on BestFitness resets staleness and replaces the
// representative and champion. A species without members is marked stale.
func (s *Species) Sort() error {
	if len(s.Members) == 0 {
		s.Staleness = s.Config.Stagnation.MaxStagnation
		return nil
	}

	sort.SliceStable(s.Members, func(i, j int) bool {
		return s.Members[i].Fitness > s.Members[j].Fitness
	})

	best := s.Members[0]
	if best.Fitness > s.BestFitness {
		champion, err := best.Clone()
		if err != nil {
			return fmt.Errorf("species %d champion: %w", s.ID, err)
		}
		s.Staleness = 0
		s.BestFitness = best.Fitness
		s.Representative = best.Brain.Clone()
		s.Champion = champion
	} else {
		s.Staleness++
	}
	return nil
}

// Cull drops the lower half of the ranked members. Species with two or fewer
// members are left untouched.
func (s *Species) Cull() {
	if len(s.Members) > 2 {
		s.Members = s.Members[:len(s.Members)/2]
	}
}

// FitnessSharing divides every member's fitness by the species size.
func (s *Species) FitnessSharing() {
	n := float64(len(s.Members))
	for _, c := range s.Members {
		c.Fitness /= n
	}
}

// SetAverage stores the mean member fitness.
func (s *Species) SetAverage() {
	s.AverageFitness = neat.Mean(s.GetFitnesses())
}

// SelectCreature draws a member with probability proportional to fitness.
// If rounding leaves the draw unresolved the first member is returned.
func (s *Species) SelectCreature(rng neat.Rand) *Creature {
	if len(s.Members) == 0 {
		return nil
	}
	sum := neat.Sum(s.GetFitnesses())
	target := rng.Float64() * sum
	running := 0.0
	for _, c := range s.Members {
		running += c.Fitness
		if running > target {
			return c
		}
	}
	return s.Members[0]
}

// MakeChild produces one offspring. With AsexualRate probability it is a
// clone of a selected member; otherwise two members are drawn with
// replacement, the fitter is crossed with the other and the child mutated.
func (s *Species) MakeChild(ledger *neat.InnovationLedger, rng neat.Rand) (*Creature, error) {
	if len(s.Members) == 0 {
		return nil, fmt.Errorf("species %d has no members to breed from", s.ID)
	}

	if rng.Float64() < s.Config.Reproduction.AsexualRate {
		return s.SelectCreature(rng).Clone()
	}

	mum := s.SelectCreature(rng)
	dad := s.SelectCreature(rng)
	if mum.Fitness < dad.Fitness {
		mum, dad = dad, mum
	}
	child, err := mum.Crossover(dad, rng)
	if err != nil {
		return nil, err
	}
	child.Brain.Mutate(ledger, rng)
	if err := child.Brain.GenerateNetwork(); err != nil {
		return nil, fmt.Errorf("species %d child: %w", s.ID, err)
	}
	return child, nil
}
