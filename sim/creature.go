// Package sim runs the evolution of mass-spring creatures: it binds brains
// to bodies, scores them while they walk, and when a generation has died
// out speciates, selects and breeds the next one.
package sim

import (
	"fmt"
	"math"

	"github.com/baldhumanity/neat-creatures/neat"
	"github.com/baldhumanity/neat-creatures/physics"
)

// Creature binds one Brain to one Body built from the run's blueprint.
type Creature struct {
	Body  *physics.Body
	Brain *neat.Brain

	Fitness    float64
	Score      float64
	BestScore  float64
	Staleness  int
	Lifespan   int // AI ticks lived
	Generation int

	dead      bool
	spawnX    float64
	blueprint *physics.Blueprint
	config    *Config
	inputs    []float64
}

// NewCreature builds a creature around brain with a fresh body from bp. The
// brain's network is generated.
func NewCreature(bp *physics.Blueprint, brain *neat.Brain, config *Config) (*Creature, error) {
	c := &Creature{
		Brain:     brain,
		blueprint: bp,
		config:    config,
	}
	if err := c.Reset(); err != nil {
		return nil, err
	}
	if err := brain.GenerateNetwork(); err != nil {
		return nil, fmt.Errorf("creature brain: %w", err)
	}
	return c, nil
}

// NewBrainFor returns an unconnected brain sized for bp: four inputs per
// node and one output per joint.
func NewBrainFor(bp *physics.Blueprint, config *Config) *neat.Brain {
	return neat.NewBrain(len(bp.Nodes)*physics.InputsPerNode, len(bp.Joints), &config.NEAT.Genome)
}

// Reset replaces the body with a fresh one at the blueprint's spawn position.
// Scores are kept so fitness can still be computed.
func (c *Creature) Reset() error {
	body, err := c.blueprint.Build(c.config.Physics)
	if err != nil {
		return err
	}
	c.Body = body
	c.spawnX = body.Center().X
	return nil
}

// Dead reports whether the creature has died.
func (c *Creature) Dead() bool {
	return c.dead
}

// Kill marks the creature dead. Death is permanent.
func (c *Creature) Kill() {
	c.dead = true
}

// Displacement returns the mean horizontal distance travelled from spawn.
func (c *Creature) Displacement() float64 {
	return c.Body.Center().X - c.spawnX
}

// Step advances the body physics by dt seconds.
func (c *Creature) Step(dt float64) {
	if c.dead {
		return
	}
	c.Body.Step(dt)
}

// AITick feeds the body's node velocities and forces through the brain and
// contracts every joint whose output is at least 0.5, relaxing the others.
// It then updates the score, staleness and death state.
func (c *Creature) AITick() error {
	if c.dead {
		return nil
	}

	c.inputs = c.Body.Inputs(c.inputs[:0])
	outputs, err := c.Brain.FeedForward(c.inputs)
	if err != nil {
		return fmt.Errorf("creature ai tick: %w", err)
	}
	for i, v := range outputs {
		if v < 0.5 {
			c.Body.Joints[i].Relax()
		} else {
			c.Body.Joints[i].Contract()
		}
	}
	c.Lifespan++

	cfg := &c.config.Creature
	displacement := c.Displacement()
	c.Score = math.Max(0, math.Min(1, displacement/cfg.TargetDistance))

	if c.Score > c.BestScore+cfg.ImprovementEpsilon {
		c.BestScore = c.Score
		c.Staleness = 0
	} else {
		c.Staleness++
	}

	switch {
	case c.Staleness >= cfg.MaxStaleness:
		c.dead = true
	case c.Body.Center().Y < cfg.FlatHeight:
		c.dead = true
	case cfg.KillOnRegression && displacement < -cfg.RegressionTolerance:
		c.dead = true
	}
	return nil
}

// CalculateFitness sets Fitness = score^2 * (0.9 + 0.1*(score/lifespan)/0.9),
// which rewards fast and long lived walkers.
func (c *Creature) CalculateFitness() {
	rate := 0.0
	if c.Lifespan > 0 {
		rate = c.Score / float64(c.Lifespan)
	}
	c.Fitness = c.Score * c.Score * (0.9 + 0.1*rate/0.9)
}

// Crossover breeds a child with c as the fitter parent.
func (c *Creature) Crossover(other *Creature, rng neat.Rand) (*Creature, error) {
	return NewCreature(c.blueprint, c.Brain.Crossover(other.Brain, rng), c.config)
}

// Clone returns a fresh creature with a copy of c's brain. Fitness is
// carried over; every other score starts from zero.
func (c *Creature) Clone() (*Creature, error) {
	clone, err := NewCreature(c.blueprint, c.Brain.Clone(), c.config)
	if err != nil {
		return nil, err
	}
	clone.Fitness = c.Fitness
	clone.Generation = c.Generation
	return clone, nil
}
