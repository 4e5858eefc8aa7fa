package sim

import (
	"errors"

	"github.com/baldhumanity/neat-creatures/neat"
	"github.com/baldhumanity/neat-creatures/physics"
)

// ErrReorganizing is returned by Snapshot while natural selection runs.
var ErrReorganizing = errors.New("population is reorganizing")

// NodeView is the drawable state of one body node.
type NodeView struct {
	Position physics.Vector2
	Radius   float64
}

// JointView is the drawable state of one joint.
type JointView struct {
	Parent      physics.Vector2
	Child       physics.Vector2
	Contracting bool
	Rigid       bool
}

// CreatureView is the drawable state of one living creature.
type CreatureView struct {
	Nodes  []NodeView
	Joints []JointView
	Score  float64
}

// Snapshot is a copy of everything a renderer reads. It shares no memory
// with the population.
type Snapshot struct {
	Creatures     []CreatureView
	BestBrain     *neat.Topology // Current best creature, nil before the first AI tick
	BestEverScore float64
	MaxTravelled  float64
	Generation    int
	Batch         int
	Tick          int64
	Innovations   int
	Species       int
}

func viewOf(c *Creature) CreatureView {
	nodes := c.Body.Nodes
	v := CreatureView{
		Nodes:  make([]NodeView, len(nodes)),
		Joints: make([]JointView, len(c.Body.Joints)),
		Score:  c.Score,
	}
	for i, n := range nodes {
		v.Nodes[i] = NodeView{Position: n.Position, Radius: n.Radius}
	}
	for i, j := range c.Body.Joints {
		v.Joints[i] = JointView{
			Parent:      nodes[j.Parent].Position,
			Child:       nodes[j.Child].Position,
			Contracting: j.Contracting,
			Rigid:       j.Rigid,
		}
	}
	return v
}

// Snapshot copies the renderable state. It refuses with ErrReorganizing
// instead of waiting while natural selection is rebuilding the population.
func (p *Population) Snapshot() (*Snapshot, error) {
	if p.reorganizing.Load() {
		return nil, ErrReorganizing
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := &Snapshot{
		BestEverScore: p.bestEverScore,
		MaxTravelled:  p.maxTravelled,
		Generation:    p.generation,
		Batch:         p.batch,
		Tick:          p.tick,
		Innovations:   p.Ledger.Len(),
		Species:       len(p.species),
	}
	for _, c := range p.creatures {
		if !c.Dead() {
			s.Creatures = append(s.Creatures, viewOf(c))
		}
	}
	if p.currentBest != nil {
		t := p.currentBest.Brain.Topology()
		s.BestBrain = &t
	}
	return s, nil
}
