package physics

import (
	"fmt"
	"math"
)

// Body is an arena of nodes and the joints between them.
type Body struct {
	Nodes  []Node
	Joints []Joint
	Params *Params

	substep float64 // Integration step length, see Substep
}

// NewBody creates a body from already constructed nodes and joints and
// checks that every joint refers to an existing node.
func NewBody(nodes []Node, joints []Joint, p *Params) (*Body, error) {
	if p == nil {
		p = DefaultParams()
	}
	b := &Body{Nodes: nodes, Joints: joints, Params: p}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	b.substep = b.stableSubstep()
	return b, nil
}

// Validate checks joint endpoints against the node arena.
func (b *Body) Validate() error {
	for i, j := range b.Joints {
		if j.Parent < 0 || j.Parent >= len(b.Nodes) || j.Child < 0 || j.Child >= len(b.Nodes) {
			return fmt.Errorf("joint %d: %w: %d-%d with %d nodes", i, ErrJointIndex, j.Parent, j.Child, len(b.Nodes))
		}
	}
	return nil
}

// Step advances the body by dt seconds. Joints are actuated once, then the
// step is split into sub-steps no longer than Substep; each sub-step applies
// every joint force and then integrates every node.
func (b *Body) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for i := range b.Joints {
		b.Joints[i].Actuate(b.Params)
	}

	steps := int(math.Ceil(dt / b.Substep()))
	h := dt / float64(steps)
	for s := 0; s < steps; s++ {
		for i := range b.Joints {
			b.Joints[i].ApplyForce(b.Nodes, b.Params)
		}
		for i := range b.Nodes {
			b.Nodes[i].Step(h, b.Params)
		}
	}
}

// Substep returns the longest integration step that keeps the body stable.
//
// Velocity integrates F*m, so a node of mass m held by springs with combined
// constant K has omega^2 = m*K*MuscleForceScale against fixed neighbours.
// Moving neighbours at most double that, which bounds omega for the whole
// body. The step keeps omega*h <= 1, inside the omega*h < 2 limit of
// semi-implicit Euler, and never exceeds Params.MaxSubstep.
func (b *Body) Substep() float64 {
	if b.substep <= 0 {
		b.substep = b.stableSubstep()
	}
	return b.substep
}

func (b *Body) stableSubstep() float64 {
	h := b.Params.MaxSubstep
	stiffness := make([]float64, len(b.Nodes))
	for i := range b.Joints {
		j := &b.Joints[i]
		k := j.SpringConstant(b.Params) * b.Params.MuscleForceScale
		stiffness[j.Parent] += k
		stiffness[j.Child] += k
	}
	for i, n := range b.Nodes {
		if n.Stationary || stiffness[i] == 0 {
			continue
		}
		omega := math.Sqrt(2 * n.Mass * stiffness[i])
		h = math.Min(h, 1/omega)
	}
	return h
}

// Clone returns an independent copy. Joints keep their indices and so refer
// to the copied nodes.
func (b *Body) Clone() *Body {
	return &Body{
		Nodes:   append([]Node(nil), b.Nodes...),
		Joints:  append([]Joint(nil), b.Joints...),
		Params:  b.Params,
		substep: b.substep,
	}
}

// Center returns the mean node position.
func (b *Body) Center() Vector2 {
	if len(b.Nodes) == 0 {
		return Vector2{}
	}
	var sum Vector2
	for _, n := range b.Nodes {
		sum = Add(sum, n.Position)
	}
	return Scale(1/float64(len(b.Nodes)), sum)
}

// Inputs appends vx, vy, fx, fy for every node in order to dst. The force is
// the one integrated by the previous step.
func (b *Body) Inputs(dst []float64) []float64 {
	for _, n := range b.Nodes {
		dst = append(dst, n.Velocity.X, n.Velocity.Y, n.AppliedForce.X, n.AppliedForce.Y)
	}
	return dst
}

// InputsPerNode is the number of network inputs each node contributes.
const InputsPerNode = 4
