package physics

import (
	"errors"
	"fmt"
	"math"
)

// ErrJointIndex is returned when a joint refers to a node that does not exist.
var ErrJointIndex = errors.New("joint node index out of range")

// Joint is a spring muscle between two nodes of the same Body. Endpoints are
// indices into the body's node slice, so a copied body re-binds its joints
// to its own nodes without any fix-up.
type Joint struct {
	Parent int
	Child  int

	RestLength   float64
	TargetLength float64
	Strength     float64 // Scaled strength; 0 for rigid joints

	Contracting      bool
	Rigid            bool
	ContractionSteps int
}

// NewJoint creates a joint whose rest length is the current distance between
// the two nodes. A strength of 0 makes the joint rigid.
func NewJoint(nodes []Node, parent, child int, strength float64, rigid bool, p *Params) (Joint, error) {
	if parent < 0 || parent >= len(nodes) || child < 0 || child >= len(nodes) {
		return Joint{}, fmt.Errorf("%w: %d-%d with %d nodes", ErrJointIndex, parent, child, len(nodes))
	}
	if parent == child {
		return Joint{}, fmt.Errorf("joint connects node %d to itself", parent)
	}
	if strength < 0 || strength > MaxJointStrength {
		return Joint{}, fmt.Errorf("joint %d-%d: strength %g outside [0, %g]", parent, child, strength, MaxJointStrength)
	}
	length := Length(Sub(nodes[parent].Position, nodes[child].Position))
	if length == 0 {
		return Joint{}, fmt.Errorf("joint %d-%d has zero length", parent, child)
	}

	j := Joint{
		Parent:       parent,
		Child:        child,
		RestLength:   length,
		TargetLength: length,
		Rigid:        rigid || strength == 0,
	}
	if !j.Rigid {
		j.Strength = strength * p.StrengthScale
	}
	return j, nil
}

// Contract starts a contraction. Calling it while contracting has no effect.
func (j *Joint) Contract() {
	j.Contracting = true
}

// Relax ends a contraction. Calling it while relaxed has no effect.
func (j *Joint) Relax() {
	j.Contracting = false
}

// Length returns the current distance between the joint's nodes.
func (j *Joint) Length(nodes []Node) float64 {
	return Length(Sub(nodes[j.Parent].Position, nodes[j.Child].Position))
}

// SpringConstant returns the Hooke's law constant of the joint.
func (j *Joint) SpringConstant(p *Params) float64 {
	if j.Rigid {
		return p.RigidStiffness()
	}
	return j.Strength * p.Gravity
}

// Actuate moves the target length one step towards the commanded state.
// While contracting it shrinks towards half the rest length and counts the
// steps; while relaxed it grows back for as many steps as it contracted.
// The target stays within [RestLength/2, RestLength]; rigid joints never move.
func (j *Joint) Actuate(p *Params) {
	if j.Rigid {
		return
	}
	delta := j.Strength / p.ContractionDivisor
	half := j.RestLength * 0.5

	switch {
	case j.Contracting && j.TargetLength > half:
		j.ContractionSteps++
		j.TargetLength = math.Max(half, j.TargetLength-delta)
	case !j.Contracting && j.ContractionSteps > 0 && j.TargetLength < j.RestLength:
		j.ContractionSteps--
		j.TargetLength = math.Min(j.RestLength, j.TargetLength+delta)
	}
}

// ApplyForce adds the spring force -k*(length-target) to both endpoints with
// opposite signs.
func (j *Joint) ApplyForce(nodes []Node, p *Params) {
	parent, child := &nodes[j.Parent], &nodes[j.Child]
	v := Sub(parent.Position, child.Position)
	stretch := Length(v) - j.TargetLength
	magnitude := -j.SpringConstant(p) * stretch * p.MuscleForceScale

	force := Scale(magnitude, Normalize(v))
	parent.AddForce(force)
	child.AddForce(Scale(-1, force))
}

// Step actuates the joint and applies its spring force.
func (j *Joint) Step(nodes []Node, p *Params) {
	j.Actuate(p)
	j.ApplyForce(nodes, p)
}
