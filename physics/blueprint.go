package physics

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// MaxJointStrength is the strongest muscle a blueprint may declare.
const MaxJointStrength = 10.0

// NodeSpec places one node of a blueprint.
type NodeSpec struct {
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Radius     float64 `yaml:"radius"`
	Stationary bool    `yaml:"stationary"`
}

// JointSpec wires two blueprint nodes by index. Strength is in
// [0, MaxJointStrength]; 0 means rigid.
type JointSpec struct {
	Parent   int     `yaml:"parent"`
	Child    int     `yaml:"child"`
	Strength float64 `yaml:"strength"`
	Rigid    bool    `yaml:"rigid"`
}

// Blueprint is the creature template shared read-only by every body of a run.
type Blueprint struct {
	Nodes  []NodeSpec  `yaml:"nodes"`
	Joints []JointSpec `yaml:"joints"`
}

// NewBlueprint copies and validates the given node and joint descriptors.
func NewBlueprint(nodes []NodeSpec, joints []JointSpec) (*Blueprint, error) {
	bp := &Blueprint{
		Nodes:  append([]NodeSpec(nil), nodes...),
		Joints: append([]JointSpec(nil), joints...),
	}
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return bp, nil
}

// ParseBlueprint decodes and validates a YAML blueprint.
func ParseBlueprint(data []byte) (*Blueprint, error) {
	var bp Blueprint
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("parsing blueprint: %w", err)
	}
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return &bp, nil
}

// LoadBlueprint reads a YAML blueprint from disk.
func LoadBlueprint(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading blueprint: %w", err)
	}
	return ParseBlueprint(data)
}

// Validate rejects blueprints that cannot be built into a body.
func (bp *Blueprint) Validate() error {
	if len(bp.Nodes) == 0 {
		return fmt.Errorf("blueprint has no nodes")
	}
	for i, n := range bp.Nodes {
		if n.Radius <= 0 {
			return fmt.Errorf("blueprint node %d: radius must be positive", i)
		}
	}
	for i, j := range bp.Joints {
		if j.Parent < 0 || j.Parent >= len(bp.Nodes) || j.Child < 0 || j.Child >= len(bp.Nodes) {
			return fmt.Errorf("blueprint joint %d: %w: %d-%d with %d nodes", i, ErrJointIndex, j.Parent, j.Child, len(bp.Nodes))
		}
		if j.Parent == j.Child {
			return fmt.Errorf("blueprint joint %d connects node %d to itself", i, j.Parent)
		}
		p, c := bp.Nodes[j.Parent], bp.Nodes[j.Child]
		if p.X == c.X && p.Y == c.Y {
			return fmt.Errorf("blueprint joint %d has coincident endpoints", i)
		}
		if j.Strength < 0 || j.Strength > MaxJointStrength {
			return fmt.Errorf("blueprint joint %d: strength %g outside [0, %g]", i, j.Strength, MaxJointStrength)
		}
	}
	return nil
}

// Normalized returns a copy translated so the left-most node sits at x = 0
// and the lowest node at groundY.
func (bp *Blueprint) Normalized(groundY float64) *Blueprint {
	minX, minY := math.Inf(1), math.Inf(1)
	for _, n := range bp.Nodes {
		minX = math.Min(minX, n.X)
		minY = math.Min(minY, n.Y)
	}
	out := &Blueprint{
		Nodes:  make([]NodeSpec, len(bp.Nodes)),
		Joints: append([]JointSpec(nil), bp.Joints...),
	}
	for i, n := range bp.Nodes {
		n.X -= minX
		n.Y += groundY - minY
		out.Nodes[i] = n
	}
	return out
}

// Build instantiates a fresh body at the blueprint's positions.
func (bp *Blueprint) Build(p *Params) (*Body, error) {
	if p == nil {
		p = DefaultParams()
	}
	nodes := make([]Node, len(bp.Nodes))
	for i, n := range bp.Nodes {
		nodes[i] = NewNode(i, Vec(n.X, n.Y), n.Radius, n.Stationary)
	}
	joints := make([]Joint, 0, len(bp.Joints))
	for i, js := range bp.Joints {
		j, err := NewJoint(nodes, js.Parent, js.Child, js.Strength, js.Rigid, p)
		if err != nil {
			return nil, fmt.Errorf("blueprint joint %d: %w", i, err)
		}
		joints = append(joints, j)
	}
	return NewBody(nodes, joints, p)
}

// MustBuild is Build for blueprints that have already been validated.
func (bp *Blueprint) MustBuild(p *Params) *Body {
	b, err := bp.Build(p)
	if err != nil {
		panic(err)
	}
	return b
}
