package physics

import (
	"fmt"
	"math"
)

// Node is a point mass of a Body.
type Node struct {
	ID           int // Stable index within the owning body
	Position     Vector2
	Velocity     Vector2
	Force        Vector2 // Accumulated for the current step
	AppliedForce Vector2 // Force integrated by the last step, gravity included
	Radius       float64
	Mass         float64
	Stationary   bool
}

// NewNode creates a node at rest. Mass is 2*pi*r^2.
func NewNode(id int, position Vector2, radius float64, stationary bool) Node {
	return Node{
		ID:         id,
		Position:   position,
		Radius:     radius,
		Mass:       2 * math.Pi * radius * radius,
		Stationary: stationary,
	}
}

// AddForce accumulates a force for the next step.
func (n *Node) AddForce(f Vector2) {
	n.Force = Add(n.Force, f)
}

// OnGround reports whether the node touches the ground plane.
func (n *Node) OnGround(p *Params) bool {
	return n.Position.Y <= p.GroundY
}

// Step integrates the node over dt seconds. Velocity integration scales the
// force by the mass (v += F*m*dt), and gravity enters the force as m*g.
func (n *Node) Step(dt float64, p *Params) {
	if n.Stationary {
		n.AppliedForce = n.Force
		n.Force = Vector2{}
		return
	}

	n.Force = Add(n.Force, Vec(0, -p.Gravity*n.Mass))
	n.Velocity = Add(n.Velocity, Scale(n.Mass*dt, n.Force))
	n.Velocity = Scale(p.Drag, n.Velocity)
	n.Position = Add(n.Position, Scale(dt, n.Velocity))

	if n.OnGround(p) {
		n.Position.Y = p.GroundY
		n.Velocity.X *= p.GroundFriction
		if n.Velocity.Y < 0 {
			n.Velocity.Y *= -p.Restitution
		}
	}

	n.AppliedForce = n.Force
	n.Force = Vector2{}
}

// String returns a string representation of the Node.
func (n *Node) String() string {
	return fmt.Sprintf("Node(ID: %d, Pos: (%.2f, %.2f), Vel: (%.2f, %.2f))",
		n.ID, n.Position.X, n.Position.Y, n.Velocity.X, n.Velocity.Y)
}
