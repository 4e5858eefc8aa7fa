// Package physics implements the mass-spring bodies creatures are built from:
// point-mass nodes under gravity, drag and ground contact, joined by
// actuated spring joints.
package physics

import "gonum.org/v1/gonum/spatial/r2"

// Vector2 is a 2-D vector in simulation metres.
type Vector2 = r2.Vec

// Vec returns the vector (x, y).
func Vec(x, y float64) Vector2 {
	return Vector2{X: x, Y: y}
}

// Add returns a + b.
func Add(a, b Vector2) Vector2 { return r2.Add(a, b) }

// Sub returns a - b.
func Sub(a, b Vector2) Vector2 { return r2.Sub(a, b) }

// Scale returns f * v.
func Scale(f float64, v Vector2) Vector2 { return r2.Scale(f, v) }

// Length returns |v|.
func Length(v Vector2) float64 { return r2.Norm(v) }

// Normalize returns the unit vector along v, or the zero vector when v has
// no length.
func Normalize(v Vector2) Vector2 {
	if r2.Norm(v) == 0 {
		return Vector2{}
	}
	return r2.Unit(v)
}
