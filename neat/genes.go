package neat

import (
	"fmt"
	"math"
)

// --------------------------- Neuron ---------------------------

// Neuron is a node gene. Identity is the ID; the layer only changes while a
// structural mutation is shifting layers to make room for a new neuron.
type Neuron struct {
	ID    int
	Layer int
}

// String returns a string representation of the Neuron.
func (n *Neuron) String() string {
	return fmt.Sprintf("Neuron(ID: %d, Layer: %d)", n.ID, n.Layer)
}

// Copy creates a deep copy of the Neuron.
func (n *Neuron) Copy() *Neuron {
	return &Neuron{ID: n.ID, Layer: n.Layer}
}

// --------------------------- Connection ---------------------------

// Connection is an edge gene between two neurons of the same Brain.
// Endpoints are neuron IDs, never pointers, so a copied Connection can be
// placed into any Brain that holds neurons with the same IDs.
type Connection struct {
	SourceID   int
	TargetID   int
	Weight     float64
	Enabled    bool
	Innovation int
}

// NewConnection creates an enabled connection.
func NewConnection(sourceID, targetID int, weight float64, innovation int) *Connection {
	return &Connection{
		SourceID:   sourceID,
		TargetID:   targetID,
		Weight:     weight,
		Enabled:    true,
		Innovation: innovation,
	}
}

// String returns a string representation of the Connection.
func (c *Connection) String() string {
	return fmt.Sprintf("Connection(#%d %d->%d, Weight: %.3f, Enabled: %t)",
		c.Innovation, c.SourceID, c.TargetID, c.Weight, c.Enabled)
}

// Copy creates a deep copy of the Connection.
func (c *Connection) Copy() *Connection {
	cp := *c
	return &cp
}

// MutateWeight either replaces the weight with a fresh uniform value in
// [-1, 1] (replaceRate) or perturbs it with Gaussian noise and clamps.
func (c *Connection) MutateWeight(rng Rand, replaceRate, power float64) {
	if rng.Float64() < replaceRate {
		c.Weight = uniformWeight(rng)
		return
	}
	c.Weight = clamp(c.Weight+rng.NormFloat64()*power, -1, 1)
}

// uniformWeight draws a weight uniformly from [-1, 1).
func uniformWeight(rng Rand) float64 {
	return rng.Float64()*2 - 1
}

// weightDistance is the per-gene term of the compatibility formula.
func (c *Connection) weightDistance(other *Connection) float64 {
	return math.Abs(c.Weight - other.Weight)
}
