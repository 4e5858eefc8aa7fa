package neat

// Topology is a read-only copy of a brain's structure, suitable for drawing.
type Topology struct {
	Layers      int
	BiasID      int
	Neurons     []Neuron
	Connections []Connection
}

// Topology returns a value copy of the brain's neurons and connections.
func (b *Brain) Topology() Topology {
	t := Topology{
		Layers:      b.Layers,
		BiasID:      b.BiasID,
		Neurons:     make([]Neuron, len(b.Neurons)),
		Connections: make([]Connection, len(b.Connections)),
	}
	for i, n := range b.Neurons {
		t.Neurons[i] = *n
	}
	for i, c := range b.Connections {
		t.Connections[i] = *c
	}
	return t
}

// NeuronsInLayer returns the IDs of the neurons on the given layer.
func (t Topology) NeuronsInLayer(layer int) []int {
	var ids []int
	for _, n := range t.Neurons {
		if n.Layer == layer {
			ids = append(ids, n.ID)
		}
	}
	return ids
}
