// Package nn compiles a layered genome into a runnable feed-forward network.
package nn

import (
	"errors"
	"fmt"
)

// ErrInputSize is returned when FeedForward receives the wrong number of inputs.
var ErrInputSize = errors.New("input size mismatch")

// Unit is one neuron of the compiled network together with its activation state.
type Unit struct {
	ID       int
	Layer    int
	InputSum float64
	Output   float64
}

// Link is one connection of the compiled network. Disabled links are kept so
// indices line up with the genome, but they never carry signal.
type Link struct {
	SourceID int
	TargetID int
	Weight   float64
	Enabled  bool
}

// Activation maps a unit's input sum to its output.
type Activation func(x float64) float64

// Network represents a phenotype network that can be activated.
// Units are evaluated layer by layer, so every enabled link must point from
// a lower layer to a strictly higher one.
type Network struct {
	InputIDs  []int
	OutputIDs []int
	BiasID    int
	Layers    int
	EvalOrder []int // Unit indices, layer 0 first
	Units     []Unit
	Links     []Link

	index    map[int]int // unit ID -> index into Units
	outgoing [][]int     // unit index -> indices into Links
	activate Activation
}

// Build compiles units and links into a network. Unit order within a layer
// is preserved from the units slice.
func Build(units []Unit, links []Link, inputIDs, outputIDs []int, biasID, layers int, activate Activation) (*Network, error) {
	if activate == nil {
		return nil, errors.New("nil activation function")
	}

	net := &Network{
		InputIDs:  append([]int(nil), inputIDs...),
		OutputIDs: append([]int(nil), outputIDs...),
		BiasID:    biasID,
		Layers:    layers,
		Units:     make([]Unit, len(units)),
		Links:     append([]Link(nil), links...),
		index:     make(map[int]int, len(units)),
		outgoing:  make([][]int, len(units)),
		activate:  activate,
	}

	for i, u := range units {
		if u.Layer < 0 || u.Layer >= layers {
			return nil, fmt.Errorf("unit %d has layer %d outside [0, %d)", u.ID, u.Layer, layers)
		}
		if _, dup := net.index[u.ID]; dup {
			return nil, fmt.Errorf("duplicate unit id %d", u.ID)
		}
		net.Units[i] = Unit{ID: u.ID, Layer: u.Layer}
		net.index[u.ID] = i
	}

	for _, id := range append(append([]int{biasID}, inputIDs...), outputIDs...) {
		if _, ok := net.index[id]; !ok {
			return nil, fmt.Errorf("unit %d referenced as input/output/bias does not exist", id)
		}
	}

	for li, l := range net.Links {
		src, ok := net.index[l.SourceID]
		if !ok {
			return nil, fmt.Errorf("link %d->%d: unknown source unit", l.SourceID, l.TargetID)
		}
		dst, ok := net.index[l.TargetID]
		if !ok {
			return nil, fmt.Errorf("link %d->%d: unknown target unit", l.SourceID, l.TargetID)
		}
		if l.Enabled && net.Units[src].Layer >= net.Units[dst].Layer {
			return nil, fmt.Errorf("link %d->%d is not feed-forward (layers %d -> %d)",
				l.SourceID, l.TargetID, net.Units[src].Layer, net.Units[dst].Layer)
		}
		net.outgoing[src] = append(net.outgoing[src], li)
	}

	net.EvalOrder = make([]int, 0, len(units))
	for layer := 0; layer < layers; layer++ {
		for i := range net.Units {
			if net.Units[i].Layer == layer {
				net.EvalOrder = append(net.EvalOrder, i)
			}
		}
	}

	return net, nil
}

// FeedForward computes the network's output for a given slice of input values.
// The input slice must match the number of input units. Input sums are
// cleared afterwards so consecutive calls are independent.
func (net *Network) FeedForward(inputs []float64) ([]float64, error) {
	if len(inputs) != len(net.InputIDs) {
		return nil, fmt.Errorf("%w: got %d, network has %d inputs", ErrInputSize, len(inputs), len(net.InputIDs))
	}

	for i, id := range net.InputIDs {
		net.Units[net.index[id]].Output = inputs[i]
	}
	net.Units[net.index[net.BiasID]].Output = 1.0

	for _, ui := range net.EvalOrder {
		u := &net.Units[ui]
		if u.Layer != 0 {
			u.Output = net.activate(u.InputSum)
		}
		for _, li := range net.outgoing[ui] {
			l := &net.Links[li]
			if !l.Enabled {
				continue
			}
			net.Units[net.index[l.TargetID]].InputSum += l.Weight * u.Output
		}
	}

	outputs := make([]float64, len(net.OutputIDs))
	for i, id := range net.OutputIDs {
		outputs[i] = net.Units[net.index[id]].Output
	}

	for i := range net.Units {
		net.Units[i].InputSum = 0
	}
	return outputs, nil
}

// Unit returns the compiled unit with the given ID.
func (net *Network) Unit(id int) (Unit, bool) {
	i, ok := net.index[id]
	if !ok {
		return Unit{}, false
	}
	return net.Units[i], true
}
