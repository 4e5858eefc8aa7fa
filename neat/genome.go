package neat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/baldhumanity/neat-creatures/neat/nn"
)

var (
	// ErrNetworkNotGenerated is returned by FeedForward when the brain was
	// changed since the last GenerateNetwork call.
	ErrNetworkNotGenerated = errors.New("network not generated since last mutation")
	// ErrInputSize is returned by FeedForward when the input length is wrong.
	ErrInputSize = nn.ErrInputSize
)

// maxConnectionAttempts bounds the rejection sampling in AddConnection before
// it falls back to enumerating every valid pair.
const maxConnectionAttempts = 64

// Brain is a layered NEAT genome together with its compiled network.
// Inputs and the bias live on layer 0, outputs on layer Layers-1, and every
// connection points from a lower layer to a higher one.
type Brain struct {
	Inputs       int
	Outputs      int
	Layers       int
	BiasID       int
	NextNeuronID int // Next free neuron ID for this brain

	Neurons     []*Neuron // Creation order
	Connections []*Connection

	Config  *GenomeConfig
	network *nn.Network
}

// NewBrain creates a brain with the given number of input and output neurons,
// a bias neuron and no connections. Inputs get IDs 0..inputs-1, outputs the
// following IDs and the bias the ID after that.
func NewBrain(inputs, outputs int, config *GenomeConfig) *Brain {
	if config == nil {
		config = &DefaultConfig().Genome
	}
	b := &Brain{
		Inputs:  inputs,
		Outputs: outputs,
		Layers:  config.Layers,
		Config:  config,
	}
	for i := 0; i < inputs; i++ {
		b.Neurons = append(b.Neurons, &Neuron{ID: i, Layer: 0})
	}
	for i := 0; i < outputs; i++ {
		b.Neurons = append(b.Neurons, &Neuron{ID: inputs + i, Layer: b.Layers - 1})
	}
	b.BiasID = inputs + outputs
	b.Neurons = append(b.Neurons, &Neuron{ID: b.BiasID, Layer: 0})
	b.NextNeuronID = b.BiasID + 1
	return b
}

// Neuron returns the neuron with the given ID, or nil.
func (b *Brain) Neuron(id int) *Neuron {
	for _, n := range b.Neurons {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Innovations returns the innovation numbers of every connection in order.
func (b *Brain) Innovations() []int {
	out := make([]int, len(b.Connections))
	for i, c := range b.Connections {
		out[i] = c.Innovation
	}
	return out
}

// InnovationNumber returns the ledger's innovation number for a
// sourceID->targetID connection added to this brain in its current state.
func (b *Brain) InnovationNumber(ledger *InnovationLedger, sourceID, targetID int) int {
	return ledger.Lookup(sourceID, targetID, b.Innovations())
}

// connected reports whether a and b are linked in either direction.
func (b *Brain) connected(a, c int) bool {
	for _, conn := range b.Connections {
		if (conn.SourceID == a && conn.TargetID == c) || (conn.SourceID == c && conn.TargetID == a) {
			return true
		}
	}
	return false
}

// maxConnections is the number of cross-layer neuron pairs, bias included.
func (b *Brain) maxConnections() int {
	perLayer := make([]int, b.Layers)
	for _, n := range b.Neurons {
		perLayer[n.Layer]++
	}
	total := 0
	below := 0
	for _, count := range perLayer {
		total += count * below
		below += count
	}
	return total
}

// IsFullyConnected reports whether every cross-layer pair is already wired.
func (b *Brain) IsFullyConnected() bool {
	return len(b.Connections) >= b.maxConnections()
}

func (b *Brain) validPair(a, c *Neuron) bool {
	return a.Layer != c.Layer && !b.connected(a.ID, c.ID)
}

// appendConnection records a new enabled connection via the ledger.
func (b *Brain) appendConnection(ledger *InnovationLedger, sourceID, targetID int, weight float64) *Connection {
	conn := NewConnection(sourceID, targetID, weight, b.InnovationNumber(ledger, sourceID, targetID))
	b.Connections = append(b.Connections, conn)
	b.network = nil
	return conn
}

// AddConnection wires two unconnected neurons on different layers with a
// uniform random weight. It is a no-op when the brain is fully connected.
func (b *Brain) AddConnection(ledger *InnovationLedger, rng Rand) {
	if b.IsFullyConnected() {
		return
	}

	var src, dst *Neuron
	for attempt := 0; attempt < maxConnectionAttempts; attempt++ {
		a := b.Neurons[rng.Intn(len(b.Neurons))]
		c := b.Neurons[rng.Intn(len(b.Neurons))]
		if b.validPair(a, c) {
			src, dst = a, c
			break
		}
	}

	if src == nil {
		var pairs [][2]*Neuron
		for i, a := range b.Neurons {
			for _, c := range b.Neurons[i+1:] {
				if b.validPair(a, c) {
					pairs = append(pairs, [2]*Neuron{a, c})
				}
			}
		}
		if len(pairs) == 0 {
			return
		}
		pick := pairs[rng.Intn(len(pairs))]
		src, dst = pick[0], pick[1]
	}

	if src.Layer > dst.Layer {
		src, dst = dst, src
	}
	b.appendConnection(ledger, src.ID, dst.ID, uniformWeight(rng))
}

// AddNode splits a random enabled connection with a new neuron. The old
// connection is disabled and replaced by parent->new (weight 1), new->child
// (old weight) and bias->new (weight 0). Bias-sourced connections are split
// only when nothing else can be; parent->new then already comes from the
// bias, so the split adds two connections instead of three. When the new
// neuron would share a
// layer with the child, every neuron from that layer up is shifted one layer
// higher. Falls back to AddConnection when nothing can be split.
func (b *Brain) AddNode(ledger *InnovationLedger, rng Rand) {
	var candidates, biasCandidates []*Connection
	for _, c := range b.Connections {
		if !c.Enabled {
			continue
		}
		if c.SourceID == b.BiasID {
			biasCandidates = append(biasCandidates, c)
		} else {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		candidates = biasCandidates
	}
	if len(candidates) == 0 {
		b.AddConnection(ledger, rng)
		return
	}

	split := candidates[rng.Intn(len(candidates))]
	split.Enabled = false

	parent := b.Neuron(split.SourceID)
	child := b.Neuron(split.TargetID)
	layer := parent.Layer + 1
	if layer == child.Layer {
		for _, n := range b.Neurons {
			if n.Layer >= layer {
				n.Layer++
			}
		}
		b.Layers++
	}

	neuron := &Neuron{ID: b.NextNeuronID, Layer: layer}
	b.NextNeuronID++
	b.Neurons = append(b.Neurons, neuron)

	b.appendConnection(ledger, parent.ID, neuron.ID, 1.0)
	b.appendConnection(ledger, neuron.ID, child.ID, split.Weight)
	// A bias-sourced split already wired bias->new above.
	if parent.ID != b.BiasID {
		b.appendConnection(ledger, b.BiasID, neuron.ID, 0.0)
	}
}

// Mutate applies weight and structural mutations. Each of the three
// mutation kinds is drawn independently.
func (b *Brain) Mutate(ledger *InnovationLedger, rng Rand) {
	if len(b.Connections) == 0 {
		b.AddConnection(ledger, rng)
	}

	if rng.Float64() < b.Config.WeightMutateRate {
		for _, c := range b.Connections {
			c.MutateWeight(rng, b.Config.WeightReplaceRate, b.Config.WeightMutatePower)
		}
	}
	if rng.Float64() < b.Config.ConnAddProb {
		b.AddConnection(ledger, rng)
	}
	if rng.Float64() < b.Config.NodeAddProb {
		b.AddNode(ledger, rng)
	}
	b.network = nil
}

// FullyConnect wires every input and the bias to every output that it is not
// already connected to.
func (b *Brain) FullyConnect(ledger *InnovationLedger, rng Rand) {
	sources := make([]int, 0, b.Inputs+1)
	for i := 0; i < b.Inputs; i++ {
		sources = append(sources, i)
	}
	sources = append(sources, b.BiasID)

	for _, src := range sources {
		for o := 0; o < b.Outputs; o++ {
			dst := b.Inputs + o
			if b.connected(src, dst) {
				continue
			}
			b.appendConnection(ledger, src, dst, uniformWeight(rng))
		}
	}
}

// GenerateNetwork compiles the brain into its evaluation order. It must be
// called after any mutation and before FeedForward.
func (b *Brain) GenerateNetwork() error {
	activation, err := GetActivation(b.Config.ActivationDefault)
	if err != nil {
		return err
	}
	k := b.Config.SigmoidSteepness

	units := make([]nn.Unit, len(b.Neurons))
	for i, n := range b.Neurons {
		units[i] = nn.Unit{ID: n.ID, Layer: n.Layer}
	}
	links := make([]nn.Link, len(b.Connections))
	for i, c := range b.Connections {
		links[i] = nn.Link{SourceID: c.SourceID, TargetID: c.TargetID, Weight: c.Weight, Enabled: c.Enabled}
	}
	inputIDs := make([]int, b.Inputs)
	for i := range inputIDs {
		inputIDs[i] = i
	}
	outputIDs := make([]int, b.Outputs)
	for i := range outputIDs {
		outputIDs[i] = b.Inputs + i
	}

	network, err := nn.Build(units, links, inputIDs, outputIDs, b.BiasID, b.Layers,
		func(x float64) float64 { return activation(x, k) })
	if err != nil {
		return fmt.Errorf("failed to build network: %w", err)
	}
	b.network = network
	return nil
}

// FeedForward evaluates the compiled network. Exactly Outputs values in
// [0, 1] are returned for Inputs input values.
func (b *Brain) FeedForward(inputs []float64) ([]float64, error) {
	if b.network == nil {
		return nil, ErrNetworkNotGenerated
	}
	return b.network.FeedForward(inputs)
}

// Crossover breeds a child from b and other. Only b's genes are traversed,
// so the caller passes the fitter parent as the receiver. Matching genes are
// taken from either parent with equal chance and stay disabled with
// DisableInheritRate probability if either parent disabled them; disjoint and
// excess genes are copied from b.
func (b *Brain) Crossover(other *Brain, rng Rand) *Brain {
	child := b.cloneStructure()

	byInnovation := make(map[int]*Connection, len(other.Connections))
	for _, c := range other.Connections {
		byInnovation[c.Innovation] = c
	}

	child.Connections = make([]*Connection, 0, len(b.Connections))
	for _, c := range b.Connections {
		match, ok := byInnovation[c.Innovation]
		if !ok {
			child.Connections = append(child.Connections, c.Copy())
			continue
		}

		enabled := true
		if !c.Enabled || !match.Enabled {
			if rng.Float64() < b.Config.DisableInheritRate {
				enabled = false
			}
		}
		var gene *Connection
		if rng.Float64() < 0.5 {
			gene = c.Copy()
		} else {
			gene = match.Copy()
		}
		gene.Enabled = enabled
		child.Connections = append(child.Connections, gene)
	}
	return child
}

// Clone returns a deep copy of the brain. The copy needs GenerateNetwork
// before it can be evaluated.
func (b *Brain) Clone() *Brain {
	clone := b.cloneStructure()
	clone.Connections = make([]*Connection, len(b.Connections))
	for i, c := range b.Connections {
		clone.Connections[i] = c.Copy()
	}
	return clone
}

// cloneStructure copies everything but the connections.
func (b *Brain) cloneStructure() *Brain {
	clone := &Brain{
		Inputs:       b.Inputs,
		Outputs:      b.Outputs,
		Layers:       b.Layers,
		BiasID:       b.BiasID,
		NextNeuronID: b.NextNeuronID,
		Neurons:      make([]*Neuron, len(b.Neurons)),
		Config:       b.Config,
	}
	for i, n := range b.Neurons {
		clone.Neurons[i] = n.Copy()
	}
	return clone
}

// String returns a multi-line description of the brain.
func (b *Brain) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Brain(Inputs: %d, Outputs: %d, Layers: %d, Neurons: %d, Connections: %d)",
		b.Inputs, b.Outputs, b.Layers, len(b.Neurons), len(b.Connections))
	for _, c := range b.Connections {
		sb.WriteString("\n  ")
		sb.WriteString(c.String())
	}
	return sb.String()
}
