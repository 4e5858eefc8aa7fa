package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand returns the same values on every draw.
type fixedRand struct {
	f    float64
	norm float64
}

func (r fixedRand) Float64() float64     { return r.f }
func (r fixedRand) NormFloat64() float64 { return r.norm }
func (r fixedRand) Intn(int) int         { return 0 }

func genomeConfig(layers int) *GenomeConfig {
	cfg := DefaultConfig().Genome
	cfg.Layers = layers
	return &cfg
}

func innovationSet(b *Brain) map[int]bool {
	set := make(map[int]bool, len(b.Connections))
	for _, c := range b.Connections {
		set[c.Innovation] = true
	}
	return set
}

// evolvedBrain returns a fully connected brain that went through a few
// rounds of structural mutation.
func evolvedBrain(t *testing.T, ledger *InnovationLedger, seed int64) *Brain {
	t.Helper()
	rng := NewRand(seed)
	b := NewBrain(3, 2, nil)
	b.FullyConnect(ledger, rng)
	for i := 0; i < 5; i++ {
		b.AddNode(ledger, rng)
		b.AddConnection(ledger, rng)
	}
	require.NoError(t, b.GenerateNetwork())
	return b
}

func TestNewBrainLayout(t *testing.T) {
	b := NewBrain(2, 3, nil)

	assert.Equal(t, 4, b.Layers)
	assert.Equal(t, 5, b.BiasID)
	assert.Equal(t, 6, b.NextNeuronID)
	assert.Len(t, b.Neurons, 6)
	assert.Empty(t, b.Connections)

	for id := 0; id < 2; id++ {
		assert.Equal(t, 0, b.Neuron(id).Layer)
	}
	for id := 2; id < 5; id++ {
		assert.Equal(t, 3, b.Neuron(id).Layer)
	}
	assert.Equal(t, 0, b.Neuron(b.BiasID).Layer)
	assert.Nil(t, b.Neuron(99))
}

func TestFeedForwardOutputRange(t *testing.T) {
	ledger := NewInnovationLedger()
	rng := NewRand(3)

	for seed := int64(1); seed <= 10; seed++ {
		b := evolvedBrain(t, ledger, seed)
		for i := 0; i < 20; i++ {
			inputs := []float64{rng.Float64()*20 - 10, rng.Float64()*20 - 10, rng.Float64()*20 - 10}
			out, err := b.FeedForward(inputs)
			require.NoError(t, err)
			require.Len(t, out, b.Outputs)
			for _, v := range out {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		}
	}
}

func TestFeedForwardErrors(t *testing.T) {
	ledger := NewInnovationLedger()
	b := NewBrain(2, 1, nil)
	b.FullyConnect(ledger, NewRand(1))

	_, err := b.FeedForward([]float64{1, 1})
	assert.ErrorIs(t, err, ErrNetworkNotGenerated)

	require.NoError(t, b.GenerateNetwork())
	_, err = b.FeedForward([]float64{1})
	assert.ErrorIs(t, err, ErrInputSize)

	b.AddNode(ledger, NewRand(1))
	_, err = b.FeedForward([]float64{1, 1})
	assert.ErrorIs(t, err, ErrNetworkNotGenerated)
}

func TestFeedForwardUsesSteepSigmoid(t *testing.T) {
	ledger := NewInnovationLedger()
	b := NewBrain(1, 1, nil)
	b.Connections = append(b.Connections, NewConnection(b.BiasID, 1, 1.0, b.InnovationNumber(ledger, b.BiasID, 1)))
	require.NoError(t, b.GenerateNetwork())

	out, err := b.FeedForward([]float64{0})
	require.NoError(t, err)
	assert.InDelta(t, Sigmoid(1.0, DefaultSigmoidSteepness), out[0], 1e-12)
	assert.Greater(t, out[0], 0.99)
}

func TestInnovationReuseForSameSignature(t *testing.T) {
	ledger := NewInnovationLedger()
	a := NewBrain(2, 1, nil)
	b := NewBrain(2, 1, nil)

	a.FullyConnect(ledger, NewRand(1))
	b.FullyConnect(ledger, NewRand(2))
	assert.Equal(t, a.Innovations(), b.Innovations())
	assert.Equal(t, 3, ledger.Len())

	// Same mutation from the same starting point gets the same number.
	x, y := a.Clone(), b.Clone()
	x.AddNode(ledger, fixedRand{f: 0.5})
	y.AddNode(ledger, fixedRand{f: 0.5})
	assert.Equal(t, x.Innovations(), y.Innovations())
	assert.Equal(t, 6, ledger.Len())
}

func TestInnovationDependsOnHistory(t *testing.T) {
	ledger := NewInnovationLedger()
	a := NewBrain(2, 1, nil)
	first := a.InnovationNumber(ledger, 0, 2)
	a.Connections = append(a.Connections, NewConnection(0, 2, 0.1, first))

	// Same endpoints, different current connections.
	second := a.InnovationNumber(ledger, 0, 2)
	assert.NotEqual(t, first, second)

	fresh := NewBrain(2, 1, nil)
	assert.Equal(t, first, fresh.InnovationNumber(ledger, 0, 2))
}

func TestAddConnection(t *testing.T) {
	ledger := NewInnovationLedger()
	rng := NewRand(5)
	b := NewBrain(3, 2, nil)

	b.AddConnection(ledger, rng)
	require.Len(t, b.Connections, 1)
	c := b.Connections[0]
	assert.Less(t, b.Neuron(c.SourceID).Layer, b.Neuron(c.TargetID).Layer)
	assert.True(t, c.Enabled)
	assert.GreaterOrEqual(t, c.Weight, -1.0)
	assert.LessOrEqual(t, c.Weight, 1.0)

	// Keep adding until the brain saturates; the operator must terminate
	// and never duplicate a pair.
	for i := 0; i < 50; i++ {
		b.AddConnection(ledger, rng)
	}
	assert.True(t, b.IsFullyConnected())
	assert.Len(t, b.Connections, 8) // (3 inputs + bias) * 2 outputs

	seen := map[[2]int]bool{}
	for _, c := range b.Connections {
		key := [2]int{c.SourceID, c.TargetID}
		assert.False(t, seen[key], "duplicate connection %v", key)
		seen[key] = true
	}
}

func TestAddConnectionFullyConnectedIsNoop(t *testing.T) {
	ledger := NewInnovationLedger()
	b := NewBrain(2, 1, nil)
	b.FullyConnect(ledger, NewRand(1))
	require.True(t, b.IsFullyConnected())

	before := ledger.Len()
	b.AddConnection(ledger, NewRand(1))
	assert.Len(t, b.Connections, 3)
	assert.Equal(t, before, ledger.Len())
}

func TestAddNodeSplitsConnection(t *testing.T) {
	ledger := NewInnovationLedger()
	b := NewBrain(2, 1, nil)
	old := NewConnection(0, 2, 0.5, b.InnovationNumber(ledger, 0, 2))
	b.Connections = append(b.Connections, old)

	b.AddNode(ledger, NewRand(11))

	assert.Len(t, b.Neurons, 5)
	assert.Len(t, b.Connections, 4)
	assert.False(t, old.Enabled)
	assert.Equal(t, 4, b.Layers, "no collision between layer 1 and the output layer")

	neuron := b.Neurons[len(b.Neurons)-1]
	assert.Equal(t, 4, neuron.ID)
	assert.Equal(t, 1, neuron.Layer)

	added := b.Connections[1:]
	assert.Equal(t, [3]float64{1.0, 0.5, 0.0}, [3]float64{added[0].Weight, added[1].Weight, added[2].Weight})
	assert.Equal(t, [2]int{0, 4}, [2]int{added[0].SourceID, added[0].TargetID})
	assert.Equal(t, [2]int{4, 2}, [2]int{added[1].SourceID, added[1].TargetID})
	assert.Equal(t, [2]int{b.BiasID, 4}, [2]int{added[2].SourceID, added[2].TargetID})
	require.NoError(t, b.GenerateNetwork())
}

func TestAddNodeShiftsLayersOnCollision(t *testing.T) {
	ledger := NewInnovationLedger()
	b := NewBrain(2, 1, genomeConfig(2))
	old := NewConnection(0, 2, 0.5, b.InnovationNumber(ledger, 0, 2))
	b.Connections = append(b.Connections, old)

	b.AddNode(ledger, NewRand(11))

	assert.Len(t, b.Connections, 4)
	assert.Equal(t, 3, b.Layers)
	assert.Equal(t, 1, b.Neuron(4).Layer)
	assert.Equal(t, 2, b.Neuron(2).Layer, "output moved above the new neuron")
	assert.Equal(t, 0, b.Neuron(0).Layer)
	assert.Equal(t, 0, b.Neuron(b.BiasID).Layer)
	require.NoError(t, b.GenerateNetwork())
}

func TestAddNodeWithoutConnectionsAddsConnection(t *testing.T) {
	ledger := NewInnovationLedger()
	b := NewBrain(2, 1, nil)
	b.AddNode(ledger, NewRand(1))
	assert.Len(t, b.Connections, 1)
	assert.Len(t, b.Neurons, 4)
}

// Splitting a bias-sourced connection is the one split that adds two
// connections rather than three: parent->new is already bias->new.
func TestAddNodeOnBiasConnectionAddsTwoConnections(t *testing.T) {
	ledger := NewInnovationLedger()
	b := NewBrain(1, 1, nil)
	b.Connections = append(b.Connections, NewConnection(b.BiasID, 1, 0.3, b.InnovationNumber(ledger, b.BiasID, 1)))

	b.AddNode(ledger, NewRand(1))

	require.Len(t, b.Connections, 3)
	assert.False(t, b.Connections[0].Enabled, "split connection is disabled")
	added := b.Connections[1:]
	assert.Equal(t, [2]int{b.BiasID, 3}, [2]int{added[0].SourceID, added[0].TargetID})
	assert.Equal(t, 1.0, added[0].Weight)
	assert.Equal(t, [2]int{3, 1}, [2]int{added[1].SourceID, added[1].TargetID})
	assert.Equal(t, 0.3, added[1].Weight)

	bias := 0
	for _, c := range b.Connections {
		if c.SourceID == b.BiasID && c.TargetID == 3 {
			bias++
		}
	}
	assert.Equal(t, 1, bias, "no duplicate bias->new connection")
	require.NoError(t, b.GenerateNetwork())
}

func TestMutateWithoutConnections(t *testing.T) {
	cfg := genomeConfig(4)
	cfg.WeightMutateRate = 0
	cfg.ConnAddProb = 0
	cfg.NodeAddProb = 0

	b := NewBrain(2, 2, cfg)
	b.Mutate(NewInnovationLedger(), NewRand(1))
	assert.Len(t, b.Connections, 1)
}

func TestMutateWeight(t *testing.T) {
	c := NewConnection(0, 1, 0.2, 0)
	c.MutateWeight(fixedRand{f: 0.05}, 0.1, 0.02)
	assert.InDelta(t, -0.9, c.Weight, 1e-12, "replaced with a uniform draw")

	c.MutateWeight(fixedRand{f: 0.5, norm: 1000}, 0.1, 0.02)
	assert.Equal(t, 1.0, c.Weight, "perturbation is clamped")
}

func TestCrossoverInheritsOnlyParentGenes(t *testing.T) {
	ledger := NewInnovationLedger()
	a := evolvedBrain(t, ledger, 21)
	b := evolvedBrain(t, ledger, 22)
	union := innovationSet(a)
	for k := range innovationSet(b) {
		union[k] = true
	}

	rng := NewRand(9)
	for i := 0; i < 20; i++ {
		child := a.Crossover(b, rng)
		require.Len(t, child.Connections, len(a.Connections))
		for _, c := range child.Connections {
			assert.True(t, union[c.Innovation], "innovation %d not in either parent", c.Innovation)
		}
		assert.Len(t, child.Neurons, len(a.Neurons))
		require.NoError(t, child.GenerateNetwork())
	}
}

func TestCrossoverDisableInheritance(t *testing.T) {
	ledger := NewInnovationLedger()
	a := NewBrain(2, 1, nil)
	a.FullyConnect(ledger, NewRand(1))
	b := a.Clone()
	a.Connections[0].Enabled = false
	b.Connections[0].Weight = 0.123

	child := a.Crossover(b, fixedRand{f: 0.1})
	assert.False(t, child.Connections[0].Enabled)

	child = a.Crossover(b, fixedRand{f: 0.9})
	assert.True(t, child.Connections[0].Enabled)
	assert.Equal(t, 0.123, child.Connections[0].Weight, "gene taken from the other parent")
}

func TestCloneIsIndependent(t *testing.T) {
	ledger := NewInnovationLedger()
	original := evolvedBrain(t, ledger, 31)
	neurons := len(original.Neurons)
	connections := len(original.Connections)
	layers := original.Layers
	weights := make([]float64, connections)
	enabled := make([]bool, connections)
	for i, c := range original.Connections {
		weights[i] = c.Weight
		enabled[i] = c.Enabled
	}

	clone := original.Clone()
	rng := NewRand(32)
	for i := 0; i < 10; i++ {
		clone.AddNode(ledger, rng)
		clone.AddConnection(ledger, rng)
		for _, c := range clone.Connections {
			c.MutateWeight(rng, 0.5, 0.5)
		}
	}

	assert.Len(t, original.Neurons, neurons)
	assert.Len(t, original.Connections, connections)
	assert.Equal(t, layers, original.Layers)
	for i, c := range original.Connections {
		assert.Equal(t, weights[i], c.Weight)
		assert.Equal(t, enabled[i], c.Enabled)
	}
	_, err := original.FeedForward([]float64{1, 2, 3})
	assert.NoError(t, err, "original network untouched")
}

func TestTopologyIsACopy(t *testing.T) {
	ledger := NewInnovationLedger()
	b := evolvedBrain(t, ledger, 41)
	topo := b.Topology()

	require.Len(t, topo.Connections, len(b.Connections))
	topo.Connections[0].Weight = 42
	assert.NotEqual(t, 42.0, b.Connections[0].Weight)
	assert.ElementsMatch(t, []int{0, 1, 2, b.BiasID}, topo.NeuronsInLayer(0))
}
