package genome

import "math"

// Network dimensions fixed by the sensor and action contracts.
const (
	NumInputs  = 8 // sensor values fed to every warrior
	NumOutputs = 4 // action scores: move, replicate, attack, defend
)

// Activation selects the hidden-layer activation function.
type Activation uint8

const (
	ActTanh Activation = iota
	ActLogistic
	ActReLU
	ActLinear
	numActivations
)

// String returns the activation name for snapshots and logs.
func (a Activation) String() string {
	switch a {
	case ActTanh:
		return "tanh"
	case ActLogistic:
		return "logistic"
	case ActReLU:
		return "relu"
	case ActLinear:
		return "linear"
	default:
		return "?"
	}
}

func (a Activation) apply(x float32) float32 {
	switch a {
	case ActTanh:
		return tanh(x)
	case ActLogistic:
		return 1 / (1 + exp(-x))
	case ActReLU:
		if x < 0 {
			return 0
		}
		return x
	default:
		return x
	}
}

// Params bounds the decoded hidden layer. Values come from config; the
// defaults match the 16..32 neuron contract.
type Params struct {
	HiddenMin  int
	HiddenSpan int
}

// DefaultParams is used where no config is threaded (tests, tooling).
var DefaultParams = Params{HiddenMin: 16, HiddenSpan: 17}

// Network is the decoded feedforward structure: 8 inputs, one hidden layer,
// 4 outputs. It is derived deterministically from a Genome and never mutated
// directly; heritable change goes through the genome.
type Network struct {
	Hidden int
	Act    Activation

	// Row-major weights: W1[h*NumInputs+i], W2[o*Hidden+h].
	W1 []float32
	B1 []float32
	W2 []float32
	B2 [NumOutputs]float32

	// enabled[h] is the hidden-neuron connection toggle from the genome mask.
	enabled []bool
}

// Decode is total: any 64-byte genome yields a structurally valid network.
// Out-of-range bytes wrap into the weight table rather than failing.
func Decode(g Genome, p Params) *Network {
	hidden := g.HiddenSize(p.HiddenMin, p.HiddenSpan)
	n := &Network{
		Hidden:  hidden,
		Act:     g.Activation(),
		W1:      make([]float32, hidden*NumInputs),
		B1:      make([]float32, hidden),
		W2:      make([]float32, NumOutputs*hidden),
		enabled: make([]bool, hidden),
	}

	idx := 0
	next := func() float32 {
		w := float32(g.weightByte(idx))/127.5 - 1
		idx++
		return w
	}
	for i := range n.W1 {
		n.W1[i] = next()
	}
	for i := range n.B1 {
		n.B1[i] = next()
	}
	for i := range n.W2 {
		n.W2[i] = next()
	}
	for i := range n.B2 {
		n.B2[i] = next()
	}

	mask := g.connMask()
	anyEnabled := false
	for h := 0; h < hidden; h++ {
		n.enabled[h] = mask&(1<<uint(h%64)) != 0
		anyEnabled = anyEnabled || n.enabled[h]
	}
	// A fully cleared mask must still decode to a working network.
	if !anyEnabled {
		n.enabled[0] = true
	}
	return n
}

// Enabled reports whether hidden neuron h is gated on by the genome mask.
func (n *Network) Enabled(h int) bool {
	return h >= 0 && h < len(n.enabled) && n.enabled[h]
}

// Forward computes the four action scores for one sensor frame. Pure.
func (n *Network) Forward(inputs [NumInputs]float32) [NumOutputs]float32 {
	hidden := make([]float32, n.Hidden)
	for h := 0; h < n.Hidden; h++ {
		if !n.enabled[h] {
			continue
		}
		sum := n.B1[h]
		base := h * NumInputs
		for i := 0; i < NumInputs; i++ {
			sum += n.W1[base+i] * inputs[i]
		}
		hidden[h] = n.Act.apply(sum)
	}

	var out [NumOutputs]float32
	for o := 0; o < NumOutputs; o++ {
		sum := n.B2[o]
		base := o * n.Hidden
		for h := 0; h < n.Hidden; h++ {
			sum += n.W2[base+h] * hidden[h]
		}
		out[o] = tanh(sum)
	}
	return out
}

// Nudge applies a phenotypic weight adjustment toward the local reward signal.
// It scales active weights by the signed reward; the stored genome is not
// touched, so the change is not heritable.
func (n *Network) Nudge(reward, rate float32) {
	f := 1 + rate*reward
	for i := range n.W1 {
		n.W1[i] = clampWeight(n.W1[i] * f)
	}
	for i := range n.W2 {
		n.W2[i] = clampWeight(n.W2[i] * f)
	}
}

// EncodeWeights writes the live weights back into a copy of the genome's
// weight region. Only used when backprop writeback is configured; later
// parameters win where the cyclic table aliases bytes.
func (n *Network) EncodeWeights(g Genome) Genome {
	out := g
	idx := 0
	put := func(w float32) {
		b := int((w + 1) * 127.5)
		if b < 0 {
			b = 0
		} else if b > 255 {
			b = 255
		}
		out.data[weightStart+idx%weightBytes] = byte(b)
		idx++
	}
	for _, w := range n.W1 {
		put(w)
	}
	for _, w := range n.B1 {
		put(w)
	}
	for _, w := range n.W2 {
		put(w)
	}
	for _, w := range n.B2 {
		put(w)
	}
	return out
}

func clampWeight(w float32) float32 {
	if w > 1 {
		return 1
	}
	if w < -1 {
		return -1
	}
	return w
}

// tanh is a float32 tanh with cheap saturation branches.
func tanh(x float32) float32 {
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	return float32(math.Tanh(float64(x)))
}

func exp(x float32) float32 {
	return float32(math.Exp(float64(x)))
}
