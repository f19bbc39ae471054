// Package genome provides the fixed-size genetic encoding for warriors and
// the feedforward networks it decodes into.
package genome

import (
	"errors"
	"math/bits"
	"math/rand"
)

// Size is the exact genome length in bytes. Import and export validate it.
const Size = 64

// Encoding layout within the 64 bytes.
const (
	hiddenByte     = 0 // hidden-layer size selector
	activationByte = 1 // activation function selector
	maskStart      = 2 // 64-bit connection mask
	maskEnd        = 10
	weightStart    = 10 // quantized weights, read cyclically
)

// weightBytes is the number of bytes backing the weight table.
const weightBytes = Size - weightStart

// ErrInvalidSize is returned when imported genome bytes are not exactly Size long.
var ErrInvalidSize = errors.New("genome: invalid byte length")

// Genome is an immutable fixed-size genetic encoding. It is passed by value;
// mutation and crossover always produce a new Genome.
type Genome struct {
	data [Size]byte
}

// NewRandom creates a genome with uniformly random bytes.
func NewRandom(rng *rand.Rand) Genome {
	var g Genome
	for i := range g.data {
		g.data[i] = byte(rng.Intn(256))
	}
	return g
}

// FromBytes validates and copies an imported byte sequence.
func FromBytes(b []byte) (Genome, error) {
	var g Genome
	if len(b) != Size {
		return g, ErrInvalidSize
	}
	copy(g.data[:], b)
	return g, nil
}

// Bytes returns a copy of the raw encoding.
func (g Genome) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, g.data[:])
	return out
}

// HiddenSize maps the size selector byte into [min, min+span).
func (g Genome) HiddenSize(min, span int) int {
	if span < 1 {
		span = 1
	}
	return min + int(g.data[hiddenByte])*span/256
}

// Activation returns the activation function selected by the genome.
func (g Genome) Activation() Activation {
	return Activation(g.data[activationByte] % byte(numActivations))
}

// connMask returns the 64-bit hidden-neuron enable mask.
func (g Genome) connMask() uint64 {
	var m uint64
	for i := maskStart; i < maskEnd; i++ {
		m = m<<8 | uint64(g.data[i])
	}
	return m
}

// weightByte returns the byte backing weight parameter i, wrapping over the
// weight region so any parameter count decodes.
func (g Genome) weightByte(i int) byte {
	return g.data[weightStart+i%weightBytes]
}

// Mutate returns a copy with per-byte mutations applied at the given rate.
// The operator depends on the byte's region: weight bytes get bounded gaussian
// perturbation, mask bytes get a single bit flip (topology toggle), and the
// activation byte is re-rolled (activation swap).
func (g Genome) Mutate(rng *rand.Rand, rate, sigma float64) Genome {
	out := g
	for i := range out.data {
		if rng.Float64() >= rate {
			continue
		}
		switch {
		case i == activationByte:
			out.data[i] = byte(rng.Intn(256))
		case i >= maskStart && i < maskEnd:
			out.data[i] ^= 1 << uint(rng.Intn(8))
		default:
			delta := int(rng.NormFloat64() * sigma)
			v := int(out.data[i]) + delta
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			out.data[i] = byte(v)
		}
	}
	return out
}

// Crossover mixes two genomes with a single crossover point. Fixed-size
// alignment means no topological compatibility check is needed.
func Crossover(rng *rand.Rand, a, b Genome) Genome {
	point := 1 + rng.Intn(Size-1)
	var child Genome
	copy(child.data[:point], a.data[:point])
	copy(child.data[point:], b.data[point:])
	return child
}

// Compatibility is a symmetric distance in [0,1] used by speciation.
// It combines normalized weight-byte difference, connection-mask Hamming
// fraction, and header mismatch. Identical genomes have distance 0.
func Compatibility(a, b Genome) float64 {
	var weightDiff float64
	for i := weightStart; i < Size; i++ {
		d := int(a.data[i]) - int(b.data[i])
		if d < 0 {
			d = -d
		}
		weightDiff += float64(d)
	}
	weightDiff /= float64(weightBytes) * 255

	hamming := bits.OnesCount64(a.connMask() ^ b.connMask())
	maskDiff := float64(hamming) / 64

	sizeDiff := int(a.data[hiddenByte]) - int(b.data[hiddenByte])
	if sizeDiff < 0 {
		sizeDiff = -sizeDiff
	}
	header := float64(sizeDiff) / 255 * 0.5
	if a.Activation() != b.Activation() {
		header += 0.5
	}

	return 0.6*weightDiff + 0.3*maskDiff + 0.1*header
}
