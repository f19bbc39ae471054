package genome

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestFromBytesSize(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"exact size", Size, false},
		{"empty", 0, true},
		{"short", Size - 1, true},
		{"long", Size + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromBytes(make([]byte, tt.length))
			if (err != nil) != tt.wantErr {
				t.Errorf("FromBytes(len %d) error = %v, wantErr %v", tt.length, err, tt.wantErr)
			}
		})
	}
}

func TestBytesRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := NewRandom(rng)

	b := g.Bytes()
	g2, err := FromBytes(b)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !bytes.Equal(g2.Bytes(), b) {
		t.Error("round-tripped genome bytes differ")
	}

	// Bytes must be a copy; mutating it must not reach the genome.
	b[0] ^= 0xFF
	if g.Bytes()[0] == b[0] {
		t.Error("Bytes() returned a view into the genome")
	}
}

func TestHiddenSizeBounds(t *testing.T) {
	for b := 0; b < 256; b++ {
		var g Genome
		g.data[hiddenByte] = byte(b)
		h := g.HiddenSize(16, 17)
		if h < 16 || h > 32 {
			t.Fatalf("byte %d: hidden size %d outside [16,32]", b, h)
		}
	}
}

func TestDecodeTotality(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	genomes := []struct {
		name string
		g    Genome
	}{
		{"all zero", Genome{}},
		{"all ones", func() Genome {
			var g Genome
			for i := range g.data {
				g.data[i] = 0xFF
			}
			return g
		}()},
		{"random", NewRandom(rng)},
	}

	for _, tt := range genomes {
		t.Run(tt.name, func(t *testing.T) {
			n := Decode(tt.g, DefaultParams)
			if n.Hidden < 16 || n.Hidden > 32 {
				t.Errorf("hidden = %d, want within [16,32]", n.Hidden)
			}
			if len(n.W1) != n.Hidden*NumInputs {
				t.Errorf("len(W1) = %d, want %d", len(n.W1), n.Hidden*NumInputs)
			}
			enabled := 0
			for h := 0; h < n.Hidden; h++ {
				if n.Enabled(h) {
					enabled++
				}
			}
			if enabled == 0 {
				t.Error("no hidden neuron enabled after decode")
			}
			for i, w := range n.W1 {
				if w < -1 || w > 1 {
					t.Fatalf("W1[%d] = %v outside [-1,1]", i, w)
				}
			}
		})
	}
}

func TestMutateRateZeroIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := NewRandom(rng)
	m := g.Mutate(rng, 0, 24)
	if !bytes.Equal(g.Bytes(), m.Bytes()) {
		t.Error("mutation at rate 0 changed the genome")
	}
}

func TestMutatePreservesOriginal(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := NewRandom(rng)
	before := g.Bytes()
	g.Mutate(rng, 1, 24)
	if !bytes.Equal(g.Bytes(), before) {
		t.Error("Mutate modified the receiver")
	}
}

func TestMutateRateOneChangesWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	g := NewRandom(rng)
	m := g.Mutate(rng, 1, 24)
	if bytes.Equal(g.Bytes(), m.Bytes()) {
		t.Error("mutation at rate 1 left the genome unchanged")
	}
}

func TestCrossoverMixesParents(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	var a, b Genome
	for i := range a.data {
		a.data[i] = 0x00
		b.data[i] = 0xFF
	}

	child := Crossover(rng, a, b)
	cb := child.Bytes()
	if cb[0] != 0x00 {
		t.Errorf("child[0] = %#x, want prefix from first parent", cb[0])
	}
	if cb[Size-1] != 0xFF {
		t.Errorf("child[last] = %#x, want suffix from second parent", cb[Size-1])
	}
}

func TestCompatibility(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	a := NewRandom(rng)
	b := NewRandom(rng)

	if d := Compatibility(a, a); d != 0 {
		t.Errorf("self distance = %v, want 0", d)
	}
	if d1, d2 := Compatibility(a, b), Compatibility(b, a); d1 != d2 {
		t.Errorf("asymmetric distance: %v vs %v", d1, d2)
	}

	var zero, ones Genome
	for i := range ones.data {
		ones.data[i] = 0xFF
	}
	d := Compatibility(zero, ones)
	if d <= 0 || d > 1 {
		t.Errorf("max-contrast distance = %v, want in (0,1]", d)
	}
}

func TestMutationDeterminism(t *testing.T) {
	g := NewRandom(rand.New(rand.NewSource(21)))

	m1 := g.Mutate(rand.New(rand.NewSource(5)), 0.5, 24)
	m2 := g.Mutate(rand.New(rand.NewSource(5)), 0.5, 24)
	if !bytes.Equal(m1.Bytes(), m2.Bytes()) {
		t.Error("same seed produced different mutations")
	}
}
