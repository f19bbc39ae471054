package evolution

import (
	"math"
	"testing"
)

func TestFinalizeFitness(t *testing.T) {
	e := NewEngine(testParams()) // weights: survival 1, resources 1, combat 2

	tests := []struct {
		name string
		ind  Individual
		want float64
	}{
		{"zero life", Individual{}, 0},
		{"survival only", Individual{TicksSurvived: 99}, math.Log(100)},
		{"resources only", Individual{Foraged: 49}, 7},
		{"combat only", Individual{Kills: 3}, 6},
		{"longevity bonus", Individual{TicksSurvived: 101}, math.Log(102) + 10},
		{"lineage bonus", Individual{Lineage: 4}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inds := []Individual{tt.ind}
			e.FinalizeFitness(inds)
			if math.Abs(inds[0].Fitness-tt.want) > 1e-9 {
				t.Errorf("fitness = %v, want %v", inds[0].Fitness, tt.want)
			}
		})
	}
}

func TestFitnessMonotonicInSurvival(t *testing.T) {
	e := NewEngine(testParams())
	inds := []Individual{
		{TicksSurvived: 10},
		{TicksSurvived: 50},
	}
	e.FinalizeFitness(inds)
	if inds[1].Fitness <= inds[0].Fitness {
		t.Errorf("longer survival scored %v, shorter %v", inds[1].Fitness, inds[0].Fitness)
	}
}
