package evolution

import "math"

// FinalizeFitness computes each individual's raw fitness from its recorded
// life: log-scaled survival time, square-root-scaled resource acquisition,
// and a combat term, plus longevity and lineage bonuses.
func (e *Engine) FinalizeFitness(inds []Individual) {
	for i := range inds {
		ind := &inds[i]

		survival := math.Log(float64(ind.TicksSurvived) + 1)
		resources := math.Sqrt(float64(ind.Foraged))
		combat := float64(ind.Kills)

		fitness := e.params.SurvivalWeight*survival +
			e.params.ResourceWeight*resources +
			e.params.CombatWeight*combat

		if ind.TicksSurvived > 100 {
			fitness += 10
		}
		fitness += float64(ind.Lineage) * 0.5

		ind.Fitness = fitness
	}
}
