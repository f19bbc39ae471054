package arena

import "math"

// Sensor index convention. The encoding mirrors the eight named sensor
// concepts; exact normalization constants are documented here and treated as
// the configuration contract.
const (
	SensorEnergy = iota
	SensorNeighborProximity
	SensorResourceDensity
	SensorTerritoryPressure
	SensorPopulationDensity
	SensorThreatLevel
	SensorAge
	SensorLineageDepth
	NumSensors
)

// Sensor neighborhood radii and normalization caps.
const (
	proximityRadius = 5
	densityRadius   = 3
	densityCap      = 6   // resources in the neighborhood mapping to 1.0
	populationCap   = 12  // warriors in the proximity radius mapping to 1.0
	ageCap          = 1000
	lineageCap      = 50
)

// SelfState is the warrior-side input to sensing; the grid supplies the rest.
type SelfState struct {
	ID      uint32
	Energy  float32
	Max     float32
	Age     uint32
	Lineage uint32
}

// Sensors computes the eight sensor values in [0,1] for a warrior at (x,y).
// Read-only: safe to call concurrently during the sense phase. energyOf
// resolves other warriors' energy for the threat signal.
func (g *Grid) Sensors(x, y int, self SelfState, energyOf func(uint32) (float32, bool)) [NumSensors]float32 {
	var s [NumSensors]float32

	if self.Max > 0 {
		s[SensorEnergy] = clamp01(self.Energy / self.Max)
	}

	nearestDist := float32(math.Inf(1))
	population := 0
	var maxThreat float32
	for dy := -proximityRadius; dy <= proximityRadius; dy++ {
		for dx := -proximityRadius; dx <= proximityRadius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			id := g.OccupantAt(x+dx, y+dy)
			if id == 0 || id == self.ID {
				continue
			}
			dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
			if dist > proximityRadius {
				continue
			}
			population++
			if dist < nearestDist {
				nearestDist = dist
			}
			if e, ok := energyOf(id); ok {
				threat := (e / (self.Energy + 1)) / (dist + 1)
				if threat > maxThreat {
					maxThreat = threat
				}
			}
		}
	}
	if population > 0 {
		s[SensorNeighborProximity] = clamp01(1 - nearestDist/float32(proximityRadius))
	}
	s[SensorPopulationDensity] = clamp01(float32(population) / populationCap)
	s[SensorThreatLevel] = clamp01(maxThreat)

	resources := 0
	for dy := -densityRadius; dy <= densityRadius; dy++ {
		for dx := -densityRadius; dx <= densityRadius; dx++ {
			if g.KindAt(x+dx, y+dy) == CellResource {
				resources++
			}
		}
	}
	s[SensorResourceDensity] = clamp01(float32(resources) / densityCap)

	// Territory ownership signal: 1 inside a territory owned by someone
	// else, 0.5 inside an unclaimed or own territory, 0 outside.
	if t := g.TerritoryAt(x, y); t != nil {
		if t.Owner != 0 && t.Owner != self.ID {
			s[SensorTerritoryPressure] = 1
		} else {
			s[SensorTerritoryPressure] = 0.5
		}
	}

	s[SensorAge] = clamp01(float32(self.Age) / ageCap)
	s[SensorLineageDepth] = clamp01(float32(self.Lineage) / lineageCap)
	return s
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
