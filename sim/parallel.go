package sim

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/neurarena/arena"
	"github.com/pthm-cable/neurarena/components"
	"github.com/pthm-cable/neurarena/genome"
)

// warriorSnapshot captures read-only state for the parallel sense/infer phase.
type warriorSnapshot struct {
	Entity  ecs.Entity
	ID      uint32
	Pos     components.Position
	Self    arena.SelfState
	Network *genome.Network
	Slices  int
}

// warriorIntent captures the decoded decision to apply after the barrier.
type warriorIntent struct {
	Action  components.Action
	Dir     int
	Outputs [genome.NumOutputs]float32
}

// workChunk is a range of snapshots for one worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds the persistent worker pool for behavior computation.
type parallelState struct {
	snapshots  []warriorSnapshot
	intents    []warriorIntent
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState(workers int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &parallelState{
		numWorkers: workers,
		snapshots:  make([]warriorSnapshot, 0, 256),
		intents:    make([]warriorIntent, 0, 256),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(s *Sim) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s)
	}
}

// stop signals all workers to exit and waits for them.
func (p *parallelState) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *parallelState) worker(s *Sim) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			s.computeChunk(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// senseInfer runs the sense/infer/decode phase for all snapshots, fanning out
// to the worker pool above the configured threshold. All reads are against
// state frozen before dispatch; writes happen only after the barrier.
func (s *Sim) senseInfer() {
	n := len(s.par.snapshots)
	if n == 0 {
		return
	}

	if cap(s.par.intents) < n {
		s.par.intents = make([]warriorIntent, n)
	}
	s.par.intents = s.par.intents[:n]

	if n < s.cfg.Scheduler.ParallelThreshold {
		s.computeChunk(0, n)
		return
	}

	if !s.par.running {
		s.par.startWorkers(s)
	}

	chunkSize := (n + s.par.numWorkers - 1) / s.par.numWorkers
	dispatched := 0
	for w := 0; w < s.par.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		s.par.workChan <- workChunk{start: start, end: end}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-s.par.doneChan
	}
}

// computeChunk runs sensors, forward pass, and action decode for a snapshot
// range. Pure with respect to shared state; safe for concurrent workers.
func (s *Sim) computeChunk(i0, i1 int) {
	for i := i0; i < i1; i++ {
		snap := &s.par.snapshots[i]
		intent := &s.par.intents[i]

		inputs := s.grid.Sensors(snap.Pos.X, snap.Pos.Y, snap.Self, s.energyOf)
		outputs := snap.Network.Forward(inputs)

		intent.Outputs = outputs
		intent.Action, intent.Dir = decodeAction(outputs)
	}
}

// decodeAction picks the strongest output. Ties resolve in declaration order
// of the output slots: move, replicate, attack, defend.
func decodeAction(outputs [genome.NumOutputs]float32) (components.Action, int) {
	best := 0
	for i := 1; i < genome.NumOutputs; i++ {
		if outputs[i] > outputs[best] {
			best = i
		}
	}
	action := outputActions[best]
	return action, directionFromScore(outputs[best])
}

// outputActions maps output slot index to action, in tie-break priority order.
var outputActions = [genome.NumOutputs]components.Action{
	components.ActionMove,
	components.ActionReplicate,
	components.ActionAttack,
	components.ActionDefend,
}

// directionFromScore maps an output activation in [-1,1] onto one of the
// eight neighbor directions.
func directionFromScore(score float32) int {
	d := int((score + 1) * 0.5 * 8)
	if d < 0 {
		d = 0
	}
	return d % 8
}
