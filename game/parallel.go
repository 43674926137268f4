package game

import (
	"math"
	"runtime"
	"sync"

	"github.com/pthm-cable/drape/components"
	"github.com/pthm-cable/drape/telemetry"
)

// bodyJob asks a worker to advance one body by dt.
type bodyJob struct {
	body *components.Body
	dt   float64
}

// parallelState is a persistent pool that advances secondary bodies while the
// primary body runs on the calling goroutine. Each simulator is touched by
// exactly one goroutine per frame.
type parallelState struct {
	numWorkers int

	workChan chan bodyJob
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState() *parallelState {
	return &parallelState{numWorkers: max(1, runtime.GOMAXPROCS(0)-1)}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers() {
	if p.running {
		return
	}
	p.workChan = make(chan bodyJob, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	p.running = false
}

func (p *parallelState) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case job := <-p.workChan:
			advance(job.body, job.dt)
			p.doneChan <- struct{}{}
		}
	}
}

// advance runs one frame of a body and flags it when the update went
// non-finite.
func advance(b *components.Body, dt float64) {
	b.Steps = b.Sim.Update(dt)
	if b.Steps > 0 && !finiteStats(b) {
		b.Broken = true
	}
}

func finiteStats(b *components.Body) bool {
	st := b.Sim.Stats()
	for _, v := range []float64{st.MaxStretch, st.KineticEnergy, st.MaxSpeed, st.LowestY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// updateBodies advances every body by dt. Secondary bodies go to the pool;
// the primary body runs here so its phase reports reach the perf collector
// from one goroutine.
func (g *Game) updateBodies(dt float64) {
	var primary *components.Body
	dispatched := 0
	for _, b := range g.bodies {
		if b.Primary {
			primary = b
			continue
		}
		if b.Broken {
			b.Steps = 0
			continue
		}
		if !g.parallel.running {
			g.parallel.startWorkers()
		}
		// workChan is bounded; drain completions while dispatching so a scene
		// with more bodies than workers cannot deadlock.
		for {
			select {
			case g.parallel.workChan <- bodyJob{body: b, dt: dt}:
				dispatched++
			case <-g.parallel.doneChan:
				dispatched--
				continue
			}
			break
		}
	}

	if primary != nil && !primary.Broken {
		advance(primary, dt)
	} else if primary != nil {
		primary.Steps = 0
	}

	g.perfCollector.StartPhase(telemetry.PhaseBodies)
	for ; dispatched > 0; dispatched-- {
		<-g.parallel.doneChan
	}
}

// stopParallelWorkers should be called when shutting down the game.
func (g *Game) stopParallelWorkers() {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
}
