package terrain

import (
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"

	"marching-terrain/internal/world"
)

// Pool generates chunks in the background. Workers never touch the chunk
// map; finished results queue up until the tick goroutine calls Drain.
type Pool struct {
	pool pond.Pool

	mu   sync.Mutex
	done []Result

	inFlight atomic.Int64
	closed   atomic.Bool
	wg       sync.WaitGroup
}

// NewPool starts a pool of at most workers concurrent generations.
func NewPool(workers int) *Pool {
	return &Pool{pool: pond.NewPool(max(workers, 1))}
}

// Submit queues generation of coord with gen without waiting for a worker.
// It returns false once the pool is closed.
func (p *Pool) Submit(gen *Generator, coord world.ChunkCoord, seq uint64) bool {
	if p.closed.Load() {
		return false
	}
	p.inFlight.Add(1)
	p.wg.Add(1)
	p.pool.Submit(func() {
		defer p.wg.Done()
		r := gen.Generate(coord, seq)

		p.mu.Lock()
		p.done = append(p.done, r)
		p.mu.Unlock()
		p.inFlight.Add(-1)
	})
	return true
}

// Drain returns every result completed since the previous call.
func (p *Pool) Drain() []Result {
	p.mu.Lock()
	out := p.done
	p.done = nil
	p.mu.Unlock()
	return out
}

// InFlight is the number of submitted jobs whose result is not yet queued.
func (p *Pool) InFlight() int { return int(p.inFlight.Load()) }

// Wait blocks until every submitted job has finished.
func (p *Pool) Wait() { p.wg.Wait() }

// Close stops accepting work and waits for queued and running jobs.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}
	p.pool.StopAndWait()
}
