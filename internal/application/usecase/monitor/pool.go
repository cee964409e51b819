package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Job unit of detection handling executed off the frame-receive path
type Job func(ctx context.Context)

// Pool fixed set of workers draining a bounded queue. Submit never blocks.
type Pool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	closed  atomic.Bool
	mu      sync.RWMutex
	dropped atomic.Int64
}

func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		jobs:   make(chan Job, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(job)
	}
}

func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("detection job panicked")
		}
	}()
	job(p.ctx)
}

// Submit enqueues job; false when the queue is full or the pool is shut down.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	default:
		p.dropped.Add(1)
		return false
	}
}

func (p *Pool) Dropped() int64 { return p.dropped.Load() }

// Shutdown stops intake and waits up to grace for queued and in-flight jobs.
// When grace expires the job context is cancelled and Shutdown returns false.
func (p *Pool) Shutdown(grace time.Duration) bool {
	p.mu.Lock()
	if p.closed.Swap(true) {
		p.mu.Unlock()
		return true
	}
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return true
	case <-time.After(grace):
		p.cancel()
		log.Warn().Dur("grace", grace).Msg("detection workers still busy after grace period, cancelling")
		<-done
		return false
	}
}
