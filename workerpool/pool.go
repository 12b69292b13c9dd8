// Package workerpool provides a fixed-size pool of goroutines that run
// queued void-returning jobs concurrently with a wait-all barrier. It has
// no dependency on the sim package: the kernel's threaded solve mode uses
// it purely through the AddJob/WaitForAllJobs/Finish contract, mirroring
// how the reference simulator's VoidThreadPool is a free-standing
// concurrency primitive handed to Device by pointer.
package workerpool

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// Pool runs submitted jobs across a fixed number of worker goroutines.
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup

	mu      sync.Mutex
	errs    []error
	waiting sync.WaitGroup

	closeOnce sync.Once
	done      chan struct{}
}

// New starts a pool with the given number of workers. A non-positive
// count defaults to one worker per available CPU minus one, the way the
// reference VoidThreadPool defaults number_of_workers to the hardware
// concurrency when given 0.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU() - 1
		if numWorkers < 1 {
			numWorkers = 1
		}
	}
	p := &Pool{
		jobs: make(chan func()),
		done: make(chan struct{}),
	}
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.runJob(job)
	}
}

func (p *Pool) runJob(job func()) {
	defer p.waiting.Done()
	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("workerpool: job panicked: %v", r)
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
	}()
	job()
}

// AddJob queues a job for execution by one of the pool's workers.
func (p *Pool) AddJob(job func()) {
	p.waiting.Add(1)
	p.jobs <- job
}

// WaitForAllJobs blocks until every job submitted since the last call to
// WaitForAllJobs has completed, and returns the first panic recovered from
// any of them (wrapped with github.com/pkg/errors), or nil.
func (p *Pool) WaitForAllJobs() error {
	p.waiting.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.errs) == 0 {
		return nil
	}
	err := p.errs[0]
	if len(p.errs) > 1 {
		err = errors.Wrap(err, fmt.Sprintf("and %d more job panic(s)", len(p.errs)-1))
	}
	p.errs = nil
	return err
}

// Finish stops accepting new jobs and waits for every worker to exit. It
// must be called at most once.
func (p *Pool) Finish() {
	p.closeOnce.Do(func() {
		close(p.jobs)
		p.wg.Wait()
		close(p.done)
	})
}
