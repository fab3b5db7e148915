package orchestrator

import "sync"

// workerPool bounds concurrent simulator dispatches to N_SIM in-flight
// calls (spec §5/§6) and keeps the first error any call returns. Calls
// already dispatched are not cancelled: Wait returns that error once
// every one of them has finished. Failed calls are not retried (§7).
type workerPool struct {
	sem chan struct{}
	wg  sync.WaitGroup
	mu  sync.Mutex
	err error
}

func newWorkerPool(nsim int) *workerPool {
	if nsim <= 0 {
		nsim = 1
	}

	return &workerPool{sem: make(chan struct{}, nsim)}
}

// Go runs fn in the pool, blocking if every slot is occupied.
func (p *workerPool) Go(fn func() error) {
	p.sem <- struct{}{}
	p.wg.Add(1)

	go func() {
		defer func() {
			<-p.sem
			p.wg.Done()
		}()

		if err := fn(); err != nil {
			p.mu.Lock()
			if p.err == nil {
				p.err = err
			}
			p.mu.Unlock()
		}
	}()
}

// Wait blocks until every dispatched call finishes and returns the
// first error observed, if any.
func (p *workerPool) Wait() error {
	p.wg.Wait()

	return p.err
}
