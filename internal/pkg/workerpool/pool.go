package workerpool

import (
	"context"
	"sync"
	"time"

	"github.com/paulexconde/together/internal/log"
)

type Job func(ctx context.Context)

// DeadLetter receives the name and last error of a job that gave up.
type DeadLetter func(name string, err error)

type WorkerPool struct {
	queue  chan Job
	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once
}

func NewWorkerPool(ctx context.Context, workerCount int, queueSize int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	pool := &WorkerPool{
		queue:  make(chan Job, queueSize),
		closed: make(chan struct{}),
	}

	pool.wg.Add(workerCount)
	for range workerCount {
		go pool.worker(ctx)
	}

	return pool
}

func (p *WorkerPool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Worker received shutdown signal")
			return
		case job, ok := <-p.queue:
			if !ok {
				// queue closed
				return
			}
			p.run(ctx, job)
		}
	}
}

func (p *WorkerPool) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Worker recovered from job panic: %v", r)
		}
	}()
	job(ctx)
}

// Submit enqueues a job without blocking. It reports false when the job was dropped.
func (p *WorkerPool) Submit(job Job) (ok bool) {
	defer func() {
		// send on a closed queue after Shutdown
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case <-p.closed:
		log.Warn("Worker pool closed: job dropped")
		return false
	default:
	}

	select {
	case p.queue <- job:
		return true
	default:
		log.Warn("Worker pool queue full: job dropped")
		return false
	}
}

func (p *WorkerPool) Shutdown(ctx context.Context) {
	p.once.Do(func() {
		close(p.closed)
		close(p.queue)
	})

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		log.Warn("Worker pool shutdown timed out")
	case <-done:
		log.Info("Worker pool shutdown complete")
	}
}

// WithRetry runs job up to retries times, sleeping delay between attempts.
// After the last failure the error is handed to deadLetter, if any.
func WithRetry(name string, retries int, delay time.Duration, deadLetter DeadLetter, job func(ctx context.Context) error) Job {
	return func(ctx context.Context) {
		var err error
		for i := range retries {
			if ctx.Err() != nil {
				log.Debugf("Job %s canceled before execution", name)
				return
			}

			if err = job(ctx); err == nil {
				return
			}
			log.Warnf("Job %s failed (attempt %d/%d): %v", name, i+1, retries, err)

			if i == retries-1 {
				break
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}

		if deadLetter != nil {
			deadLetter(name, err)
			return
		}
		log.Errorf("Job %s failed after max retries: %v", name, err)
	}
}
