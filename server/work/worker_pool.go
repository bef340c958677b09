package work

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const QUEUE_SIZE = 64

var DefaultRetryBackoff = 10 * time.Second

type WorkerPool struct {
	mu          sync.RWMutex
	handlers    map[string]Handler
	inFlight    map[string]bool
	deadJobs    int
	queue       chan *job
	workers     []*worker
	requeuer    *requeuer
	concurrency int
	started     bool
}

func newWorkerPool(concurrency int) *WorkerPool {
	if concurrency < 1 {
		concurrency = 1
	}

	wp := &WorkerPool{
		handlers:    make(map[string]Handler),
		inFlight:    make(map[string]bool),
		queue:       make(chan *job, QUEUE_SIZE),
		concurrency: concurrency,
	}
	wp.requeuer = newRequeuer(wp, DefaultRetryBackoff)

	return wp
}

// registerHandler binds a name to a job handler for all workers in pool
func (wp *WorkerPool) registerHandler(name string, handler Handler) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if _, ok := wp.handlers[name]; ok {
		return ErrDuplicateHandler
	}
	wp.handlers[name] = handler

	return nil
}

func (wp *WorkerPool) handler(name string) (Handler, bool) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	handler, ok := wp.handlers[name]
	return handler, ok
}

// enqueue adds a job to the queue. Unique jobs are rejected with ErrDuplicateJob
// while another job with the same name is queued or in progress.
func (wp *WorkerPool) enqueue(params JobParams) error {
	if strings.TrimSpace(params.Name) == "" || strings.TrimSpace(params.Handler) == "" {
		return fmt.Errorf("both a name & handler is required for a job")
	}

	wp.mu.Lock()
	defer wp.mu.Unlock()

	if _, ok := wp.handlers[params.Handler]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownHandler, params.Handler)
	}

	if params.Unique && wp.inFlight[params.Name] {
		return ErrDuplicateJob
	}

	select {
	case wp.queue <- &job{id: makeIdentifier(), params: params, status: ENQUEUED_JOB}:
	default:
		return ErrQueueFull
	}

	if params.Unique {
		wp.inFlight[params.Name] = true
	}

	return nil
}

// requeue puts a retried job back on the queue, it reports false when the queue is full
func (wp *WorkerPool) requeue(job *job) bool {
	select {
	case wp.queue <- job:
		return true
	default:
		return false
	}
}

func (wp *WorkerPool) finish(job *job) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if job.params.Unique {
		delete(wp.inFlight, job.params.Name)
	}

	if job.status == DEAD_JOB {
		wp.deadJobs++
		logg.Warnf("Job %v (%v) is dead after %v fails, last error: %v",
			job.params.Name, job.id, job.fails, job.lastError)
	}
}

// DeadJobs returns the number of jobs that exhausted their retries
func (wp *WorkerPool) DeadJobs() int {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	return wp.deadJobs
}

// start starts all workers in pool i.e the workers can start processing jobs
func (wp *WorkerPool) start() {
	if wp.started {
		return
	}
	wp.started = true

	wp.workers = nil
	for i := 0; i < wp.concurrency; i++ {
		wp.workers = append(wp.workers, newWorker(wp))
	}

	for _, worker := range wp.workers {
		worker.start()
	}
	wp.requeuer.start()
}

// stop stops all workers in pool i.e jobs will stop being processed
func (wp *WorkerPool) stop() {
	if !wp.started {
		return
	}

	wp.requeuer.stop()

	wg := sync.WaitGroup{}
	for _, w := range wp.workers {
		wg.Add(1)
		go func(w *worker) {
			w.stop()
			wg.Done()
		}(w)
	}
	wg.Wait()
	wp.started = false

	if pending := len(wp.queue); pending > 0 {
		logg.Warnf("Worker pool stopped with %v job(s) still in queue", pending)
	}
}
