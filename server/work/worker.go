package work

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Daskott/haven/colors"
	"github.com/Daskott/haven/server/logger"
	"github.com/google/uuid"
)

const (
	ENQUEUED_JOB    = "enqueued"
	IN_PROGRESS_JOB = "in-progress"
	SUCCESSFUL_JOB  = "successful"
	DEAD_JOB        = "dead"
	MAX_FAILS       = 4
)

var (
	ErrDuplicateHandler = errors.New("handler with provided name already mapped")
	ErrDuplicateJob     = errors.New("job with provided name is already queued or in progress")
	ErrUnknownHandler   = errors.New("no handler registered with provided name")
	ErrQueueFull        = errors.New("job queue is full")

	logg = logger.NewLogger()
)

type JobParams struct {
	Name    string
	Handler string
	Unique  bool
	Args    map[string]interface{}
}

type Handler func(map[string]interface{}) error

type job struct {
	id        string
	params    JobParams
	status    string
	fails     int
	lastError string
}

type worker struct {
	id       string
	pool     *WorkerPool
	stopChan chan struct{}
	doneChan chan struct{}
}

func newWorker(pool *WorkerPool) *worker {
	return &worker{
		id:       makeIdentifier(),
		pool:     pool,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// start starts the worker loop that pulls jobs from the queue & process them
func (w *worker) start() {
	go w.loop()
}

// stop blocks until the job in progress, if any, is done
func (w *worker) stop() {
	close(w.stopChan)
	<-w.doneChan
}

func (w *worker) loop() {
	defer close(w.doneChan)

	w.logInfof("started")
	for {
		select {
		case <-w.stopChan:
			w.logInfof("stopped")
			return
		case currentJob := <-w.pool.queue:
			w.processJob(currentJob)
		}
	}
}

func (w *worker) processJob(job *job) {
	job.status = IN_PROGRESS_JOB
	w.logInfof("processing job with id=%v, name=%v, fails=%v", job.id, job.params.Name, job.fails)

	handler, ok := w.pool.handler(job.params.Handler)
	if !ok {
		w.determineFailedJobFate(job, fmt.Errorf("%w: %v", ErrUnknownHandler, job.params.Handler))
		return
	}

	if err := runHandler(handler, job.params.Args); err != nil {
		w.logError(err)
		w.determineFailedJobFate(job, err)
		return
	}

	job.status = SUCCESSFUL_JOB
	w.logInfof("job with id=%v completed with status=%v", job.id, job.status)
	w.pool.finish(job)
}

// determineFailedJobFate marks jobs with fails >= MAX_FAILS as dead,
// otherwise the job is handed to the requeuer to be retried.
// The job must not be touched after the hand-off, another worker may own it by then.
func (w *worker) determineFailedJobFate(job *job, runError error) {
	job.fails++
	job.lastError = runError.Error()

	if job.fails >= MAX_FAILS {
		job.status = DEAD_JOB
		w.logInfof("job with id=%v completed with status=%v", job.id, job.status)
		w.pool.finish(job)
		return
	}

	job.status = ENQUEUED_JOB
	w.logInfof("job with id=%v completed with status=%v", job.id, job.status)
	w.pool.requeuer.schedule(job)
}

func runHandler(handler Handler, args map[string]interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()

	return handler(args)
}

func (w *worker) logInfof(template string, args ...interface{}) {
	prefix := colors.Yellow(fmt.Sprintf("[worker %v] ", w.id))
	logg.Infof(prefix+template, args...)
}

func (w *worker) logError(err error) {
	prefix := colors.Red(fmt.Sprintf("[worker %v] ", w.id))
	logg.Errorf("%v%v", prefix, err)
}

func makeIdentifier() string {
	return strings.Split(uuid.NewString(), "-")[0]
}
