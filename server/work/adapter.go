package work

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
)

type WorkerPoolAdapter struct {
	cronScheduler *gocron.Scheduler
	pool          *WorkerPool
}

func NewWorkerAdapter(timeZone string, concurrency int) *WorkerPoolAdapter {
	return &WorkerPoolAdapter{
		cronScheduler: newCronScheduler(timeZone),
		pool:          newWorkerPool(concurrency),
	}
}

func newCronScheduler(timeZone string) *gocron.Scheduler {
	location, err := time.LoadLocation(timeZone)
	if err != nil {
		logg.Warnf("Unknown time zone %q, falling back to UTC", timeZone)
		location = time.UTC
	}

	scheduler := gocron.NewScheduler(location)
	scheduler.TagsUnique()

	return scheduler
}

// Start starts the cron scheduler & worker pool
func (adapter *WorkerPoolAdapter) Start() {
	logg.Info("Starting cron scheduler & worker pool")
	adapter.cronScheduler.StartAsync()
	adapter.pool.start()
}

// Stop stops the cron scheduler & worker pool
func (adapter *WorkerPoolAdapter) Stop() {
	logg.Info("Stopping cron scheduler & worker pool")
	adapter.cronScheduler.Stop()
	adapter.pool.stop()
}

// Register binds a name to a handler.
func (adapter *WorkerPoolAdapter) Register(name string, handler Handler) error {
	return adapter.pool.registerHandler(name, handler)
}

// Perform sends a new job to the queue, now - to be executed as soon as a worker is available
func (adapter *WorkerPoolAdapter) Perform(job JobParams) error {
	logg.Infof("Enqueuing job: %v", job.Name)

	err := adapter.pool.enqueue(job)
	if errors.Is(err, ErrDuplicateJob) {
		logg.Warnf("Duplicate job already in queue for: %v", job.Name)
		return nil
	}

	if err != nil {
		return fmt.Errorf("error enqueuing job: %v, %w", job.Name, err)
	}

	return nil
}

// PeriodicallyPerform adds a job to the queue (to be executed)
// periodically, based on the 'cronExpression' expression provided
func (adapter *WorkerPoolAdapter) PeriodicallyPerform(cronExpression string, job JobParams) error {
	_, err := adapter.cronScheduler.Cron(cronExpression).Tag(job.Name).
		Do(
			func(job JobParams) {
				err := adapter.Perform(job)
				if err != nil {
					logg.Error(err)
				}
			},
			job,
		)
	return err
}

func (adapter *WorkerPoolAdapter) PeriodicJobs() int {
	return adapter.cronScheduler.Len()
}

func (adapter *WorkerPoolAdapter) DeadJobs() int {
	return adapter.pool.DeadJobs()
}
