package work

import (
	"fmt"
	"sync"
	"time"

	"github.com/Daskott/haven/colors"
)

var DefaultTickerDuration = 500 * time.Millisecond

type retry struct {
	job     *job
	retryAt time.Time
}

// requeuer holds failed jobs until their backoff elapses & puts them back on the queue
type requeuer struct {
	mu       sync.Mutex
	pool     *WorkerPool
	pending  []retry
	backoff  time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

func newRequeuer(pool *WorkerPool, backoff time.Duration) *requeuer {
	return &requeuer{pool: pool, backoff: backoff}
}

// schedule backs off linearly with the number of fails
func (r *requeuer) schedule(job *job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, retry{
		job:     job,
		retryAt: time.Now().Add(time.Duration(job.fails) * r.backoff),
	})
}

func (r *requeuer) start() {
	r.stopChan = make(chan struct{})
	r.doneChan = make(chan struct{})
	go r.loop()
}

func (r *requeuer) stop() {
	close(r.stopChan)
	<-r.doneChan
}

func (r *requeuer) loop() {
	defer close(r.doneChan)

	ticker := time.NewTicker(DefaultTickerDuration)
	defer ticker.Stop()

	r.logInfof("started")
	for {
		select {
		case <-r.stopChan:
			r.logInfof("stopped")
			return
		case now := <-ticker.C:
			r.requeueDue(now)
		}
	}
}

func (r *requeuer) requeueDue(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	remaining := r.pending[:0]
	for _, entry := range r.pending {
		if entry.retryAt.After(now) || !r.pool.requeue(entry.job) {
			remaining = append(remaining, entry)
			continue
		}
		r.logInfof("job with id=%v requeued", entry.job.id)
	}
	r.pending = remaining
}

func (r *requeuer) logInfof(template string, args ...interface{}) {
	prefix := colors.Yellow("[job requeuer] ")
	logg.Info(prefix + fmt.Sprintf(template, args...))
}
