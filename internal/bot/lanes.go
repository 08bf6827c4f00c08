package bot

import (
	"sync"

	"github.com/laksh02009/Telegram-bot/internal/log"
)

// lanes runs jobs one at a time per key, in submission order, with different
// keys running in parallel. A key's goroutine exits once its queue drains, so
// idle users cost nothing.
type lanes struct {
	mu     sync.Mutex
	queues map[string]*laneQueue
}

type laneQueue struct {
	pending []func()
}

func newLanes() *lanes {
	return &lanes{queues: make(map[string]*laneQueue)}
}

// submit queues job on key's lane, starting a drainer when the lane is idle.
func (l *lanes) submit(key string, job func()) {
	l.mu.Lock()
	q, running := l.queues[key]
	if !running {
		q = &laneQueue{}
		l.queues[key] = q
	}
	q.pending = append(q.pending, job)
	l.mu.Unlock()

	if !running {
		go l.drain(key, q)
	}
}

func (l *lanes) drain(key string, q *laneQueue) {
	for {
		l.mu.Lock()
		if len(q.pending) == 0 {
			delete(l.queues, key)
			l.mu.Unlock()
			return
		}
		job := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		l.mu.Unlock()

		l.run(key, job)
	}
}

// run calls job, containing a panic to this job so the lane keeps draining.
func (l *lanes) run(key string, job func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[bot] lane %s: job panicked: %v", key, r)
		}
	}()
	job()
}

// active returns the number of keys with queued or running work.
func (l *lanes) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queues)
}
