// Package queue provides the serial executor that every request-lifecycle
// mutation runs on.
package queue

import (
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/NamanBalaji/signedplay/internal/logger"
)

// Queue runs submitted tasks one at a time in submission order on a single
// goroutine. Async never blocks, so transport goroutines and tasks already on
// the queue may submit freely.
type Queue struct {
	label string

	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool

	wg conc.WaitGroup
}

func New(label string) *Queue {
	q := &Queue{label: label}
	q.cond = sync.NewCond(&q.mu)
	q.wg.Go(q.run)

	return q
}

// Label returns the name given at construction.
func (q *Queue) Label() string {
	return q.label
}

// Async schedules fn and returns immediately. It reports false if the queue
// is closed and fn was dropped.
func (q *Queue) Async(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.tasks = append(q.tasks, fn)
	q.cond.Signal()

	return true
}

// Sync runs fn on the queue and waits for it. Calling Sync from a task on the
// same queue deadlocks.
func (q *Queue) Sync(fn func()) bool {
	done := make(chan struct{})

	ok := q.Async(func() {
		defer close(done)
		fn()
	})
	if !ok {
		return false
	}

	<-done

	return true
}

// Close stops accepting tasks, runs everything already scheduled and waits
// for the worker to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *Queue) run() {
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}

		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}

		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		q.exec(fn)
	}
}

func (q *Queue) exec(fn func()) {
	var pc panics.Catcher
	pc.Try(fn)

	if r := pc.Recovered(); r != nil {
		logger.Errorf("Queue %s recovered from panic: %v\n%s", q.label, r.Value, r.Stack)
	}
}
