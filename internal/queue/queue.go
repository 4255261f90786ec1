// Package queue implements the kernel's Task Queue: a strict FIFO
// holding area for pending work items, grounded on the deque-backed
// scheduler.
package queue

import (
	"sync"

	"github.com/mplewis/agentkernel/pkg/models"
)

// Queue is a single-producer-or-multi-producer / single-consumer FIFO
// of Tasks. The kernel drives dequeuing from a single goroutine, but
// the mutex makes concurrent submission from multiple goroutines safe
// too — a benign extra guarantee over the single-threaded contract.
type Queue struct {
	mu    sync.Mutex
	items []*models.Task
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Submit appends a task to the tail of the queue in O(1) and returns
// its id. Priority is accepted but ignored: ordering is strict
// insertion order regardless of Priority's value (reserved field).
func (q *Queue) Submit(task *models.Task) (string, error) {
	task.EnsureID()
	q.mu.Lock()
	q.items = append(q.items, task)
	q.mu.Unlock()
	return task.ID, nil
}

// Next dequeues and returns the head task in O(1), non-blocking. It
// returns (nil, false) when the queue is empty.
func (q *Queue) Next() (*models.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	task := q.items[0]
	q.items = q.items[1:]
	return task, true
}

// Size returns the number of pending tasks.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
