package dispatch

import "sync"

// jobQueue is an unbounded multi-producer, multi-consumer FIFO. signal holds
// at most one pending wake-up, so a push that races with a consumer going to
// sleep is never lost.
type jobQueue struct {
	mu     sync.Mutex
	items  []Job
	head   int
	signal chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{signal: make(chan struct{}, 1)}
}

func (q *jobQueue) push(job Job) {
	q.mu.Lock()
	q.items = append(q.items, job)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// drain moves up to limit queued jobs into dst without blocking.
func (q *jobQueue) drain(dst []Job, limit int) []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := min(len(q.items)-q.head, limit)
	dst = append(dst, q.items[q.head:q.head+n]...)
	clear(q.items[q.head : q.head+n])
	q.head += n
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 1024 && q.head*2 > len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}
	return dst
}

func (q *jobQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// reset drops every queued job.
func (q *jobQueue) reset() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items) - q.head
	clear(q.items)
	q.items = nil
	q.head = 0
	return n
}
