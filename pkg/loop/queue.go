package loop

import (
	"container/heap"
	"sync/atomic"
	"time"
)

// task is a single scheduled callback. It doubles as the Handle returned to
// callers.
type task struct {
	due       time.Time
	seq       uint64
	every     time.Duration
	fn        func()
	cancelled atomic.Bool
	index     int
}

// Cancel prevents the task from running again. It is safe to call more than
// once and after the task already ran.
func (t *task) Cancel() {
	t.cancelled.Store(true)
}

// taskHeap orders tasks by due time, then by insertion order so that tasks
// scheduled for the same instant run in the order they were scheduled.
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// queue is the timer queue shared by Loop and Manual. It is not safe for
// concurrent use on its own.
type queue struct {
	tasks taskHeap
	seq   uint64
}

func (q *queue) add(due time.Time, every time.Duration, fn func()) *task {
	q.seq++
	t := &task{due: due, seq: q.seq, every: every, fn: fn}
	heap.Push(&q.tasks, t)
	return t
}

// popDue removes and returns the earliest task due at or before now, skipping
// cancelled tasks. Repeating tasks are re-queued before being returned.
func (q *queue) popDue(now time.Time) *task {
	for len(q.tasks) > 0 {
		t := q.tasks[0]
		if t.cancelled.Load() {
			heap.Pop(&q.tasks)
			continue
		}
		if t.due.After(now) {
			return nil
		}
		heap.Pop(&q.tasks)
		if t.every > 0 {
			next := t.due.Add(t.every)
			if !next.After(now) {
				// we fell behind, don't burst to catch up
				next = now.Add(t.every)
			}
			q.seq++
			t.due = next
			t.seq = q.seq
			heap.Push(&q.tasks, t)
		}
		return t
	}
	return nil
}

// next returns the due time of the earliest live task.
func (q *queue) next() (time.Time, bool) {
	for len(q.tasks) > 0 {
		t := q.tasks[0]
		if t.cancelled.Load() {
			heap.Pop(&q.tasks)
			continue
		}
		return t.due, true
	}
	return time.Time{}, false
}

func (q *queue) len() int {
	n := 0
	for _, t := range q.tasks {
		if !t.cancelled.Load() {
			n++
		}
	}
	return n
}
