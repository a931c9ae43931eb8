package beapi

import (
	"sync"
	"sync/atomic"
)

// TimerID identifies a scheduled timer.
type TimerID uint64

// timer is a callback scheduled for a future tick.
type timer struct {
	id TimerID

	// due is the tick the timer fires on
	due uint64

	// interval re-arms the timer after it fires, 0 for one-shot timers
	interval uint64

	fn func()

	cancelled atomic.Bool

	// index is the heap index
	index int
}

// timerQueue is a min-heap of timers ordered by due tick.
type timerQueue struct {
	mu   sync.Mutex
	heap []*timer
	byID map[TimerID]*timer
	next TimerID
}

func newTimerQueue() *timerQueue {
	return &timerQueue{
		heap: make([]*timer, 0, 64),
		byID: make(map[TimerID]*timer),
	}
}

// Add schedules fn. Timers with interval > 0 repeat.
func (q *timerQueue) Add(due, interval uint64, fn func()) TimerID {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.next++
	t := &timer{id: q.next, due: due, interval: interval, fn: fn}
	q.byID[t.id] = t
	q.push(t)
	return t.id
}

// Cancel stops a timer. Returns false if it is unknown or already done.
func (q *timerQueue) Cancel(id TimerID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.byID[id]
	if !ok {
		return false
	}
	delete(q.byID, id)
	t.cancelled.Store(true)
	if t.index >= 0 {
		q.remove(t.index)
	}
	return true
}

// PopDue removes and returns all timers due at or before tick. Repeating
// timers are re-armed for their next tick before they are returned.
func (q *timerQueue) PopDue(tick uint64) []*timer {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []*timer
	for len(q.heap) > 0 && q.heap[0].due <= tick {
		t := q.pop()
		due = append(due, t)
	}
	for _, t := range due {
		if t.interval > 0 {
			t.due = tick + t.interval
			q.push(t)
		} else {
			delete(q.byID, t.id)
		}
	}
	return due
}

// Len returns the number of pending timers.
func (q *timerQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// push adds a timer. Caller must hold lock.
func (q *timerQueue) push(t *timer) {
	t.index = len(q.heap)
	q.heap = append(q.heap, t)
	q.up(t.index)
}

// pop removes the minimum timer. Caller must hold lock.
func (q *timerQueue) pop() *timer {
	return q.remove(0)
}

// remove removes the timer at index i. Caller must hold lock.
func (q *timerQueue) remove(i int) *timer {
	n := len(q.heap) - 1
	if i != n {
		q.swap(i, n)
	}
	t := q.heap[n]
	q.heap[n] = nil
	q.heap = q.heap[:n]
	t.index = -1
	if i < n {
		q.down(i, n)
		q.up(i)
	}
	return t
}

func (q *timerQueue) less(i, j int) bool {
	if q.heap[i].due != q.heap[j].due {
		return q.heap[i].due < q.heap[j].due
	}
	// Same tick: fire in scheduling order.
	return q.heap[i].id < q.heap[j].id
}

func (q *timerQueue) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.less(i, parent) {
			break
		}
		q.swap(i, parent)
		i = parent
	}
}

func (q *timerQueue) down(i, n int) {
	for {
		left := 2*i + 1
		if left >= n || left < 0 {
			break
		}
		j := left
		if right := left + 1; right < n && q.less(right, left) {
			j = right
		}
		if !q.less(j, i) {
			break
		}
		q.swap(i, j)
		i = j
	}
}

func (q *timerQueue) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.heap[i].index = i
	q.heap[j].index = j
}
