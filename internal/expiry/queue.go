// Package expiry implements the versioned min-heap deadline queue used by
// the order and betslip stores. Entries are never removed from the heap in
// place: rescheduling or removing an id bumps its version, and stale heap
// entries are discarded lazily during Sweep.
package expiry

import "container/heap"

type entry struct {
	expiresAt int64
	id        string
	version   uint64
}

type entryHeap []entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return h[i].expiresAt < h[j].expiresAt }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)        { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Queue schedules ids for expiry at absolute unix-ms deadlines.
type Queue struct {
	heap     entryHeap
	versions map[string]uint64
}

// New allocates an empty queue.
func New() *Queue {
	return &Queue{versions: make(map[string]uint64)}
}

// Push schedules id at expiresAt, invalidating any earlier schedule.
func (q *Queue) Push(id string, expiresAt int64) {
	v := q.versions[id] + 1
	q.versions[id] = v
	heap.Push(&q.heap, entry{expiresAt: expiresAt, id: id, version: v})
}

// Remove invalidates all pending schedules for id without touching the heap.
func (q *Queue) Remove(id string) {
	q.versions[id]++
}

// Sweep pops every due entry (expiresAt < now) and calls fn for each entry
// that is still the id's live schedule. The caller re-checks its own record
// before acting on the callback.
func (q *Queue) Sweep(now int64, fn func(id string, expiresAt int64)) int {
	fired := 0
	for q.heap.Len() > 0 && q.heap[0].expiresAt < now {
		e := heap.Pop(&q.heap).(entry)
		if q.versions[e.id] != e.version {
			continue
		}
		fn(e.id, e.expiresAt)
		fired++
	}
	return fired
}

// Len returns the heap size including stale entries.
func (q *Queue) Len() int {
	return q.heap.Len()
}
