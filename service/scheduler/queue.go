package scheduler

import (
	"math"

	"github.com/cogvm/cogvm/model"
	"github.com/cogvm/cogvm/runtime/process"
)

type readyEntry struct {
	proc *process.Process
	seq  uint64
}

// readyQueue holds non-real-time runnable processes. Entries carry an
// insertion sequence number so that every policy breaks ties by arrival
// order, keeping selection stable.
type readyQueue struct {
	entries []readyEntry
	seq     uint64
}

func (q *readyQueue) push(proc *process.Process) {
	q.seq++
	q.entries = append(q.entries, readyEntry{proc: proc, seq: q.seq})
}

// popFor removes and returns the next process under the given policy, or nil
// when the queue is empty.
func (q *readyQueue) popFor(policy model.SchedulingPolicy, fairShareWait float64) *process.Process {
	if len(q.entries) == 0 {
		return nil
	}
	best := 0
	switch policy {
	case model.PolicyRoundRobin:
		// FIFO: the head is the oldest entry.
	case model.PolicyFairShare:
		bestScore := math.Inf(-1)
		for i, e := range q.entries {
			score := float64(e.proc.Priority) + float64(e.proc.WaitTime)*fairShareWait
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
	default: // model.PolicyPriority
		for i, e := range q.entries {
			if e.proc.Priority > q.entries[best].proc.Priority {
				best = i
			}
		}
	}
	proc := q.entries[best].proc
	q.entries = append(q.entries[:best], q.entries[best+1:]...)
	return proc
}

// peekPriority returns the highest queued priority, used by the preemption
// check.
func (q *readyQueue) peekPriority() (int32, bool) {
	if len(q.entries) == 0 {
		return 0, false
	}
	top := q.entries[0].proc.Priority
	for _, e := range q.entries[1:] {
		if e.proc.Priority > top {
			top = e.proc.Priority
		}
	}
	return top, true
}

func (q *readyQueue) remove(pid uint64) bool {
	for i, e := range q.entries {
		if e.proc.PID == pid {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (q *readyQueue) each(fn func(*process.Process)) {
	for _, e := range q.entries {
		fn(e.proc)
	}
}

func (q *readyQueue) len() int {
	return len(q.entries)
}

// rtQueue holds real-time processes ordered by ascending deadline; equal
// deadlines keep arrival order. A nil deadline sorts last.
type rtQueue struct {
	entries []*process.Process
}

func (q *rtQueue) push(proc *process.Process) {
	pos := len(q.entries)
	for i, p := range q.entries {
		if rtLess(proc, p) {
			pos = i
			break
		}
	}
	q.entries = append(q.entries, nil)
	copy(q.entries[pos+1:], q.entries[pos:])
	q.entries[pos] = proc
}

func rtLess(a, b *process.Process) bool {
	if a.Deadline == nil {
		return false
	}
	if b.Deadline == nil {
		return true
	}
	return *a.Deadline < *b.Deadline
}

func (q *rtQueue) pop() *process.Process {
	if len(q.entries) == 0 {
		return nil
	}
	proc := q.entries[0]
	q.entries = q.entries[1:]
	return proc
}

func (q *rtQueue) remove(pid uint64) bool {
	for i, p := range q.entries {
		if p.PID == pid {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (q *rtQueue) each(fn func(*process.Process)) {
	for _, p := range q.entries {
		fn(p)
	}
}

func (q *rtQueue) len() int {
	return len(q.entries)
}

// waitQueue tracks blocked processes keyed by the resource they wait on.
// Waiters per resource keep FIFO order so releases wake the longest waiter.
type waitQueue struct {
	byResource map[string][]uint64
	byPid      map[uint64]string
}

func newWaitQueue() *waitQueue {
	return &waitQueue{
		byResource: make(map[string][]uint64),
		byPid:      make(map[uint64]string),
	}
}

func (q *waitQueue) add(pid uint64, resource string) {
	q.byResource[resource] = append(q.byResource[resource], pid)
	q.byPid[pid] = resource
}

// remove takes pid off the wait queue, returning the resource it waited on.
func (q *waitQueue) remove(pid uint64) (string, bool) {
	resource, ok := q.byPid[pid]
	if !ok {
		return "", false
	}
	delete(q.byPid, pid)
	waiters := q.byResource[resource]
	for i, waiter := range waiters {
		if waiter == pid {
			waiters = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(waiters) == 0 {
		delete(q.byResource, resource)
	} else {
		q.byResource[resource] = waiters
	}
	return resource, true
}

func (q *waitQueue) resourceOf(pid uint64) (string, bool) {
	resource, ok := q.byPid[pid]
	return resource, ok
}

// head returns the longest waiter on resource.
func (q *waitQueue) head(resource string) (uint64, bool) {
	waiters := q.byResource[resource]
	if len(waiters) == 0 {
		return 0, false
	}
	return waiters[0], true
}

func (q *waitQueue) len() int {
	return len(q.byPid)
}
