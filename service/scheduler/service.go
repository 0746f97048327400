// Package scheduler implements the tick-driven process scheduler: a bounded
// process table, real-time and policy-driven ready queues, a wait queue with
// deadlock detection over the wait-for graph, and logical process migration
// between nodes.
//
// The scheduler is single-writer by design: one control thread advances it
// via Schedule. Public operations take an internal mutex so the facade is
// safe to call from a multithreaded host, but internal structures are not
// built for concurrent mutation beyond that discipline.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/cogvm/cogvm/model"
	"github.com/cogvm/cogvm/model/types"
	"github.com/cogvm/cogvm/policy"
	"github.com/cogvm/cogvm/progress"
	"github.com/cogvm/cogvm/runtime/process"
	"github.com/cogvm/cogvm/service/executor"
	"github.com/cogvm/cogvm/tracing"
)

// Event describes a notable scheduler transition, delivered to the optional
// listener.
type Event struct {
	Kind     string       `json:"kind"`
	PID      uint64       `json:"pid,omitempty"`
	Node     model.NodeID `json:"node,omitempty"`
	Resource string       `json:"resource,omitempty"`
	Pids     []uint64     `json:"pids,omitempty"`
	Fault    string       `json:"fault,omitempty"`

	// Proc carries a snapshot of the terminated record so consumers can
	// archive it after the table slot is released.
	Proc *process.Process `json:"-"`
}

// Event kinds.
const (
	EventTerminated     = "terminated"
	EventFaulted        = "faulted"
	EventDeadlineMissed = "deadline-missed"
	EventMigrated       = "migrated"
	EventDeadlock       = "deadlock"
)

// Listener receives scheduler events. Invoked synchronously with the
// scheduler lock held; keep it cheap.
type Listener func(Event)

// OwnerLookup resolves the pid currently owning a resource, for wait-for
// graph construction. The default uses the scheduler's own acquisition
// book-keeping.
type OwnerLookup func(resource string) (uint64, bool)

// Option represents a scheduler option.
type Option func(*Service)

// WithConfig overrides the default configuration.
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithListener attaches an event listener.
func WithListener(l Listener) Option {
	return func(s *Service) {
		s.listener = l
	}
}

// WithSelector overrides the migration target selector.
func WithSelector(selector TargetSelector) Option {
	return func(s *Service) {
		s.selector = selector
	}
}

// WithOwnerLookup overrides the resource owner lookup used by deadlock
// detection.
func WithOwnerLookup(lookup OwnerLookup) Option {
	return func(s *Service) {
		s.ownerLookup = lookup
	}
}

// Service schedules processes across discrete ticks.
type Service struct {
	mu       sync.Mutex
	config   Config
	executor executor.Service

	table    *processTable
	ready    *readyQueue
	rt       *rtQueue
	waiting  *waitQueue
	running  *process.Process
	owners   map[string]uint64
	migrator *migrationManager

	selector    TargetSelector
	ownerLookup OwnerLookup
	listener    Listener

	tick            uint64
	busyTicks       uint64
	completed       uint64
	faulted         uint64
	contextSwitches uint64
	preemptions     uint64
	dispatches      uint64
	missedDeadlines uint64
	migrated        uint64
	deadlocks       uint64
}

// New creates a scheduler with the supplied executor.
func New(exec executor.Service, options ...Option) (*Service, error) {
	if exec == nil {
		return nil, fmt.Errorf("scheduler: executor was nil")
	}
	ret := &Service{
		config:   DefaultConfig(),
		executor: exec,
		ready:    &readyQueue{},
		rt:       &rtQueue{},
		waiting:  newWaitQueue(),
		owners:   make(map[string]uint64),
	}
	for _, opt := range options {
		opt(ret)
	}
	if err := ret.config.Validate(); err != nil {
		return nil, err
	}
	if ret.config.Capacity >= 1<<pidIndexBits {
		return nil, fmt.Errorf("scheduler: capacity %v exceeds pid index space", ret.config.Capacity)
	}
	ret.table = newProcessTable(ret.config.Capacity)
	ret.migrator = newMigrationManager(ret.config.Migration, ret.selector)
	if ret.ownerLookup == nil {
		ret.ownerLookup = ret.ownerOf
	}
	return ret, nil
}

// AddProcess admits a process and enqueues it, returning the assigned pid.
// When an admission policy rides the context it is consulted first.
func (s *Service) AddProcess(ctx context.Context, proc *process.Process) (uint64, error) {
	_, span := tracing.StartSpan(ctx, "scheduler.addProcess", "internal")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if pol := policy.FromContext(ctx); pol != nil && !pol.Admit(ctx, proc.Program) {
		err = fmt.Errorf("%w: program %q", ErrAdmissionDenied, proc.Program)
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, err := s.table.add(proc)
	if err != nil {
		return 0, err
	}
	span.WithAttributes(map[string]string{"process": proc.Name})
	proc.SetState(process.StateReady)
	s.enqueue(proc)
	return pid, nil
}

// Schedule advances the scheduler by exactly one tick.
func (s *Service) Schedule(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick++
	tick := s.tick
	var delta progress.Delta
	delta.Ticks = 1

	// Missed real-time deadlines escalate, once, into the maximum band.
	for _, pid := range s.table.pids() {
		proc := s.table.lookup(pid)
		if proc == nil || !proc.Realtime || proc.Deadline == nil || proc.DeadlineMissed {
			continue
		}
		if *proc.Deadline <= tick && !proc.Terminated() {
			proc.EscalatePriority()
			s.missedDeadlines++
			s.emit(Event{Kind: EventDeadlineMissed, PID: pid})
		}
	}

	// Preemption check.
	if s.running != nil {
		s.running.SliceUsed++
		preempt := s.running.SliceUsed >= s.config.TimeSlice ||
			(s.rt.len() > 0 && !s.running.Realtime)
		if !preempt {
			if top, ok := s.ready.peekPriority(); ok && top > s.running.Priority+s.config.PreemptionMargin {
				preempt = true
			}
		}
		if preempt {
			s.requeue(s.running)
			s.running = nil
			s.contextSwitches++
			s.preemptions++
			delta.Preemptions = 1
		}
	}

	// Dispatch: real-time first, regardless of configured policy.
	if s.running == nil {
		next := s.rt.pop()
		if next == nil {
			next = s.ready.popFor(s.config.Policy, s.config.FairShareWait)
		}
		if next != nil {
			next.SetState(process.StateRunning)
			next.SliceUsed = 0
			s.running = next
			s.dispatches++
			delta.Dispatches = 1
		}
	}

	// Execute one unit of work. A runtime fault terminates the process; it
	// is never retried.
	if s.running != nil {
		proc := s.running
		s.busyTicks++
		outcome, err := s.executor.Execute(ctx, proc, tick)
		proc.ExecuteTime++
		switch {
		case err != nil:
			proc.FailWith(err)
			s.faulted++
			delta.Faulted = 1
			s.retire(proc, Event{Kind: EventFaulted, PID: proc.PID, Fault: proc.Fault})
		case outcome == types.OutcomeDone:
			proc.SetState(process.StateTerminated)
			s.completed++
			delta.Completed = 1
			s.retire(proc, Event{Kind: EventTerminated, PID: proc.PID})
		}
	}

	// Everything still queued waited this tick.
	s.ready.each(func(p *process.Process) { p.WaitTime++ })
	s.rt.each(func(p *process.Process) { p.WaitTime++ })

	if n := s.config.DeadlockCheckInterval; n > 0 && tick%n == 0 {
		for _, cycle := range s.detectLocked() {
			s.deadlocks++
			s.emit(Event{Kind: EventDeadlock, Pids: cycle})
		}
	}
	if n := s.config.Migration.Interval; n > 0 && tick%n == 0 {
		s.autoMigrateLocked(tick)
	}

	if tracker := progress.FromContext(ctx); tracker != nil {
		tracker.Update(delta)
	}
	return nil
}

// BlockProcess moves a process into the wait queue on the named resource.
func (s *Service) BlockProcess(pid uint64, resource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockLocked(pid, resource)
}

func (s *Service) blockLocked(pid uint64, resource string) error {
	proc := s.table.lookup(pid)
	if proc == nil {
		return fmt.Errorf("%w: %v", ErrProcessNotFound, pid)
	}
	if s.running == proc {
		s.running = nil
		s.contextSwitches++
	} else {
		s.ready.remove(pid)
		s.rt.remove(pid)
	}
	proc.SetState(process.StateWaiting)
	proc.WaitingFor = resource
	s.waiting.add(pid, resource)
	return nil
}

// UnblockProcess returns a waiting process to its ready queue.
func (s *Service) UnblockProcess(pid uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unblockLocked(pid)
}

func (s *Service) unblockLocked(pid uint64) error {
	proc := s.table.lookup(pid)
	if proc == nil {
		return fmt.Errorf("%w: %v", ErrProcessNotFound, pid)
	}
	if _, ok := s.waiting.remove(pid); !ok {
		return fmt.Errorf("%w: %v", ErrNotWaiting, pid)
	}
	proc.WaitingFor = ""
	proc.SetState(process.StateReady)
	s.enqueue(proc)
	return nil
}

// AcquireResource grants the resource to pid when free, otherwise blocks pid
// behind the current owner.
func (s *Service) AcquireResource(pid uint64, resource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table.lookup(pid) == nil {
		return fmt.Errorf("%w: %v", ErrProcessNotFound, pid)
	}
	owner, held := s.owners[resource]
	if !held || owner == pid {
		s.owners[resource] = pid
		return nil
	}
	return s.blockLocked(pid, resource)
}

// ReleaseResource releases the resource held by pid and hands it to the
// longest waiter, unblocking it.
func (s *Service) ReleaseResource(pid uint64, resource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, held := s.owners[resource]; !held || owner != pid {
		return fmt.Errorf("scheduler: resource %q not held by %v", resource, pid)
	}
	delete(s.owners, resource)
	if next, ok := s.waiting.head(resource); ok {
		s.owners[resource] = next
		return s.unblockLocked(next)
	}
	return nil
}

// MigrateProcess relocates a process to the target node. Relocation is
// logical: the record changes its affinity and re-enters its queue; no state
// transfer is modelled.
func (s *Service) MigrateProcess(pid uint64, target model.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	proc := s.table.lookup(pid)
	if proc == nil {
		return fmt.Errorf("%w: %v", ErrProcessNotFound, pid)
	}
	s.migrateLocked(proc, target)
	return nil
}

func (s *Service) migrateLocked(proc *process.Process, target model.NodeID) {
	if s.running == proc {
		s.running = nil
		s.contextSwitches++
	}
	s.ready.remove(proc.PID)
	s.rt.remove(proc.PID)
	proc.Node = target
	// A waiting process keeps waiting; it re-enters its queue on unblock.
	if _, isWaiting := s.waiting.resourceOf(proc.PID); !isWaiting && !proc.Terminated() {
		proc.SetState(process.StateReady)
		s.enqueue(proc)
	}
	s.migrated++
	s.emit(Event{Kind: EventMigrated, PID: proc.PID, Node: target})
}

// TerminateProcess removes a process from the scheduler. Termination is
// cooperative: a running process is simply not dispatched again.
func (s *Service) TerminateProcess(pid uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	proc := s.table.lookup(pid)
	if proc == nil {
		return fmt.Errorf("%w: %v", ErrProcessNotFound, pid)
	}
	proc.SetState(process.StateTerminated)
	s.retire(proc, Event{Kind: EventTerminated, PID: pid})
	return nil
}

// DetectDeadlocks reports every cycle in the current wait-for graph. Purely
// diagnostic: it mutates no scheduler state; resolution is the caller's
// decision.
func (s *Service) DetectDeadlocks() [][]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detectLocked()
}

func (s *Service) detectLocked() [][]uint64 {
	edges := make(map[uint64]uint64)
	for pid, resource := range s.waiting.byPid {
		if owner, ok := s.ownerLookup(resource); ok && owner != pid {
			edges[pid] = owner
		}
	}
	return detectCycles(edges)
}

// Process returns a snapshot of the process record for pid.
func (s *Service) Process(pid uint64) (*process.Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proc := s.table.lookup(pid)
	if proc == nil {
		return nil, false
	}
	return proc.Clone(), true
}

// Processes returns snapshots of all live process records in pid order.
func (s *Service) Processes() []*process.Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	pids := s.table.pids()
	ret := make([]*process.Process, 0, len(pids))
	for _, pid := range pids {
		ret = append(ret, s.table.lookup(pid).Clone())
	}
	return ret
}

// Tick returns the current tick counter.
func (s *Service) Tick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

func (s *Service) enqueue(proc *process.Process) {
	if proc.Realtime {
		s.rt.push(proc)
		return
	}
	s.ready.push(proc)
}

// requeue returns a preempted process to its queue in the ready state.
func (s *Service) requeue(proc *process.Process) {
	proc.SetState(process.StateReady)
	s.enqueue(proc)
}

// retire removes a terminated process from every structure and releases its
// table slot.
func (s *Service) retire(proc *process.Process, event Event) {
	if s.running == proc {
		s.running = nil
	}
	s.ready.remove(proc.PID)
	s.rt.remove(proc.PID)
	s.waiting.remove(proc.PID)
	for resource, owner := range s.owners {
		if owner == proc.PID {
			delete(s.owners, resource)
		}
	}
	s.table.remove(proc.PID)
	event.Proc = proc.Clone()
	s.emit(event)
}

func (s *Service) autoMigrateLocked(tick uint64) {
	if s.config.Capacity == 0 {
		return
	}
	occupancy := float64(s.ready.len()) / float64(s.config.Capacity)
	candidates := make([]*process.Process, 0, s.ready.len())
	s.ready.each(func(p *process.Process) { candidates = append(candidates, p) })
	s.migrator.pass(tick, occupancy, candidates, func(proc *process.Process, target model.NodeID) {
		s.migrateLocked(proc, target)
	})
}

func (s *Service) ownerOf(resource string) (uint64, bool) {
	owner, ok := s.owners[resource]
	return owner, ok
}

func (s *Service) emit(event Event) {
	if s.listener != nil {
		s.listener(event)
	}
}
