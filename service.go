package cogvm

import (
	"context"
	"fmt"

	"github.com/viant/x"

	"github.com/cogvm/cogvm/extension"
	"github.com/cogvm/cogvm/model"
	"github.com/cogvm/cogvm/model/types"
	"github.com/cogvm/cogvm/service/dao/archive"
	"github.com/cogvm/cogvm/service/dump"
	"github.com/cogvm/cogvm/service/event"
	"github.com/cogvm/cogvm/service/executor"
	"github.com/cogvm/cogvm/service/memory"
	"github.com/cogvm/cogvm/service/program/counter"
	"github.com/cogvm/cogvm/service/program/nop"
	"github.com/cogvm/cogvm/service/program/rehearse"
	"github.com/cogvm/cogvm/service/scheduler"
)

// Service wires the runtime core: program registry, executor, memory manager,
// scheduler, event fan-out and the terminated-process archive.
type Service struct {
	config   *Config
	programs *extension.Programs

	memory    *memory.Service
	executor  executor.Service
	scheduler *scheduler.Service
	events    *event.Service
	archive   *archive.Service
	dumps     *dump.Service
	runtime   *Runtime

	extensionTypes   []*x.Type
	userPrograms     []types.Program
	executorOptions  []executor.Option
	schedulerOptions []scheduler.Option
}

// New creates a fully wired runtime service.
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	for _, opt := range options {
		opt(ret)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	policy, err := model.ParsePolicy(s.config.Policy)
	if err != nil {
		return err
	}
	s.config.Scheduler.Policy = policy

	if s.events == nil {
		s.events = event.New()
	}
	s.archive = archive.New()

	s.memory, err = memory.New(
		memory.WithConfig(s.config.Memory),
		memory.WithListener(s.onMemoryEvent),
	)
	if err != nil {
		return err
	}

	s.programs = extension.NewPrograms(s.extensionTypes...)
	s.programs.Register(nop.New())
	s.programs.Register(counter.New())
	s.programs.Register(rehearse.New())
	for _, program := range s.userPrograms {
		s.programs.Register(program)
	}

	executorOptions := append([]executor.Option{executor.WithMemory(s.memory.ProgramView())}, s.executorOptions...)
	s.executor = executor.NewService(s.programs, executorOptions...)

	schedulerOptions := append([]scheduler.Option{
		scheduler.WithConfig(s.config.Scheduler),
		scheduler.WithListener(s.onSchedulerEvent),
	}, s.schedulerOptions...)
	s.scheduler, err = scheduler.New(s.executor, schedulerOptions...)
	if err != nil {
		return err
	}

	if baseURL := s.config.Runtime.DumpURL; baseURL != "" {
		s.dumps, err = dump.New(baseURL)
		if err != nil {
			return err
		}
	}
	s.runtime = newRuntime(s)
	return nil
}

// onSchedulerEvent bridges scheduler transitions into the event service and
// archives terminated records. Runs with the scheduler lock held.
func (s *Service) onSchedulerEvent(ev scheduler.Event) {
	ctx := context.Background()
	if ev.Proc != nil {
		_ = s.archive.Save(ctx, ev.Proc)
	}
	kind, ok := schedulerEventKind(ev.Kind)
	if !ok {
		return
	}
	_ = s.events.Publish(ctx, event.Event{
		Kind:  kind,
		PID:   ev.PID,
		Node:  ev.Node,
		Pids:  ev.Pids,
		Fault: ev.Fault,
	})
}

func schedulerEventKind(kind string) (event.Kind, bool) {
	switch kind {
	case scheduler.EventTerminated:
		return event.ProcessTerminated, true
	case scheduler.EventFaulted:
		return event.ProcessFaulted, true
	case scheduler.EventMigrated:
		return event.ProcessMigrated, true
	case scheduler.EventDeadlineMissed:
		return event.DeadlineMissed, true
	case scheduler.EventDeadlock:
		return event.DeadlockDetected, true
	}
	return "", false
}

// onMemoryEvent bridges memory manager transitions into the event service.
// Runs with the memory lock held.
func (s *Service) onMemoryEvent(ev memory.Event) {
	var kind event.Kind
	switch ev.Kind {
	case memory.EventEvicted:
		kind = event.PageEvicted
	case memory.EventConsolidated:
		kind = event.PageConsolidated
	case memory.EventCompressed:
		kind = event.PageCompressed
	default:
		return
	}
	_ = s.events.Publish(context.Background(), event.Event{
		Kind: kind,
		Addr: ev.Addr,
		Tier: ev.Tier.String(),
	})
}

// Runtime returns the runtime facade.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Scheduler returns the scheduler service.
func (s *Service) Scheduler() *scheduler.Service {
	return s.scheduler
}

// Memory returns the memory manager.
func (s *Service) Memory() *memory.Service {
	return s.memory
}

// Events returns the event service.
func (s *Service) Events() *event.Service {
	return s.events
}

// Archive returns the terminated-process archive.
func (s *Service) Archive() *archive.Service {
	return s.archive
}

// RegisterProgram registers an additional program after construction.
func (s *Service) RegisterProgram(program types.Program) {
	s.programs.Register(program)
}

// Dump writes a point-in-time snapshot and returns its id. Fails when no
// dump URL is configured.
func (s *Service) Dump(ctx context.Context) (string, error) {
	if s.dumps == nil {
		return "", fmt.Errorf("dump service not configured; set runtime.dumpURL")
	}
	snapshot := &dump.Snapshot{
		Scheduler: s.scheduler.Stats(),
		Memory:    s.memory.Stats(),
		Processes: s.scheduler.Processes(),
		Pages:     s.memory.Pages(),
	}
	return s.dumps.Write(ctx, snapshot)
}
