package cogvm

import (
	"context"
	"os"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cogvm/cogvm/policy"
	"github.com/cogvm/cogvm/runtime/process"
	"github.com/cogvm/cogvm/service/event"
	"github.com/cogvm/cogvm/service/scheduler"
)

func newTestService(t *testing.T, options ...Option) *Service {
	t.Helper()
	service, err := New(options...)
	if !assert.Nil(t, err) {
		t.FailNow()
	}
	t.Cleanup(service.Runtime().Shutdown)
	return service
}

// tickUntilTerminated drives the runtime manually until pid leaves the
// scheduler or maxTicks is exhausted.
func tickUntilTerminated(t *testing.T, runtime *Runtime, pid uint64, maxTicks int) *process.Process {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < maxTicks; i++ {
		assert.Nil(t, runtime.Tick(ctx))
		proc, err := runtime.Process(ctx, pid)
		if !assert.Nil(t, err) {
			t.FailNow()
		}
		if proc.Terminated() {
			return proc
		}
	}
	t.Fatalf("process %v did not terminate within %v ticks", pid, maxTicks)
	return nil
}

func TestService_CounterEndToEnd(t *testing.T) {
	service := newTestService(t)
	runtime := service.Runtime()
	ctx := context.Background()

	pid, err := runtime.Submit(ctx, "count to seven",
		process.WithProgram("counter"),
		process.WithInput(map[string]interface{}{"start": 5, "limit": 2}))
	assert.Nil(t, err)

	proc := tickUntilTerminated(t, runtime, pid, 10)
	assert.Equal(t, process.StateTerminated, proc.State)
	assert.Equal(t, "", proc.Fault)
	assert.Equal(t, 7, proc.Data["value"])
	assert.NotNil(t, proc.TerminatedAt)

	// Terminated records come from the archive, not the live table.
	_, ok := service.Scheduler().Process(pid)
	assert.False(t, ok)
	archived, err := service.Archive().Load(ctx, pid)
	assert.Nil(t, err)
	assert.Equal(t, pid, archived.PID)
}

func TestService_RehearseTouchesMemory(t *testing.T) {
	service := newTestService(t)
	runtime := service.Runtime()
	ctx := context.Background()

	pid, err := runtime.Submit(ctx, "rehearsal",
		process.WithProgram("rehearse"),
		process.WithInput(map[string]interface{}{"payload": "echoes", "ticks": 3}))
	assert.Nil(t, err)

	proc := tickUntilTerminated(t, runtime, pid, 20)
	assert.Equal(t, "", proc.Fault)

	stats := service.Memory().Stats()
	assert.True(t, stats.Hits >= 3, "rehearse re-reads should register as hits, got %v", stats.Hits)
	assert.Equal(t, 0, stats.TotalPages, "rehearse frees its page on completion")
}

func TestService_TerminationEvent(t *testing.T) {
	service := newTestService(t)
	runtime := service.Runtime()
	ctx := context.Background()

	received := make(chan event.Event, 16)
	service.Events().Subscribe(func(ev *event.Event) {
		received <- *ev
	})

	pid, err := runtime.Submit(ctx, "observed", process.WithProgram("counter"),
		process.WithInput(map[string]interface{}{"limit": 1}))
	assert.Nil(t, err)
	tickUntilTerminated(t, runtime, pid, 10)

	select {
	case ev := <-received:
		assert.Equal(t, event.ProcessTerminated, ev.Kind)
		assert.Equal(t, pid, ev.PID)
		assert.NotEmpty(t, ev.ID)
	case <-time.After(time.Second):
		t.Fatal("no termination event received")
	}
}

func TestService_PolicyDeniesSubmission(t *testing.T) {
	service := newTestService(t)
	ctx := policy.WithPolicy(context.Background(), &policy.Policy{Mode: policy.ModeDeny})

	_, err := service.Runtime().Submit(ctx, "refused", process.WithProgram("counter"))
	assert.ErrorIs(t, err, scheduler.ErrAdmissionDenied)
	assert.Equal(t, 0, service.Scheduler().Stats().Total)
}

func TestService_StartDrivesTicks(t *testing.T) {
	service := newTestService(t)
	runtime := service.Runtime()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- runtime.Start(ctx)
	}()

	pid, err := runtime.Submit(ctx, "background", process.WithProgram("counter"),
		process.WithInput(map[string]interface{}{"limit": 3}))
	assert.Nil(t, err)

	proc, err := runtime.WaitForProcess(ctx, pid, 5*time.Second)
	assert.Nil(t, err)
	assert.Equal(t, process.StateTerminated, proc.State)

	runtime.Shutdown()
	select {
	case err := <-done:
		assert.Nil(t, err)
	case <-time.After(time.Second):
		t.Fatal("tick loop did not stop after Shutdown")
	}
}

func TestService_Dump(t *testing.T) {
	baseURL := t.TempDir()
	config := DefaultConfig()
	config.Runtime.DumpURL = baseURL
	service := newTestService(t, WithConfig(config))
	runtime := service.Runtime()
	ctx := context.Background()

	pid, err := runtime.Submit(ctx, "snapshotted", process.WithProgram("counter"),
		process.WithInput(map[string]interface{}{"limit": 1}))
	assert.Nil(t, err)
	tickUntilTerminated(t, runtime, pid, 10)

	id, err := service.Dump(ctx)
	assert.Nil(t, err)
	assert.NotEmpty(t, id)

	data, err := os.ReadFile(path.Join(baseURL, id+".json"))
	assert.Nil(t, err)
	assert.True(t, strings.Contains(string(data), `"scheduler"`))
}

func TestService_DumpNotConfigured(t *testing.T) {
	service := newTestService(t)
	_, err := service.Dump(context.Background())
	assert.NotNil(t, err)
}

func TestService_ProgressCounters(t *testing.T) {
	service := newTestService(t)
	runtime := service.Runtime()
	ctx := context.Background()

	pid, err := runtime.Submit(ctx, "tracked", process.WithProgram("counter"),
		process.WithInput(map[string]interface{}{"limit": 2}))
	assert.Nil(t, err)
	tickUntilTerminated(t, runtime, pid, 10)

	snapshot := runtime.Progress().Snapshot()
	assert.True(t, snapshot.Ticks >= 2)
	assert.Equal(t, 1, snapshot.Completed)
}

func TestNew_InvalidPolicyName(t *testing.T) {
	config := DefaultConfig()
	config.Policy = "strictest"
	_, err := New(WithConfig(config))
	assert.NotNil(t, err)
}
