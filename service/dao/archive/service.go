// Package archive keeps records of terminated processes so callers can
// inspect completed and faulted runs after the scheduler has released their
// table slots.
package archive

import (
	"context"

	"github.com/cogvm/cogvm/runtime/process"
	"github.com/cogvm/cogvm/service/dao"
	"github.com/cogvm/cogvm/service/dao/store"
)

// ParamFaulted filters List to faulted ("true") or clean ("false") runs.
const ParamFaulted = "faulted"

// Service archives terminated process records keyed by pid.
type Service struct {
	*store.MemoryStore[uint64, process.Process]
}

var _ dao.Service[uint64, process.Process] = (*Service)(nil)

// New creates an archive.
func New() *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore[uint64, process.Process](
			func(p *process.Process) uint64 { return p.PID },
			func(a, b uint64) bool { return a < b },
		),
	}
}

// List returns archived records in pid order, optionally filtered by the
// faulted parameter.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*process.Process, error) {
	records, err := s.MemoryStore.List(ctx)
	if err != nil {
		return nil, err
	}
	faultedOnly, cleanOnly := false, false
	for _, parameter := range parameters {
		if parameter.Name != ParamFaulted {
			continue
		}
		if value, ok := parameter.Value.(string); ok {
			faultedOnly = value == "true"
			cleanOnly = value == "false"
		}
	}
	if !faultedOnly && !cleanOnly {
		return records, nil
	}
	out := make([]*process.Process, 0, len(records))
	for _, record := range records {
		if faulted := record.Fault != ""; faulted == faultedOnly {
			out = append(out, record)
		}
	}
	return out, nil
}
