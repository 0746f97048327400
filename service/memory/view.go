package memory

import (
	"github.com/cogvm/cogvm/model"
	"github.com/cogvm/cogvm/model/types"
)

// programView adapts the service to the narrow types.Memory interface handed
// to running programs: tiers by name, no metadata options.
type programView struct {
	service *Service
}

// ProgramView returns the memory view exposed to program steps.
func (s *Service) ProgramView() types.Memory {
	return &programView{service: s}
}

func (v *programView) Allocate(tier string, data []byte) (uint64, error) {
	t, err := model.ParseTier(tier)
	if err != nil {
		return 0, err
	}
	return v.service.Allocate(t, data)
}

func (v *programView) Read(addr uint64) ([]byte, error) {
	return v.service.Read(addr)
}

func (v *programView) Write(addr uint64, data []byte) error {
	return v.service.Write(addr, data)
}

func (v *programView) Free(addr uint64) bool {
	return v.service.Free(addr)
}

func (v *programView) EnableCopyOnWrite(addr uint64) error {
	return v.service.EnableCopyOnWrite(addr)
}

var _ types.Memory = (*programView)(nil)
