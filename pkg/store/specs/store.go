package specs

import (
	"context"
	"strings"
)

// Spec holds the hardware characteristics looked up per instance class.
type Spec struct {
	MemoryGB float64
}

// Store resolves instance classes like "db.t3.micro" or "m5.xlarge" to
// their specs. Used to turn free-memory metrics into percentages when
// the provider does not report total memory.
type Store interface {
	GetInstanceSpec(ctx context.Context, instanceClass string) Spec
}

type specStore struct{}

func NewStore() Store {
	return &specStore{}
}

var memoryBySize = map[string]float64{
	"micro":   1,
	"small":   2,
	"medium":  4,
	"large":   8,
	"xlarge":  16,
	"2xlarge": 32,
	"4xlarge": 64,
}

const defaultMemoryGB = 8

func (s *specStore) GetInstanceSpec(_ context.Context, instanceClass string) Spec {
	size := instanceClass
	if idx := strings.LastIndex(instanceClass, "."); idx >= 0 {
		size = instanceClass[idx+1:]
	}
	if mem, ok := memoryBySize[size]; ok {
		return Spec{MemoryGB: mem}
	}
	return Spec{MemoryGB: defaultMemoryGB}
}
