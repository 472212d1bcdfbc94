package blocks

import (
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
)

const (
	PrefixUnallocated = "unallocated"
	PrefixPartition   = "partition"
	PrefixISOStorage  = "iso-storage"
)

// IDGenerator hands out ids for blocks the editor creates.
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator builds ids from random uuids, e.g. unallocated-0b6f...
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(prefix string) string {
	id, err := uuid.NewV4()
	if err != nil {
		// The random source is broken, fall back to a time based uuid.
		id = uuid.Must(uuid.NewV1())
	}
	return fmt.Sprintf("%s-%s", prefix, id.String())
}

// SequenceGenerator builds predictable ids (unallocated-1, partition-2, ...).
type SequenceGenerator struct {
	mu   sync.Mutex
	next int
}

func (s *SequenceGenerator) NewID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("%s-%d", prefix, s.next)
}

func orDefault(g IDGenerator) IDGenerator {
	if g == nil {
		return UUIDGenerator{}
	}
	return g
}
