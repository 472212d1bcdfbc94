package scan

import (
	"context"

	"github.com/twpayne/go-vfs/v4"

	"github.com/kairos-io/kairos-partitioner/ghw"
)

// SysfsSource reads /sys/block and the udev database directly.
type SysfsSource struct {
	reader *ghw.Reader
}

// NewSysfsSource reads from fsys, under root when it is not empty.
func NewSysfsSource(fsys vfs.FS, root string, opts ...Option) *SysfsSource {
	cfg := newConfig(opts...)
	return &SysfsSource{reader: ghw.NewReader(fsys, ghw.NewPaths(root), cfg.logger)}
}

func (s *SysfsSource) Scan(_ context.Context) (Result, error) {
	devices, ids := s.reader.Devices()
	return Result{Devices: devices, Identities: ids}, nil
}
