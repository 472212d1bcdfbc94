package ghw

import (
	"path/filepath"
	"strings"

	"github.com/kairos-io/kairos-partitioner/types"
)

type DiskPartitionHandler struct {
	DiskName string
}

// Validate that DiskPartitionHandler implements PartitionHandler interface.
var _ PartitionHandler = &DiskPartitionHandler{}

func NewDiskPartitionHandler(diskName string) *DiskPartitionHandler {
	return &DiskPartitionHandler{DiskName: diskName}
}

// GetPartitions lists /sys/block/<disk>/<disk>N entries.
func (d *DiskPartitionHandler) GetPartitions(r *Reader, ids types.FsIdentities) []types.BlockDeviceInfo {
	out := make([]types.BlockDeviceInfo, 0)
	path := filepath.Join(r.paths.SysBlock, d.DiskName)
	r.logger.Logger.Debug().Str("file", path).Msg("Reading disk file")
	files, err := r.fs.ReadDir(path)
	if err != nil {
		r.logger.Logger.Error().Err(err).Msg("Failed to read disk partitions")
		return out
	}
	for _, file := range files {
		fname := file.Name()
		if !strings.HasPrefix(fname, d.DiskName) {
			continue
		}
		r.logger.Logger.Debug().Str("file", fname).Msg("Reading partition file")
		out = append(out, r.partition(fname, filepath.Join(d.DiskName, fname), ids))
	}
	return out
}
