package ghw

import (
	"path/filepath"

	"github.com/kairos-io/kairos-partitioner/types"
)

type MultipathPartitionHandler struct {
	DiskName string
}

func NewMultipathPartitionHandler(diskName string) *MultipathPartitionHandler {
	return &MultipathPartitionHandler{DiskName: diskName}
}

var _ PartitionHandler = &MultipathPartitionHandler{}

// GetPartitions finds the partitions of a multipath disk, they are the dm holders
// of the parent device in /sys/block/<disk>/holders.
func (m *MultipathPartitionHandler) GetPartitions(r *Reader, ids types.FsIdentities) []types.BlockDeviceInfo {
	out := make([]types.BlockDeviceInfo, 0)

	holdersPath := filepath.Join(r.paths.SysBlock, m.DiskName, "holders")
	r.logger.Logger.Debug().Str("path", holdersPath).Msg("Reading multipath holders")
	holders, err := r.fs.ReadDir(holdersPath)
	if err != nil {
		r.logger.Logger.Error().Err(err).Msg("Failed to read holders directory")
		return out
	}

	for _, holder := range holders {
		partName := holder.Name()
		if !r.isMultipathPartition(holder) {
			r.logger.Logger.Debug().Str("partition", partName).Msg("Holder is not a multipath partition")
			continue
		}

		udevInfo, err := r.udevInfoPartition(partName)
		if err != nil {
			r.logger.Logger.Error().Err(err).Str("devNo", partName).Msg("Failed to get udev info")
			return out
		}
		mapperName, ok := udevInfo["DM_NAME"]
		if !ok {
			r.logger.Logger.Error().Str("devNo", partName).Msg("DM_NAME not found in udev info")
			continue
		}

		r.logger.Logger.Debug().Str("partition", partName).Msg("Found multipath partition")
		// Multipath partitions are top level entries in /sys/block and may be
		// mounted through their mapper name.
		out = append(out, r.partition(partName, partName, ids, filepath.Join("/dev/mapper", mapperName)))
	}
	return out
}
