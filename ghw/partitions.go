package ghw

import (
	"path/filepath"
	"strings"

	"github.com/kairos-io/kairos-partitioner/constants"
	"github.com/kairos-io/kairos-partitioner/types"
)

type PartitionHandler interface {
	// GetPartitions returns the partitions of a disk and records their identities in ids.
	GetPartitions(r *Reader, ids types.FsIdentities) []types.BlockDeviceInfo
}

// identity collects what udev knows about a partition filesystem.
func (r *Reader) identity(partitionPath string) types.FsIdentity {
	info, err := r.udevInfoPartition(partitionPath)
	if err != nil {
		r.logger.Logger.Debug().Str("partition", partitionPath).Err(err).Msg("No udev identity")
		return types.FsIdentity{}
	}
	r.logger.Logger.Trace().Interface("info", info).Str("partition", partitionPath).Msg("Got udev info")
	return types.FsIdentity{
		Type:      info["ID_FS_TYPE"],
		Label:     info["ID_FS_LABEL"],
		UUID:      info["ID_FS_UUID"],
		PartLabel: info["ID_PART_ENTRY_NAME"],
		PartUUID:  info["ID_PART_ENTRY_UUID"],
	}
}

// partition builds the lister entry for a partition and stores its identity.
func (r *Reader) partition(name, sysPath string, ids types.FsIdentities, mountNames ...string) types.BlockDeviceInfo {
	dev := filepath.Join("/dev", name)
	id := r.identity(sysPath)
	p := types.BlockDeviceInfo{
		Name: name,
		Size: types.Int64Ptr(r.sizeBytes(sysPath)),
		Kind: constants.KindPart,
	}
	for _, m := range append([]string{dev}, mountNames...) {
		if mp, ok := r.mounts[m]; ok {
			p.MountPoint = &mp
			break
		}
	}
	if id != (types.FsIdentity{}) {
		ids[dev] = id
	}
	return p
}

func (r *Reader) udevInfoPartition(partitionPath string) (map[string]string, error) {
	// Get device major:minor numbers
	devNo, err := r.fs.ReadFile(filepath.Join(r.paths.SysBlock, partitionPath, "dev"))
	if err != nil {
		r.logger.Logger.Debug().Err(err).Str("path", filepath.Join(r.paths.SysBlock, partitionPath, "dev")).Msg("Failed to read device number")
		return nil, err
	}
	return r.UdevInfo(string(devNo))
}

// UdevInfo returns the udev database entries for a major:minor device number.
func (r *Reader) UdevInfo(devNo string) (map[string]string, error) {
	udevID := "b" + strings.TrimSpace(devNo)
	udevBytes, err := r.fs.ReadFile(filepath.Join(r.paths.RunUdevData, udevID))
	if err != nil {
		r.logger.Logger.Debug().Err(err).Str("path", filepath.Join(r.paths.RunUdevData, udevID)).Msg("Failed to read udev info for device")
		return nil, err
	}

	udevInfo := make(map[string]string)
	for _, udevLine := range strings.Split(string(udevBytes), "\n") {
		if strings.HasPrefix(udevLine, "E:") {
			if s := strings.SplitN(udevLine[2:], "=", 2); len(s) == 2 {
				udevInfo[s[0]] = s[1]
			}
		}
	}
	return udevInfo, nil
}

// readMounts maps mounted devices to their mountpoint. Failing to read the table is not fatal.
func (r *Reader) readMounts() map[string]string {
	out := map[string]string{}
	raw, err := r.fs.RawPath(r.paths.ProcMounts)
	if err != nil {
		r.logger.Logger.Debug().Err(err).Str("file", r.paths.ProcMounts).Msg("Cannot resolve mounts file")
		return out
	}
	mounts, err := listMounts(raw)
	if err != nil {
		r.logger.Logger.Debug().Err(err).Str("file", raw).Msg("Failed to read mounts")
		return out
	}
	for _, m := range mounts {
		if _, seen := out[m.device]; !seen {
			out[m.device] = m.path
		}
	}
	return out
}

type mountEntry struct {
	device string
	path   string
}
