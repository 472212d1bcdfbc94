// Package topology converts raw block device trees into the canonical Disk model.
package topology

import (
	"strings"

	"github.com/kairos-io/kairos-partitioner/constants"
	"github.com/kairos-io/kairos-partitioner/types"
	"github.com/kairos-io/kairos-partitioner/units"
)

var ssdModelKeywords = []string{"ssd", "solid", "flash"}

// Transform builds the Disk list from the lister devices and the identifier data.
// Only top level entries of kind disk are kept, their part children become partitions.
func Transform(raw []types.BlockDeviceInfo, ids types.FsIdentities, logger *types.Logger) []types.Disk {
	logger = types.OrNull(logger)
	disks := make([]types.Disk, 0, len(raw))
	for _, d := range raw {
		if d.Kind != constants.KindDisk {
			logger.Logger.Trace().Str("device", d.Name).Str("kind", d.Kind).Msg("Skipping non disk device")
			continue
		}
		disks = append(disks, transformDisk(d, ids, logger))
	}
	return disks
}

func transformDisk(d types.BlockDeviceInfo, ids types.FsIdentities, logger *types.Logger) types.Disk {
	size := d.SizeOrZero()
	disk := types.Disk{
		ID:         strings.TrimPrefix(d.Name, "/dev/"),
		Path:       devicePath(d.Name),
		Model:      orNotAvailable(d.Model),
		Vendor:     orNotAvailable(d.Vendor),
		Transport:  orNotAvailable(d.Transport),
		Class:      InferClass(d),
		SizeBytes:  size,
		Size:       units.FormatBytes(size),
		Partitions: types.PartitionList{},
	}
	for _, c := range d.Children {
		if c.Kind != constants.KindPart {
			continue
		}
		disk.Partitions = append(disk.Partitions, transformPartition(c, ids, logger))
	}
	logger.Logger.Debug().Str("disk", disk.ID).Str("class", string(disk.Class)).Int("partitions", len(disk.Partitions)).Msg("Transformed disk")
	return disk
}

func transformPartition(p types.BlockDeviceInfo, ids types.FsIdentities, logger *types.Logger) *types.Partition {
	path := devicePath(p.Name)
	id, found := ids[path]
	if !found {
		logger.Logger.Debug().Str("partition", path).Msg("No filesystem identity for partition")
	}
	size := p.SizeOrZero()
	part := &types.Partition{
		ID:        strings.TrimPrefix(p.Name, "/dev/"),
		Path:      path,
		Kind:      p.Kind,
		FS:        id.Type,
		Label:     firstNonEmpty(id.Label, id.PartLabel, p.TableLabel),
		UUID:      firstNonEmpty(id.UUID, id.PartUUID),
		SizeBytes: size,
		Size:      units.FormatBytes(size),
	}
	if p.MountPoint != nil {
		part.MountPoint = *p.MountPoint
	}
	return part
}

// InferClass works out the disk class. NVMe transport or naming wins, then the
// rotation flag, then keywords in the model. Anything else is Unknown.
func InferClass(d types.BlockDeviceInfo) types.DeviceClass {
	if strings.EqualFold(d.Transport, constants.TransportNVMe) || strings.HasPrefix(d.Name, "nvme") {
		return types.ClassNVMe
	}
	if d.Rotational != nil {
		if *d.Rotational {
			return types.ClassHDD
		}
		return types.ClassSSD
	}
	model := strings.ToLower(d.Model)
	for _, k := range ssdModelKeywords {
		if strings.Contains(model, k) {
			return types.ClassSSD
		}
	}
	return types.ClassUnknown
}

func devicePath(name string) string {
	if strings.HasPrefix(name, "/dev/") {
		return name
	}
	return "/dev/" + name
}

func orNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return constants.NotAvailable
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
