package scan

import (
	"context"
	"fmt"
	"path/filepath"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/partition"
	"github.com/diskfs/go-diskfs/partition/gpt"
	"github.com/diskfs/go-diskfs/partition/mbr"
	"github.com/hashicorp/go-multierror"

	"github.com/kairos-io/kairos-partitioner/constants"
	"github.com/kairos-io/kairos-partitioner/report"
	"github.com/kairos-io/kairos-partitioner/types"
)

const imageModel = "Disk image"

// ImageSource reads partition tables straight from raw disk image files.
type ImageSource struct {
	cfg   config
	paths []string
}

func NewImageSource(paths []string, opts ...Option) *ImageSource {
	return &ImageSource{cfg: newConfig(opts...), paths: paths}
}

// Scan opens every image read only. Images without a table show up as empty disks,
// images that cannot be opened as empty disks of size 0 plus an error.
func (s *ImageSource) Scan(_ context.Context) (Result, error) {
	var result *multierror.Error
	res := Result{Identities: types.FsIdentities{}}
	for _, path := range s.paths {
		info, ids, err := s.readImage(path)
		if err != nil {
			s.cfg.logger.Logger.Warn().Err(err).Str("image", path).Msg("Could not read image, using an empty disk")
			result = multierror.Append(result, err)
			empty, _ := TableDevices(filepath.Base(path), 0, nil)
			res.Devices = append(res.Devices, empty)
			continue
		}
		for k, v := range ids {
			res.Identities[k] = v
		}
		res.Devices = append(res.Devices, info)
	}
	return res, result.ErrorOrNil()
}

func (s *ImageSource) readImage(path string) (types.BlockDeviceInfo, types.FsIdentities, error) {
	log := s.cfg.logger
	disk, err := diskfs.Open(path, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		return types.BlockDeviceInfo{}, nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer disk.Close()

	name := filepath.Base(path)
	table, err := disk.GetPartitionTable()
	if err != nil {
		log.Logger.Info().Str("image", path).Err(err).Msg("Image has no partition table, treating it as new")
		info, ids := TableDevices(name, disk.Size, nil)
		return info, ids, nil
	}
	info, ids := TableDevices(name, disk.Size, table)
	log.Logger.Debug().Str("image", path).Int("partitions", len(info.Children)).Msg("Read image partition table")
	return info, ids, nil
}

// TableDevices converts a partition table into the lister shape. A nil table gives an empty disk.
func TableDevices(name string, size int64, table partition.Table) (types.BlockDeviceInfo, types.FsIdentities) {
	info := types.BlockDeviceInfo{
		Name:     name,
		Size:     types.Int64Ptr(size),
		Kind:     constants.KindDisk,
		Model:    imageModel,
		Children: []types.BlockDeviceInfo{},
	}
	ids := types.FsIdentities{}

	switch t := table.(type) {
	case *gpt.Table:
		sector := sectorSize(t.LogicalSectorSize)
		for i, p := range t.Partitions {
			if p == nil || p.Type == gpt.Unused {
				continue
			}
			bytes := int64(p.Size)
			if bytes == 0 && p.End >= p.Start {
				bytes = int64(p.End-p.Start+1) * sector
			}
			child := partitionInfo(name, i+1, bytes)
			child.TableLabel = p.Name
			child.TableFS = gptFilesystem(p.Type)
			info.Children = append(info.Children, child)
			ids["/dev/"+child.Name] = types.FsIdentity{PartLabel: p.Name, PartUUID: p.GUID}
		}
	case *mbr.Table:
		sector := sectorSize(t.LogicalSectorSize)
		for i, p := range t.Partitions {
			if p == nil || p.Type == mbr.Empty {
				continue
			}
			child := partitionInfo(name, i+1, int64(p.Size)*sector)
			child.TableFS = mbrFilesystem(p.Type)
			info.Children = append(info.Children, child)
		}
	}
	return info, ids
}

func partitionInfo(disk string, number int, size int64) types.BlockDeviceInfo {
	return types.BlockDeviceInfo{
		Name: report.PartitionDeviceName(disk, number),
		Size: types.Int64Ptr(size),
		Kind: constants.KindPart,
	}
}

func sectorSize(n int) int64 {
	if n <= 0 {
		return 512
	}
	return int64(n)
}

func gptFilesystem(t gpt.Type) string {
	switch t {
	case gpt.EFISystemPartition:
		return constants.FsFAT32
	case gpt.LinuxSwap:
		return "linux-swap(v1)"
	}
	return ""
}

func mbrFilesystem(t mbr.Type) string {
	switch t {
	case mbr.Fat32LBA, mbr.Fat32CHS:
		return constants.FsFAT32
	case mbr.NTFS:
		return constants.FsNTFS
	case mbr.LinuxSwap:
		return "linux-swap(v1)"
	}
	return ""
}
