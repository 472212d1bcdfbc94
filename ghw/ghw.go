// Package ghw reads block devices straight from sysfs and the udev database,
// without calling any external tool.
package ghw

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/twpayne/go-vfs/v4"

	"github.com/kairos-io/kairos-partitioner/constants"
	"github.com/kairos-io/kairos-partitioner/types"
)

const (
	sectorSize = 512
	UNKNOWN    = "unknown"
)

type Paths struct {
	SysBlock    string
	RunUdevData string
	ProcMounts  string
}

func NewPaths(withOptionalPrefix string) *Paths {
	p := &Paths{
		SysBlock:    "/sys/block/",
		RunUdevData: "/run/udev/data",
		ProcMounts:  "/proc/mounts",
	}

	// Allow overriding the paths via env var. It has precedence over anything
	val, exists := os.LookupEnv("GHW_CHROOT")
	if exists {
		withOptionalPrefix = val
	}

	if withOptionalPrefix != "" {
		withOptionalPrefix = strings.TrimSuffix(withOptionalPrefix, "/")
		p.SysBlock = fmt.Sprintf("%s%s", withOptionalPrefix, p.SysBlock)
		p.RunUdevData = fmt.Sprintf("%s%s", withOptionalPrefix, p.RunUdevData)
		p.ProcMounts = fmt.Sprintf("%s%s", withOptionalPrefix, p.ProcMounts)
	}
	return p
}

// Reader walks /sys/block over a vfs so tests can hand it a fake tree.
type Reader struct {
	fs     vfs.FS
	paths  *Paths
	logger *types.Logger
	mounts map[string]string
}

// NewReader returns a Reader. A nil fs means the real filesystem, nil paths the default locations.
func NewReader(fsys vfs.FS, paths *Paths, logger *types.Logger) *Reader {
	if fsys == nil {
		fsys = vfs.OSFS
	}
	if paths == nil {
		paths = NewPaths("")
	}
	if logger == nil {
		l := types.NewLogger("ghw", "info", false)
		logger = &l
	}
	return &Reader{fs: fsys, paths: paths, logger: logger}
}

// Devices returns every disk with its partitions plus the filesystem identities
// found in the udev database, keyed by /dev path.
func (r *Reader) Devices() ([]types.BlockDeviceInfo, types.FsIdentities) {
	ids := types.FsIdentities{}
	disks := make([]types.BlockDeviceInfo, 0)
	r.mounts = r.readMounts()

	r.logger.Logger.Debug().Str("path", r.paths.SysBlock).Msg("Scanning for disks")
	files, err := r.fs.ReadDir(r.paths.SysBlock)
	if err != nil {
		r.logger.Logger.Error().Err(err).Str("path", r.paths.SysBlock).Msg("Failed to read block devices")
		return disks, ids
	}
	for _, file := range files {
		var partitionHandler PartitionHandler
		dname := file.Name()
		r.logger.Logger.Debug().Str("file", dname).Msg("Reading file")
		size := r.sizeBytes(dname)

		// Multipath partitions show up next to their disk, they are picked up from the holders.
		if r.isMultipathPartition(file) {
			r.logger.Logger.Debug().Str("file", dname).Msg("Skipping multipath partition")
			continue
		}
		if strings.HasPrefix(dname, "loop") && size == 0 {
			// We don't care about unused loop devices...
			continue
		}

		d := types.BlockDeviceInfo{
			Name:       dname,
			Size:       types.Int64Ptr(size),
			Kind:       constants.KindDisk,
			Model:      r.readAttr(dname, "device", "model"),
			Vendor:     r.readAttr(dname, "device", "vendor"),
			Transport:  r.transport(dname),
			Rotational: r.rotational(dname),
		}

		if r.isMultipathDevice(file) {
			partitionHandler = NewMultipathPartitionHandler(dname)
		} else {
			partitionHandler = NewDiskPartitionHandler(dname)
		}
		d.Children = partitionHandler.GetPartitions(r, ids)
		disks = append(disks, d)
	}
	return disks, ids
}

func (r *Reader) isMultipathDevice(entry fs.DirEntry) bool {
	if !strings.HasPrefix(entry.Name(), "dm-") {
		return false
	}

	_, err := r.fs.Stat(filepath.Join(r.paths.SysBlock, entry.Name(), "slaves"))
	if err != nil {
		msg := "Error checking slaves directory"
		if os.IsNotExist(err) {
			msg = "No slaves directory, not a multipath device"
		}
		r.logger.Logger.Debug().Str("devNo", entry.Name()).Msg(msg)
		return false
	}

	// The slaves dir alone is also there for crypt or lvm, udev knows for sure.
	udevInfo, err := r.udevInfoPartition(entry.Name())
	if err != nil {
		r.logger.Logger.Error().Err(err).Str("devNo", entry.Name()).Msg("Failed to get udev info")
		return false
	}
	_, ok := udevInfo["DM_NAME"]
	if !ok {
		r.logger.Logger.Debug().Str("devNo", entry.Name()).Msg("Not a multipath device")
	}
	return ok
}

func (r *Reader) isMultipathPartition(entry fs.DirEntry) bool {
	if !r.isMultipathDevice(entry) {
		return false
	}
	udevInfo, err := r.udevInfoPartition(entry.Name())
	if err != nil {
		r.logger.Logger.Error().Err(err).Str("devNo", entry.Name()).Msg("Failed to get udev info")
		return false
	}
	_, ok := udevInfo["DM_PART"]
	return ok
}

// sizeBytes reads /sys/block/<path>/size, which is always in 512 byte sectors.
func (r *Reader) sizeBytes(path string) int64 {
	file := filepath.Join(r.paths.SysBlock, path, "size")
	r.logger.Logger.Trace().Str("file", file).Msg("Reading size file")
	contents, err := r.fs.ReadFile(file)
	if err != nil {
		r.logger.Logger.Error().Str("file", file).Err(err).Msg("Failed to read size")
		return 0
	}
	size, err := strconv.ParseInt(strings.TrimSpace(string(contents)), 10, 64)
	if err != nil || size < 0 {
		r.logger.Logger.Error().Str("file", file).Str("content", string(contents)).Err(err).Msg("Failed to parse size")
		return 0
	}
	r.logger.Logger.Trace().Str("device", path).Int64("size", size*sectorSize).Msg("Got size")
	return size * sectorSize
}

func (r *Reader) readAttr(parts ...string) string {
	file := filepath.Join(append([]string{r.paths.SysBlock}, parts...)...)
	contents, err := r.fs.ReadFile(file)
	if err != nil {
		r.logger.Logger.Trace().Str("file", file).Err(err).Msg("Attribute not available")
		return ""
	}
	return strings.TrimSpace(string(contents))
}

func (r *Reader) rotational(disk string) *bool {
	switch r.readAttr(disk, "queue", "rotational") {
	case "1":
		return types.BoolPtr(true)
	case "0":
		return types.BoolPtr(false)
	}
	return nil
}

func (r *Reader) transport(disk string) string {
	if strings.HasPrefix(disk, "nvme") {
		return constants.TransportNVMe
	}
	info, err := r.udevInfoPartition(disk)
	if err != nil {
		return ""
	}
	return info["ID_BUS"]
}
