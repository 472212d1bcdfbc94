package mocks

import (
	"fmt"
	"strings"

	"github.com/twpayne/go-vfs/v4/vfst"
)

// Partition describes a fake partition. Sectors are 512 bytes, like in sysfs.
type Partition struct {
	Name       string
	Sectors    int64
	FS         string
	Label      string
	UUID       string
	PartLabel  string
	PartUUID   string
	MountPoint string
}

// Disk describes a fake disk. Multipath disks get their partitions as dm holders.
type Disk struct {
	Name       string
	Sectors    int64
	Model      string
	Vendor     string
	Bus        string
	Rotational string
	Multipath  bool
	Partitions []Partition
}

// SysfsMock builds the /sys/block, /run/udev/data and /proc/mounts files the
// reader looks at, as a tree that vfst can materialize.
// Mount lines are written with six fields, the mount table parser rejects anything else.
type SysfsMock struct {
	disks []Disk
}

// AddDisk adds a disk to the mock.
func (g *SysfsMock) AddDisk(disk Disk) {
	g.disks = append(g.disks, disk)
}

// Tree returns the files for vfst.NewTestFS.
func (g *SysfsMock) Tree() map[string]interface{} {
	tree := map[string]interface{}{
		"/sys/block":     &vfst.Dir{Perm: 0o755},
		"/run/udev/data": &vfst.Dir{Perm: 0o755},
	}
	var mounts []string
	minor := 0

	for major, disk := range g.disks {
		base := "/sys/block/" + disk.Name
		dev := fmt.Sprintf("%d:0", major+8)
		tree[base+"/dev"] = dev + "\n"
		tree[base+"/size"] = fmt.Sprintf("%d\n", disk.Sectors)
		if disk.Model != "" {
			tree[base+"/device/model"] = disk.Model + "\n"
		}
		if disk.Vendor != "" {
			tree[base+"/device/vendor"] = disk.Vendor + "\n"
		}
		if disk.Rotational != "" {
			tree[base+"/queue/rotational"] = disk.Rotational + "\n"
		}

		udev := []string{"E:ID_PART_TABLE_TYPE=gpt"}
		if disk.Bus != "" {
			udev = append(udev, "E:ID_BUS="+disk.Bus)
		}
		if disk.Multipath {
			udev = append(udev, "E:DM_NAME=mpath"+disk.Name)
			tree[base+"/slaves"] = &vfst.Dir{Perm: 0o755}
			tree[base+"/holders"] = &vfst.Dir{Perm: 0o755}
		}
		tree["/run/udev/data/b"+dev] = strings.Join(udev, "\n") + "\n"

		for i, p := range disk.Partitions {
			minor++
			pdev := fmt.Sprintf("%d:%d", major+8, minor)
			pbase := base + "/" + p.Name
			pudev := partitionUdev(p)
			mountDev := "/dev/" + p.Name
			if disk.Multipath {
				mapper := fmt.Sprintf("mpath%sp%d", disk.Name, i+1)
				pbase = "/sys/block/" + p.Name
				tree[pbase+"/slaves/"+disk.Name] = ""
				tree[base+"/holders/"+p.Name] = ""
				pudev = append(pudev, "E:DM_NAME="+mapper, fmt.Sprintf("E:DM_PART=%d", i+1))
				mountDev = "/dev/mapper/" + mapper
			}
			tree[pbase+"/dev"] = pdev + "\n"
			tree[pbase+"/size"] = fmt.Sprintf("%d\n", p.Sectors)
			tree["/run/udev/data/b"+pdev] = strings.Join(pudev, "\n") + "\n"

			if p.MountPoint != "" {
				fs := p.FS
				if fs == "" {
					fs = "ext4"
				}
				mounts = append(mounts, fmt.Sprintf("%s %s %s ro,relatime 0 0", mountDev, p.MountPoint, fs))
			}
		}
	}
	tree["/proc/mounts"] = strings.Join(mounts, "\n") + "\n"
	return tree
}

func partitionUdev(p Partition) []string {
	var out []string
	add := func(k, v string) {
		if v != "" {
			out = append(out, fmt.Sprintf("E:%s=%s", k, v))
		}
	}
	add("ID_FS_TYPE", p.FS)
	add("ID_FS_LABEL", p.Label)
	add("ID_FS_UUID", p.UUID)
	add("ID_PART_ENTRY_NAME", p.PartLabel)
	add("ID_PART_ENTRY_UUID", p.PartUUID)
	return out
}
